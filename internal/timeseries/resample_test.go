package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/perform/pkg/formulas"
)

func TestResampleDailyToMonthly(t *testing.T) {
	// 2020-01-01 .. 2020-03-31, constant 0.01 daily return
	values := make([]float64, 91)
	for i := range values {
		values[i] = 0.01
	}
	s, err := New("rets", dailyPoints(t, "2020-01-01", values))
	require.NoError(t, err)

	monthly, err := Resample(s, Monthly, formulas.CompoundArithmetic)
	require.NoError(t, err)

	assert.Equal(t, Monthly, monthly.Freq())
	assert.Equal(t, 3, monthly.Len())

	points := monthly.Points()
	assert.Equal(t, date(t, "2020-01-31"), points[0].Time, "buckets are labeled with the period end")
	assert.Equal(t, date(t, "2020-02-29"), points[1].Time)
	assert.Equal(t, date(t, "2020-03-31"), points[2].Time)

	assert.InDelta(t, 0.31, points[0].Value, 1e-9) // 31 days of 1%
	assert.InDelta(t, 0.29, points[1].Value, 1e-9) // leap February
	assert.InDelta(t, 0.31, points[2].Value, 1e-9)
}

func TestResampleWeekBucketsEndOnSunday(t *testing.T) {
	// Wednesday 2020-01-01 through Tuesday 2020-01-14
	values := make([]float64, 14)
	for i := range values {
		values[i] = 0.01
	}
	s, err := New("rets", dailyPoints(t, "2020-01-01", values))
	require.NoError(t, err)

	weekly, err := Resample(s, Weekly, formulas.CompoundArithmetic)
	require.NoError(t, err)

	points := weekly.Points()
	require.Equal(t, 3, weekly.Len())
	assert.Equal(t, date(t, "2020-01-05"), points[0].Time) // Wed-Sun: 5 days
	assert.Equal(t, date(t, "2020-01-12"), points[1].Time) // full week
	assert.Equal(t, date(t, "2020-01-19"), points[2].Time) // Mon-Tue stub
	assert.InDelta(t, 0.05, points[0].Value, 1e-9)
	assert.InDelta(t, 0.07, points[1].Value, 1e-9)
	assert.InDelta(t, 0.02, points[2].Value, 1e-9)
}

func TestResampleGeometricQuarter(t *testing.T) {
	points := make([]Point, 6)
	for i, v := range []float64{0.05, -0.02, 0.03, 0.01, 0.02, -0.01} {
		points[i] = Point{Time: monthEnd(2020, i+1), Value: v}
	}
	s, err := New("rets", points)
	require.NoError(t, err)

	quarterly, err := Resample(s, Quarterly, formulas.CompoundGeometric)
	require.NoError(t, err)

	require.Equal(t, 2, quarterly.Len())
	got := quarterly.Points()
	assert.Equal(t, date(t, "2020-03-31"), got[0].Time)
	assert.Equal(t, date(t, "2020-06-30"), got[1].Time)
	assert.InDelta(t, 1.05*0.98*1.03-1, got[0].Value, 1e-12)
	assert.InDelta(t, 1.01*1.02*0.99-1, got[1].Value, 1e-12)
}

func TestResampleRefusesFinerTarget(t *testing.T) {
	points := make([]Point, 12)
	for i := range points {
		points[i] = Point{Time: monthEnd(2020, i+1), Value: 0.01}
	}
	s, err := New("rets", points)
	require.NoError(t, err)

	_, err = Resample(s, Daily, formulas.CompoundGeometric)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot convert to higher frequency")
	assert.Contains(t, err.Error(), "target=B")
	assert.Contains(t, err.Error(), "current=M")
}

func TestResampleDayTargetIsBusinessDay(t *testing.T) {
	values := make([]float64, 40)
	s, err := New("rets", businessPoints(t, "2020-01-06", values))
	require.NoError(t, err)

	resampled, err := Resample(s, Daily, formulas.CompoundGeometric)
	require.NoError(t, err)
	assert.Equal(t, BusinessDay, resampled.Freq())
	assert.Equal(t, s.Len(), resampled.Len(), "a no-op resample keeps every observation")
}

func monthEnd(year, month int) (t time.Time) {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
}

func businessPoints(t *testing.T, start string, values []float64) []Point {
	t.Helper()
	index := businessIndex(t, start, len(values))
	points := make([]Point, len(values))
	for i := range values {
		points[i] = Point{Time: index[i], Value: values[i]}
	}
	return points
}
