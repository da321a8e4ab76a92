package timeseries

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyPoints(t *testing.T, start string, values []float64) []Point {
	t.Helper()
	index := dateIndex(t, start, len(values), 0, 1)
	points := make([]Point, len(values))
	for i := range values {
		points[i] = Point{Time: index[i], Value: values[i]}
	}
	return points
}

func TestNewValidation(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		_, err := New("rets", nil)
		require.Error(t, err)
	})

	t.Run("out of order index", func(t *testing.T) {
		points := dailyPoints(t, "2020-01-01", []float64{0.01, 0.02, 0.03})
		points[1], points[2] = points[2], points[1]

		_, err := New("rets", points)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "strictly increasing")
	})

	t.Run("duplicate timestamp", func(t *testing.T) {
		points := dailyPoints(t, "2020-01-01", []float64{0.01, 0.02, 0.03})
		points[2].Time = points[1].Time

		_, err := New("rets", points)
		require.Error(t, err)
	})

	t.Run("valid daily series", func(t *testing.T) {
		points := dailyPoints(t, "2020-01-01", make([]float64, 20))

		s, err := New("rets", points)
		require.NoError(t, err)
		assert.Equal(t, "rets", s.Name())
		assert.Equal(t, Daily, s.Freq())
		assert.Equal(t, date(t, "2020-01-01"), s.Start())
		assert.Equal(t, date(t, "2020-01-20"), s.End())
		assert.Equal(t, 20, s.Len())
	})
}

func TestSetDateRange(t *testing.T) {
	points := dailyPoints(t, "2020-01-01", make([]float64, 31))

	t.Run("both bounds", func(t *testing.T) {
		s, err := New("rets", points)
		require.NoError(t, err)

		start := date(t, "2020-01-10")
		end := date(t, "2020-01-20")
		require.NoError(t, s.SetDateRange(&start, &end))

		assert.Equal(t, start, s.Start())
		assert.Equal(t, end, s.End())
		assert.Equal(t, 11, s.Len())
		assert.Equal(t, Daily, s.Freq(), "frequency must survive a trim")
	})

	t.Run("bounds between observations clip inward", func(t *testing.T) {
		s, err := New("rets", dailyPoints(t, "2020-01-02", make([]float64, 20)))
		require.NoError(t, err)

		start := date(t, "2020-01-01")
		require.NoError(t, s.SetDateRange(&start, nil))
		assert.Equal(t, date(t, "2020-01-02"), s.Start())
	})

	t.Run("open ended", func(t *testing.T) {
		s, err := New("rets", points)
		require.NoError(t, err)

		end := date(t, "2020-01-05")
		require.NoError(t, s.SetDateRange(nil, &end))
		assert.Equal(t, date(t, "2020-01-01"), s.Start())
		assert.Equal(t, end, s.End())
	})

	t.Run("window outside the series", func(t *testing.T) {
		s, err := New("rets", points)
		require.NoError(t, err)

		start := date(t, "2021-01-01")
		err = s.SetDateRange(&start, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no data in date range")
	})
}

func TestCloneIsIndependent(t *testing.T) {
	s, err := New("rets", dailyPoints(t, "2020-01-01", make([]float64, 31)))
	require.NoError(t, err)

	clone := s.Clone()
	start := date(t, "2020-01-15")
	require.NoError(t, clone.SetDateRange(&start, nil))

	assert.Equal(t, date(t, "2020-01-01"), s.Start(), "clipping a clone must not touch the original")
	assert.Equal(t, 31, s.Len())
	assert.Equal(t, start, clone.Start())
}

func TestReadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "returns.csv")

	var csv strings.Builder
	csv.WriteString("date,SPX\n")
	for i, ts := range dateIndex(t, "2020-01-01", 20, 0, 1) {
		fmt.Fprintf(&csv, "%s,%.3f\n", ts.Format("2006-01-02"), float64(i)*0.001)
	}
	// trailing missing observation, as FRED emits for holidays
	csv.WriteString("2020-01-21,.\n")
	require.NoError(t, os.WriteFile(path, []byte(csv.String()), 0o644))

	s, err := ReadCSV(path, "")
	require.NoError(t, err)

	assert.Equal(t, "SPX", s.Name(), "name defaults to the header column")
	assert.Equal(t, 20, s.Len(), "missing observations are dropped")
	assert.Equal(t, Daily, s.Freq())
	assert.InDelta(t, 0.0, s.Values()[0], 1e-12)
	assert.InDelta(t, 0.019, s.Values()[19], 1e-12)
}

func TestReadCSVRejectsBadDates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,v\n2020-01-01,0.1\nnot-a-date,0.2\n"), 0o644))

	_, err := ReadCSV(path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}
