package timeseries

import (
	"fmt"
	"time"
)

// Point is one observation of a datetime-indexed series.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is a named, datetime-indexed, single-column numeric series.
// Timestamps are strictly increasing and unique; the calendar frequency
// is inferred once at construction and never re-inferred, including
// after a date-range trim.
type Series struct {
	name   string
	points []Point
	start  time.Time
	end    time.Time
	freq   Frequency
}

// New builds a Series from ordered points, inferring its frequency.
func New(name string, points []Point) (*Series, error) {
	if err := validate(points); err != nil {
		return nil, err
	}

	index := make([]time.Time, len(points))
	for i, p := range points {
		index[i] = p.Time
	}

	freq, err := Infer(index, DefaultInferSample)
	if err != nil {
		return nil, err
	}

	return newWithFreq(name, points, freq), nil
}

// NewWithFrequency builds a Series whose frequency is already known,
// bypassing inference. Resampling uses this: the output frequency is the
// resample target by construction.
func NewWithFrequency(name string, points []Point, freq Frequency) (*Series, error) {
	if !freq.Valid() {
		return nil, fmt.Errorf("unknown frequency: %q", freq)
	}
	if err := validate(points); err != nil {
		return nil, err
	}
	return newWithFreq(name, points, freq), nil
}

func newWithFreq(name string, points []Point, freq Frequency) *Series {
	owned := make([]Point, len(points))
	copy(owned, points)

	return &Series{
		name:   name,
		points: owned,
		start:  owned[0].Time,
		end:    owned[len(owned)-1].Time,
		freq:   freq,
	}
}

func validate(points []Point) error {
	if len(points) == 0 {
		return fmt.Errorf("series needs at least one point")
	}
	for i := 1; i < len(points); i++ {
		if !points[i].Time.After(points[i-1].Time) {
			return fmt.Errorf("series index must be strictly increasing: %s >= %s",
				points[i-1].Time.Format(time.RFC3339), points[i].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Name returns the series (column) name.
func (s *Series) Name() string { return s.name }

// Start returns the first timestamp.
func (s *Series) Start() time.Time { return s.start }

// End returns the last timestamp.
func (s *Series) End() time.Time { return s.end }

// Freq returns the inferred calendar frequency.
func (s *Series) Freq() Frequency { return s.freq }

// Len returns the number of observations.
func (s *Series) Len() int { return len(s.points) }

// Points returns a copy of the observations.
func (s *Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Values returns the value column in index order.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Value
	}
	return out
}

// Clone deep-copies the series.
func (s *Series) Clone() *Series {
	return newWithFreq(s.name, s.points, s.freq)
}

// SetDateRange trims the series in place to the inclusive [start, end]
// window and re-derives start/end from the surviving index. A nil bound
// leaves that side open. The frequency label is kept as inferred at
// construction.
func (s *Series) SetDateRange(start, end *time.Time) error {
	lo := 0
	hi := len(s.points)

	if start != nil {
		for lo < hi && s.points[lo].Time.Before(*start) {
			lo++
		}
	}
	if end != nil {
		for hi > lo && s.points[hi-1].Time.After(*end) {
			hi--
		}
	}

	if lo >= hi {
		return fmt.Errorf("no data in date range [%v, %v]", fmtBound(start), fmtBound(end))
	}

	s.points = s.points[lo:hi]
	s.start = s.points[0].Time
	s.end = s.points[len(s.points)-1].Time
	return nil
}

func fmtBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}
