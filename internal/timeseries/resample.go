package timeseries

import (
	"fmt"
	"time"
)

// ReduceFunc collapses one bucket of values into a single value.
type ReduceFunc func(values []float64) float64

// Resample buckets the series at a coarser calendar frequency and
// reduces each bucket with the supplied function. A "D" target is
// normalized to "B" first: returns are conventionally reported on
// business days only. Buckets that contain no source points do not
// appear in the output; nothing is forward-filled.
//
// Converting to a finer frequency than the source is an error: a
// coarser series cannot invent sub-period detail.
func Resample(s *Series, target Frequency, reduce ReduceFunc) (*Series, error) {
	if target == Daily {
		target = BusinessDay
	}

	if !target.Valid() {
		return nil, fmt.Errorf("unknown frequency: %q", target)
	}

	if !CoarserOrEqual(target, s.Freq()) {
		return nil, fmt.Errorf("cannot convert to higher frequency: target=%s, current=%s", target, s.Freq())
	}

	out := make([]Point, 0, len(s.points))
	var bucket []float64
	var label time.Time

	flush := func() {
		if len(bucket) > 0 {
			out = append(out, Point{Time: label, Value: reduce(bucket)})
			bucket = bucket[:0]
		}
	}

	for _, p := range s.points {
		l := bucketLabel(p.Time, target)
		if len(bucket) > 0 && !l.Equal(label) {
			flush()
		}
		label = l
		bucket = append(bucket, p.Value)
	}
	flush()

	return NewWithFrequency(s.name, out, target)
}

// bucketLabel maps a timestamp to its bucket's label: the period end for
// calendar periods (Sunday for weeks, month/quarter/year end), the date
// itself for daily buckets, the top of the hour for hourly.
func bucketLabel(t time.Time, freq Frequency) time.Time {
	y, m, d := t.Date()

	switch freq {
	case Hourly:
		return t.Truncate(time.Hour)
	case BusinessDay:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	case Weekly:
		offset := (7 - int(t.Weekday())) % 7
		return time.Date(y, m, d+offset, 0, 0, 0, 0, t.Location())
	case Monthly:
		return time.Date(y, m+1, 0, 0, 0, 0, 0, t.Location())
	case Quarterly:
		endMonth := ((int(m)-1)/3)*3 + 3
		return time.Date(y, time.Month(endMonth)+1, 0, 0, 0, 0, 0, t.Location())
	case Yearly:
		return time.Date(y, 12, 31, 0, 0, 0, 0, t.Location())
	default:
		return t
	}
}
