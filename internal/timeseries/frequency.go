package timeseries

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Frequency is a calendar frequency label, ordered finest to coarsest:
// hourly, daily, business-daily, weekly, monthly, quarterly, yearly.
type Frequency string

const (
	Hourly      Frequency = "H"
	Daily       Frequency = "D"
	BusinessDay Frequency = "B"
	Weekly      Frequency = "W"
	Monthly     Frequency = "M"
	Quarterly   Frequency = "Q"
	Yearly      Frequency = "Y"
)

// freqRank positions each label on the lattice. Business days sit one
// step coarser than calendar days: a business-daily series cannot be
// rebuilt from weekly data, and daily data can always be bucketed into
// business days.
var freqRank = map[Frequency]int{
	Hourly:      0,
	Daily:       1,
	BusinessDay: 2,
	Weekly:      3,
	Monthly:     4,
	Quarterly:   5,
	Yearly:      6,
}

// Valid reports whether f is one of the known frequency labels.
func (f Frequency) Valid() bool {
	_, ok := freqRank[f]
	return ok
}

// CoarserOrEqual reports whether frequency a is coarser than or equal to
// frequency b. Lower frequencies cannot be converted to higher ones, so
// this is the guard for every resample.
func CoarserOrEqual(a, b Frequency) bool {
	ra, okA := freqRank[a]
	rb, okB := freqRank[b]
	return okA && okB && ra >= rb
}

// DefaultInferSample is how many index points Infer examines from each
// end of the series.
const DefaultInferSample = 50

// Infer determines the calendar frequency of a strictly increasing
// timestamp index. It samples up to `sample` points from both the head
// and the tail of the index in runs of 10 consecutive points and
// collects the frequency each run implies; short indexes are inspected
// whole. Sampling both ends with short runs keeps inference cheap on
// long series while still catching a frequency change in either half.
//
// It fails when the runs disagree (multiple frequencies detected) or
// when no run yields a recognizable frequency.
func Infer(index []time.Time, sample int) (Frequency, error) {
	found := make(map[Frequency]bool)

	maxCheck := len(index) - 10
	if maxCheck > sample {
		maxCheck = sample
	}

	if maxCheck <= 10 {
		if f := inferRun(index); f != "" {
			found[f] = true
		}
	} else {
		// head runs
		for i := 0; i < maxCheck; i += 10 {
			end := i + 10
			if end > len(index) {
				end = len(index)
			}
			if f := inferRun(index[i:end]); f != "" {
				found[f] = true
			}
		}

		// tail runs
		for i := 0; i < maxCheck; i += 10 {
			start := len(index) - i - 10
			if start < 0 {
				start = 0
			}
			if f := inferRun(index[start : len(index)-i]); f != "" {
				found[f] = true
			}
		}
	}

	if len(found) == 0 {
		return "", fmt.Errorf("cannot infer series frequency")
	}

	if len(found) > 1 {
		labels := make([]string, 0, len(found))
		for f := range found {
			labels = append(labels, string(f))
		}
		sort.Strings(labels)
		return "", fmt.Errorf("multiple series frequencies detected: %s", strings.Join(labels, ", "))
	}

	for f := range found {
		return f, nil
	}
	return "", fmt.Errorf("cannot infer series frequency")
}

// inferRun classifies one run of consecutive timestamps, returning ""
// when the run is too short or matches no known frequency.
func inferRun(run []time.Time) Frequency {
	if len(run) < 3 {
		return ""
	}

	switch {
	case isHourly(run):
		return Hourly
	case isDaily(run):
		return Daily
	case isBusinessDaily(run):
		return BusinessDay
	case isWeekly(run):
		return Weekly
	case isMonthly(run):
		return Monthly
	case isQuarterly(run):
		return Quarterly
	case isYearly(run):
		return Yearly
	default:
		return ""
	}
}

func isHourly(run []time.Time) bool {
	for i := 1; i < len(run); i++ {
		if run[i].Sub(run[i-1]) != time.Hour {
			return false
		}
	}
	return true
}

func isDaily(run []time.Time) bool {
	for i := 1; i < len(run); i++ {
		if run[i].Sub(run[i-1]) != 24*time.Hour {
			return false
		}
	}
	return true
}

// isBusinessDaily matches consecutive weekdays: one-day steps within the
// week and a three-day step from Friday to Monday.
func isBusinessDaily(run []time.Time) bool {
	sawWeekendGap := false
	for _, ts := range run {
		wd := ts.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			return false
		}
	}
	for i := 1; i < len(run); i++ {
		gap := run[i].Sub(run[i-1])
		switch {
		case gap == 24*time.Hour:
		case gap == 72*time.Hour && run[i-1].Weekday() == time.Friday:
			sawWeekendGap = true
		default:
			return false
		}
	}
	return sawWeekendGap
}

func isWeekly(run []time.Time) bool {
	for i := 1; i < len(run); i++ {
		if run[i].Sub(run[i-1]) != 7*24*time.Hour {
			return false
		}
	}
	return true
}

// isMonthly matches one-month steps anchored either on the same day of
// month or on month ends.
func isMonthly(run []time.Time) bool {
	return isMonthStep(run, 1)
}

func isQuarterly(run []time.Time) bool {
	return isMonthStep(run, 3)
}

func isMonthStep(run []time.Time, step int) bool {
	anchorEnd := isMonthEnd(run[0])
	for i := 1; i < len(run); i++ {
		prev, cur := run[i-1], run[i]
		if monthIndex(cur)-monthIndex(prev) != step {
			return false
		}
		if anchorEnd {
			if !isMonthEnd(cur) {
				return false
			}
		} else if cur.Day() != run[0].Day() {
			return false
		}
	}
	return true
}

func isYearly(run []time.Time) bool {
	anchorEnd := isMonthEnd(run[0])
	for i := 1; i < len(run); i++ {
		prev, cur := run[i-1], run[i]
		if cur.Year()-prev.Year() != 1 || cur.Month() != run[0].Month() {
			return false
		}
		if anchorEnd {
			if !isMonthEnd(cur) {
				return false
			}
		} else if cur.Day() != run[0].Day() {
			return false
		}
	}
	return true
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func isMonthEnd(t time.Time) bool {
	return t.AddDate(0, 0, 1).Month() != t.Month()
}
