package marketdata

import (
	"sort"
	"time"
)

// Bar is one daily OHLCV price bar. Date is a calendar day at midnight UTC,
// never a timestamp.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered sequence of daily bars for one ticker. Invariants:
// ascending by date, no duplicate dates. Gaps (non-trading days) are
// expected and are not errors.
type Series []Bar

// Day truncates a time to its calendar day at midnight UTC. All bar dates
// and trading-day comparisons go through this so that timezone drift can
// never split one session into two keys.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Sort orders the series ascending by date.
func (s Series) Sort() {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Date.Before(s[j].Date)
	})
}

// LastDate returns the date of the final bar, or the zero time for an empty
// series.
func (s Series) LastDate() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}

// Last returns the final bar. Callers must check the series is non-empty.
func (s Series) Last() Bar {
	return s[len(s)-1]
}

// Merge appends bars to the series, drops duplicate dates (existing bars
// win) and returns the result sorted ascending.
func (s Series) Merge(newBars []Bar) Series {
	seen := make(map[time.Time]bool, len(s))
	for _, b := range s {
		seen[b.Date] = true
	}

	merged := make(Series, len(s), len(s)+len(newBars))
	copy(merged, s)

	for _, b := range newBars {
		b.Date = Day(b.Date)
		if seen[b.Date] {
			continue
		}
		seen[b.Date] = true
		merged = append(merged, b)
	}

	merged.Sort()
	return merged
}

// Closes returns the close column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high column.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volume column.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Volume
	}
	return out
}
