package scoring

import (
	"sort"
	"time"
)

// Record is one ticker's composite score for one trading day. Scores maps
// indicator column names to their discrete contributions; Final is their
// sum. The (Ticker, Date) pair is the store's logical key.
type Record struct {
	Ticker string
	Date   time.Time
	Final  float64
	Scores map[string]float64
}

// Columns returns the record's indicator column names sorted by name,
// which is the persisted column order after ticker, date and final_score.
func (r *Record) Columns() []string {
	cols := make([]string, 0, len(r.Scores))
	for c := range r.Scores {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// coerce32 narrows a score to float32 width. All numeric columns are
// persisted at a single consistent precision so a read-back record
// compares equal to the one written.
func coerce32(v float64) float64 {
	return float64(float32(v))
}
