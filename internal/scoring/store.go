package scoring

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/amitbh/stockscope/internal/marketdata"
	"github.com/amitbh/stockscope/pkg/config"
	"github.com/amitbh/stockscope/pkg/logger"
)

// ErrNotFound is returned when no score record exists for the requested
// ticker and date.
var ErrNotFound = errors.New("score record not found")

// Store persists all score records in one CSV file. Every write rewrites
// the whole file; at one upsert per ticker per trading day the cost is
// irrelevant next to the network fetches around it. A single writer
// process is assumed.
type Store struct {
	path   string
	logger *logger.Logger
}

// NewStore creates a score store from config.
func NewStore(cfg *config.Config, log *logger.Logger) *Store {
	return &Store{path: cfg.Data.ScoresFile, logger: log}
}

// Get returns the record for (ticker, date) if present and unique. On
// finding duplicate rows for the key it logs the corruption, deletes all
// of them and reports ErrNotFound so the caller recomputes a clean row.
func (s *Store) Get(ticker string, date time.Time) (*Record, error) {
	records, err := s.load()
	if err != nil {
		return nil, err
	}

	var matches []*Record
	for _, r := range records {
		if r.Ticker == ticker && r.Date.Equal(marketdata.Day(date)) {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s@%s", ErrNotFound, ticker, date.Format("2006-01-02"))
	case 1:
		return matches[0], nil
	}

	// Duplicate rows violate the one-record-per-key invariant. Repair by
	// deleting every copy; the caller's recompute path reinserts one.
	s.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"date":       date.Format("2006-01-02"),
		"duplicates": len(matches),
	}).Error("Duplicate score rows found, deleting all copies")

	kept := records[:0]
	for _, r := range records {
		if r.Ticker == ticker && r.Date.Equal(marketdata.Day(date)) {
			continue
		}
		kept = append(kept, r)
	}
	if err := s.save(kept); err != nil {
		return nil, fmt.Errorf("repair duplicate rows: %w", err)
	}

	return nil, fmt.Errorf("%w: %s@%s", ErrNotFound, ticker, date.Format("2006-01-02"))
}

// Upsert replaces any existing rows for the record's (ticker, date) key,
// duplicate sets included, with the given record.
func (s *Store) Upsert(record *Record) error {
	records, err := s.load()
	if err != nil {
		return err
	}

	dropped := 0
	kept := records[:0]
	for _, r := range records {
		if r.Ticker == record.Ticker && r.Date.Equal(record.Date) {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	if dropped > 1 {
		s.logger.WithFields(map[string]interface{}{
			"ticker":     record.Ticker,
			"date":       record.Date.Format("2006-01-02"),
			"duplicates": dropped,
		}).Error("Duplicate score rows replaced on upsert")
	}

	kept = append(kept, record)
	return s.save(kept)
}

// Delete removes all rows for a ticker.
func (s *Store) Delete(ticker string) error {
	records, err := s.load()
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, r := range records {
		if r.Ticker == ticker {
			continue
		}
		kept = append(kept, r)
	}
	return s.save(kept)
}

// All returns every stored record.
func (s *Store) All() ([]*Record, error) {
	return s.load()
}

// load reads the whole score file. A missing file is an empty store.
func (s *Store) load() ([]*Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open score store: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read score store: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	if len(header) < 3 || header[0] != "ticker" || header[1] != "date" || header[2] != "final_score" {
		return nil, fmt.Errorf("score store has unexpected header %v", header)
	}

	var records []*Record
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("score store row %d has %d columns, want %d", i+1, len(row), len(header))
		}

		date, err := time.Parse("2006-01-02", row[1])
		if err != nil {
			return nil, fmt.Errorf("score store row %d: %w", i+1, err)
		}

		record := &Record{
			Ticker: row[0],
			Date:   marketdata.Day(date),
			Scores: make(map[string]float64, len(header)-3),
		}
		record.Final, _ = strconv.ParseFloat(row[2], 64)
		for c := 3; c < len(header); c++ {
			if row[c] == "" {
				continue
			}
			v, err := strconv.ParseFloat(row[c], 64)
			if err != nil {
				return nil, fmt.Errorf("score store row %d column %s: %w", i+1, header[c], err)
			}
			record.Scores[header[c]] = v
		}
		records = append(records, record)
	}
	return records, nil
}

// save rewrites the whole score file atomically. The column set is the
// union of all records' columns so rows written by an older indicator set
// keep their values.
func (s *Store) save(records []*Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create score store dir: %w", err)
	}

	colSet := make(map[string]bool)
	for _, r := range records {
		for c := range r.Scores {
			colSet[c] = true
		}
	}
	cols := make([]string, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	header := append([]string{"ticker", "date", "final_score"}, cols...)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range records {
		row := make([]string, 0, len(header))
		row = append(row,
			r.Ticker,
			r.Date.Format("2006-01-02"),
			formatScore(r.Final),
		)
		for _, c := range cols {
			v, ok := r.Scores[c]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatScore(v))
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	return os.Rename(tmp.Name(), s.path)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(coerce32(v), 'f', -1, 32)
}
