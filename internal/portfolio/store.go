package portfolio

import (
	"encoding/csv"
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

// Transaction is one buy or sell. Quantity is signed: positive for a buy,
// negative for a sell. Company is captured from the live quote at add
// time so listings that later rename keep their historical name.
type Transaction struct {
	Ticker   string
	Company  string
	Date     time.Time
	Quantity float64
	Price    float64
}

// Holding is the net position in one ticker.
type Holding struct {
	Ticker   string
	Company  string
	Quantity float64
	// AvgPrice is the volume-weighted average buy price of the remaining
	// position.
	AvgPrice float64
}

// Store persists the transaction ledger as a single CSV file, appended on
// every add and read whole on every query.
type Store struct {
	path   string
	logger *logger.Logger
}

// NewStore creates a portfolio store from config.
func NewStore(cfg *config.Config, log *logger.Logger) *Store {
	return &Store{path: cfg.Data.PortfolioFile, logger: log}
}

// Validate checks a transaction before it enters the ledger.
func (t *Transaction) Validate() error {
	if t.Ticker == "" {
		return fmt.Errorf("transaction has no ticker")
	}
	if t.Quantity == 0 {
		return fmt.Errorf("transaction for %s has zero quantity", t.Ticker)
	}
	if t.Price <= 0 {
		return fmt.Errorf("transaction for %s has non-positive price %v", t.Ticker, t.Price)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction for %s has no date", t.Ticker)
	}
	return nil
}

// Add validates and appends a transaction to the ledger.
func (s *Store) Add(tx Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	txs, err := s.load()
	if err != nil {
		return err
	}
	txs = append(txs, tx)

	if err := s.save(txs); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker":   tx.Ticker,
		"quantity": tx.Quantity,
		"price":    tx.Price,
	}).Info("Transaction recorded")
	return nil
}

// List returns all transactions in ledger order.
func (s *Store) List() ([]Transaction, error) {
	return s.load()
}

// Holdings nets the ledger into open positions, dropping tickers whose
// net quantity is not positive.
func (s *Store) Holdings() ([]Holding, error) {
	txs, err := s.load()
	if err != nil {
		return nil, err
	}

	type position struct {
		company  string
		quantity float64
		cost     float64
	}
	positions := make(map[string]*position)

	for _, tx := range txs {
		p, ok := positions[tx.Ticker]
		if !ok {
			p = &position{}
			positions[tx.Ticker] = p
		}
		if tx.Company != "" {
			p.company = tx.Company
		}
		if tx.Quantity > 0 {
			p.cost += tx.Quantity * tx.Price
		} else if p.quantity > 0 {
			// Sells release cost at the running average
			p.cost += tx.Quantity * (p.cost / p.quantity)
		}
		p.quantity += tx.Quantity
	}

	var holdings []Holding
	for ticker, p := range positions {
		if p.quantity <= 0 {
			continue
		}
		holdings = append(holdings, Holding{
			Ticker:   ticker,
			Company:  p.company,
			Quantity: p.quantity,
			AvgPrice: p.cost / p.quantity,
		})
	}

	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Ticker < holdings[j].Ticker })
	return holdings, nil
}

// Tickers returns the tickers of all open positions. This is the default
// ranking universe.
func (s *Store) Tickers() ([]string, error) {
	holdings, err := s.Holdings()
	if err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(holdings))
	for _, h := range holdings {
		tickers = append(tickers, h.Ticker)
	}
	return tickers, nil
}

var ledgerHeader = []string{"ticker", "company", "date", "quantity", "price"}

func (s *Store) load() ([]Transaction, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open portfolio ledger: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read portfolio ledger: %w", err)
	}

	var txs []Transaction
	for i, row := range rows {
		if i == 0 || len(row) < 5 {
			continue // header
		}

		date, err := time.Parse("2006-01-02", row[2])
		if err != nil {
			return nil, fmt.Errorf("portfolio ledger row %d: %w", i, err)
		}

		tx := Transaction{Ticker: row[0], Company: row[1], Date: marketdata.Day(date)}
		tx.Quantity, _ = strconv.ParseFloat(row[3], 64)
		tx.Price, _ = strconv.ParseFloat(row[4], 64)
		txs = append(txs, tx)
	}
	return txs, nil
}

func (s *Store) save(txs []Transaction) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create portfolio dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(ledgerHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}

	for _, tx := range txs {
		row := []string{
			tx.Ticker,
			tx.Company,
			tx.Date.Format("2006-01-02"),
			strconv.FormatFloat(tx.Quantity, 'f', -1, 64),
			strconv.FormatFloat(tx.Price, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write transaction: %w", err)
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
