package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amitbh/stockscope/internal/external/nse"
	"github.com/amitbh/stockscope/internal/marketdata"
	"github.com/amitbh/stockscope/internal/portfolio"
	"github.com/amitbh/stockscope/internal/ranking"
	"github.com/amitbh/stockscope/internal/scoring"
	"github.com/amitbh/stockscope/internal/triggers"
	"github.com/amitbh/stockscope/pkg/logger"
)

var sessionDate = time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

type fakeRanker struct {
	records []*scoring.Record
	err     error
	opts    ranking.Options
}

func (f *fakeRanker) Rank(_ context.Context, opts ranking.Options) ([]*scoring.Record, error) {
	f.opts = opts
	return f.records, f.err
}

type fakeUniverse struct {
	tickers []string
	err     error
}

func (f fakeUniverse) Tickers() ([]string, error) { return f.tickers, f.err }

type fakeResolver struct{ err error }

func (f fakeResolver) LastTradingDay() (time.Time, time.Time, error) {
	if f.err != nil {
		return time.Time{}, time.Time{}, f.err
	}
	return sessionDate.AddDate(0, 0, 1), sessionDate, nil
}

func TestGetRankingHoldingsUniverse(t *testing.T) {
	ranker := &fakeRanker{records: []*scoring.Record{
		{Ticker: "INFY", Date: sessionDate, Final: 5, Scores: map[string]float64{"rsi_score": 1}},
	}}
	h := NewRankingHandler(ranker,
		fakeUniverse{tickers: []string{"INFY"}},
		fakeUniverse{tickers: []string{"INFY", "TCS", "SBIN"}},
		logger.Nop())

	rec := httptest.NewRecorder()
	h.GetRanking(rec, httptest.NewRequest(http.MethodGet, "/api/ranking", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp RankingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Universe)
	assert.Equal(t, 1, resp.Ranked)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "INFY", resp.Items[0].Ticker)
	assert.Equal(t, "2026-08-25", resp.Items[0].Date)
	assert.False(t, ranker.opts.Broad)
	assert.False(t, ranker.opts.ForceRefresh)
}

func TestGetRankingBroadUsesWatchlist(t *testing.T) {
	ranker := &fakeRanker{}
	h := NewRankingHandler(ranker,
		fakeUniverse{tickers: []string{"INFY"}},
		fakeUniverse{tickers: []string{"INFY", "TCS", "SBIN"}},
		logger.Nop())

	rec := httptest.NewRecorder()
	h.GetRanking(rec, httptest.NewRequest(http.MethodGet, "/api/ranking?all=true&refresh=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ranker.opts.Broad)
	assert.True(t, ranker.opts.ForceRefresh)
	assert.Equal(t, []string{"INFY", "TCS", "SBIN"}, ranker.opts.Universe)
}

func TestGetRankingRankFailure(t *testing.T) {
	ranker := &fakeRanker{err: errors.New("resolver down")}
	h := NewRankingHandler(ranker, fakeUniverse{tickers: []string{"INFY"}}, fakeUniverse{}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetRanking(rec, httptest.NewRequest(http.MethodGet, "/api/ranking", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type fakeScores struct {
	record *scoring.Record
	err    error
}

func (f fakeScores) Get(string, time.Time) (*scoring.Record, error) { return f.record, f.err }

func scoresRequest(ticker string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/scores/"+ticker, nil)
	return mux.SetURLVars(req, map[string]string{"ticker": ticker})
}

func TestGetScores(t *testing.T) {
	h := NewScoresHandler(fakeScores{record: &scoring.Record{
		Ticker: "TCS",
		Date:   sessionDate,
		Final:  3,
		Scores: map[string]float64{"macd_score": 1},
	}}, fakeResolver{}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetScores(rec, scoresRequest("tcs"))

	require.Equal(t, http.StatusOK, rec.Code)

	var item RankingItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, "TCS", item.Ticker)
	assert.Equal(t, float64(3), item.FinalScore)
}

func TestGetScoresNotFound(t *testing.T) {
	h := NewScoresHandler(fakeScores{err: scoring.ErrNotFound}, fakeResolver{}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetScores(rec, scoresRequest("TCS"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "2026-08-25")
}

func TestGetScoresResolverFailure(t *testing.T) {
	h := NewScoresHandler(fakeScores{}, fakeResolver{err: errors.New("no calendar")}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetScores(rec, scoresRequest("TCS"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type fakeHistory struct {
	series marketdata.Series
	err    error
}

func (f fakeHistory) Get(context.Context, string) (marketdata.Series, error) {
	return f.series, f.err
}

func historyRequest(ticker string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/history/"+ticker, nil)
	return mux.SetURLVars(req, map[string]string{"ticker": ticker})
}

func TestGetHistory(t *testing.T) {
	h := NewHistoryHandler(fakeHistory{series: marketdata.Series{
		{Date: sessionDate, Open: 100, High: 102, Low: 99, Close: 101, Volume: 5000},
	}}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetHistory(rec, historyRequest("INFY"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Ticker string       `json:"ticker"`
		Bars   []HistoryBar `json:"bars"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INFY", resp.Ticker)
	require.Len(t, resp.Bars, 1)
	assert.Equal(t, "2026-08-25", resp.Bars[0].Date)
	assert.Equal(t, float64(101), resp.Bars[0].Close)
}

func TestGetHistoryUnavailable(t *testing.T) {
	h := NewHistoryHandler(fakeHistory{err: marketdata.ErrDataUnavailable}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetHistory(rec, historyRequest("GONE"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakePortfolio struct {
	holdings []portfolio.Holding
	added    []portfolio.Transaction
	err      error
}

func (f *fakePortfolio) Add(tx portfolio.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.added = append(f.added, tx)
	return nil
}

func (f *fakePortfolio) Holdings() ([]portfolio.Holding, error) { return f.holdings, f.err }

type fakeQuotes struct {
	quote *nse.Quote
	err   error
}

func (f fakeQuotes) FetchQuote(context.Context, string) (*nse.Quote, error) {
	return f.quote, f.err
}

func TestGetPortfolio(t *testing.T) {
	store := &fakePortfolio{holdings: []portfolio.Holding{
		{Ticker: "INFY", Company: "Infosys Limited", Quantity: 10, AvgPrice: 1500},
	}}
	h := NewPortfolioHandler(store, fakeQuotes{}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetPortfolio(rec, httptest.NewRequest(http.MethodGet, "/api/portfolio", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Infosys Limited")
	assert.Contains(t, rec.Body.String(), `"count":1`)
}

func TestAddTransaction(t *testing.T) {
	store := &fakePortfolio{}
	h := NewPortfolioHandler(store, fakeQuotes{quote: &nse.Quote{
		Symbol:      "INFY",
		CompanyName: "Infosys Limited",
		LastPrice:   1520,
	}}, logger.Nop())

	body := `{"ticker":"infy","date":"2026-08-25","quantity":10,"price":1500}`
	rec := httptest.NewRecorder()
	h.AddTransaction(rec, httptest.NewRequest(http.MethodPost, "/api/portfolio", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.added, 1)
	assert.Equal(t, "INFY", store.added[0].Ticker)
	assert.Equal(t, "Infosys Limited", store.added[0].Company)
	assert.Equal(t, sessionDate, store.added[0].Date)
}

func TestAddTransactionUnknownTicker(t *testing.T) {
	store := &fakePortfolio{}
	h := NewPortfolioHandler(store, fakeQuotes{err: errors.New("symbol not found")}, logger.Nop())

	body := `{"ticker":"NOPE","date":"2026-08-25","quantity":10,"price":1500}`
	rec := httptest.NewRecorder()
	h.AddTransaction(rec, httptest.NewRequest(http.MethodPost, "/api/portfolio", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.added)
}

func TestAddTransactionInvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"bad date", `{"ticker":"INFY","date":"25-08-2026","quantity":10,"price":1500}`},
		{"missing ticker", `{"date":"2026-08-25","quantity":10,"price":1500}`},
		{"zero quantity", `{"ticker":"INFY","date":"2026-08-25","quantity":0,"price":1500}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakePortfolio{}
			h := NewPortfolioHandler(store, fakeQuotes{quote: &nse.Quote{CompanyName: "Infosys Limited"}}, logger.Nop())

			rec := httptest.NewRecorder()
			h.AddTransaction(rec, httptest.NewRequest(http.MethodPost, "/api/portfolio", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, store.added)
		})
	}
}

type fakeCompiler struct {
	alerts []triggers.Alert
	got    []portfolio.Holding
}

func (f *fakeCompiler) Compile(_ context.Context, holdings []portfolio.Holding) []triggers.Alert {
	f.got = holdings
	return f.alerts
}

func TestGetTriggers(t *testing.T) {
	holdings := []portfolio.Holding{{Ticker: "INFY", Company: "Infosys Limited", Quantity: 10}}
	compiler := &fakeCompiler{alerts: []triggers.Alert{
		{Ticker: "INFY", Company: "Infosys Limited", Trigger: "Near 52 Week High", Detail: "current diff: 1.20%"},
	}}
	h := NewTriggersHandler(compiler, &fakePortfolio{holdings: holdings}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetTriggers(rec, httptest.NewRequest(http.MethodGet, "/api/triggers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, holdings, compiler.got)
	assert.Contains(t, rec.Body.String(), "Near 52 Week High")
}

func TestGetTriggersEmptyAlertsIsArray(t *testing.T) {
	h := NewTriggersHandler(&fakeCompiler{}, &fakePortfolio{}, logger.Nop())

	rec := httptest.NewRecorder()
	h.GetTriggers(rec, httptest.NewRequest(http.MethodGet, "/api/triggers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alerts":[]`)
}
