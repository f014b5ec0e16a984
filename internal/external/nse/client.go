package nse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/amitbh/stockscope/internal/marketdata"
	"github.com/amitbh/stockscope/pkg/config"
	"github.com/amitbh/stockscope/pkg/httputil"
	"github.com/amitbh/stockscope/pkg/logger"
)

// Client handles communication with the NSE endpoints. All upstream price
// and quote calls go through this client, nowhere else.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	quoteURL   string
}

// NewClient creates a new NSE client.
func NewClient(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.Upstream.BaseURL,
		quoteURL:   cfg.Upstream.QuoteURL,
	}
}

// chartResponse is the charting API payload: parallel arrays keyed by a
// status field, one element per session.
type chartResponse struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

// Fetch pulls daily bars for a ticker in [from, to] from the charting API.
// An inverted or fully-future range yields an empty slice, not an error;
// the history store probes such ranges when its cache runs ahead of the
// calendar.
func (c *Client) Fetch(ctx context.Context, ticker string, from, to time.Time) ([]marketdata.Bar, error) {
	if from.After(to) {
		return nil, nil
	}

	params := url.Values{}
	params.Set("symbol", ticker+"-EQ")
	params.Set("resolution", "1D")
	params.Set("from", strconv.FormatInt(from.Unix(), 10))
	params.Set("to", strconv.FormatInt(to.Unix(), 10))

	fullURL := fmt.Sprintf("%s/Charts/ChartData/?%s", c.baseURL, params.Encode())

	headers := map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"Referer":    c.quoteURL + "/",
		"Accept":     "application/json",
	}

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, headers)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	bars, err := parseChartResponse(body)
	if err != nil {
		return nil, fmt.Errorf("parse response failed: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(bars),
	}).Debug("Fetched price bars")
	return bars, nil
}

// parseChartResponse decodes the parallel-array chart payload into bars.
// A "no_data" status is an empty result, any other non-ok status is an
// upstream error.
func parseChartResponse(body []byte) ([]marketdata.Bar, error) {
	var raw chartResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode chart payload: %w", err)
	}

	switch raw.Status {
	case "Ok", "ok":
	case "no_data":
		return nil, nil
	default:
		return nil, fmt.Errorf("chart status %q", raw.Status)
	}

	n := len(raw.Times)
	if len(raw.Opens) < n || len(raw.Highs) < n || len(raw.Lows) < n ||
		len(raw.Closes) < n || len(raw.Volumes) < n {
		return nil, fmt.Errorf("chart arrays are ragged: %d timestamps", n)
	}

	bars := make([]marketdata.Bar, 0, n)
	for i := 0; i < n; i++ {
		bars = append(bars, marketdata.Bar{
			Date:   marketdata.Day(time.Unix(raw.Times[i], 0).UTC()),
			Open:   raw.Opens[i],
			High:   raw.Highs[i],
			Low:    raw.Lows[i],
			Close:  raw.Closes[i],
			Volume: raw.Volumes[i],
		})
	}
	return bars, nil
}
