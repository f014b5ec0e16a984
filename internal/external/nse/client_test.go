package nse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amitbh/stockscope/pkg/config"
	"github.com/amitbh/stockscope/pkg/httputil"
	"github.com/amitbh/stockscope/pkg/logger"
)

func testClient(baseURL string) *Client {
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:    baseURL,
			QuoteURL:   baseURL,
			Timeout:    5 * time.Second,
			MaxRetries: 0,
		},
	}
	return NewClient(cfg, httputil.New(cfg, logger.Nop()).DisableRetry(), logger.Nop())
}

func TestParseChartResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int // expected number of bars
		wantErr bool
	}{
		{
			name: "valid payload",
			body: `{"s":"Ok","t":[1756166400,1756252800],"o":[100,101],"h":[102,103],"l":[99,100],"c":[101,102],"v":[1000,1200]}`,
			want: 2,
		},
		{
			name: "no data status",
			body: `{"s":"no_data"}`,
			want: 0,
		},
		{
			name:    "error status",
			body:    `{"s":"error"}`,
			wantErr: true,
		},
		{
			name:    "ragged arrays",
			body:    `{"s":"Ok","t":[1756166400,1756252800],"o":[100],"h":[102],"l":[99],"c":[101],"v":[1000]}`,
			wantErr: true,
		},
		{
			name:    "not json",
			body:    `<html>blocked</html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseChartResponse([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Errorf("parseChartResponse() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if len(got) != tt.want {
				t.Errorf("parseChartResponse() got %d bars, want %d", len(got), tt.want)
			}

			for _, b := range got {
				if b.Date.IsZero() {
					t.Error("parseChartResponse() bar date is zero")
				}
				if h, m, s := b.Date.Clock(); h != 0 || m != 0 || s != 0 {
					t.Errorf("parseChartResponse() date not normalized to midnight: %v", b.Date)
				}
			}
		})
	}
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "INFY-EQ" {
			t.Errorf("symbol = %q, want INFY-EQ", got)
		}
		if got := r.URL.Query().Get("resolution"); got != "1D" {
			t.Errorf("resolution = %q, want 1D", got)
		}
		w.Write([]byte(`{"s":"Ok","t":[1756166400],"o":[100],"h":[102],"l":[99],"c":[101],"v":[1000]}`))
	}))
	defer server.Close()

	client := testClient(server.URL)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	bars, err := client.Fetch(context.Background(), "INFY", from, to)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("Expected 1 bar, got %d", len(bars))
	}
	if bars[0].Close != 101 {
		t.Errorf("Close = %v, want 101", bars[0].Close)
	}
}

func TestFetchInvertedRange(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := testClient(server.URL)

	from := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	bars, err := client.Fetch(context.Background(), "INFY", from, to)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("Expected empty result for inverted range, got %d bars", len(bars))
	}
	if calls != 0 {
		t.Errorf("Expected no upstream call for inverted range, got %d", calls)
	}
}

func TestFetchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := testClient(server.URL)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)

	_, err := client.Fetch(context.Background(), "INFY", from, to)
	if err == nil {
		t.Fatal("Expected error for 403 response")
	}
}
