package nse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Quote is the live snapshot for a listed equity. LastPrice is the last
// traded price, which during market hours runs ahead of the last cached
// daily close.
type Quote struct {
	Symbol      string
	CompanyName string
	LastPrice   float64
}

// FetchQuote scrapes the symbol's quote page for the company name and the
// last traded price.
func (c *Client) FetchQuote(ctx context.Context, ticker string) (*Quote, error) {
	fullURL := fmt.Sprintf("%s/get-quotes/equity?symbol=%s", c.quoteURL, url.QueryEscape(ticker))

	headers := map[string]string{
		"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		"Referer":    c.quoteURL + "/",
	}

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, headers)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	quote, err := parseQuotePage(ticker, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse quote page for %s: %w", ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"last_price": quote.LastPrice,
	}).Debug("Fetched quote")
	return quote, nil
}

// LastPrice returns only the last traded price for the symbol.
func (c *Client) LastPrice(ctx context.Context, ticker string) (float64, error) {
	quote, err := c.FetchQuote(ctx, ticker)
	if err != nil {
		return 0, err
	}
	return quote.LastPrice, nil
}

// parseQuotePage extracts the company name and last traded price from the
// quote page HTML.
func parseQuotePage(ticker string, r io.Reader) (*Quote, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	name := strings.TrimSpace(doc.Find("#quoteName").First().Text())
	if name == "" {
		// Older page layout keeps the name in the first heading
		name = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	priceText := strings.TrimSpace(doc.Find("#quoteLtp").First().Text())
	if priceText == "" {
		return nil, fmt.Errorf("no last price on page")
	}

	price, err := parsePrice(priceText)
	if err != nil {
		return nil, err
	}

	return &Quote{Symbol: ticker, CompanyName: name, LastPrice: price}, nil
}

// parsePrice parses a display price like "₹ 1,532.45" into a float.
func parsePrice(text string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, text)

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", text, err)
	}
	return price, nil
}
