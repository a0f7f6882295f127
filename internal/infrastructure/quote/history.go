package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// historyResponse is the JSON shape of the daily-close endpoint:
// {"date":"2026-08-31","closes":{"RELIANCE":2870.5,...}}. Symbols the
// source has no data for on that date are simply absent.
type historyResponse struct {
	Date   string             `json:"date"`
	Closes map[string]float64 `json:"closes"`
}

// FetchDailyCloses returns closing prices for the given symbols on asOf.
// An empty map with a nil error means the date had no trading session,
// which the resolver treats as a holiday.
func (c *Client) FetchDailyCloses(ctx context.Context, symbols []string, asOf time.Time) (map[string]float64, error) {
	if c.historyURL == "" {
		return nil, fmt.Errorf("history endpoint not configured")
	}

	params := url.Values{}
	params.Set("date", asOf.Format("2006-01-02"))
	params.Set("symbols", strings.Join(symbols, ","))
	endpoint := c.historyURL + "/daily-close?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No session on that date.
		return map[string]float64{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed historyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode history response: %w", err)
	}
	if parsed.Closes == nil {
		return map[string]float64{}, nil
	}
	return parsed.Closes, nil
}
