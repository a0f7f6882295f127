package quote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// priceMarker is the CSS class Google Finance renders the live price under.
const priceMarker = `class="YMlKec fxKbKc"`

// Client scrapes live prices from a Google-Finance-style quote page and
// reads reference closes from a JSON history endpoint.
type Client struct {
	priceURL   string
	historyURL string
	httpClient *http.Client
}

func NewClient(priceURL, historyURL string) *Client {
	return &Client{
		priceURL:   strings.TrimRight(priceURL, "/"),
		historyURL: strings.TrimRight(historyURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchPrice fetches one instrument's current price. The context carries the
// per-request deadline set by the fetch fan-out.
func (c *Client) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/%s:NSE", c.priceURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("quote http %d for %s", resp.StatusCode, symbol)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	price, ok := extractPrice(string(body))
	if !ok {
		return 0, fmt.Errorf("price element not found for %s", symbol)
	}
	return price, nil
}

// extractPrice pulls the first price rendered under the marker class out of
// the page HTML. The element looks like <div class="YMlKec fxKbKc">₹1,234.55</div>.
func extractPrice(html string) (float64, bool) {
	idx := strings.Index(html, priceMarker)
	if idx < 0 {
		return 0, false
	}
	rest := html[idx:]

	open := strings.Index(rest, ">")
	if open < 0 {
		return 0, false
	}
	rest = rest[open+1:]

	end := strings.Index(rest, "<")
	if end < 0 {
		return 0, false
	}

	raw := strings.TrimSpace(rest[:end])
	raw = strings.ReplaceAll(raw, "₹", "")
	raw = strings.ReplaceAll(raw, ",", "")

	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}
