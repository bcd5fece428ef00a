package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quantumdesk/quantum-backend/internal/httputil"
)

const defaultBinanceBaseURL = "https://api.binance.com"

type BinanceClient struct {
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewBinanceClient(baseURL string) *BinanceClient {
	if baseURL == "" {
		baseURL = defaultBinanceBaseURL
	}
	return &BinanceClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
		},
	}
}

func (c *BinanceClient) Name() string { return "binance" }

// GetPrice fetches the spot ticker price. Symbols are normalized to the
// Binance convention: "BTCUSD" and "BTC" both query BTCUSDT.
func (c *BinanceClient) GetPrice(ctx context.Context, symbol string) (float64, error) {
	u := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s",
		c.baseURL, url.QueryEscape(normalizeBinanceSymbol(symbol)))

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return 0, fmt.Errorf("binance fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("binance returned status %d for %s", resp.StatusCode, symbol)
	}

	// Binance serializes prices as strings.
	var data struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}

	price, err := strconv.ParseFloat(data.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed price %q: %w", data.Price, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("invalid price: %f", price)
	}

	return price, nil
}

// normalizeBinanceSymbol maps dashboard symbols (BTC, BTCUSD, BTC/USD)
// to Binance pairs (BTCUSDT).
func normalizeBinanceSymbol(symbol string) string {
	s := strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
	if strings.HasSuffix(s, "USDT") {
		return s
	}
	if strings.HasSuffix(s, "USDC") {
		return s
	}
	s = strings.TrimSuffix(s, "USD")
	return s + "USDT"
}
