package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/quantumdesk/quantum-backend/internal/httputil"
)

const defaultCoinGeckoBaseURL = "https://api.coingecko.com"

// coingeckoIDs maps base assets to CoinGecko coin ids.
var coingeckoIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"BNB":  "binancecoin",
	"XRP":  "ripple",
	"ADA":  "cardano",
	"DOGE": "dogecoin",
	"LINK": "chainlink",
}

type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
	retry      httputil.RetryConfig
}

func NewCoinGeckoClient(baseURL string) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = defaultCoinGeckoBaseURL
	}
	return &CoinGeckoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    10 * time.Second,
		},
	}
}

func (c *CoinGeckoClient) Name() string { return "coingecko" }

func (c *CoinGeckoClient) GetPrice(ctx context.Context, symbol string) (float64, error) {
	id, ok := coingeckoIDs[baseAsset(symbol)]
	if !ok {
		return 0, fmt.Errorf("no coingecko id for symbol %s", symbol)
	}

	u := fmt.Sprintf("%s/api/v3/simple/price?ids=%s&vs_currencies=usd", c.baseURL, id)

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return 0, fmt.Errorf("coingecko fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("coingecko returned status %d", resp.StatusCode)
	}

	var data map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}

	quote, ok := data[id]
	if !ok {
		return 0, fmt.Errorf("coingecko response missing %s", id)
	}
	if quote.USD <= 0 {
		return 0, fmt.Errorf("invalid price: %f", quote.USD)
	}

	return quote.USD, nil
}

// baseAsset strips the quote currency from a pair symbol: BTCUSDT,
// BTC/USD and BTC all yield BTC.
func baseAsset(symbol string) string {
	s := strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
	for _, suffix := range []string{"USDT", "USDC", "USD"} {
		if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
			return strings.TrimSuffix(s, suffix)
		}
	}
	return s
}
