package exchange

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// PriceSource returns the current price for a ticker symbol.
type PriceSource interface {
	Name() string
	GetPrice(ctx context.Context, symbol string) (float64, error)
}

// Chain tries each source in order and returns the first good price.
type Chain struct {
	sources []PriceSource
	log     *zap.Logger
}

func NewChain(log *zap.Logger, sources ...PriceSource) *Chain {
	return &Chain{sources: sources, log: log.Named("exchange")}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) GetPrice(ctx context.Context, symbol string) (float64, error) {
	var lastErr error
	for _, src := range c.sources {
		price, err := src.GetPrice(ctx, symbol)
		if err == nil {
			return price, nil
		}
		lastErr = err
		c.log.Warn("price source failed, trying next",
			zap.String("source", src.Name()),
			zap.String("symbol", symbol),
			zap.Error(err))
	}
	return 0, fmt.Errorf("all price sources failed for %s: %w", symbol, lastErr)
}

// FetchPrices fetches each distinct symbol once. Symbols whose fetch
// fails are absent from the result; the caller skips their positions
// for this run.
func FetchPrices(ctx context.Context, src PriceSource, symbols []string, log *zap.Logger) map[string]float64 {
	prices := make(map[string]float64, len(symbols))
	seen := make(map[string]struct{}, len(symbols))

	for _, sym := range symbols {
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}

		price, err := src.GetPrice(ctx, sym)
		if err != nil {
			log.Warn("price fetch failed, skipping symbol",
				zap.String("symbol", sym), zap.Error(err))
			continue
		}
		prices[sym] = price
	}
	return prices
}
