package monitor

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/quantumdesk/quantum-backend/internal/exchange"
	"github.com/quantumdesk/quantum-backend/internal/models"
	"github.com/quantumdesk/quantum-backend/internal/observability"
	"github.com/quantumdesk/quantum-backend/internal/repository"
)

// Store is the subset of position persistence the monitor needs.
type Store interface {
	GetOpen(ctx context.Context) ([]models.Position, error)
	UpdateMarket(ctx context.Context, id int64, version int, price, unrealizedPnL float64) error
	Close(ctx context.Context, id int64, price, realizedPnL float64, reason models.CloseReason) (*models.Position, error)
}

// Report summarizes one monitor run.
type Report struct {
	Monitored       int               `json:"monitored"`
	Updated         int               `json:"updated"`
	Closed          int               `json:"closed"`
	Skipped         int               `json:"skipped"`
	ClosedPositions []models.Position `json:"closedPositions"`
}

type Monitor struct {
	store   Store
	prices  exchange.PriceSource
	metrics *observability.Metrics
	log     *zap.Logger
}

func New(store Store, prices exchange.PriceSource, metrics *observability.Metrics, log *zap.Logger) *Monitor {
	return &Monitor{
		store:   store,
		prices:  prices,
		metrics: metrics,
		log:     log.Named("monitor"),
	}
}

// Run polls one price per distinct open symbol and applies the
// stop-loss/take-profit contract to every open position. Each position
// gets exactly one row write: a close or a market update. Symbols whose
// price fetch failed are skipped for this run; positions lost to a
// concurrent writer are skipped too.
func (m *Monitor) Run(ctx context.Context) (*Report, error) {
	positions, err := m.store.GetOpen(ctx)
	if err != nil {
		return nil, err
	}

	m.metrics.MonitorRuns.Inc()
	m.metrics.OpenPositions.Set(float64(len(positions)))

	report := &Report{
		Monitored:       len(positions),
		ClosedPositions: []models.Position{},
	}
	if len(positions) == 0 {
		return report, nil
	}

	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		symbols = append(symbols, p.Symbol)
	}
	prices := exchange.FetchPrices(ctx, m.prices, symbols, m.log)

	distinct := make(map[string]struct{})
	for _, s := range symbols {
		distinct[s] = struct{}{}
	}
	m.metrics.PriceFetchErrors.Add(float64(len(distinct) - len(prices)))

	for i := range positions {
		p := &positions[i]
		m.metrics.PositionsMonitored.Inc()

		price, ok := prices[p.Symbol]
		if !ok {
			report.Skipped++
			m.metrics.PositionsSkipped.Inc()
			continue
		}

		decision := Evaluate(p, price)
		switch decision.Action {
		case ActionClose:
			closed, err := m.store.Close(ctx, p.ID, price, decision.PnL, decision.Reason)
			if err != nil {
				if errors.Is(err, repository.ErrPositionNotOpen) {
					// Lost the close race; the other writer won.
					report.Skipped++
					m.metrics.PositionsSkipped.Inc()
					continue
				}
				m.log.Error("close failed",
					zap.Int64("position_id", p.ID), zap.Error(err))
				report.Skipped++
				m.metrics.PositionsSkipped.Inc()
				continue
			}
			report.Closed++
			report.ClosedPositions = append(report.ClosedPositions, *closed)
			m.metrics.PositionsClosed.WithLabelValues(string(decision.Reason)).Inc()
			m.log.Info("position closed",
				zap.Int64("position_id", p.ID),
				zap.String("symbol", p.Symbol),
				zap.String("side", string(p.Side)),
				zap.String("reason", string(decision.Reason)),
				zap.Float64("price", price),
				zap.Float64("realized_pnl", decision.PnL))

		case ActionUpdate:
			err := m.store.UpdateMarket(ctx, p.ID, p.Version, price, decision.PnL)
			if err != nil {
				if errors.Is(err, repository.ErrStaleVersion) {
					report.Skipped++
					m.metrics.PositionsSkipped.Inc()
					continue
				}
				m.log.Error("market update failed",
					zap.Int64("position_id", p.ID), zap.Error(err))
				report.Skipped++
				m.metrics.PositionsSkipped.Inc()
				continue
			}
			report.Updated++
		}
	}

	m.log.Info("monitor run complete",
		zap.Int("monitored", report.Monitored),
		zap.Int("updated", report.Updated),
		zap.Int("closed", report.Closed),
		zap.Int("skipped", report.Skipped))

	return report, nil
}
