package monitor

import "github.com/quantumdesk/quantum-backend/internal/models"

type Action int

const (
	// ActionUpdate persists the observed price and unrealized P&L.
	ActionUpdate Action = iota
	// ActionClose transitions the position to closed.
	ActionClose
)

// Decision is the outcome of evaluating one position against one price.
type Decision struct {
	Action Action
	Reason models.CloseReason
	// PnL is realized P&L for a close, unrealized P&L for an update.
	PnL float64
}

// Evaluate applies the position contract at the given price:
//
//  1. stop-loss crossed adversely (LONG: price <= stop, SHORT: price >= stop)
//     closes with STOP_LOSS;
//  2. otherwise take-profit crossed favorably (LONG: price >= target,
//     SHORT: price <= target) closes with TAKE_PROFIT;
//  3. otherwise the price and unrealized P&L are updated.
//
// Stop-loss wins when both thresholds are satisfied at once.
func Evaluate(p *models.Position, price float64) Decision {
	pnl := p.UnrealizedPnLAt(price)

	if p.StopLossPrice != nil && stopLossHit(p.Side, price, *p.StopLossPrice) {
		return Decision{Action: ActionClose, Reason: models.CloseStopLoss, PnL: pnl}
	}
	if p.TakeProfitPrice != nil && takeProfitHit(p.Side, price, *p.TakeProfitPrice) {
		return Decision{Action: ActionClose, Reason: models.CloseTakeProfit, PnL: pnl}
	}
	return Decision{Action: ActionUpdate, PnL: pnl}
}

func stopLossHit(side models.Side, price, stop float64) bool {
	if side == models.SideShort {
		return price >= stop
	}
	return price <= stop
}

func takeProfitHit(side models.Side, price, target float64) bool {
	if side == models.SideShort {
		return price <= target
	}
	return price >= target
}
