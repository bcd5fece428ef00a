package models

import "time"

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

type PositionStatus string

const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

type CloseReason string

const (
	CloseStopLoss   CloseReason = "STOP_LOSS"
	CloseTakeProfit CloseReason = "TAKE_PROFIT"
	CloseManual     CloseReason = "MANUAL"
)

// Position is a single open or closed trade. A position transitions
// open -> closed exactly once and is never deleted.
type Position struct {
	ID              int64          `json:"id"`
	Symbol          string         `json:"symbol"`
	Side            Side           `json:"side"`
	EntryPrice      float64        `json:"entryPrice"`
	Quantity        float64        `json:"quantity"`
	StopLossPrice   *float64       `json:"stopLossPrice,omitempty"`
	TakeProfitPrice *float64       `json:"takeProfitPrice,omitempty"`
	Status          PositionStatus `json:"status"`
	CurrentPrice    float64        `json:"currentPrice"`
	UnrealizedPnL   float64        `json:"unrealizedPnl"`
	RealizedPnL     float64        `json:"realizedPnl"`
	CloseReason     *CloseReason   `json:"closeReason,omitempty"`
	Version         int            `json:"version"`
	OpenedAt        time.Time      `json:"openedAt"`
	ClosedAt        *time.Time     `json:"closedAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// UnrealizedPnLAt computes profit/loss at the given price:
// LONG (current - entry) * qty, SHORT (entry - current) * qty.
func (p *Position) UnrealizedPnLAt(price float64) float64 {
	if p.Side == SideShort {
		return (p.EntryPrice - price) * p.Quantity
	}
	return (price - p.EntryPrice) * p.Quantity
}
