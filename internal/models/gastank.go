package models

import (
	"encoding/json"
	"time"
)

type GasTankStatus string

const (
	GasTankActive   GasTankStatus = "ACTIVE"
	GasTankLow      GasTankStatus = "LOW"
	GasTankCritical GasTankStatus = "CRITICAL"
	GasTankEmpty    GasTankStatus = "EMPTY"
)

// Gas tank status thresholds, as a fraction of initial balance.
const (
	GasTankCriticalRatio = 0.20
	GasTankLowRatio      = 0.30
)

// GasTankAccount funds performance fees for a user. The high-water mark
// is monotonically non-decreasing and the balance never goes below zero.
type GasTankAccount struct {
	UserID         string        `json:"userId"`
	Balance        float64       `json:"balance"`
	InitialBalance float64       `json:"initialBalance"`
	HighWaterMark  float64       `json:"highWaterMark"`
	FeeRate        float64       `json:"feeRate"`
	FeesPaidToday  float64       `json:"feesPaidToday"`
	FeesDay        string        `json:"feesDay"`
	TotalFeesPaid  float64       `json:"totalFeesPaid"`
	Status         GasTankStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// StatusForBalance derives the account status from the balance/initial
// ratio. Thresholds are strict less-than, so boundary values land in
// the less severe band: exactly 20% is LOW, exactly 30% is ACTIVE.
func StatusForBalance(balance, initialBalance float64) GasTankStatus {
	if balance <= 0 {
		return GasTankEmpty
	}
	if initialBalance <= 0 {
		return GasTankActive
	}
	ratio := balance / initialBalance
	switch {
	case ratio < GasTankCriticalRatio:
		return GasTankCritical
	case ratio < GasTankLowRatio:
		return GasTankLow
	default:
		return GasTankActive
	}
}

type TransactionType string

const TxPerformanceFee TransactionType = "PERFORMANCE_FEE"

// GasTankTransaction is an immutable audit row, appended once per fee
// deduction.
type GasTankTransaction struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"accountId"`
	Type          TransactionType `json:"type"`
	Amount        float64         `json:"amount"`
	BalanceBefore float64         `json:"balanceBefore"`
	BalanceAfter  float64         `json:"balanceAfter"`
	Description   string          `json:"description"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}
