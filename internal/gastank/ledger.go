package gastank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantumdesk/quantum-backend/internal/models"
	"github.com/quantumdesk/quantum-backend/internal/repository"
)

// ErrInvalidProfit is returned for a non-positive profit input, before
// any read or mutation.
var ErrInvalidProfit = errors.New("profit must be positive")

// moneyScale is the decimal precision balances and fees are rounded to.
const moneyScale = 8

// FeeBreakdown is the outcome of applying one realized profit to an
// account under the high-water-mark rule.
type FeeBreakdown struct {
	NewEquity     float64
	Fee           float64
	NewBalance    float64
	HighWaterMark float64
}

// ComputeFee applies the high-water-mark rule in exact decimal
// arithmetic. The profit is credited to the tank, a performance fee is
// charged only on equity above the prior mark, and the resulting
// balance is clamped at zero. The mark never decreases.
func ComputeFee(balance, highWaterMark, profit, feeRate float64) FeeBreakdown {
	bal := decimal.NewFromFloat(balance)
	hwm := decimal.NewFromFloat(highWaterMark)
	equity := bal.Add(decimal.NewFromFloat(profit))

	fee := decimal.Zero
	if equity.GreaterThan(hwm) {
		fee = equity.Sub(hwm).Mul(decimal.NewFromFloat(feeRate)).Round(moneyScale)
		hwm = equity
	}

	newBal := equity.Sub(fee).Round(moneyScale)
	if newBal.IsNegative() {
		newBal = decimal.Zero
	}

	return FeeBreakdown{
		NewEquity:     equity.InexactFloat64(),
		Fee:           fee.InexactFloat64(),
		NewBalance:    newBal.InexactFloat64(),
		HighWaterMark: hwm.InexactFloat64(),
	}
}

// accountStore abstracts the transactional account update so the ledger
// can be tested without a real database.
type accountStore interface {
	Deduct(ctx context.Context, userID string, fn func(acct *models.GasTankAccount) (*models.GasTankTransaction, error)) (*models.GasTankAccount, error)
}

// Result is what the fee-deduction endpoint reports back.
type Result struct {
	FeeAmount     float64
	NewBalance    float64
	Status        models.GasTankStatus
	HighWaterMark float64
	Charged       bool
}

type Ledger struct {
	store accountStore
	log   *zap.Logger
}

func NewLedger(store accountStore, log *zap.Logger) *Ledger {
	return &Ledger{store: store, log: log.Named("gastank")}
}

// DeductFee charges a performance fee for a realized profit. The whole
// read-modify-write runs inside one database transaction with the
// account row locked, so concurrent deductions for the same user
// serialize. A transaction record is appended only when a fee was
// actually charged.
func (l *Ledger) DeductFee(ctx context.Context, userID string, profit float64, tradeExecutionID string) (*Result, error) {
	if profit <= 0 {
		return nil, ErrInvalidProfit
	}

	var result Result

	_, err := l.store.Deduct(ctx, userID, func(acct *models.GasTankAccount) (*models.GasTankTransaction, error) {
		breakdown := ComputeFee(acct.Balance, acct.HighWaterMark, profit, acct.FeeRate)
		balanceBefore := acct.Balance

		// Daily fee total rolls over at the accounting-day boundary.
		today := repository.AccountingDayNow()
		if acct.FeesDay != today {
			acct.FeesPaidToday = 0
			acct.FeesDay = today
		}

		acct.Balance = breakdown.NewBalance
		acct.HighWaterMark = breakdown.HighWaterMark
		acct.Status = models.StatusForBalance(acct.Balance, acct.InitialBalance)
		if breakdown.Fee > 0 {
			acct.FeesPaidToday += breakdown.Fee
			acct.TotalFeesPaid += breakdown.Fee
		}

		result = Result{
			FeeAmount:     breakdown.Fee,
			NewBalance:    acct.Balance,
			Status:        acct.Status,
			HighWaterMark: acct.HighWaterMark,
			Charged:       breakdown.Fee > 0,
		}

		if breakdown.Fee <= 0 {
			return nil, nil
		}

		metadata, err := json.Marshal(map[string]any{
			"profit":           profit,
			"highWaterMark":    breakdown.HighWaterMark,
			"tradeExecutionId": tradeExecutionID,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}

		return &models.GasTankTransaction{
			ID:            uuid.NewString(),
			AccountID:     acct.UserID,
			Type:          models.TxPerformanceFee,
			Amount:        breakdown.Fee,
			BalanceBefore: balanceBefore,
			BalanceAfter:  acct.Balance,
			Description: fmt.Sprintf("Performance fee on $%.2f profit above high-water mark",
				profit),
			Metadata: metadata,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if result.Charged {
		l.log.Info("performance fee charged",
			zap.String("user_id", userID),
			zap.Float64("profit", profit),
			zap.Float64("fee", result.FeeAmount),
			zap.Float64("new_balance", result.NewBalance),
			zap.Float64("high_water_mark", result.HighWaterMark),
			zap.String("status", string(result.Status)))
	} else {
		l.log.Info("no fee due, profit below high-water mark",
			zap.String("user_id", userID),
			zap.Float64("profit", profit),
			zap.Float64("new_balance", result.NewBalance))
	}

	return &result, nil
}
