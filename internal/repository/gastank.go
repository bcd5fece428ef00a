package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quantumdesk/quantum-backend/internal/models"
)

// ErrAccountNotFound is returned when no gas tank exists for a user.
var ErrAccountNotFound = errors.New("gas tank account not found")

type GasTankRepo struct {
	pool *pgxpool.Pool
}

func NewGasTankRepo(pool *pgxpool.Pool) *GasTankRepo {
	return &GasTankRepo{pool: pool}
}

// CreateAccount opens a gas tank at onboarding:
// balance = initial_balance = high_water_mark.
func (r *GasTankRepo) CreateAccount(ctx context.Context, userID string, initialBalance, feeRate float64) (*models.GasTankAccount, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO gas_tank_accounts
		 (user_id, balance, initial_balance, high_water_mark, fee_rate,
		  fees_paid_today, fees_day, total_fees_paid, status)
		 VALUES ($1,$2,$2,$2,$3,0,$4,0,'ACTIVE')
		 RETURNING *`,
		userID, initialBalance, feeRate, AccountingDayNow(),
	)
	return scanAccount(row)
}

func (r *GasTankRepo) GetAccount(ctx context.Context, userID string) (*models.GasTankAccount, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT * FROM gas_tank_accounts WHERE user_id = $1`, userID,
	)
	acct, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return acct, nil
}

// Deduct runs fn against the account row locked FOR UPDATE and persists
// the mutated account in the same transaction. When fn returns a
// transaction record it is appended to the ledger atomically with the
// account write. Concurrent deductions for one user serialize on the
// row lock.
func (r *GasTankRepo) Deduct(ctx context.Context, userID string, fn func(acct *models.GasTankAccount) (*models.GasTankTransaction, error)) (*models.GasTankAccount, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT * FROM gas_tank_accounts WHERE user_id = $1 FOR UPDATE`, userID,
	)
	acct, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	txn, err := fn(acct)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE gas_tank_accounts
		 SET balance = $2, high_water_mark = $3, fees_paid_today = $4,
		     fees_day = $5, total_fees_paid = $6, status = $7, updated_at = NOW()
		 WHERE user_id = $1`,
		acct.UserID, acct.Balance, acct.HighWaterMark, acct.FeesPaidToday,
		acct.FeesDay, acct.TotalFeesPaid, acct.Status,
	)
	if err != nil {
		return nil, err
	}

	if txn != nil {
		_, err = tx.Exec(ctx,
			`INSERT INTO gas_tank_transactions
			 (id, account_id, type, amount, balance_before, balance_after,
			  description, metadata)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			txn.ID, txn.AccountID, txn.Type, txn.Amount,
			txn.BalanceBefore, txn.BalanceAfter, txn.Description, txn.Metadata,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return acct, nil
}

func (r *GasTankRepo) GetTransactions(ctx context.Context, userID string, limit int) ([]models.GasTankTransaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT * FROM gas_tank_transactions WHERE account_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.GasTankTransaction
	for rows.Next() {
		var t models.GasTankTransaction
		var typ string
		if err := rows.Scan(
			&t.ID, &t.AccountID, &typ, &t.Amount,
			&t.BalanceBefore, &t.BalanceAfter, &t.Description,
			&t.Metadata, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		t.Type = models.TransactionType(typ)
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanAccount(row scannable) (*models.GasTankAccount, error) {
	var a models.GasTankAccount
	var status string
	var feesDay time.Time
	err := row.Scan(
		&a.UserID, &a.Balance, &a.InitialBalance, &a.HighWaterMark,
		&a.FeeRate, &a.FeesPaidToday, &feesDay, &a.TotalFeesPaid,
		&status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = models.GasTankStatus(status)
	a.FeesDay = feesDay.Format("2006-01-02")
	return &a, nil
}
