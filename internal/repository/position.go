package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quantumdesk/quantum-backend/internal/models"
)

// ErrPositionNotOpen is returned when a close targets a position that
// does not exist or was already closed (possibly by a concurrent run).
var ErrPositionNotOpen = errors.New("position is not open")

// ErrStaleVersion is returned when a market update lost the optimistic
// concurrency race: the row version advanced since the position was read.
var ErrStaleVersion = errors.New("position version is stale")

type PositionRepo struct {
	pool *pgxpool.Pool
}

func NewPositionRepo(pool *pgxpool.Pool) *PositionRepo {
	return &PositionRepo{pool: pool}
}

func (r *PositionRepo) Create(ctx context.Context, p *models.Position) (*models.Position, error) {
	opened := p.OpenedAt
	if opened.IsZero() {
		opened = time.Now()
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO trading_positions
		 (symbol, side, entry_price, quantity, stop_loss_price, take_profit_price,
		  status, current_price, unrealized_pnl, realized_pnl, version, opened_at)
		 VALUES ($1,$2,$3,$4,$5,$6,'open',$3,0,0,1,$7)
		 RETURNING *`,
		p.Symbol, p.Side, p.EntryPrice, p.Quantity,
		p.StopLossPrice, p.TakeProfitPrice, opened,
	)
	return scanPosition(row)
}

func (r *PositionRepo) GetByID(ctx context.Context, id int64) (*models.Position, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT * FROM trading_positions WHERE id = $1`, id,
	)
	p, err := scanPosition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *PositionRepo) GetOpen(ctx context.Context) ([]models.Position, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT * FROM trading_positions WHERE status = 'open' ORDER BY opened_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPositions(rows)
}

func (r *PositionRepo) GetClosed(ctx context.Context, limit int) ([]models.Position, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT * FROM trading_positions WHERE status = 'closed'
		 ORDER BY closed_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPositions(rows)
}

// UpdateMarket persists a new observed price and unrealized P&L. The
// version token guards against a concurrent close or update; a stale
// version yields ErrStaleVersion and no write.
func (r *PositionRepo) UpdateMarket(ctx context.Context, id int64, version int, price, unrealizedPnL float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE trading_positions
		 SET current_price = $3, unrealized_pnl = $4, version = version + 1
		 WHERE id = $1 AND version = $2 AND status = 'open'`,
		id, version, price, unrealizedPnL,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleVersion
	}
	return nil
}

// Close transitions a position open -> closed exactly once. The status
// predicate is the compare-and-set: the loser of a concurrent close
// sees ErrPositionNotOpen.
func (r *PositionRepo) Close(ctx context.Context, id int64, price, realizedPnL float64, reason models.CloseReason) (*models.Position, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE trading_positions
		 SET status = 'closed', current_price = $2, unrealized_pnl = 0,
		     realized_pnl = $3, close_reason = $4, version = version + 1,
		     closed_at = NOW()
		 WHERE id = $1 AND status = 'open'
		 RETURNING *`,
		id, price, realizedPnL, reason,
	)
	p, err := scanPosition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPositionNotOpen
		}
		return nil, err
	}
	return p, nil
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanPosition(row scannable) (*models.Position, error) {
	var p models.Position
	var side, status string
	var reason *string
	err := row.Scan(
		&p.ID, &p.Symbol, &side, &p.EntryPrice, &p.Quantity,
		&p.StopLossPrice, &p.TakeProfitPrice, &status,
		&p.CurrentPrice, &p.UnrealizedPnL, &p.RealizedPnL,
		&reason, &p.Version, &p.OpenedAt, &p.ClosedAt, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Side = models.Side(side)
	p.Status = models.PositionStatus(status)
	if reason != nil {
		cr := models.CloseReason(*reason)
		p.CloseReason = &cr
	}
	return &p, nil
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectPositions(rows rowsIter) ([]models.Position, error) {
	var out []models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
