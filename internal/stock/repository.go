package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"procurement-be/internal/db"
	"procurement-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	WithTx(tx db.DBTX) Repository
	// AddInbound creates or increments the record in one statement and
	// returns the quantity after the movement.
	AddInbound(ctx context.Context, productID uuid.UUID, qty int, at time.Time) (int, error)
	// GetForUpdate locks the record until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, productID uuid.UUID) (*Record, error)
	SetQuantity(ctx context.Context, productID uuid.UUID, qty int, at time.Time) error
	Get(ctx context.Context, productID uuid.UUID) (*Record, error)
	List(ctx context.Context) ([]*Level, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx db.DBTX) Repository {
	return &repository{db: tx}
}

func (r *repository) AddInbound(ctx context.Context, productID uuid.UUID, qty int, at time.Time) (int, error) {
	var after int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO stock_records (product_id, available_quantity, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id) DO UPDATE
		SET available_quantity = stock_records.available_quantity + EXCLUDED.available_quantity,
			last_updated = EXCLUDED.last_updated
		RETURNING available_quantity
	`, productID, qty, at).Scan(&after)
	if db.IsOutOfRange(err) {
		return 0, ErrCapacityExceeded
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to record inbound stock",
			zap.String("product_id", productID.String()),
			zap.Int("quantity", qty),
			zap.Error(err),
		)
		return 0, fmt.Errorf("record inbound: %w", err)
	}
	return after, nil
}

func (r *repository) GetForUpdate(ctx context.Context, productID uuid.UUID) (*Record, error) {
	return r.get(ctx, productID, true)
}

func (r *repository) Get(ctx context.Context, productID uuid.UUID) (*Record, error) {
	return r.get(ctx, productID, false)
}

func (r *repository) get(ctx context.Context, productID uuid.UUID, lock bool) (*Record, error) {
	query := `SELECT product_id, available_quantity, last_updated FROM stock_records WHERE product_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var rec Record
	err := r.db.QueryRowContext(ctx, query, productID).
		Scan(&rec.ProductID, &rec.AvailableQuantity, &rec.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return &rec, nil
}

func (r *repository) SetQuantity(ctx context.Context, productID uuid.UUID, qty int, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE stock_records
		SET available_quantity = $1, last_updated = $2
		WHERE product_id = $3
	`, qty, at, productID)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update stock record",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("update stock record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// List returns every catalog product with its stock position; products that
// never received stock show zero.
func (r *repository) List(ctx context.Context) ([]*Level, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.name, COALESCE(s.available_quantity, 0), p.critical_threshold, s.last_updated
		FROM products p
		LEFT JOIN stock_records s ON s.product_id = p.id
		ORDER BY p.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()

	levels := []*Level{}
	for rows.Next() {
		var (
			l           Level
			lastUpdated sql.NullTime
		)
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.AvailableQuantity, &l.CriticalThreshold, &lastUpdated); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		if lastUpdated.Valid {
			l.LastUpdated = &lastUpdated.Time
		}
		l.Low = IsLow(l.AvailableQuantity, l.CriticalThreshold)
		levels = append(levels, &l)
	}
	return levels, rows.Err()
}
