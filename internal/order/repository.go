package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"procurement-be/internal/db"
	"procurement-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Repository interface {
	WithTx(tx db.DBTX) Repository
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// GetForUpdate loads the order and locks its row until the surrounding
	// transaction ends. It must be called on a repository bound to a tx.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	Update(ctx context.Context, o *Order) error
	ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []Line) error
	List(ctx context.Context, q ListQuery) ([]*Order, error)
	Stats(ctx context.Context, q StatsQuery) (*Stats, error)
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

const orderColumns = `o.id, o.owner_id, o.status, o.comment, o.cancellation_comment,
	o.total_amount, o.created_at, o.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o            Order
		comment      sql.NullString
		cancellation sql.NullString
	)
	if err := row.Scan(
		&o.ID,
		&o.OwnerID,
		&o.Status,
		&comment,
		&cancellation,
		&o.TotalAmount,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.Comment = comment.String
	o.CancellationComment = cancellation.String
	return &o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (
			id, owner_id, status, comment, cancellation_comment,
			total_amount, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		o.ID,
		o.OwnerID,
		o.Status,
		nullString(o.Comment),
		nullString(o.CancellationComment),
		o.TotalAmount,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to insert order",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("insert order: %w", err)
	}

	return r.insertLines(ctx, o.ID, o.Lines)
}

func (r *repository) insertLines(ctx context.Context, orderID uuid.UUID, lines []Line) error {
	for i, l := range lines {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, position, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
		`, orderID, i, l.ProductID, l.Quantity, l.UnitPrice)
		if err != nil {
			logger.FromCtx(ctx).Error("db: failed to insert order line",
				zap.String("order_id", orderID.String()),
				zap.Int("position", i),
				zap.Error(err),
			)
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.get(ctx, id, false)
}

func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.get(ctx, id, true)
}

func (r *repository) get(ctx context.Context, id uuid.UUID, lock bool) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	lines, err := r.fetchLines(ctx, []uuid.UUID{o.ID})
	if err != nil {
		return nil, err
	}
	o.Lines = lines[o.ID]
	return o, nil
}

// fetchLines loads the lines of every order in ids with a single query,
// grouped by order and kept in insertion order.
func (r *repository) fetchLines(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]Line, error) {
	result := make(map[uuid.UUID][]Line, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, quantity, unit_price
		FROM order_lines
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("fetch order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID uuid.UUID
			l       Line
		)
		if err := rows.Scan(&orderID, &l.ProductID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		result[orderID] = append(result[orderID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return result, nil
}

func (r *repository) Update(ctx context.Context, o *Order) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
			comment = $2,
			cancellation_comment = $3,
			total_amount = $4,
			updated_at = $5
		WHERE id = $6
	`,
		o.Status,
		nullString(o.Comment),
		nullString(o.CancellationComment),
		o.TotalAmount,
		o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update order",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []Line) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM order_lines WHERE order_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete order lines: %w", err)
	}
	return r.insertLines(ctx, orderID, lines)
}

func (r *repository) List(ctx context.Context, q ListQuery) ([]*Order, error) {
	log := logger.FromCtx(ctx).With(zap.String("method", "List"))

	query := `SELECT ` + orderColumns + ` FROM orders o WHERE 1=1`
	args := []any{}
	argIndex := 1

	if q.OwnerID != nil {
		query += fmt.Sprintf(" AND o.owner_id = $%d", argIndex)
		args = append(args, *q.OwnerID)
		argIndex++
	}
	if q.Status != nil {
		query += fmt.Sprintf(" AND o.status = $%d", argIndex)
		args = append(args, *q.Status)
		argIndex++
	}
	if q.From != nil {
		query += fmt.Sprintf(" AND o.created_at >= $%d", argIndex)
		args = append(args, *q.From)
		argIndex++
	}
	if q.To != nil {
		query += fmt.Sprintf(" AND o.created_at <= $%d", argIndex)
		args = append(args, *q.To)
	}

	query += " ORDER BY o.created_at DESC, o.id"

	log.Debug("executing list orders query",
		zap.String("query", query),
		zap.Any("args", args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []*Order{}
	ids := []uuid.UUID{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	lines, err := r.fetchLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		o.Lines = lines[o.ID]
	}
	return orders, nil
}

func (r *repository) Stats(ctx context.Context, q StatsQuery) (*Stats, error) {
	query := `
		SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE 1=1`
	args := []any{}
	argIndex := 1

	if q.OwnerID != nil {
		query += fmt.Sprintf(" AND owner_id = $%d", argIndex)
		args = append(args, *q.OwnerID)
		argIndex++
	}
	if q.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIndex)
		args = append(args, *q.From)
		argIndex++
	}
	if q.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIndex)
		args = append(args, *q.To)
	}
	query += " GROUP BY status"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	stats := &Stats{Counts: map[Status]int{}, ValidatedTotal: decimal.Zero}
	for rows.Next() {
		var (
			status Status
			count  int
			sum    decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return nil, fmt.Errorf("scan order stats: %w", err)
		}
		stats.Counts[status] = count
		if status == StatusValidated {
			stats.ValidatedTotal = sum
		}
	}
	return stats, rows.Err()
}
