package catalog

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
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	FindByName(ctx context.Context, name string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	SetPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error
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

const productColumns = `id, name, unit_price, critical_threshold, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.UnitPrice, &p.CriticalThreshold, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, p *Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, unit_price, critical_threshold, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.Name, p.UnitPrice, p.CriticalThreshold, p.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, productNameConstraint) {
			return ErrDuplicateName
		}
		logger.FromCtx(ctx).Error("db: failed to insert product",
			zap.String("name", p.Name),
			zap.Error(err),
		)
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetByIDs loads every product in ids with one query. Missing ids are simply
// absent from the result.
func (r *repository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error) {
	result := make(map[uuid.UUID]*Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[])`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		result[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return result, nil
}

func (r *repository) FindByName(ctx context.Context, name string) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE name = $1`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product by name: %w", err)
	}
	return p, nil
}

func (r *repository) List(ctx context.Context) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []*Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) SetPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET unit_price = $1 WHERE id = $2`, price, id)
	if err != nil {
		return fmt.Errorf("set product price: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
