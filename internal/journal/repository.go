package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"procurement-be/internal/db"
	"procurement-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	// WithTx returns a repository whose writes join the given transaction.
	WithTx(tx db.DBTX) Repository
	Append(ctx context.Context, e *Entry) error
	Query(ctx context.Context, f Filter) ([]*Entry, error)
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

func (r *repository) Append(ctx context.Context, e *Entry) error {
	comment := sql.NullString{String: e.Comment, Valid: e.Comment != ""}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO journal_entries (
			id, order_id, actor_id, previous_state, new_state, comment, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		e.ID,
		e.OrderID,
		e.ActorID,
		e.PreviousState,
		e.NewState,
		comment,
		e.Timestamp,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to append journal entry",
			zap.String("entry_id", e.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

func (r *repository) Query(ctx context.Context, f Filter) ([]*Entry, error) {
	query := `
		SELECT
			j.id,
			j.order_id,
			j.actor_id,
			j.previous_state,
			j.new_state,
			j.comment,
			j.created_at
		FROM journal_entries j
	`

	where := []string{}
	args := []interface{}{}

	if f.OrderID != nil {
		args = append(args, *f.OrderID)
		where = append(where, fmt.Sprintf("j.order_id = $%d", len(args)))
	}
	if f.ActorID != nil {
		args = append(args, *f.ActorID)
		where = append(where, fmt.Sprintf("j.actor_id = $%d", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("j.created_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("j.created_at <= $%d", len(args)))
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	// seq breaks timestamp ties so identical filters yield identical sequences
	query += " ORDER BY j.created_at ASC, j.seq ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		var (
			e       Entry
			orderID uuid.NullUUID
			comment sql.NullString
		)
		if err := rows.Scan(
			&e.ID,
			&orderID,
			&e.ActorID,
			&e.PreviousState,
			&e.NewState,
			&comment,
			&e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if orderID.Valid {
			id := orderID.UUID
			e.OrderID = &id
		}
		e.Comment = comment.String
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}
