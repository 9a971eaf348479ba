package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"procurement-be/internal/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_AddInbound(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	repo := NewRepository(conn)
	ctx := context.Background()
	productID := uuid.New()
	now := time.Now().UTC()

	t.Run("Upsert", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO stock_records .* ON CONFLICT \(product_id\) DO UPDATE .* RETURNING available_quantity`).
			WithArgs(productID, 10, now).
			WillReturnRows(sqlmock.NewRows([]string{"available_quantity"}).AddRow(14))

		after, err := repo.AddInbound(ctx, productID, 10, now)
		require.NoError(t, err)
		assert.Equal(t, 14, after)
	})

	t.Run("Overflow", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO stock_records`).
			WithArgs(productID, MaxQuantity, now).
			WillReturnError(&pq.Error{Code: "22003", Message: "integer out of range"})

		_, err := repo.AddInbound(ctx, productID, MaxQuantity, now)
		assert.ErrorIs(t, err, ErrCapacityExceeded)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO stock_records`).
			WillReturnError(errors.New("db down"))

		_, err := repo.AddInbound(ctx, productID, 1, now)
		assert.ErrorContains(t, err, "record inbound")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetForUpdate(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	repo := NewRepository(conn)
	ctx := context.Background()
	productID := uuid.New()
	now := time.Now().UTC()

	t.Run("Locked", func(t *testing.T) {
		mock.ExpectQuery(`SELECT product_id, available_quantity, last_updated FROM stock_records WHERE product_id = \$1 FOR UPDATE`).
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "available_quantity", "last_updated"}).
				AddRow(productID.String(), 4, now))

		rec, err := repo.GetForUpdate(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, 4, rec.AvailableQuantity)
		assert.Equal(t, productID, rec.ProductID)
	})

	t.Run("Missing", func(t *testing.T) {
		mock.ExpectQuery(`FROM stock_records`).
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "available_quantity", "last_updated"}))

		_, err := repo.GetForUpdate(ctx, productID)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SetQuantity(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	repo := NewRepository(conn)
	productID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectExec(`UPDATE stock_records`).
		WithArgs(4, now, productID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.SetQuantity(context.Background(), productID, 4, now))

	mock.ExpectExec(`UPDATE stock_records`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetQuantity(context.Background(), productID, 4, now), ErrRecordNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_List(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	repo := NewRepository(conn)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT p.id, p.name, COALESCE\(s.available_quantity, 0\), p.critical_threshold, s.last_updated FROM products p LEFT JOIN stock_records s`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "available_quantity", "critical_threshold", "last_updated"}).
			AddRow(uuid.NewString(), "Paper", 50, 10, now).
			AddRow(uuid.NewString(), "Widget", 4, 5, now).
			AddRow(uuid.NewString(), "Toner", 0, 0, nil))

	levels, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.False(t, levels[0].Low)
	assert.True(t, levels[1].Low)
	assert.True(t, levels[2].Low)
	assert.Nil(t, levels[2].LastUpdated)
	assert.NoError(t, mock.ExpectationsWereMet())
}
