package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"procurement-be/internal/access"
	"procurement-be/internal/apperror"
	"procurement-be/internal/catalog"
	"procurement-be/internal/db"
	"procurement-be/internal/journal"
	"procurement-be/internal/logger"
	"procurement-be/internal/metrics"
	"procurement-be/internal/notify"
	"procurement-be/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the stock ledger. Every movement is additive or subtractive;
// repeating a call repeats the movement.
type Service interface {
	RecordInbound(ctx context.Context, actor access.Actor, productID uuid.UUID, qty int) (*Result, error)
	RecordOutbound(ctx context.Context, actor access.Actor, productID uuid.UUID, qty int, recipientID uuid.UUID) (*Result, error)
	GetStock(ctx context.Context, productID uuid.UUID) (*Record, error)
	ListStock(ctx context.Context) ([]*Level, error)
}

type service struct {
	tx         db.TxRunner
	repo       Repository
	products   catalog.Repository
	users      user.Repository
	journal    journal.Repository
	policy     access.Policy
	dispatcher notify.Dispatcher
	metrics    *metrics.Registry
	now        func() time.Time
}

func NewService(
	tx db.TxRunner,
	repo Repository,
	products catalog.Repository,
	users user.Repository,
	entries journal.Repository,
	policy access.Policy,
	dispatcher notify.Dispatcher,
	reg *metrics.Registry,
) Service {
	if dispatcher == nil {
		dispatcher = notify.Nop{}
	}
	return &service{
		tx:         tx,
		repo:       repo,
		products:   products,
		users:      users,
		journal:    entries,
		policy:     policy,
		dispatcher: dispatcher,
		metrics:    reg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) lookupProduct(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*catalog.Product, error) {
	p, err := s.products.WithTx(tx).GetByID(ctx, id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		return nil, apperror.Newf(apperror.KindUnknownProduct, "unknown product %s", id)
	}
	return p, err
}

func lowStock(p *catalog.Product, available int) notify.Event {
	return notify.LowStockDetected{
		ProductID:   p.ID,
		ProductName: p.Name,
		Available:   available,
		Threshold:   p.CriticalThreshold,
	}
}

func (s *service) RecordInbound(ctx context.Context, actor access.Actor, productID uuid.UUID, qty int) (*Result, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RecordInbound"),
		zap.String("product_id", productID.String()),
		zap.Int("quantity", qty),
	)
	log.Info("RecordInbound started")

	if !s.policy.CanPerform(actor, access.ActionStockInbound, access.Resource{Kind: "stock", ID: productID}) {
		log.Warn("inbound forbidden", zap.String("role", string(actor.Role)))
		return nil, ErrForbidden
	}
	if qty < 1 || qty > MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		p, err := s.lookupProduct(ctx, tx, productID)
		if err != nil {
			return err
		}

		now := s.now()
		after, err := s.repo.WithTx(tx).AddInbound(ctx, productID, qty, now)
		if err != nil {
			return err
		}
		before := after - qty

		entry := journal.NewEntry(nil, actor.ID,
			fmt.Sprintf("stock before inbound: %d", before),
			fmt.Sprintf("stock after inbound: %d", after),
			fmt.Sprintf("inbound %d x %s", qty, p.Name),
			now,
		)
		if err := s.journal.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}

		result = &Result{
			Record: &Record{ProductID: productID, AvailableQuantity: after, LastUpdated: now},
			Entry:  entry,
		}
		if IsLow(after, p.CriticalThreshold) {
			result.Events = append(result.Events, lowStock(p, after))
		}
		return nil
	})
	if err != nil {
		log.Warn("RecordInbound failed", zap.Error(err))
		return nil, err
	}

	s.afterCommit(ctx, result, metrics.StockInbound)
	log.Info("RecordInbound success", zap.Int("available", result.Record.AvailableQuantity))
	return result, nil
}

func (s *service) RecordOutbound(ctx context.Context, actor access.Actor, productID uuid.UUID, qty int, recipientID uuid.UUID) (*Result, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RecordOutbound"),
		zap.String("product_id", productID.String()),
		zap.String("recipient_id", recipientID.String()),
		zap.Int("quantity", qty),
	)
	log.Info("RecordOutbound started")

	if !s.policy.CanPerform(actor, access.ActionStockOutbound, access.Resource{Kind: "stock", ID: productID}) {
		log.Warn("outbound forbidden", zap.String("role", string(actor.Role)))
		return nil, ErrForbidden
	}
	if qty < 1 || qty > MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	if recipientID == uuid.Nil {
		return nil, ErrRecipientRequired
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		p, err := s.lookupProduct(ctx, tx, productID)
		if err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		rec, err := repo.GetForUpdate(ctx, productID)
		if errors.Is(err, ErrRecordNotFound) {
			return apperror.Newf(apperror.KindInsufficientStock,
				"no stock of %s available, requested %d", p.Name, qty)
		}
		if err != nil {
			return err
		}
		if rec.AvailableQuantity < qty {
			return apperror.Newf(apperror.KindInsufficientStock,
				"only %d of %s available, requested %d", rec.AvailableQuantity, p.Name, qty)
		}

		known, err := s.users.WithTx(tx).Exists(ctx, recipientID)
		if err != nil {
			return err
		}
		if !known {
			return ErrUnknownRecipient
		}

		now := s.now()
		before := rec.AvailableQuantity
		after := before - qty
		if err := repo.SetQuantity(ctx, productID, after, now); err != nil {
			return err
		}

		entry := journal.NewEntry(nil, actor.ID,
			fmt.Sprintf("stock before outbound: %d", before),
			fmt.Sprintf("stock after outbound: %d", after),
			fmt.Sprintf("outbound %d x %s to %s", qty, p.Name, recipientID),
			now,
		)
		if err := s.journal.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}

		result = &Result{
			Record: &Record{ProductID: productID, AvailableQuantity: after, LastUpdated: now},
			Entry:  entry,
			Events: []notify.Event{notify.StockAssigned{
				ProductID:   productID,
				ProductName: p.Name,
				Quantity:    qty,
				RecipientID: recipientID,
				AssignedBy:  actor.ID,
			}},
		}
		if IsLow(after, p.CriticalThreshold) {
			result.Events = append(result.Events, lowStock(p, after))
		}
		return nil
	})
	if err != nil {
		log.Warn("RecordOutbound failed", zap.Error(err))
		return nil, err
	}

	s.afterCommit(ctx, result, metrics.StockOutbound)
	log.Info("RecordOutbound success", zap.Int("available", result.Record.AvailableQuantity))
	return result, nil
}

func (s *service) afterCommit(ctx context.Context, result *Result, counter string) {
	s.metrics.Inc(counter)
	for _, ev := range result.Events {
		if ev.Type() == notify.EventLowStockDetected {
			s.metrics.Inc(metrics.LowStockAlerts)
		}
	}
	s.dispatcher.Dispatch(ctx, result.Events...)
}

func (s *service) GetStock(ctx context.Context, productID uuid.UUID) (*Record, error) {
	rec, err := s.repo.Get(ctx, productID)
	if errors.Is(err, ErrRecordNotFound) {
		if _, err := s.products.GetByID(ctx, productID); err != nil {
			return nil, db.Classify(err)
		}
		return &Record{ProductID: productID}, nil
	}
	if err != nil {
		return nil, db.Classify(err)
	}
	return rec, nil
}

func (s *service) ListStock(ctx context.Context) ([]*Level, error) {
	levels, err := s.repo.List(ctx)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list stock", zap.Error(err))
		return nil, db.Classify(err)
	}
	return levels, nil
}
