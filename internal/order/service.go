package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"procurement-be/internal/access"
	"procurement-be/internal/apperror"
	"procurement-be/internal/catalog"
	"procurement-be/internal/db"
	"procurement-be/internal/journal"
	"procurement-be/internal/logger"
	"procurement-be/internal/metrics"
	"procurement-be/internal/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	CreateOrder(ctx context.Context, actor access.Actor, lines []LineInput) (*Result, error)
	UpdateOrder(ctx context.Context, actor access.Actor, id uuid.UUID, lines []LineInput) (*Result, error)
	Transition(ctx context.Context, actor access.Actor, id uuid.UUID, action Action, comment string) (*Result, error)
	GetOrder(ctx context.Context, actor access.Actor, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, actor access.Actor, f Filter) ([]*Order, error)
	Stats(ctx context.Context, actor access.Actor, from, to *time.Time) (*Stats, error)
}

type service struct {
	tx         db.TxRunner
	repo       Repository
	products   catalog.Repository
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
		journal:    entries,
		policy:     policy,
		dispatcher: dispatcher,
		metrics:    reg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func orderResource(o *Order) access.Resource {
	return access.Resource{Kind: "order", ID: o.ID, OwnerID: o.OwnerID}
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	for _, l := range lines {
		if l.Quantity < 1 || l.Quantity > MaxQuantity {
			return ErrInvalidQuantity
		}
		if l.ProductID == nil && strings.TrimSpace(l.Name) == "" {
			return ErrLineProduct
		}
	}
	return nil
}

// resolveLines turns requested lines into priced order lines. Lines without
// a product id are matched to the catalog by name; unknown names become new
// catalog entries inside the same transaction.
func (s *service) resolveLines(ctx context.Context, products catalog.Repository, in []LineInput) ([]Line, error) {
	lines := make([]Line, 0, len(in))
	ids := make([]uuid.UUID, 0, len(in))

	for _, l := range in {
		if l.ProductID != nil {
			lines = append(lines, Line{ProductID: *l.ProductID, Quantity: l.Quantity})
			ids = append(ids, *l.ProductID)
			continue
		}

		p, err := products.FindByName(ctx, strings.TrimSpace(l.Name))
		if errors.Is(err, catalog.ErrProductNotFound) {
			p, err = catalog.BuildProduct(catalog.CreateProductInput{
				Name:              l.Name,
				UnitPrice:         l.UnitPrice,
				CriticalThreshold: l.CriticalThreshold,
			}, s.now())
			if err != nil {
				return nil, err
			}
			if err = products.Create(ctx, p); err != nil {
				return nil, err
			}
			logger.FromCtx(ctx).Info("product created from order line",
				zap.String("product_id", p.ID.String()),
				zap.String("name", p.Name),
			)
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, Line{ProductID: p.ID, Quantity: l.Quantity})
		ids = append(ids, p.ID)
	}

	found, err := products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, apperror.Newf(apperror.KindUnknownProduct, "unknown product %s", id)
		}
	}

	SnapshotFrom(found).Apply(lines, false)
	return lines, nil
}

func (s *service) CreateOrder(ctx context.Context, actor access.Actor, in []LineInput) (*Result, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.Int("lines", len(in)),
	)
	log.Info("CreateOrder started")

	if !s.policy.CanPerform(actor, access.ActionCreateOrder, access.Resource{Kind: "order", OwnerID: actor.ID}) {
		log.Warn("create order forbidden", zap.String("role", string(actor.Role)))
		return nil, ErrForbidden
	}
	if err := validateLines(in); err != nil {
		return nil, err
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		lines, err := s.resolveLines(ctx, s.products.WithTx(tx), in)
		if err != nil {
			return err
		}

		now := s.now()
		o := &Order{
			ID:          uuid.New(),
			OwnerID:     actor.ID,
			Lines:       lines,
			Status:      StatusSubmitted,
			TotalAmount: Total(lines),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.WithTx(tx).Create(ctx, o); err != nil {
			return err
		}

		entry := journal.NewEntry(&o.ID, actor.ID, journal.StateNone, string(StatusSubmitted), "order created", now)
		if err := s.journal.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}

		result = &Result{Order: o, Entry: entry}
		return nil
	})
	if err != nil {
		log.Error("CreateOrder failed", zap.Error(err))
		return nil, err
	}

	s.metrics.Inc(metrics.OrdersCreated)
	log.Info("CreateOrder success",
		zap.String("order_id", result.Order.ID.String()),
		zap.String("total", result.Order.TotalAmount.String()),
	)
	return result, nil
}

func (s *service) UpdateOrder(ctx context.Context, actor access.Actor, id uuid.UUID, in []LineInput) (*Result, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrder"),
		zap.String("order_id", id.String()),
	)
	log.Info("UpdateOrder started")

	if err := validateLines(in); err != nil {
		return nil, err
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)

		o, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !s.policy.CanPerform(actor, access.ActionUpdateOrder, orderResource(o)) {
			return ErrForbidden
		}
		if !o.Status.Editable() {
			return ErrNotEditable
		}

		lines, err := s.resolveLines(ctx, s.products.WithTx(tx), in)
		if err != nil {
			return err
		}

		previousTotal := o.TotalAmount
		o.Lines = lines
		o.TotalAmount = Total(lines)
		o.UpdatedAt = s.now()

		if err := repo.ReplaceLines(ctx, o.ID, o.Lines); err != nil {
			return err
		}
		if err := repo.Update(ctx, o); err != nil {
			return err
		}

		comment := fmt.Sprintf("lines updated, total %s -> %s", previousTotal.String(), o.TotalAmount.String())
		entry := journal.NewEntry(&o.ID, actor.ID, string(o.Status), string(o.Status), comment, o.UpdatedAt)
		if err := s.journal.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}

		result = &Result{Order: o, Entry: entry}
		return nil
	})
	if err != nil {
		log.Warn("UpdateOrder failed", zap.Error(err))
		return nil, err
	}

	s.metrics.Inc(metrics.OrdersUpdated)
	log.Info("UpdateOrder success", zap.String("total", result.Order.TotalAmount.String()))
	return result, nil
}

func (s *service) Transition(ctx context.Context, actor access.Actor, id uuid.UUID, action Action, comment string) (*Result, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Transition"),
		zap.String("order_id", id.String()),
		zap.String("action", string(action)),
	)
	log.Info("Transition started")

	if !action.Valid() {
		return nil, ErrUnknownAction
	}

	var result *Result
	err := s.tx.WithTx(ctx, func(tx *sql.Tx) error {
		repo := s.repo.WithTx(tx)

		o, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !s.policy.CanPerform(actor, action.Permission(), orderResource(o)) {
			return ErrForbidden
		}

		previous := o.Status
		next, err := Next(previous, action)
		if err != nil {
			return err
		}

		if action == ActionValidate {
			if err := s.settlePrices(ctx, tx, o); err != nil {
				return err
			}
		}

		// an empty comment keeps the reason recorded by an earlier transition
		if comment != "" {
			switch action {
			case ActionCancel:
				o.CancellationComment = comment
			case ActionValidate, ActionReject, ActionRevise:
				o.Comment = comment
			}
		}
		o.Status = next
		o.UpdatedAt = s.now()

		if err := repo.Update(ctx, o); err != nil {
			return err
		}

		entry := journal.NewEntry(&o.ID, actor.ID, string(previous), string(next), comment, o.UpdatedAt)
		if err := s.journal.WithTx(tx).Append(ctx, entry); err != nil {
			return err
		}

		result = &Result{Order: o, Entry: entry}
		if action == ActionRevise {
			result.Events = append(result.Events, notify.OrderUnderRevision{
				OrderID: o.ID,
				OwnerID: o.OwnerID,
				Comment: comment,
			})
		}
		return nil
	})
	if err != nil {
		if apperror.IsKind(err, apperror.KindInvalidTransition) || apperror.IsKind(err, apperror.KindForbidden) {
			s.metrics.Inc(metrics.TransitionsRejected)
		}
		log.Warn("Transition failed", zap.Error(err))
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, result.Events...)
	s.metrics.Inc(metrics.OrderTransitions)
	log.Info("Transition success",
		zap.String("from", result.Entry.PreviousState),
		zap.String("to", result.Entry.NewState),
	)
	return result, nil
}

// settlePrices fills in lines that were created before their product had a
// price and recomputes the total before the order becomes Validated.
func (s *service) settlePrices(ctx context.Context, tx *sql.Tx, o *Order) error {
	missing := MissingPrices(o.Lines)
	if len(missing) > 0 {
		found, err := s.products.WithTx(tx).GetByIDs(ctx, missing)
		if err != nil {
			return err
		}
		if SnapshotFrom(found).Apply(o.Lines, true) {
			if err := s.repo.WithTx(tx).ReplaceLines(ctx, o.ID, o.Lines); err != nil {
				return err
			}
		}
	}
	o.TotalAmount = Total(o.Lines)
	return nil
}

func (s *service) GetOrder(ctx context.Context, actor access.Actor, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err)
	}
	if !s.policy.CanPerform(actor, access.ActionViewOrder, orderResource(o)) {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, actor access.Actor, f Filter) ([]*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListOrders"),
		zap.String("role", string(actor.Role)),
	)

	if f.Status != nil && !f.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, ErrInvalidRange
	}

	owner, err := s.ownerScope(actor, access.ActionListOrders, access.ActionListOwnOrders)
	if err != nil {
		log.Warn("list orders forbidden")
		return nil, err
	}

	q := ListQuery{OwnerID: owner, Status: f.Status, From: f.From, To: f.To}
	if owner == nil && q.Status == nil {
		// the full listing opens on the queue awaiting a decision
		submitted := StatusSubmitted
		q.Status = &submitted
	}

	orders, err := s.repo.List(ctx, q)
	if err != nil {
		log.Error("failed to list orders", zap.Error(err))
		return nil, db.Classify(err)
	}

	log.Info("ListOrders success", zap.Int("count", len(orders)))
	return orders, nil
}

// ownerScope asks the policy whether actor may see every order (nil owner)
// or only the orders it owns.
func (s *service) ownerScope(actor access.Actor, all, own access.Action) (*uuid.UUID, error) {
	if s.policy.CanPerform(actor, all, access.Resource{Kind: "order"}) {
		return nil, nil
	}
	if s.policy.CanPerform(actor, own, access.Resource{Kind: "order", OwnerID: actor.ID}) {
		owner := actor.ID
		return &owner, nil
	}
	return nil, ErrForbidden
}

func (s *service) Stats(ctx context.Context, actor access.Actor, from, to *time.Time) (*Stats, error) {
	owner, err := s.ownerScope(actor, access.ActionOrderStats, access.ActionOwnOrderStats)
	if err != nil {
		return nil, err
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, ErrInvalidRange
	}

	stats, err := s.repo.Stats(ctx, StatsQuery{OwnerID: owner, From: from, To: to})
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load order stats", zap.Error(err))
		return nil, db.Classify(err)
	}
	return stats, nil
}
