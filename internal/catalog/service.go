package catalog

import (
	"context"
	"strings"
	"time"

	"procurement-be/internal/access"
	"procurement-be/internal/db"
	"procurement-be/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service interface {
	CreateProduct(ctx context.Context, actor access.Actor, in CreateProductInput) (*Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context) ([]*Product, error)
	SetPrice(ctx context.Context, actor access.Actor, id uuid.UUID, price decimal.Decimal) (*Product, error)
}

type service struct {
	repo   Repository
	policy access.Policy
	now    func() time.Time
}

func NewService(repo Repository, policy access.Policy) Service {
	return &service{
		repo:   repo,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// BuildProduct validates in and applies defaults. It does not persist.
// maxPrice is the exclusive bound of products.unit_price NUMERIC(14, 2).
var maxPrice = decimal.New(1, 12)

// ValidatePrice accepts prices the unit_price column stores without rounding.
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrNegativePrice
	}
	if !price.Round(2).Equal(price) {
		return ErrPricePrecision
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return ErrPriceTooLarge
	}
	return nil
}

func BuildProduct(in CreateProductInput, at time.Time) (*Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	p := &Product{
		ID:                uuid.New(),
		Name:              name,
		CriticalThreshold: DefaultCriticalThreshold,
		CreatedAt:         at,
	}

	if in.UnitPrice != nil {
		if err := ValidatePrice(*in.UnitPrice); err != nil {
			return nil, err
		}
		p.UnitPrice = decimal.NewNullDecimal(*in.UnitPrice)
	}

	if in.CriticalThreshold != nil {
		if *in.CriticalThreshold < 0 {
			return nil, ErrNegativeThreshold
		}
		p.CriticalThreshold = *in.CriticalThreshold
	}

	return p, nil
}

func (s *service) CreateProduct(ctx context.Context, actor access.Actor, in CreateProductInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateProduct"),
		zap.String("name", in.Name),
	)
	log.Info("CreateProduct started")

	if !s.policy.CanPerform(actor, access.ActionCreateProduct, access.Resource{Kind: "product"}) {
		log.Warn("create product forbidden", zap.String("role", string(actor.Role)))
		return nil, ErrForbidden
	}

	p, err := BuildProduct(in, s.now())
	if err != nil {
		log.Warn("invalid product input", zap.Error(err))
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		log.Error("failed to create product", zap.Error(err))
		return nil, db.Classify(err)
	}

	log.Info("CreateProduct success", zap.String("product_id", p.ID.String()))
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err)
	}
	return p, nil
}

func (s *service) ListProducts(ctx context.Context) ([]*Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list products", zap.Error(err))
		return nil, db.Classify(err)
	}
	return products, nil
}

func (s *service) SetPrice(ctx context.Context, actor access.Actor, id uuid.UUID, price decimal.Decimal) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SetPrice"),
		zap.String("product_id", id.String()),
		zap.String("price", price.String()),
	)

	if !s.policy.CanPerform(actor, access.ActionPriceProduct, access.Resource{Kind: "product", ID: id}) {
		return nil, ErrForbidden
	}
	if err := ValidatePrice(price); err != nil {
		return nil, err
	}

	if err := s.repo.SetPrice(ctx, id, price); err != nil {
		log.Error("failed to set price", zap.Error(err))
		return nil, db.Classify(err)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err)
	}

	log.Info("SetPrice success")
	return p, nil
}
