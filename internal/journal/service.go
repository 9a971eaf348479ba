package journal

import (
	"context"

	"procurement-be/internal/access"
	"procurement-be/internal/db"
	"procurement-be/internal/logger"

	"go.uber.org/zap"
)

// Service is the read side of the audit trail. Writes happen through
// Repository.Append inside the transaction of the operation being recorded.
type Service interface {
	Query(ctx context.Context, actor access.Actor, f Filter) ([]*Entry, error)
}

type service struct {
	repo   Repository
	policy access.Policy
}

func NewService(repo Repository, policy access.Policy) Service {
	return &service{repo: repo, policy: policy}
}

func (s *service) Query(ctx context.Context, actor access.Actor, f Filter) ([]*Entry, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "QueryJournal"),
	)

	if !s.policy.CanPerform(actor, access.ActionReadJournal, access.Resource{Kind: "journal"}) {
		log.Warn("journal query forbidden", zap.String("role", string(actor.Role)))
		return nil, ErrForbidden
	}

	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, ErrInvalidRange
	}

	entries, err := s.repo.Query(ctx, f)
	if err != nil {
		log.Error("failed to query journal", zap.Error(err))
		return nil, db.Classify(err)
	}

	log.Info("journal query success", zap.Int("count", len(entries)))
	return entries, nil
}
