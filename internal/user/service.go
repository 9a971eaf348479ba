package user

import (
	"context"

	"procurement-be/internal/access"
	"procurement-be/internal/db"
	"procurement-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	ListUsers(ctx context.Context, actor access.Actor) ([]*User, error)
	UpdateRole(ctx context.Context, actor access.Actor, id uuid.UUID, role access.Role) (*User, error)
}

type service struct {
	repo   Repository
	policy access.Policy
}

func NewService(repo Repository, policy access.Policy) Service {
	return &service{repo: repo, policy: policy}
}

func (s *service) ListUsers(ctx context.Context, actor access.Actor) ([]*User, error) {
	if !s.policy.CanPerform(actor, access.ActionManageUsers, access.Resource{Kind: "user"}) {
		return nil, ErrForbidden
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list users", zap.Error(err))
		return nil, db.Classify(err)
	}
	return users, nil
}

func (s *service) UpdateRole(ctx context.Context, actor access.Actor, id uuid.UUID, role access.Role) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateRole"),
		zap.String("user_id", id.String()),
		zap.String("role", string(role)),
	)

	if !s.policy.CanPerform(actor, access.ActionManageUsers, access.Resource{Kind: "user", ID: id}) {
		log.Warn("update role forbidden")
		return nil, ErrForbidden
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		log.Error("failed to update role", zap.Error(err))
		return nil, db.Classify(err)
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, db.Classify(err)
	}

	log.Info("UpdateRole success")
	return u, nil
}
