package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmehra2102/planner/internal/domain"
	"github.com/dmehra2102/planner/pkg/auth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type UserPresenter struct {
	users  domain.UserStore
	auth   *auth.Service
	logger *zap.Logger
	tracer trace.Tracer
}

func NewUserPresenter(users domain.UserStore, authService *auth.Service, logger *zap.Logger) *UserPresenter {
	return &UserPresenter{
		users:  users,
		auth:   authService,
		logger: logger,
		tracer: otel.Tracer("user-presenter"),
	}
}

func (p *UserPresenter) CreateUser(ctx context.Context, name, email, password string) (*domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "CreateUser")
	defer span.End()

	user, err := p.auth.Register(ctx, name, email, password)
	if err != nil {
		if !isClientError(err) {
			p.logger.Error("failed to register user", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	p.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

func (p *UserPresenter) Authenticate(ctx context.Context, email, password string) (*auth.Session, error) {
	ctx, span := p.tracer.Start(ctx, "Authenticate")
	defer span.End()

	session, err := p.auth.Authenticate(ctx, email, password)
	if err != nil {
		p.logger.Warn("authentication failed",
			zap.Error(err),
			zap.String("email", domain.NormalizeEmail(email)),
		)
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	p.logger.Info("user logged in", zap.String("user_id", session.User.ID))
	return session, nil
}

func (p *UserPresenter) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "CurrentUser")
	defer span.End()

	return p.auth.CurrentUser(ctx, token)
}

func (p *UserPresenter) Logout(token string) {
	p.auth.Logout(token)
}

func (p *UserPresenter) LoadUser(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "LoadUser")
	defer span.End()

	user, err := p.users.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (p *UserPresenter) UserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "UserByEmail")
	defer span.End()

	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user by email: %w", err)
	}
	return user, nil
}

// DeleteUser removes the account and ends its session.
func (p *UserPresenter) DeleteUser(ctx context.Context, id string) error {
	ctx, span := p.tracer.Start(ctx, "DeleteUser")
	defer span.End()

	if err := p.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	p.auth.Revoke(id)

	p.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

// SearchUsers returns nothing for a blank keyword.
func (p *UserPresenter) SearchUsers(ctx context.Context, keyword string) ([]domain.User, error) {
	ctx, span := p.tracer.Start(ctx, "SearchUsers")
	defer span.End()

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []domain.User{}, nil
	}
	users, err := p.users.SearchByKeyword(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}
