package entitlement

import (
	"context"
	"time"

	"gamegate/internal/domain"
	"gamegate/internal/repository"
)

// TokenRepository is the store contract the service depends on.
type TokenRepository interface {
	Create(ctx context.Context, t *domain.Token) error
	GetByNumber(ctx context.Context, number string) (*domain.Token, error)
	List(ctx context.Context, f repository.TokenFilter) ([]domain.Token, error)
	Activate(ctx context.Context, number string, usedAt, expiresAt time.Time) (bool, error)
	ConsumeGame(ctx context.Context, number string) (bool, error)
	Delete(ctx context.Context, number string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
