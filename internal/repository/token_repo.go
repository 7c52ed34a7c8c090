package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"gamegate/internal/domain"
)

// TokenRepository provides DB access for UTR tokens.
//
// Activation and game metering are conditional single-statement updates so
// that two concurrent callers can never both win: the WHERE clause carries
// the precondition and RowsAffected reports the outcome.
type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// TokenFilter narrows List. Status is the derived status ("unused",
// "active", "expired") or "used" meaning activated regardless of expiry.
// Now anchors the active/expired split.
type TokenFilter struct {
	Status   string
	PlanType string
	Now      time.Time
}

func (r *TokenRepository) Create(ctx context.Context, t *domain.Token) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TokenRepository) GetByNumber(ctx context.Context, number string) (*domain.Token, error) {
	var t domain.Token
	err := r.db.WithContext(ctx).Where("utr_number = ?", number).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepository) List(ctx context.Context, f TokenFilter) ([]domain.Token, error) {
	q := r.db.WithContext(ctx).Model(&domain.Token{})

	switch f.Status {
	case "unused":
		q = q.Where("used_at IS NULL")
	case "used":
		q = q.Where("used_at IS NOT NULL")
	case "active":
		q = q.Where("used_at IS NOT NULL AND expires_at > ?", f.Now)
	case "expired":
		q = q.Where("used_at IS NOT NULL AND expires_at <= ?", f.Now)
	}
	if f.PlanType != "" {
		q = q.Where("plan_type = ?", f.PlanType)
	}

	var tokens []domain.Token
	if err := q.Order("created_at DESC").Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// Activate sets used_at/expires_at only if the token is still unused.
// Returns false when another caller already activated it (or the row is
// gone), without error.
func (r *TokenRepository) Activate(ctx context.Context, number string, usedAt, expiresAt time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Token{}).
		Where("utr_number = ? AND used_at IS NULL", number).
		Updates(map[string]any{
			"used_at":    usedAt,
			"expires_at": expiresAt,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// ConsumeGame increments games_used only while quota remains. Returns
// false when the quota is already exhausted.
func (r *TokenRepository) ConsumeGame(ctx context.Context, number string) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Token{}).
		Where("utr_number = ? AND games_used < games_allowed", number).
		UpdateColumn("games_used", gorm.Expr("games_used + 1"))
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *TokenRepository) Delete(ctx context.Context, number string) (bool, error) {
	tx := r.db.WithContext(ctx).
		Where("utr_number = ?", number).
		Delete(&domain.Token{})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// DeleteExpired removes tokens that were activated and whose expiry lies
// before now. Unused tokens are never swept.
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Where("used_at IS NOT NULL AND expires_at < ?", now).
		Delete(&domain.Token{})
	return tx.RowsAffected, tx.Error
}

// IsDuplicateKey reports whether err is a unique-constraint violation, for
// both the Postgres and the SQLite driver.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}
