package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"gamegate/internal/domain"
	"gamegate/internal/repository"
)

type Service struct {
	tokens TokenRepository
}

func NewService(tokens TokenRepository) *Service {
	return &Service{tokens: tokens}
}

// Mint creates an unused token. durationHours is derived from the plan and
// gamesAllowed falls back to the plan default (3 for demo, -1 for premium).
func (s *Service) Mint(ctx context.Context, req MintRequest) (*TokenView, error) {
	number := strings.TrimSpace(req.Number)
	if number == "" {
		return nil, ErrValidation
	}

	plan := domain.PlanType(req.PlanType)
	if !plan.Valid() {
		return nil, ErrInvalidPlan
	}

	gamesAllowed := plan.DefaultGamesAllowed()
	if req.GamesAllowed != nil {
		gamesAllowed = *req.GamesAllowed
		// Only premium may carry the unlimited sentinel; any other quota
		// must be a positive count.
		unlimited := gamesAllowed == domain.UnlimitedGames && plan == domain.PlanPremium
		if gamesAllowed <= 0 && !unlimited {
			return nil, ErrValidation
		}
	}

	t := &domain.Token{
		Number:        number,
		PlanType:      plan,
		DurationHours: plan.DurationHours(),
		GamesAllowed:  gamesAllowed,
		GamesUsed:     0,
	}

	if err := s.tokens.Create(ctx, t); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create token %q: %w", number, err)
	}

	view := toTokenView(t, time.Now().UTC())
	return &view, nil
}

// CheckAccess is the single user-facing verification call. On an unused
// token it also performs the one-time activation, fixing expires_at to
// now + duration. The activation is a conditional update; when two callers
// race, the loser re-reads and reports the winner's expiry, so the
// transition happens at most once.
//
// An expired token yields a non-nil view with Expired set; deleting it is
// the sweep's job, never this path's.
func (s *Service) CheckAccess(ctx context.Context, number string) (*AccessView, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrValidation
	}

	t, err := s.tokens.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get token %q: %w", number, err)
	}

	now := time.Now().UTC()

	if !t.Activated() {
		usedAt := now
		expiresAt := now.Add(time.Duration(t.DurationHours) * time.Hour)

		won, err := s.tokens.Activate(ctx, number, usedAt, expiresAt)
		if err != nil {
			return nil, fmt.Errorf("activate token %q: %w", number, err)
		}
		if won {
			t.UsedAt = &usedAt
			t.ExpiresAt = &expiresAt
		} else {
			// Lost the activation race, or the sweep removed the row.
			t, err = s.tokens.GetByNumber(ctx, number)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, ErrNotFound
				}
				return nil, fmt.Errorf("reload token %q: %w", number, err)
			}
		}
	}

	if t.IsExpired(now) {
		return &AccessView{
			Valid:     false,
			Expired:   true,
			PlanType:  t.PlanType,
			ExpiresAt: t.ExpiresAt,
		}, nil
	}

	return &AccessView{
		Valid:          true,
		PlanType:       t.PlanType,
		ExpiresAt:      t.ExpiresAt,
		GamesRemaining: t.GamesRemaining(),
	}, nil
}

// ConsumeOneUse burns one game from a demo token's quota. Premium tokens
// always succeed without touching the counter. The increment is guarded by
// the quota in a single statement, so concurrent calls cannot overshoot.
func (s *Service) ConsumeOneUse(ctx context.Context, number string) (*UsageView, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, ErrValidation
	}

	t, err := s.tokens.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get token %q: %w", number, err)
	}

	if !t.Activated() {
		return nil, ErrNotActivated
	}
	if t.IsExpired(time.Now().UTC()) {
		return nil, ErrExpired
	}

	if t.Unlimited() {
		return &UsageView{
			GamesUsed:      t.GamesUsed,
			GamesAllowed:   domain.UnlimitedGames,
			GamesRemaining: domain.UnlimitedGames,
		}, nil
	}

	ok, err := s.tokens.ConsumeGame(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("consume game on %q: %w", number, err)
	}
	if !ok {
		return nil, ErrQuotaExhausted
	}

	t, err = s.tokens.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("reload token %q: %w", number, err)
	}
	return &UsageView{
		GamesUsed:      t.GamesUsed,
		GamesAllowed:   t.GamesAllowed,
		GamesRemaining: t.GamesRemaining(),
	}, nil
}

func (s *Service) ListTokens(ctx context.Context, f ListFilter) ([]TokenView, error) {
	now := time.Now().UTC()

	tokens, err := s.tokens.List(ctx, repository.TokenFilter{
		Status:   f.Status,
		PlanType: f.PlanType,
		Now:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	views := make([]TokenView, 0, len(tokens))
	for i := range tokens {
		views = append(views, toTokenView(&tokens[i], now))
	}
	return views, nil
}

// Revoke hard-deletes a token regardless of its state.
func (s *Service) Revoke(ctx context.Context, number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return ErrValidation
	}

	deleted, err := s.tokens.Delete(ctx, number)
	if err != nil {
		return fmt.Errorf("delete token %q: %w", number, err)
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, time.Now().UTC())
}

// RunSweeper deletes expired-and-used tokens once immediately and then on
// every tick until ctx is cancelled. Sweep failures are logged and
// swallowed; the host process keeps serving.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	s.sweepOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Service) sweepOnce(ctx context.Context) {
	removed, err := s.SweepExpired(ctx)
	if err != nil {
		log.Printf("token sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("token sweep removed %d expired tokens", removed)
	}
}
