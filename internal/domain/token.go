package domain

import "time"

type PlanType string

const (
	PlanDemo    PlanType = "demo"
	PlanPremium PlanType = "premium"
)

func (p PlanType) Valid() bool {
	return p == PlanDemo || p == PlanPremium
}

// DurationHours returns the access window fixed at mint time:
// 24 hours for demo, 168 hours (7 days) for premium.
func (p PlanType) DurationHours() int {
	if p == PlanDemo {
		return 24
	}
	return 168
}

// DefaultGamesAllowed returns the per-plan game quota used when the
// mint request does not specify one.
func (p PlanType) DefaultGamesAllowed() int {
	if p == PlanDemo {
		return DemoDefaultGames
	}
	return UnlimitedGames
}

const (
	DemoDefaultGames = 3

	// UnlimitedGames is the games_allowed sentinel for premium tokens.
	UnlimitedGames = -1
)

type TokenStatus string

const (
	TokenUnused  TokenStatus = "unused"
	TokenActive  TokenStatus = "active"
	TokenExpired TokenStatus = "expired"
)

// Token is a UTR access token. The number is both the record's identity
// and the bearer credential presented by the client; there is no separate
// secret.
//
// used_at and expires_at are either both NULL (unused) or both set
// (activated). expires_at is written exactly once, at activation.
type Token struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	Number        string   `json:"number" gorm:"column:utr_number;size:64;uniqueIndex;not null"`
	PlanType      PlanType `json:"plan_type" gorm:"column:plan_type;size:16;not null"`
	DurationHours int      `json:"duration_hours" gorm:"column:duration_hours;not null"`

	GamesAllowed int `json:"games_allowed" gorm:"column:games_allowed;not null;default:3"`
	GamesUsed    int `json:"games_used" gorm:"column:games_used;not null;default:0"`

	CreatedAt time.Time  `json:"created_at"`
	UsedAt    *time.Time `json:"used_at" gorm:"index"`
	ExpiresAt *time.Time `json:"expires_at" gorm:"index"`
}

func (Token) TableName() string { return "utrs" }

func (t *Token) Activated() bool { return t.UsedAt != nil }

func (t *Token) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// Status is derived, never stored.
func (t *Token) Status(now time.Time) TokenStatus {
	switch {
	case !t.Activated():
		return TokenUnused
	case t.IsExpired(now):
		return TokenExpired
	default:
		return TokenActive
	}
}

func (t *Token) Unlimited() bool { return t.GamesAllowed == UnlimitedGames }

// GamesRemaining reports the unused quota, or UnlimitedGames for premium.
func (t *Token) GamesRemaining() int {
	if t.Unlimited() {
		return UnlimitedGames
	}
	if rem := t.GamesAllowed - t.GamesUsed; rem > 0 {
		return rem
	}
	return 0
}
