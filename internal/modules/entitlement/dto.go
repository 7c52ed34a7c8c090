package entitlement

import (
	"time"

	"gamegate/internal/domain"
)

type MintRequest struct {
	Number       string `json:"number" binding:"required"`
	PlanType     string `json:"planType" binding:"required"`
	GamesAllowed *int   `json:"gamesAllowed"`
}

type DeleteRequest struct {
	Number string `json:"number" binding:"required"`
}

// TokenView is the admin-facing projection of a token. Status is derived
// at read time.
type TokenView struct {
	ID            int64              `json:"id"`
	Number        string             `json:"number"`
	PlanType      domain.PlanType    `json:"planType"`
	DurationHours int                `json:"duration"`
	GamesAllowed  int                `json:"gamesAllowed"`
	GamesUsed     int                `json:"gamesUsed"`
	CreatedAt     time.Time          `json:"createdAt"`
	UsedAt        *time.Time         `json:"usedAt"`
	ExpiresAt     *time.Time         `json:"expiresAt"`
	Status        domain.TokenStatus `json:"status"`
}

func toTokenView(t *domain.Token, now time.Time) TokenView {
	return TokenView{
		ID:            t.ID,
		Number:        t.Number,
		PlanType:      t.PlanType,
		DurationHours: t.DurationHours,
		GamesAllowed:  t.GamesAllowed,
		GamesUsed:     t.GamesUsed,
		CreatedAt:     t.CreatedAt,
		UsedAt:        t.UsedAt,
		ExpiresAt:     t.ExpiresAt,
		Status:        t.Status(now),
	}
}

// AccessView is what CheckAccess hands to the gate and to the client UI.
type AccessView struct {
	Valid          bool            `json:"valid"`
	Expired        bool            `json:"expired"`
	PlanType       domain.PlanType `json:"planType"`
	ExpiresAt      *time.Time      `json:"expiresAt"`
	GamesRemaining int             `json:"gamesRemaining"`
}

type UsageView struct {
	GamesUsed      int `json:"gamesUsed"`
	GamesAllowed   int `json:"gamesAllowed"`
	GamesRemaining int `json:"gamesRemaining"`
}

type ListFilter struct {
	Status   string
	PlanType string
}
