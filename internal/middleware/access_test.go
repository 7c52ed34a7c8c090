package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gamegate/internal/domain"
	"gamegate/internal/modules/entitlement"
)

type mockEntitlement struct {
	mock.Mock
}

func (m *mockEntitlement) CheckAccess(ctx context.Context, number string) (*entitlement.AccessView, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.AccessView), args.Error(1)
}

func (m *mockEntitlement) ConsumeOneUse(ctx context.Context, number string) (*entitlement.UsageView, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.UsageView), args.Error(1)
}

func gateRouter(svc EntitlementService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Any("/proxy/*path", AccessGate(svc), func(c *gin.Context) {
		c.String(http.StatusOK, "forwarded")
	})
	return r
}

func TestAccessGate_NoToken(t *testing.T) {
	r := gateRouter(new(mockEntitlement))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy/page", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccessGate_UnknownToken(t *testing.T) {
	svc := new(mockEntitlement)
	svc.On("CheckAccess", mock.Anything, "NOPE").Return(nil, entitlement.ErrNotFound)

	r := gateRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/proxy/page", nil)
	req.Header.Set("Authorization", "Bearer NOPE")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccessGate_ExpiredToken(t *testing.T) {
	svc := new(mockEntitlement)
	svc.On("CheckAccess", mock.Anything, "OLD").Return(&entitlement.AccessView{
		Valid:   false,
		Expired: true,
	}, nil)

	r := gateRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/proxy/page", nil)
	req.Header.Set("Authorization", "Bearer OLD")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "ACCESS_EXPIRED")
}

func TestAccessGate_ValidTokenPassesThrough(t *testing.T) {
	svc := new(mockEntitlement)
	svc.On("CheckAccess", mock.Anything, "GOOD").Return(&entitlement.AccessView{
		Valid:          true,
		PlanType:       domain.PlanDemo,
		GamesRemaining: 3,
	}, nil)

	r := gateRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/proxy/page", nil)
	req.Header.Set("Authorization", "Bearer GOOD")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "forwarded", rec.Body.String())
	svc.AssertNotCalled(t, "ConsumeOneUse", mock.Anything, mock.Anything)
}

func TestAccessGate_QueryTokenForWebSocket(t *testing.T) {
	svc := new(mockEntitlement)
	svc.On("CheckAccess", mock.Anything, "WSTOKEN").Return(&entitlement.AccessView{
		Valid:    true,
		PlanType: domain.PlanPremium,
	}, nil)

	r := gateRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/proxy/socket?token=WSTOKEN", nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccessGate_QueryTokenStrippedBeforeForwarding(t *testing.T) {
	svc := new(mockEntitlement)
	svc.On("CheckAccess", mock.Anything, "WSTOKEN").Return(&entitlement.AccessView{
		Valid:    true,
		PlanType: domain.PlanPremium,
	}, nil)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	var gotQuery string
	r.Any("/proxy/*path", AccessGate(svc), func(c *gin.Context) {
		gotQuery = c.Request.URL.RawQuery
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy/socket?room=7&token=WSTOKEN", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	// The credential must not travel upstream; the rest of the query does.
	assert.Equal(t, "room=7", gotQuery)
}

func TestAccessGate_GameCompletionConsumesQuota(t *testing.T) {
	svc := new(mockEntitlement)
	svc.On("CheckAccess", mock.Anything, "GOOD").Return(&entitlement.AccessView{
		Valid:          true,
		PlanType:       domain.PlanDemo,
		GamesRemaining: 1,
	}, nil)
	svc.On("ConsumeOneUse", mock.Anything, "GOOD").Return(&entitlement.UsageView{
		GamesUsed:      3,
		GamesAllowed:   3,
		GamesRemaining: 0,
	}, nil)

	r := gateRouter(svc)
	req := httptest.NewRequest(http.MethodPost, "/proxy/game/report", nil)
	req.Header.Set("Authorization", "Bearer GOOD")
	req.Header.Set("X-Game-Event", "completed")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestAccessGate_GameCompletionQuotaExhausted(t *testing.T) {
	svc := new(mockEntitlement)
	svc.On("CheckAccess", mock.Anything, "SPENT").Return(&entitlement.AccessView{
		Valid:    true,
		PlanType: domain.PlanDemo,
	}, nil)
	svc.On("ConsumeOneUse", mock.Anything, "SPENT").Return(nil, entitlement.ErrQuotaExhausted)

	r := gateRouter(svc)
	req := httptest.NewRequest(http.MethodPost, "/proxy/game/report", nil)
	req.Header.Set("Authorization", "Bearer SPENT")
	req.Header.Set("X-Game-Event", "completed")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "GAME_LIMIT_REACHED")
}

func TestAccessGate_PreflightBypasses(t *testing.T) {
	svc := new(mockEntitlement)

	r := gateRouter(svc)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/proxy/page", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertNotCalled(t, "CheckAccess", mock.Anything, mock.Anything)
}
