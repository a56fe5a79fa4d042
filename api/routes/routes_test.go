package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ArowuTest/easyearning-backend/internal/config"
	"github.com/ArowuTest/easyearning-backend/internal/handlers"
	"github.com/ArowuTest/easyearning-backend/internal/ledger"
	"github.com/ArowuTest/easyearning-backend/internal/mediation"
	"github.com/ArowuTest/easyearning-backend/internal/models"
	"github.com/ArowuTest/easyearning-backend/internal/repositories/memory"
	"github.com/ArowuTest/easyearning-backend/internal/services"
	"github.com/ArowuTest/easyearning-backend/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type constDraw float64

func (d constDraw) Float64() float64 { return float64(d) }

type constIndex int

func (i constIndex) Intn(int) int { return int(i) }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("master-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &config.Config{
		Server: config.ServerConfig{AllowedHosts: []string{"localhost:3000"}},
		JWT:    config.JWTConfig{Secret: "routes-secret", ExpiresIn: 3600},
		Admin:  config.AdminConfig{Email: "admin@easyearning.local", PasswordHash: string(hash), Name: "Master Admin"},
	}

	st, err := store.New(context.Background(), memory.NewKVRepository(), store.Options{
		KeyPrefix: "easyEarning_",
		Policy: store.Policy{
			Withdrawal: ledger.WithdrawalPolicy{
				MinPoints:           4000,
				Methods:             []string{"bkash", "nagad", "paypal"},
				PointToCurrencyRate: decimal.RequireFromString("0.05"),
			},
			StartingBalance: 100,
			ReferralBonus:   100,
			RefundRejected:  true,
			AdminName:       "Master Admin",
			AdminEmail:      "admin@easyearning.local",
		},
	})
	require.NoError(t, err)

	engine := mediation.NewEngine(constDraw(0))
	authService := services.NewAuthService(st, cfg)
	taskService := services.NewTaskService(st, engine, constIndex(0), services.TaskTimings{AdWatch: time.Hour, PTCWatch: time.Hour})

	return SetupRouter(cfg, HandlerDependencies{
		Auth:             authService,
		AuthHandler:      handlers.NewAuthHandler(authService),
		UserHandler:      handlers.NewUserHandler(services.NewUserService(st)),
		TaskHandler:      handlers.NewTaskHandler(taskService),
		WalletHandler:    handlers.NewWalletHandler(services.NewWalletService(st, cfg.Rewards.WithdrawalMethods)),
		MediationHandler: handlers.NewMediationHandler(services.NewMediationService(st, engine)),
		EventHandler:     handlers.NewEventHandler(st),
	})
}

func do(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *gin.Engine, identity string) models.LoginResponse {
	t.Helper()
	w := do(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{"identity": identity})
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, w.Code, w.Body.String())
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func adminLogin(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := do(t, router, http.MethodPost, "/api/v1/auth/admin/login", "", gin.H{"email": "admin@easyearning.local", "password": "master-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	w := do(t, router, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestLoginRegistersThenReturnsExisting(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{"identity": "rina@example.com", "name": "Rina"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{"identity": "RINA@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/api/v1/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/api/v1/me", "not-a-jwt", nil).Code)

	resp := login(t, router, "rina@example.com")
	w := do(t, router, http.MethodGet, "/api/v1/me", resp.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var me models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, resp.User.ID, me.ID)
	assert.Equal(t, 100, me.Points)
}

func TestReplacedSessionIsRejected(t *testing.T) {
	router := newTestRouter(t)
	first := login(t, router, "first@example.com")
	second := login(t, router, "second@example.com")

	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/api/v1/me", first.Token, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/v1/me", second.Token, nil).Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	router := newTestRouter(t)
	user := login(t, router, "rina@example.com")
	assert.Equal(t, http.StatusForbidden, do(t, router, http.MethodGet, "/api/v1/admin/stats", user.Token, nil).Code)

	w := do(t, router, http.MethodPost, "/api/v1/auth/admin/login", "", gin.H{"email": "admin@easyearning.local", "password": "wrong"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	token := adminLogin(t, router)
	w = do(t, router, http.MethodGet, "/api/v1/admin/stats", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var stats models.AppStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 4, stats.ActiveTasks)
}

func TestCheckInAndCooldown(t *testing.T) {
	router := newTestRouter(t)
	user := login(t, router, "rina@example.com")

	w := do(t, router, http.MethodPost, "/api/v1/tasks/3/start", user.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.TaskStartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 200, resp.Balance)
	assert.Equal(t, 1, resp.StreakCount)

	w = do(t, router, http.MethodPost, "/api/v1/tasks/3/start", user.Token, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/api/v1/tasks/missing/start", user.Token, nil).Code)
}

func TestAdViewCannotBeClaimedEarly(t *testing.T) {
	router := newTestRouter(t)
	user := login(t, router, "rina@example.com")

	w := do(t, router, http.MethodPost, "/api/v1/tasks/1/start", user.Token, nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var resp models.TaskStartResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.View)
	assert.NotEmpty(t, resp.View.Network)

	w = do(t, router, http.MethodPost, "/api/v1/tasks/views/"+resp.View.ID+"/claim", user.Token, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/api/v1/tasks/views/unknown/claim", user.Token, nil).Code)
}

func TestNoActiveNetworksIsServiceUnavailable(t *testing.T) {
	router := newTestRouter(t)
	admin := adminLogin(t, router)

	w := do(t, router, http.MethodGet, "/api/v1/admin/mediation", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings models.MediationSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	for i := range settings.Networks {
		settings.Networks[i].IsEnabled = false
	}
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPut, "/api/v1/admin/mediation", admin, settings).Code)

	user := login(t, router, "rina@example.com")
	w = do(t, router, http.MethodPost, "/api/v1/tasks/1/start", user.Token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "30", w.Header().Get("Retry-After"))
}

func TestWithdrawalBelowMinimum(t *testing.T) {
	router := newTestRouter(t)
	user := login(t, router, "rina@example.com")

	w := do(t, router, http.MethodPost, "/api/v1/wallet/withdrawals", user.Token, gin.H{
		"amount": 50, "method": "bkash", "accountNumber": "01700000000",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/wallet/methods", user.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBanTerminatesSession(t *testing.T) {
	router := newTestRouter(t)
	user := login(t, router, "rina@example.com")
	admin := adminLogin(t, router)

	w := do(t, router, http.MethodPost, "/api/v1/admin/users/"+user.User.ID+"/ban", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{"identity": "rina@example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/admin/users/"+models.MasterAdminID+"/ban", admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTaskAdministration(t *testing.T) {
	router := newTestRouter(t)
	admin := adminLogin(t, router)

	w := do(t, router, http.MethodPost, "/api/v1/admin/tasks", admin, gin.H{"title": "Survey", "reward": 40, "type": "ptc", "cooldownMinutes": 30})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, models.TaskTypePTC, task.Type)

	w = do(t, router, http.MethodPatch, "/api/v1/admin/tasks/"+task.ID, admin, gin.H{"reward": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusNoContent, do(t, router, http.MethodDelete, "/api/v1/admin/tasks/"+task.ID, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodDelete, "/api/v1/admin/tasks/"+task.ID, admin, nil).Code)
}

func TestMediationNetworkRoutes(t *testing.T) {
	router := newTestRouter(t)
	admin := adminLogin(t, router)

	w := do(t, router, http.MethodGet, "/api/v1/admin/mediation", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings models.MediationSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	require.NotEmpty(t, settings.Networks)
	id := settings.Networks[0].ID

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/v1/admin/mediation/networks/"+id+"/toggle", admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/v1/admin/mediation/networks/"+id+"/move", admin, gin.H{"direction": "sideways"}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPut, "/api/v1/admin/mediation/networks/nope/fill-rate", admin, gin.H{"fillRate": 50}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPut, "/api/v1/admin/mediation/networks/"+id+"/fill-rate", admin, gin.H{"fillRate": 150}).Code)
}

func TestLogoutRequiresSessionToken(t *testing.T) {
	router := newTestRouter(t)
	user := login(t, router, "rina@example.com")

	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodPost, "/api/v1/auth/logout", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/v1/me", user.Token, nil).Code)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/v1/auth/logout", user.Token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, router, http.MethodGet, "/api/v1/me", user.Token, nil).Code)
}

func TestToggleBan(t *testing.T) {
	router := newTestRouter(t)
	user := login(t, router, "rina@example.com")
	admin := adminLogin(t, router)

	w := do(t, router, http.MethodPost, "/api/v1/admin/users/"+user.User.ID+"/toggle", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var toggled models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggled))
	assert.True(t, toggled.IsBanned())

	w = do(t, router, http.MethodPost, "/api/v1/admin/users/"+user.User.ID+"/toggle", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggled))
	assert.False(t, toggled.IsBanned())

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodPost, "/api/v1/admin/users/nobody/toggle", admin, nil).Code)
}
