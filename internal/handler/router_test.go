package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"skillswap/internal/auth"
	"skillswap/internal/config"
	"skillswap/internal/infrastructure/gateway"
	"skillswap/internal/infrastructure/lock"
	"skillswap/internal/model"
	"skillswap/internal/ratelimit"
	"skillswap/internal/testutil"
)

const (
	jwtSecret     = "jwt-test-secret"
	keySecret     = "rzp-key-secret"
	webhookSecret = "rzp-webhook-secret"
)

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	gw     *testutil.FakeGateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Razorpay: config.RazorpayConfig{KeyID: "rzp_test", KeySecret: keySecret, WebhookSecret: webhookSecret, Currency: "INR"},
		Auth:     config.AuthConfig{JWTSecret: jwtSecret},
		Kafka:    config.KafkaConfig{Topic: config.KafkaTopicConfig{LedgerEvents: "ledger"}},
		RateLimit: config.RateLimitConfig{
			Order:   config.LimitRule{Limit: 5, WindowSeconds: 60},
			Webhook: config.LimitRule{Limit: 20, WindowSeconds: 60},
		},
	}
	db := testutil.NewTestDB(t)
	gw := testutil.NewFakeGateway()

	router := SetupRouter(Dependencies{
		DB:      db,
		Gateway: gw,
		Limiter: ratelimit.NewMemoryLimiter(0),
		Locker:  lock.NewLocalLocker(),
		Config:  cfg,
	})
	return &testServer{t: t, router: router, db: db, gw: gw}
}

func (s *testServer) do(method, path, body, userID string, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := auth.GenerateToken(userID, userID+"@example.com", jwtSecret, time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "skillswap_http_requests_total")
}

func TestPurchaseEndToEnd(t *testing.T) {
	s := newTestServer(t)
	testutil.SeedUser(t, s.db, "u1", 0)
	s.gw.NextID = "order_abc"

	w := s.do(http.MethodPost, "/api/payments/order", `{"amount":500,"sc_amount":50}`, "u1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	order := decode(t, w)["order"].(map[string]interface{})
	assert.Equal(t, "order_abc", order["id"])
	assert.Equal(t, float64(50000), order["amount"])
	assert.Equal(t, "INR", order["currency"])
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))

	body := `{"entity":"event","event":"order.paid","payload":{"payment":{"entity":{"id":"pay_abc","order_id":"order_abc","amount":50000,"notes":{"user_id":"u1","sc_amount":"50"}}}}}`
	w = s.do(http.MethodPost, "/api/payments/webhook", body, "", "x-signature", gateway.Sign([]byte(body), webhookSecret))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = s.do(http.MethodGet, "/api/users/u1/balance", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(50), decode(t, w)["sc_balance"])

	w = s.do(http.MethodGet, "/api/users/u1/transactions", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]interface{})
	require.Len(t, items, 1)
	tx := items[0].(map[string]interface{})
	assert.Contains(t, tx["description"], "order_abc")
	assert.Equal(t, true, tx["credit"])

	// the checkout widget reports the same payment
	sig := gateway.Sign([]byte("order_abc|pay_abc"), keySecret)
	w = s.do(http.MethodPost, "/api/payments/confirm",
		`{"razorpay_order_id":"order_abc","razorpay_payment_id":"pay_abc","razorpay_signature":"`+sig+`"}`, "u1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, false, decode(t, w)["applied"])

	w = s.do(http.MethodGet, "/api/users/u1/reconcile", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	rec := decode(t, w)
	assert.Equal(t, float64(50), rec["sc_balance"])
	assert.Equal(t, float64(0), rec["drift"])
}

func TestWebhook_StatusCodes(t *testing.T) {
	s := newTestServer(t)
	testutil.SeedUser(t, s.db, "U1", 0)

	body := `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1","notes":{"user_id":"U1","sc_amount":100}}}}}`

	w := s.do(http.MethodPost, "/api/payments/webhook", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/payments/webhook", body, "", "x-signature", gateway.Sign([]byte(body), "nope"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, testutil.LoadUser(t, s.db, "U1").SCBalance)

	malformed := `{"event":`
	w = s.do(http.MethodPost, "/api/payments/webhook", malformed, "", "x-signature", gateway.Sign([]byte(malformed), webhookSecret))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Webhook processing failed", decode(t, w)["error"])

	ignored := `{"event":"payment.failed","payload":{}}`
	w = s.do(http.MethodPost, "/api/payments/webhook", ignored, "", "x-signature", gateway.Sign([]byte(ignored), webhookSecret))
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/payments/webhook", body, "", "X-Razorpay-Signature", gateway.Sign([]byte(body), webhookSecret))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(100), testutil.LoadUser(t, s.db, "U1").SCBalance)
	assert.Len(t, testutil.Transactions(t, s.db, "U1"), 1)
}

func TestCreateOrder_RateLimited(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 5; i++ {
		w := s.do(http.MethodPost, "/api/payments/order", `{"amount":100}`, "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := s.do(http.MethodPost, "/api/payments/order", `{"amount":100}`, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests.", decode(t, w)["error"])

	reset, err := strconv.ParseInt(w.Header().Get("X-RateLimit-Reset"), 10, 64)
	require.NoError(t, err)
	assert.Greater(t, reset, time.Now().UnixMilli())
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func TestCreateOrder_Errors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/payments/order", `{"amount":"abc"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/payments/order", `{"amount":0}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/payments/order", `{"amount":100,"user_id":"u2"}`, "u1")
	assert.Equal(t, http.StatusForbidden, w.Code)

	s.gw.CreateErr = errors.New("Authentication failed: key_id rzp_test")
	w = s.do(http.MethodPost, "/api/payments/order", `{"amount":100}`, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "payment could not be started", decode(t, w)["error"])
	assert.NotContains(t, w.Body.String(), "rzp_test")
}

func TestPacks(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/payments/packs", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Len(t, out["packs"], 3)
	assert.Equal(t, "rzp_test", out["key_id"])
}

func TestSessionsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	testutil.SeedUser(t, s.db, "seeker", 50)
	testutil.SeedUser(t, s.db, "provider", 0)

	w := s.do(http.MethodPost, "/api/skills", `{"title":"Chess openings","category":"Games","sc_cost":70}`, "provider")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	expensive := int64(decode(t, w)["id"].(float64))

	w = s.do(http.MethodPost, "/api/sessions", `{"skill_id":`+strconv.FormatInt(expensive, 10)+`}`, "seeker")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, int64(50), testutil.LoadUser(t, s.db, "seeker").SCBalance)

	skill := testutil.SeedSkill(t, s.db, "provider", 20)
	w = s.do(http.MethodPost, "/api/sessions", `{"skill_id":`+strconv.FormatInt(skill.ID, 10)+`}`, "seeker")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sessionID := decode(t, w)["id"].(string)

	w = s.do(http.MethodGet, "/api/sessions/"+sessionID, "", "provider")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/sessions/"+sessionID, "", "stranger")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/sessions/"+sessionID+"/complete", `{"rating":5,"comment":"clear"}`, "provider")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/sessions/"+sessionID+"/complete", `{"rating":5,"comment":"clear"}`, "seeker")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, true, out["review_saved"])
	assert.Equal(t, model.SessionStatusCompleted, out["session"].(map[string]interface{})["status"])

	w = s.do(http.MethodPost, "/api/sessions/"+sessionID+"/complete", `{"rating":5}`, "seeker")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/sessions/"+sessionID+"/cancel", "", "seeker")
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, int64(30), testutil.LoadUser(t, s.db, "seeker").SCBalance)
	assert.Equal(t, int64(20), testutil.LoadUser(t, s.db, "provider").SCBalance)

	w = s.do(http.MethodGet, "/api/sessions?status=completed", "", "seeker")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)
}

func TestAccountAccessControl(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/users", `{"name":"Asha","email":"asha@example.com"}`, "auth-asha")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "auth-asha", decode(t, w)["id"])

	w = s.do(http.MethodPost, "/api/users", `{"name":"Asha","email":"asha@example.com"}`, "auth-asha")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/users", `{"name":"Bad","email":"not-an-email"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/users/auth-asha/balance", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/users/auth-asha/balance", "", "someone-else")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/users/ghost/balance", "", "ghost")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/skills/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/skills/999", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "kaboom")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodOptions, "/api/payments/order", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
