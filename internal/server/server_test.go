package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	assignmentrepo "github.com/smallbiznis/leadhub/internal/assignment/repository"
	assignmentservice "github.com/smallbiznis/leadhub/internal/assignment/service"
	auditrepo "github.com/smallbiznis/leadhub/internal/audit/repository"
	auditservice "github.com/smallbiznis/leadhub/internal/audit/service"
	"github.com/smallbiznis/leadhub/internal/auth"
	"github.com/smallbiznis/leadhub/internal/auth/session"
	"github.com/smallbiznis/leadhub/internal/authorization"
	bundledomain "github.com/smallbiznis/leadhub/internal/bundle/domain"
	bundlerepo "github.com/smallbiznis/leadhub/internal/bundle/repository"
	bundleservice "github.com/smallbiznis/leadhub/internal/bundle/service"
	catalogrepo "github.com/smallbiznis/leadhub/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/leadhub/internal/catalog/service"
	"github.com/smallbiznis/leadhub/internal/clock"
	"github.com/smallbiznis/leadhub/internal/config"
	leadrepo "github.com/smallbiznis/leadhub/internal/lead/repository"
	leadservice "github.com/smallbiznis/leadhub/internal/lead/service"
	ledgerrepo "github.com/smallbiznis/leadhub/internal/ledger/repository"
	ledgerservice "github.com/smallbiznis/leadhub/internal/ledger/service"
	notificationrepo "github.com/smallbiznis/leadhub/internal/notification/repository"
	notificationservice "github.com/smallbiznis/leadhub/internal/notification/service"
	"github.com/smallbiznis/leadhub/internal/observability"
	obsmetrics "github.com/smallbiznis/leadhub/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/leadhub/internal/payment/domain"
	"github.com/smallbiznis/leadhub/internal/payment/gateway"
	paymentrepo "github.com/smallbiznis/leadhub/internal/payment/repository"
	paymentservice "github.com/smallbiznis/leadhub/internal/payment/service"
	"github.com/smallbiznis/leadhub/internal/providers/pdf"
	"github.com/smallbiznis/leadhub/internal/ratelimit"
	"github.com/smallbiznis/leadhub/internal/testutil"
	userdomain "github.com/smallbiznis/leadhub/internal/user/domain"
	userrepo "github.com/smallbiznis/leadhub/internal/user/repository"
	userservice "github.com/smallbiznis/leadhub/internal/user/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const (
	testSalt     = "salt"
	testPassword = "correct-horse"
)

type stubGateway struct {
	gateway.Signer
}

func (stubGateway) Pay(_ context.Context, req paymentdomain.PayRequest) (paymentdomain.PayResponse, error) {
	return paymentdomain.PayResponse{RedirectURL: "https://pay.example.com/" + req.MerchantTransactionID}, nil
}

// denyAll answers every token bucket call with "denied, empty bucket".
type denyAll struct{}

func (denyAll) reply() *redis.Cmd {
	return redis.NewCmdResult([]any{int64(0), "0"}, nil)
}

func (d denyAll) Eval(context.Context, string, []string, ...any) *redis.Cmd      { return d.reply() }
func (d denyAll) EvalSha(context.Context, string, []string, ...any) *redis.Cmd   { return d.reply() }
func (d denyAll) EvalRO(context.Context, string, []string, ...any) *redis.Cmd    { return d.reply() }
func (d denyAll) EvalShaRO(context.Context, string, []string, ...any) *redis.Cmd { return d.reply() }

func (denyAll) ScriptExists(context.Context, ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult([]bool{true}, nil)
}

func (denyAll) ScriptLoad(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("sha", nil)
}

type harness struct {
	t       *testing.T
	engine  *gin.Engine
	db      *gorm.DB
	signer  gateway.Signer
	userSvc userdomain.Service
	bundle  bundledomain.CreditBundle
}

func newHarness(t *testing.T, limiter *ratelimit.Limiter) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	log := zaptest.NewLogger(t)
	clk := clock.NewFakeClock(time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	marketplace := config.NewStaticMarketplaceConfigHolder(config.DefaultMarketplaceConfig())
	metrics := obsmetrics.NewNoop()

	tokens, err := auth.NewTokenManager("test-secret", time.Hour, clk)
	require.NoError(t, err)
	enforcer, err := authorization.NewMemoryEnforcer()
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB: db, Log: log, GenID: testutil.NewNode(t), Clock: clk, Repo: auditrepo.Provide(),
	})
	userSvc := userservice.NewService(userservice.Params{
		DB: db, Log: log, GenID: testutil.NewNode(t), Clock: clk, Repo: userrepo.Provide(),
		Tokens: tokens, Marketplace: marketplace,
	})
	catalogSvc := catalogservice.NewService(catalogservice.Params{
		DB: db, Log: log, GenID: testutil.NewNode(t), Clock: clk, Repo: catalogrepo.Provide(),
	})
	bundleSvc := bundleservice.NewService(bundleservice.Params{
		DB: db, Log: log, GenID: testutil.NewNode(t), Clock: clk, Repo: bundlerepo.Provide(),
	})
	leadSvc := leadservice.NewService(leadservice.Params{
		DB: db, Log: log, GenID: testutil.NewNode(t), Clock: clk, Repo: leadrepo.Provide(),
		CatalogSvc: catalogSvc, Marketplace: marketplace,
	})
	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		DB: db, Log: log, GenID: testutil.NewNode(t), Clock: clk, Repo: ledgerrepo.Provide(),
	})
	notificationSvc := notificationservice.NewService(notificationservice.Params{
		DB: db, Log: log, GenID: testutil.NewNode(t), Clock: clk, Repo: notificationrepo.Provide(),
	})
	assignmentSvc := assignmentservice.NewService(assignmentservice.Params{
		DB: db, Log: log, GenID: testutil.NewNode(t), Clock: clk, Repo: assignmentrepo.Provide(),
		LeadSvc: leadSvc, CatalogSvc: catalogSvc, UserSvc: userSvc, LedgerSvc: ledgerSvc,
		NotificationSvc: notificationSvc, Marketplace: marketplace, AuditSvc: auditSvc, ObsMetrics: metrics,
	})
	signer := gateway.NewSigner(testSalt, "1")
	paymentSvc := paymentservice.NewService(paymentservice.Params{
		DB: db, Log: log, GenID: testutil.NewNode(t), Clock: clk, Cfg: config.Config{AppName: "leadhub"},
		Repo: paymentrepo.Provide(), Gateway: stubGateway{Signer: signer}, BundleSvc: bundleSvc,
		LedgerSvc: ledgerSvc, NotificationSvc: notificationSvc, UserSvc: userSvc, PDF: &pdf.NoOpProvider{},
		AuditSvc: auditSvc, ObsMetrics: metrics,
	})

	bundle, err := bundleSvc.Create(context.Background(), bundledomain.CreateBundleRequest{Name: "Pro pack", Price: 99900, Credits: 50})
	require.NoError(t, err)

	engine := NewEngine(observability.Config{Environment: "test"}, nil)
	srv := NewServer(ServerParams{
		Gin:             engine,
		Cfg:             config.Config{AppName: "leadhub"},
		Log:             log,
		Sessions:        session.NewManager(config.Config{}),
		Limiter:         limiter,
		AuthzSvc:        authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer}),
		AuditSvc:        auditSvc,
		UserSvc:         userSvc,
		CatalogSvc:      catalogSvc,
		BundleSvc:       bundleSvc,
		LeadSvc:         leadSvc,
		AssignmentSvc:   assignmentSvc,
		LedgerSvc:       ledgerSvc,
		NotificationSvc: notificationSvc,
		PaymentSvc:      paymentSvc,
		ObsMetrics:      metrics,
	})
	srv.RegisterRoutes()

	return &harness{t: t, engine: engine, db: db, signer: signer, userSvc: userSvc, bundle: bundle}
}

type response struct {
	Code   int
	Header http.Header
	Body   []byte
}

func (r response) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.Body, &out), string(r.Body))
	return out
}

func (r response) data(t *testing.T) map[string]any {
	t.Helper()
	data, ok := r.json(t)["data"].(map[string]any)
	require.True(t, ok, string(r.Body))
	return data
}

func (r response) errorType(t *testing.T) string {
	t.Helper()
	payload, ok := r.json(t)["error"].(map[string]any)
	require.True(t, ok, string(r.Body))
	return payload["type"].(string)
}

func (h *harness) do(method, path, token string, body any, headers ...string) response {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return response{Code: rec.Code, Header: rec.Header(), Body: rec.Body.Bytes()}
}

func (h *harness) signup(name, email, role string) (string, snowflake.ID) {
	h.t.Helper()
	resp := h.do(http.MethodPost, "/auth/register", "", map[string]any{
		"name": name, "email": email, "password": testPassword, "role": role,
	})
	require.Equal(h.t, http.StatusCreated, resp.Code, string(resp.Body))
	return h.login(email)
}

func (h *harness) login(email string) (string, snowflake.ID) {
	h.t.Helper()
	resp := h.do(http.MethodPost, "/auth/login", "", map[string]any{"email": email, "password": testPassword})
	require.Equal(h.t, http.StatusOK, resp.Code, string(resp.Body))
	data := resp.data(h.t)
	user := data["user"].(map[string]any)
	id, err := snowflake.ParseString(user["id"].(string))
	require.NoError(h.t, err)
	return data["token"].(string), id
}

func (h *harness) admin() string {
	h.t.Helper()
	require.NoError(h.t, h.userSvc.EnsureAdmin(context.Background(), userdomain.BootstrapAdminRequest{
		Name: "Admin", Email: "admin@example.com", Password: testPassword,
	}))
	token, _ := h.login("admin@example.com")
	return token
}

func (h *harness) setCredits(userID snowflake.ID, credits int64) {
	h.t.Helper()
	require.NoError(h.t, h.db.Exec(`UPDATE professional_profiles SET credits = ? WHERE user_id = ?`, credits, userID).Error)
}

func (h *harness) createLead(customerToken string, creditCost int64) string {
	h.t.Helper()
	serviceID := testutil.SeedOffering(h.t, h.db, testutil.NewNode(h.t), creditCost)
	resp := h.do(http.MethodPost, "/api/leads", customerToken, map[string]any{
		"service_id":    serviceID.String(),
		"title":         "Fix leaking tap",
		"contact_name":  "Asha",
		"contact_email": "asha@example.com",
		"contact_phone": "+91 98000 00000",
	})
	require.Equal(h.t, http.StatusCreated, resp.Code, string(resp.Body))
	return resp.data(h.t)["id"].(string)
}

func (h *harness) assign(adminToken, leadID string, proID snowflake.ID) string {
	h.t.Helper()
	resp := h.do(http.MethodPost, "/admin/assignments", adminToken, map[string]any{
		"lead_id": leadID, "professional_id": proID.String(),
	})
	require.Equal(h.t, http.StatusCreated, resp.Code, string(resp.Body))
	return resp.data(h.t)["id"].(string)
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAuthAndCapabilities(t *testing.T) {
	h := newHarness(t, nil)
	customer, _ := h.signup("Asha", "asha@example.com", "customer")

	resp := h.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = h.do(http.MethodGet, "/api/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = h.do(http.MethodGet, "/api/me", customer, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "CUSTOMER", resp.data(t)["user"].(map[string]any)["role"])

	resp = h.do(http.MethodGet, "/admin/leads", customer, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "forbidden", resp.errorType(t))

	resp = h.do(http.MethodGet, "/api/credits", customer, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = h.do(http.MethodPost, "/auth/register", "", map[string]any{
		"name": "Again", "email": "asha@example.com", "password": testPassword, "role": "customer",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = h.do(http.MethodPost, "/auth/login", "", map[string]any{"email": "asha@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLeadAcceptFlow(t *testing.T) {
	h := newHarness(t, nil)
	adminToken := h.admin()
	customer, _ := h.signup("Asha", "asha@example.com", "customer")
	pro, proID := h.signup("Ravi", "ravi@example.com", "professional")
	h.setCredits(proID, 5)

	leadID := h.createLead(customer, 3)

	resp := h.do(http.MethodGet, "/api/leads/"+leadID, pro, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	assignmentID := h.assign(adminToken, leadID, proID)

	resp = h.do(http.MethodGet, "/api/leads/"+leadID, pro, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.NotContains(t, resp.data(t), "contact_email")

	resp = h.do(http.MethodGet, "/api/assignments?status=pending", pro, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, resp.json(t)["data"], 1)

	resp = h.do(http.MethodPost, "/api/assignments/"+assignmentID+"/respond", pro, map[string]any{"action": "accept"})
	require.Equal(t, http.StatusOK, resp.Code, string(resp.Body))
	result := resp.data(t)
	assert.Equal(t, float64(3), result["credits_charged"])
	assert.Equal(t, float64(2), result["balance"])
	assert.Equal(t, "asha@example.com", result["contact"].(map[string]any)["email"])

	resp = h.do(http.MethodPost, "/api/assignments/"+assignmentID+"/respond", pro, map[string]any{"action": "accept"})
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "assignment_already_accepted", resp.json(t)["error"].(map[string]any)["message"])

	resp = h.do(http.MethodGet, "/api/credits", pro, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, float64(2), resp.json(t)["balance"])

	resp = h.do(http.MethodPost, "/api/leads/"+leadID+"/complete", customer, nil)
	require.Equal(t, http.StatusOK, resp.Code, string(resp.Body))
	assert.Equal(t, "COMPLETED", resp.data(t)["status"])

	resp = h.do(http.MethodGet, "/admin/audit-logs?action=assignment.create", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, resp.json(t)["data"], 1)
}

func TestAcceptWithoutCreditsIsPaymentRequired(t *testing.T) {
	h := newHarness(t, nil)
	adminToken := h.admin()
	customer, _ := h.signup("Asha", "asha@example.com", "customer")
	pro, proID := h.signup("Ravi", "ravi@example.com", "professional")
	h.setCredits(proID, 2)

	leadID := h.createLead(customer, 3)
	assignmentID := h.assign(adminToken, leadID, proID)

	resp := h.do(http.MethodPost, "/api/assignments/"+assignmentID+"/respond", pro, map[string]any{"action": "accept"})
	assert.Equal(t, http.StatusPaymentRequired, resp.Code)
	assert.Equal(t, "insufficient_credits", resp.errorType(t))

	resp = h.do(http.MethodPost, "/api/assignments/"+assignmentID+"/respond", pro, map[string]any{"action": "shrug"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = h.do(http.MethodPost, "/api/assignments/not-an-id/respond", pro, map[string]any{"action": "accept"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPaymentWebhook(t *testing.T) {
	h := newHarness(t, nil)
	pro, proID := h.signup("Ravi", "ravi@example.com", "professional")

	resp := h.do(http.MethodPost, "/api/payments", pro, map[string]any{"bundle_id": h.bundle.ID.String()})
	require.Equal(t, http.StatusCreated, resp.Code, string(resp.Body))
	data := resp.data(t)
	txn := data["transaction"].(map[string]any)
	merchantTxnID := txn["merchant_transaction_id"].(string)
	assert.Contains(t, data["redirect_url"], merchantTxnID)

	callback := func(merchantID string) string {
		raw, err := json.Marshal(paymentdomain.CallbackPayload{
			Success: true,
			Code:    paymentdomain.CodePaymentSuccess,
			Data:    paymentdomain.CallbackData{MerchantTransactionID: merchantID, TransactionID: "T1", Amount: 99900},
		})
		require.NoError(t, err)
		return base64.StdEncoding.EncodeToString(raw)
	}

	body := callback(merchantTxnID)
	resp = h.do(http.MethodPost, "/api/payments/webhook", "", map[string]any{"response": body}, gateway.VerifyHeader, "bad###1")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "checksum mismatch", string(resp.Body))

	unknown := callback("missing")
	resp = h.do(http.MethodPost, "/api/payments/webhook", "", map[string]any{"response": unknown}, gateway.VerifyHeader, h.signer.CallbackChecksum(unknown))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	for range 2 {
		resp = h.do(http.MethodPost, "/api/payments/webhook", "", map[string]any{"response": body}, gateway.VerifyHeader, h.signer.CallbackChecksum(body))
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "OK", string(resp.Body))
	}
	assert.Equal(t, int64(50), testutil.Credits(t, h.db, proID))

	resp = h.do(http.MethodGet, "/api/notifications?unread=true", pro, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, resp.json(t)["data"], 1)

	resp = h.do(http.MethodPost, "/api/payments/webhook", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRateLimitedLogin(t *testing.T) {
	limiter := ratelimit.NewWithBucket(
		ratelimit.NewTokenBucket(denyAll{}),
		ratelimit.PoliciesFromConfig(config.RateLimitConfig{LoginRate: 1, LoginBurst: 1, LeadCreateRate: 1, LeadCreateBurst: 1, WebhookRate: 1, WebhookBurst: 1}),
		zaptest.NewLogger(t),
	)
	h := newHarness(t, limiter)

	resp := h.do(http.MethodPost, "/auth/login", "", map[string]any{"email": "a@example.com", "password": testPassword})
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.Equal(t, "rate_limited", resp.errorType(t))

	resp = h.do(http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}
