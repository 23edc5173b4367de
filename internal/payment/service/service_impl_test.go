package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/auth"
	bundledomain "github.com/smallbiznis/leadhub/internal/bundle/domain"
	bundlerepo "github.com/smallbiznis/leadhub/internal/bundle/repository"
	bundleservice "github.com/smallbiznis/leadhub/internal/bundle/service"
	"github.com/smallbiznis/leadhub/internal/clock"
	"github.com/smallbiznis/leadhub/internal/config"
	ledgerrepo "github.com/smallbiznis/leadhub/internal/ledger/repository"
	ledgerservice "github.com/smallbiznis/leadhub/internal/ledger/service"
	notificationrepo "github.com/smallbiznis/leadhub/internal/notification/repository"
	notificationservice "github.com/smallbiznis/leadhub/internal/notification/service"
	obsmetrics "github.com/smallbiznis/leadhub/internal/observability/metrics"
	"github.com/smallbiznis/leadhub/internal/payment/domain"
	"github.com/smallbiznis/leadhub/internal/payment/gateway"
	"github.com/smallbiznis/leadhub/internal/payment/repository"
	"github.com/smallbiznis/leadhub/internal/providers/pdf"
	"github.com/smallbiznis/leadhub/internal/testutil"
	userrepo "github.com/smallbiznis/leadhub/internal/user/repository"
	userservice "github.com/smallbiznis/leadhub/internal/user/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const saltKey = "test-salt"

type fakeGateway struct {
	gateway.Signer
	payErr   error
	payCode  string
	requests []domain.PayRequest
}

func (g *fakeGateway) Pay(_ context.Context, req domain.PayRequest) (domain.PayResponse, error) {
	g.requests = append(g.requests, req)
	if g.payErr != nil {
		return domain.PayResponse{Code: g.payCode}, g.payErr
	}
	return domain.PayResponse{RedirectURL: "https://pay.example.com/checkout/" + req.MerchantTransactionID, Code: "PAYMENT_INITIATED"}, nil
}

// countingRepo records lookups so tests can assert nothing was read.
type countingRepo struct {
	domain.Repository
	lookups atomic.Int64
}

func (r *countingRepo) FindByMerchantTransactionID(ctx context.Context, db *gorm.DB, id string) (*domain.Transaction, error) {
	r.lookups.Add(1)
	return r.Repository.FindByMerchantTransactionID(ctx, db, id)
}

type fakePDF struct {
	last pdf.ReceiptData
}

func (p *fakePDF) GenerateReceipt(_ context.Context, data pdf.ReceiptData) ([]byte, error) {
	p.last = data
	return []byte("%PDF-1.3 fake"), nil
}

type fixture struct {
	svc     *Service
	db      *gorm.DB
	node    *snowflake.Node
	gateway *fakeGateway
	repo    *countingRepo
	pdf     *fakePDF
	bundle  bundledomain.CreditBundle
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	log := zaptest.NewLogger(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	marketplace := config.NewStaticMarketplaceConfigHolder(config.DefaultMarketplaceConfig())

	tokens, err := auth.NewTokenManager("secret", time.Hour, clk)
	require.NoError(t, err)

	bundleSvc := bundleservice.NewService(bundleservice.Params{
		DB: db, Log: log, GenID: testutil.NewNode(t), Clock: clk, Repo: bundlerepo.Provide(),
	})
	userSvc := userservice.NewService(userservice.Params{
		DB: db, Log: log, GenID: testutil.NewNode(t), Clock: clk, Repo: userrepo.Provide(),
		Tokens: tokens, Marketplace: marketplace,
	})
	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		DB: db, Log: log, GenID: testutil.NewNode(t), Clock: clk, Repo: ledgerrepo.Provide(),
	})
	notificationSvc := notificationservice.NewService(notificationservice.Params{
		DB: db, Log: log, GenID: testutil.NewNode(t), Clock: clk, Repo: notificationrepo.Provide(),
	})

	bundle, err := bundleSvc.Create(context.Background(), bundledomain.CreateBundleRequest{
		Name: "Starter", Price: 49900, Credits: 25,
	})
	require.NoError(t, err)

	gw := &fakeGateway{Signer: gateway.NewSigner(saltKey, "1")}
	repo := &countingRepo{Repository: repository.Provide()}
	receipts := &fakePDF{}

	svc := NewService(Params{
		DB:              db,
		Log:             log,
		GenID:           testutil.NewNode(t),
		Clock:           clk,
		Cfg:             config.Config{AppName: "leadhub"},
		Repo:            repo,
		Gateway:         gw,
		BundleSvc:       bundleSvc,
		LedgerSvc:       ledgerSvc,
		NotificationSvc: notificationSvc,
		UserSvc:         userSvc,
		PDF:             receipts,
		ObsMetrics:      obsmetrics.NewNoop(),
	}).(*Service)

	return fixture{
		svc:     svc,
		db:      db,
		node:    testutil.NewNode(t),
		gateway: gw,
		repo:    repo,
		pdf:     receipts,
		bundle:  bundle,
	}
}

func asPro(id snowflake.ID) context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{UserID: id, Role: auth.RoleProfessional})
}

func (f fixture) initiate(t *testing.T, proID snowflake.ID) domain.Transaction {
	t.Helper()
	resp, err := f.svc.Initiate(asPro(proID), domain.InitiateRequest{BundleID: f.bundle.ID})
	require.NoError(t, err)
	return resp.Transaction
}

func (f fixture) callback(t *testing.T, merchantTxnID, code string, amount int64) domain.WebhookRequest {
	t.Helper()
	raw, err := json.Marshal(domain.CallbackPayload{
		Success: code == domain.CodePaymentSuccess,
		Code:    code,
		Data: domain.CallbackData{
			MerchantTransactionID: merchantTxnID,
			TransactionID:         "GW-" + merchantTxnID,
			Amount:                amount,
			State:                 "COMPLETED",
		},
	})
	require.NoError(t, err)
	response := base64.StdEncoding.EncodeToString(raw)
	return domain.WebhookRequest{Response: response, Signature: f.gateway.CallbackChecksum(response)}
}

func (f fixture) notifications(t *testing.T, userID snowflake.ID, kind string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND type = ?`, userID, kind).Scan(&count).Error)
	return count
}

func (f fixture) entries(t *testing.T, userID snowflake.ID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(*) FROM credit_entries WHERE user_id = ?`, userID).Scan(&count).Error)
	return count
}

func TestInitiateSnapshotsBundle(t *testing.T) {
	f := newFixture(t)
	pro := testutil.SeedProfessional(t, f.db, f.node, 0)

	resp, err := f.svc.Initiate(asPro(pro), domain.InitiateRequest{BundleID: f.bundle.ID})
	require.NoError(t, err)

	txn := resp.Transaction
	assert.Equal(t, domain.StatusPending, txn.Status)
	assert.Equal(t, int64(49900), txn.Amount)
	assert.Equal(t, int64(25), txn.Credits)
	assert.Equal(t, "INR", txn.Currency)
	assert.Len(t, txn.MerchantTransactionID, 26)
	assert.Contains(t, resp.RedirectURL, txn.MerchantTransactionID)

	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, txn.MerchantTransactionID, f.gateway.requests[0].MerchantTransactionID)
	assert.Equal(t, int64(49900), f.gateway.requests[0].Amount)
}

func TestInitiateRejectsInactiveBundle(t *testing.T) {
	f := newFixture(t)
	pro := testutil.SeedProfessional(t, f.db, f.node, 0)
	require.NoError(t, f.db.Exec(`UPDATE credit_bundles SET is_active = 0 WHERE id = ?`, f.bundle.ID).Error)

	_, err := f.svc.Initiate(asPro(pro), domain.InitiateRequest{BundleID: f.bundle.ID})
	require.ErrorIs(t, err, domain.ErrBundleNotFound)
	assert.Empty(t, f.gateway.requests)

	_, err = f.svc.Initiate(context.Background(), domain.InitiateRequest{BundleID: f.bundle.ID})
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestInitiateGatewayFailureMarksTransactionFailed(t *testing.T) {
	f := newFixture(t)
	pro := testutil.SeedProfessional(t, f.db, f.node, 0)
	f.gateway.payErr = domain.ErrGatewayRejected
	f.gateway.payCode = "BAD_REQUEST"

	_, err := f.svc.Initiate(asPro(pro), domain.InitiateRequest{BundleID: f.bundle.ID})
	require.ErrorIs(t, err, domain.ErrGatewayRejected)

	list, err := f.svc.ListMine(asPro(pro), domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, list.Transactions, 1)
	assert.Equal(t, domain.StatusFailed, list.Transactions[0].Status)
	assert.Equal(t, "BAD_REQUEST", list.Transactions[0].GatewayCode)
}

func TestWebhookSuccessCreditsOnce(t *testing.T) {
	f := newFixture(t)
	pro := testutil.SeedProfessional(t, f.db, f.node, 3)
	txn := f.initiate(t, pro)
	req := f.callback(t, txn.MerchantTransactionID, domain.CodePaymentSuccess, txn.Amount)

	require.NoError(t, f.svc.HandleWebhook(context.Background(), req))
	assert.Equal(t, int64(28), testutil.Credits(t, f.db, pro))

	settled, err := f.svc.Get(asPro(pro), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, settled.Status)
	assert.Equal(t, "GW-"+txn.MerchantTransactionID, settled.GatewayTransactionID)
	require.NotNil(t, settled.SettledAt)

	// Replays are acknowledged without moving credits again.
	require.NoError(t, f.svc.HandleWebhook(context.Background(), req))
	assert.Equal(t, int64(28), testutil.Credits(t, f.db, pro))
	assert.Equal(t, int64(1), f.entries(t, pro))
	assert.Equal(t, int64(1), f.notifications(t, pro, "CREDITS_PURCHASED"))
}

func TestWebhookFailureLeavesBalance(t *testing.T) {
	f := newFixture(t)
	pro := testutil.SeedProfessional(t, f.db, f.node, 3)
	txn := f.initiate(t, pro)

	require.NoError(t, f.svc.HandleWebhook(context.Background(), f.callback(t, txn.MerchantTransactionID, "PAYMENT_DECLINED", txn.Amount)))
	assert.Equal(t, int64(3), testutil.Credits(t, f.db, pro))
	assert.Equal(t, int64(0), f.entries(t, pro))
	assert.Equal(t, int64(1), f.notifications(t, pro, "PAYMENT_FAILED"))

	settled, err := f.svc.Get(asPro(pro), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, settled.Status)
	assert.Equal(t, "PAYMENT_DECLINED", settled.GatewayCode)

	// A late success for a failed purchase is ignored.
	require.NoError(t, f.svc.HandleWebhook(context.Background(), f.callback(t, txn.MerchantTransactionID, domain.CodePaymentSuccess, txn.Amount)))
	assert.Equal(t, int64(3), testutil.Credits(t, f.db, pro))
}

func TestWebhookAmountMismatchFails(t *testing.T) {
	f := newFixture(t)
	pro := testutil.SeedProfessional(t, f.db, f.node, 0)
	txn := f.initiate(t, pro)

	require.NoError(t, f.svc.HandleWebhook(context.Background(), f.callback(t, txn.MerchantTransactionID, domain.CodePaymentSuccess, 100)))
	assert.Equal(t, int64(0), testutil.Credits(t, f.db, pro))

	settled, err := f.svc.Get(asPro(pro), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, settled.Status)
	assert.Equal(t, codeAmountMismatch, settled.GatewayCode)
}

func TestWebhookTamperedChecksumRejectedBeforeLookup(t *testing.T) {
	f := newFixture(t)
	pro := testutil.SeedProfessional(t, f.db, f.node, 0)
	txn := f.initiate(t, pro)
	req := f.callback(t, txn.MerchantTransactionID, domain.CodePaymentSuccess, txn.Amount)

	tampered := req
	tampered.Signature = "deadbeef###1"
	require.ErrorIs(t, f.svc.HandleWebhook(context.Background(), tampered), domain.ErrChecksumMismatch)

	forged := f.callback(t, txn.MerchantTransactionID, domain.CodePaymentSuccess, txn.Amount)
	forged.Response = base64.StdEncoding.EncodeToString([]byte(`{"code":"PAYMENT_SUCCESS","data":{"merchantTransactionId":"x"}}`))
	require.ErrorIs(t, f.svc.HandleWebhook(context.Background(), forged), domain.ErrChecksumMismatch)

	assert.Equal(t, int64(0), f.repo.lookups.Load())
	assert.Equal(t, int64(0), testutil.Credits(t, f.db, pro))
}

func TestWebhookInvalidPayloadAndUnknownTransaction(t *testing.T) {
	f := newFixture(t)

	garbage := "not base64!"
	err := f.svc.HandleWebhook(context.Background(), domain.WebhookRequest{
		Response:  garbage,
		Signature: f.gateway.CallbackChecksum(garbage),
	})
	require.ErrorIs(t, err, domain.ErrInvalidPayload)

	err = f.svc.HandleWebhook(context.Background(), f.callback(t, "01UNKNOWN", domain.CodePaymentSuccess, 1))
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetHidesOtherUsersTransactions(t *testing.T) {
	f := newFixture(t)
	owner := testutil.SeedProfessional(t, f.db, f.node, 0)
	other := testutil.SeedProfessional(t, f.db, f.node, 0)
	txn := f.initiate(t, owner)

	_, err := f.svc.Get(asPro(other), txn.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	admin := auth.WithPrincipal(context.Background(), auth.Principal{UserID: 1, Role: auth.RoleAdmin})
	got, err := f.svc.Get(admin, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, got.ID)

	all, err := f.svc.ListAll(admin, domain.ListRequest{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, all.Transactions, 1)

	_, err = f.svc.ListAll(admin, domain.ListRequest{Status: "refunded"})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestReceipt(t *testing.T) {
	f := newFixture(t)
	pro := testutil.SeedProfessional(t, f.db, f.node, 0)
	txn := f.initiate(t, pro)

	_, err := f.svc.Receipt(asPro(pro), txn.ID)
	require.ErrorIs(t, err, domain.ErrNotSettled)

	require.NoError(t, f.svc.HandleWebhook(context.Background(), f.callback(t, txn.MerchantTransactionID, domain.CodePaymentSuccess, txn.Amount)))

	receipt, err := f.svc.Receipt(asPro(pro), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "receipt-"+txn.MerchantTransactionID+".pdf", receipt.FileName)
	assert.NotEmpty(t, receipt.Content)
	assert.Equal(t, "INR 499.00", f.pdf.last.Amount)
	assert.Equal(t, "Starter", f.pdf.last.BundleName)
	assert.Equal(t, int64(25), f.pdf.last.Credits)
	assert.Equal(t, "leadhub", f.pdf.last.PlatformName)

	other := testutil.SeedProfessional(t, f.db, f.node, 0)
	_, err = f.svc.Receipt(asPro(other), txn.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
