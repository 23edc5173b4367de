package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	auditdomain "github.com/smallbiznis/leadhub/internal/audit/domain"
	"github.com/smallbiznis/leadhub/internal/auth"
	bundledomain "github.com/smallbiznis/leadhub/internal/bundle/domain"
	"github.com/smallbiznis/leadhub/internal/clock"
	"github.com/smallbiznis/leadhub/internal/config"
	ledgerdomain "github.com/smallbiznis/leadhub/internal/ledger/domain"
	notificationdomain "github.com/smallbiznis/leadhub/internal/notification/domain"
	obsmetrics "github.com/smallbiznis/leadhub/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/leadhub/internal/payment/domain"
	"github.com/smallbiznis/leadhub/internal/providers/pdf"
	userdomain "github.com/smallbiznis/leadhub/internal/user/domain"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	codeInitiationFailed = "INITIATION_FAILED"
	codeAmountMismatch   = "AMOUNT_MISMATCH"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	Cfg             config.Config
	Repo            paymentdomain.Repository
	Gateway         paymentdomain.Gateway
	BundleSvc       bundledomain.Service
	LedgerSvc       ledgerdomain.Service
	NotificationSvc notificationdomain.Service
	UserSvc         userdomain.Service
	PDF             pdf.Provider
	AuditSvc        auditdomain.Service `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	clock           clock.Clock
	appName         string
	repo            paymentdomain.Repository
	gateway         paymentdomain.Gateway
	bundleSvc       bundledomain.Service
	ledgerSvc       ledgerdomain.Service
	notificationSvc notificationdomain.Service
	userSvc         userdomain.Service
	pdf             pdf.Provider
	auditSvc        auditdomain.Service
	obsMetrics      *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("payment.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		appName:         p.Cfg.AppName,
		repo:            p.Repo,
		gateway:         p.Gateway,
		bundleSvc:       p.BundleSvc,
		ledgerSvc:       p.LedgerSvc,
		notificationSvc: p.NotificationSvc,
		userSvc:         p.UserSvc,
		pdf:             p.PDF,
		auditSvc:        p.AuditSvc,
		obsMetrics:      p.ObsMetrics,
	}
}

// Initiate opens a PENDING transaction for an active bundle and asks the
// gateway for a checkout page.
func (s *Service) Initiate(ctx context.Context, req paymentdomain.InitiateRequest) (paymentdomain.InitiateResponse, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return paymentdomain.InitiateResponse{}, paymentdomain.ErrUnauthenticated
	}

	bundle, err := s.bundleSvc.GetActive(ctx, req.BundleID)
	if err != nil {
		if errors.Is(err, bundledomain.ErrNotFound) {
			return paymentdomain.InitiateResponse{}, paymentdomain.ErrBundleNotFound
		}
		return paymentdomain.InitiateResponse{}, err
	}

	now := s.clock.Now()
	txn := paymentdomain.Transaction{
		ID:                    s.genID.Generate(),
		UserID:                principal.UserID,
		BundleID:              bundle.ID,
		MerchantTransactionID: ulid.Make().String(),
		Amount:                bundle.Price,
		Currency:              bundle.Currency,
		Credits:               bundle.Credits,
		Status:                paymentdomain.StatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.repo.Insert(ctx, s.db, &txn); err != nil {
		return paymentdomain.InitiateResponse{}, fmt.Errorf("insert transaction: %w", err)
	}

	resp, err := s.gateway.Pay(ctx, paymentdomain.PayRequest{
		MerchantTransactionID: txn.MerchantTransactionID,
		MerchantUserID:        principal.UserID.String(),
		Amount:                txn.Amount,
	})
	if err != nil {
		s.log.Error("payment initiation failed",
			zap.String("transaction_id", txn.ID.String()),
			zap.String("merchant_transaction_id", txn.MerchantTransactionID),
			zap.Error(err),
		)
		code := resp.Code
		if code == "" {
			code = codeInitiationFailed
		}
		if _, settleErr := s.repo.Settle(ctx, s.db, txn.ID, paymentdomain.Settlement{
			Status:      paymentdomain.StatusFailed,
			GatewayCode: code,
			SettledAt:   s.clock.Now(),
		}); settleErr != nil {
			s.log.Error("failed to mark transaction failed", zap.String("transaction_id", txn.ID.String()), zap.Error(settleErr))
		}
		s.obsMetrics.RecordPaymentEvent(ctx, "initiate", "error")
		if errors.Is(err, paymentdomain.ErrGatewayRejected) {
			return paymentdomain.InitiateResponse{}, paymentdomain.ErrGatewayRejected
		}
		return paymentdomain.InitiateResponse{}, paymentdomain.ErrGatewayUnavailable
	}

	s.obsMetrics.RecordPaymentEvent(ctx, "initiate", "ok")
	s.log.Info("payment initiated",
		zap.String("transaction_id", txn.ID.String()),
		zap.String("merchant_transaction_id", txn.MerchantTransactionID),
		zap.Int64("amount", txn.Amount),
		zap.Int64("credits", txn.Credits),
	)
	return paymentdomain.InitiateResponse{Transaction: txn, RedirectURL: resp.RedirectURL}, nil
}

// HandleWebhook settles a transaction from a gateway callback. The checksum
// is verified before anything is read from the database, and settled
// transactions are left untouched so replays are harmless.
func (s *Service) HandleWebhook(ctx context.Context, req paymentdomain.WebhookRequest) error {
	if !s.gateway.VerifyCallback(req.Response, req.Signature) {
		s.obsMetrics.RecordPaymentEvent(ctx, "webhook", "checksum_mismatch")
		s.log.Warn("payment webhook checksum mismatch")
		return paymentdomain.ErrChecksumMismatch
	}

	payload, err := decodeCallback(req.Response)
	if err != nil {
		s.obsMetrics.RecordPaymentEvent(ctx, "webhook", "invalid_payload")
		return err
	}
	merchantTxnID := payload.Data.MerchantTransactionID
	log := s.log.With(
		zap.String("merchant_transaction_id", merchantTxnID),
		zap.String("code", payload.Code),
	)

	txn, err := s.repo.FindByMerchantTransactionID(ctx, s.db, merchantTxnID)
	if err != nil {
		return err
	}
	if txn == nil {
		log.Warn("payment webhook for unknown transaction")
		s.obsMetrics.RecordPaymentEvent(ctx, "webhook", "not_found")
		return paymentdomain.ErrNotFound
	}
	if txn.Status != paymentdomain.StatusPending {
		log.Info("payment webhook replay ignored", zap.String("status", string(txn.Status)))
		s.obsMetrics.RecordPaymentEvent(ctx, "webhook", "replay")
		return nil
	}

	settlement := paymentdomain.Settlement{
		Status:               paymentdomain.StatusFailed,
		GatewayTransactionID: payload.Data.TransactionID,
		GatewayCode:          payload.Code,
		SettledAt:            s.clock.Now(),
	}
	if payload.Code == paymentdomain.CodePaymentSuccess {
		if payload.Data.Amount != 0 && payload.Data.Amount != txn.Amount {
			log.Error("payment webhook amount mismatch",
				zap.Int64("expected", txn.Amount),
				zap.Int64("received", payload.Data.Amount),
			)
			settlement.GatewayCode = codeAmountMismatch
		} else {
			settlement.Status = paymentdomain.StatusSuccess
		}
	}

	settled := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.repo.Settle(ctx, tx, txn.ID, settlement)
		if err != nil {
			return fmt.Errorf("settle transaction: %w", err)
		}
		if affected == 0 {
			return nil
		}
		settled = true

		notification := notificationdomain.CreateRequest{
			UserID:  txn.UserID,
			Type:    notificationdomain.TypePaymentFailed,
			Message: "Your credit purchase did not go through",
			Data: map[string]any{
				"transaction_id": txn.ID.String(),
				"code":           settlement.GatewayCode,
			},
		}
		if settlement.Status == paymentdomain.StatusSuccess {
			if _, err := s.ledgerSvc.Credit(ctx, tx, txn.UserID, txn.Credits, ledgerdomain.Reference{
				Type: ledgerdomain.ReferenceTransaction,
				ID:   txn.ID,
			}); err != nil {
				return err
			}
			notification.Type = notificationdomain.TypeCreditsPurchased
			notification.Message = fmt.Sprintf("%d credits added to your balance", txn.Credits)
			notification.Data["credits"] = txn.Credits
		}
		_, err = s.notificationSvc.Create(ctx, tx, notification)
		return err
	})
	if err != nil {
		log.Error("payment webhook processing failed", zap.Error(err))
		s.obsMetrics.RecordPaymentEvent(ctx, "webhook", "error")
		return err
	}
	if !settled {
		log.Info("payment webhook lost race to another delivery")
		s.obsMetrics.RecordPaymentEvent(ctx, "webhook", "replay")
		return nil
	}

	outcome := strings.ToLower(string(settlement.Status))
	s.obsMetrics.RecordPaymentEvent(ctx, "webhook", outcome)
	if settlement.Status == paymentdomain.StatusSuccess {
		s.obsMetrics.RecordCredits(ctx, "credit", "purchase", txn.Credits)
	}
	log.Info("transaction settled", zap.String("transaction_id", txn.ID.String()), zap.String("status", string(settlement.Status)))
	s.audit(ctx, txn.ID, map[string]any{
		"status":       string(settlement.Status),
		"gateway_code": settlement.GatewayCode,
		"credits":      txn.Credits,
	})
	return nil
}

func decodeCallback(response string) (paymentdomain.CallbackPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(response))
	if err != nil {
		return paymentdomain.CallbackPayload{}, paymentdomain.ErrInvalidPayload
	}
	var payload paymentdomain.CallbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return paymentdomain.CallbackPayload{}, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(payload.Data.MerchantTransactionID) == "" {
		return paymentdomain.CallbackPayload{}, paymentdomain.ErrInvalidPayload
	}
	return payload, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (paymentdomain.Transaction, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return paymentdomain.Transaction{}, paymentdomain.ErrUnauthenticated
	}
	txn, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return paymentdomain.Transaction{}, err
	}
	if txn == nil || (txn.UserID != principal.UserID && !principal.IsAdmin()) {
		return paymentdomain.Transaction{}, paymentdomain.ErrNotFound
	}
	return *txn, nil
}

func (s *Service) ListMine(ctx context.Context, req paymentdomain.ListRequest) (paymentdomain.ListResponse, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return paymentdomain.ListResponse{}, paymentdomain.ErrUnauthenticated
	}
	return s.list(ctx, principal.UserID, req)
}

func (s *Service) ListAll(ctx context.Context, req paymentdomain.ListRequest) (paymentdomain.ListResponse, error) {
	return s.list(ctx, 0, req)
}

func (s *Service) list(ctx context.Context, userID snowflake.ID, req paymentdomain.ListRequest) (paymentdomain.ListResponse, error) {
	filter := paymentdomain.ListFilter{UserID: userID, Limit: req.Limit()}
	if raw := strings.ToUpper(strings.TrimSpace(req.Status)); raw != "" {
		status, ok := paymentdomain.ParseStatus(raw)
		if !ok {
			return paymentdomain.ListResponse{}, paymentdomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	afterID, err := req.AfterID()
	if err != nil {
		return paymentdomain.ListResponse{}, paymentdomain.ErrInvalidPageToken
	}
	filter.AfterID = afterID

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return paymentdomain.ListResponse{}, err
	}
	items, pageInfo := pagination.Trim(items, filter.Limit, func(t *paymentdomain.Transaction) int64 { return t.ID.Int64() })

	txns := make([]paymentdomain.Transaction, 0, len(items))
	for _, item := range items {
		txns = append(txns, *item)
	}
	return paymentdomain.ListResponse{PageInfo: pageInfo, Transactions: txns}, nil
}

// Receipt renders a PDF for the owner's settled purchase.
func (s *Service) Receipt(ctx context.Context, id snowflake.ID) (paymentdomain.Receipt, error) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return paymentdomain.Receipt{}, paymentdomain.ErrUnauthenticated
	}
	txn, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return paymentdomain.Receipt{}, err
	}
	if txn == nil || txn.UserID != principal.UserID {
		return paymentdomain.Receipt{}, paymentdomain.ErrNotFound
	}
	if txn.Status != paymentdomain.StatusSuccess {
		return paymentdomain.Receipt{}, paymentdomain.ErrNotSettled
	}

	user, err := s.userSvc.Get(ctx, txn.UserID)
	if err != nil {
		return paymentdomain.Receipt{}, err
	}
	bundleName := "Credit bundle"
	if bundle, err := s.bundleSvc.Get(ctx, txn.BundleID); err == nil {
		bundleName = bundle.Name
	} else if !errors.Is(err, bundledomain.ErrNotFound) {
		return paymentdomain.Receipt{}, err
	}

	paidAt := txn.UpdatedAt
	if txn.SettledAt != nil {
		paidAt = *txn.SettledAt
	}
	content, err := s.pdf.GenerateReceipt(ctx, pdf.ReceiptData{
		PlatformName:         s.appName,
		ReceiptNumber:        txn.MerchantTransactionID,
		GatewayTransactionID: txn.GatewayTransactionID,
		PaidAt:               paidAt.UTC().Format("2006-01-02 15:04 MST"),
		CustomerName:         user.Name,
		CustomerEmail:        user.Email,
		BundleName:           bundleName,
		Credits:              txn.Credits,
		Amount:               formatAmount(txn.Amount, txn.Currency),
	})
	if err != nil {
		return paymentdomain.Receipt{}, fmt.Errorf("render receipt: %w", err)
	}
	return paymentdomain.Receipt{
		FileName: fmt.Sprintf("receipt-%s.pdf", txn.MerchantTransactionID),
		Content:  content,
	}, nil
}

func (s *Service) audit(ctx context.Context, id snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, auditdomain.ActionTransactionSettle, "transaction", id.String(), metadata); err != nil {
		s.log.Warn("audit log failed", zap.Error(err))
	}
}

func formatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s %s%d.%02d", currency, sign, minor/100, minor%100)
}
