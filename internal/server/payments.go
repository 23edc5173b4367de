package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/leadhub/internal/payment/domain"
	"github.com/smallbiznis/leadhub/internal/payment/gateway"
)

type initiatePaymentRequest struct {
	BundleID string `json:"bundle_id"`
}

type paymentWebhookRequest struct {
	Response string `json:"response"`
}

type listPaymentsQuery struct {
	pageQuery
	Status string `form:"status"`
}

func (s *Server) ListBundles(c *gin.Context) {
	bundles, err := s.bundleSvc.List(c.Request.Context(), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": bundles})
}

func (s *Server) InitiatePayment(c *gin.Context) {
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	bundleID, err := parseOptionalSnowflakeID(req.BundleID)
	if err != nil || bundleID == 0 {
		AbortWithError(c, newValidationError("bundle_id", "invalid_bundle_id", "invalid bundle_id"))
		return
	}

	resp, err := s.paymentSvc.Initiate(c.Request.Context(), paymentdomain.InitiateRequest{BundleID: bundleID})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListMyPayments(c *gin.Context) {
	s.listPayments(c, s.paymentSvc.ListMine)
}

func (s *Server) AdminListPayments(c *gin.Context) {
	s.listPayments(c, s.paymentSvc.ListAll)
}

func (s *Server) listPayments(c *gin.Context, list func(ctx context.Context, req paymentdomain.ListRequest) (paymentdomain.ListResponse, error)) {
	var query listPaymentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := list(c.Request.Context(), paymentdomain.ListRequest{
		Pagination: query.pagination(),
		Status:     strings.TrimSpace(query.Status),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp.Transactions, "page_info": resp.PageInfo})
}

func (s *Server) GetPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	txn, err := s.paymentSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": txn})
}

func (s *Server) DownloadReceipt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	receipt, err := s.paymentSvc.Receipt(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", receipt.FileName))
	c.Data(http.StatusOK, "application/pdf", receipt.Content)
}

// HandlePaymentWebhook answers the gateway in plain text. The gateway only
// looks at the status code.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	var req paymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Response) == "" {
		_ = c.Error(paymentdomain.ErrInvalidPayload)
		c.String(http.StatusBadRequest, "invalid payload")
		return
	}

	err := s.paymentSvc.HandleWebhook(c.Request.Context(), paymentdomain.WebhookRequest{
		Response:  req.Response,
		Signature: c.GetHeader(gateway.VerifyHeader),
	})
	if err != nil {
		_ = c.Error(err)
		status, text := webhookStatus(err)
		c.String(status, text)
		return
	}
	c.String(http.StatusOK, "OK")
}

func webhookStatus(err error) (int, string) {
	switch {
	case errors.Is(err, paymentdomain.ErrChecksumMismatch):
		return http.StatusBadRequest, "checksum mismatch"
	case errors.Is(err, paymentdomain.ErrInvalidPayload):
		return http.StatusBadRequest, "invalid payload"
	case errors.Is(err, paymentdomain.ErrNotFound):
		return http.StatusNotFound, "transaction not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
