package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/leadhub/internal/config"
	paymentdomain "github.com/smallbiznis/leadhub/internal/payment/domain"
	"go.uber.org/zap"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseBody = 1 << 20
)

var ErrNotConfigured = errors.New("payment_gateway_not_configured")

// Client talks to the hosted checkout API.
type Client struct {
	baseURL     string
	merchantID  string
	redirectURL string
	callbackURL string
	signer      Signer
	http        *http.Client
	log         *zap.Logger
}

func NewClient(cfg config.PaymentConfig, log *zap.Logger) *Client {
	return NewClientWithHTTP(cfg, &http.Client{Timeout: defaultTimeout}, log)
}

func NewClientWithHTTP(cfg config.PaymentConfig, httpClient *http.Client, log *zap.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.GatewayBaseURL, "/"),
		merchantID:  cfg.MerchantID,
		redirectURL: cfg.RedirectURL,
		callbackURL: cfg.CallbackURL,
		signer:      NewSigner(cfg.SaltKey, cfg.SaltIndex),
		http:        httpClient,
		log:         log.Named("payment.gateway"),
	}
}

// Provide exposes the client as the payment gateway for fx.
func Provide(cfg config.Config, log *zap.Logger) paymentdomain.Gateway {
	return NewClient(cfg.Payment, log)
}

type payPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	PaymentInstrument     paymentInstrument `json:"paymentInstrument"`
}

type paymentInstrument struct {
	Type string `json:"type"`
}

type payEnvelope struct {
	Request string `json:"request"`
}

type payResult struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		InstrumentResponse struct {
			RedirectInfo struct {
				URL string `json:"url"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

func (c *Client) Pay(ctx context.Context, req paymentdomain.PayRequest) (paymentdomain.PayResponse, error) {
	if c.baseURL == "" || c.merchantID == "" {
		return paymentdomain.PayResponse{}, ErrNotConfigured
	}

	raw, err := json.Marshal(payPayload{
		MerchantID:            c.merchantID,
		MerchantTransactionID: req.MerchantTransactionID,
		MerchantUserID:        req.MerchantUserID,
		Amount:                req.Amount,
		RedirectURL:           c.redirectURL,
		RedirectMode:          "REDIRECT",
		CallbackURL:           c.callbackURL,
		PaymentInstrument:     paymentInstrument{Type: "PAY_PAGE"},
	})
	if err != nil {
		return paymentdomain.PayResponse{}, err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	body, err := json.Marshal(payEnvelope{Request: encoded})
	if err != nil {
		return paymentdomain.PayResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PayPath, bytes.NewReader(body))
	if err != nil {
		return paymentdomain.PayResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(VerifyHeader, c.signer.PayChecksum(encoded))
	httpReq.Header.Set(MerchantHeader, c.merchantID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return paymentdomain.PayResponse{}, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return paymentdomain.PayResponse{}, fmt.Errorf("%w: %v", paymentdomain.ErrGatewayUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return paymentdomain.PayResponse{}, fmt.Errorf("%w: status %d", paymentdomain.ErrGatewayUnavailable, resp.StatusCode)
	}

	var result payResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return paymentdomain.PayResponse{}, fmt.Errorf("%w: decode response", paymentdomain.ErrGatewayUnavailable)
	}
	redirect := strings.TrimSpace(result.Data.InstrumentResponse.RedirectInfo.URL)
	if resp.StatusCode != http.StatusOK || !result.Success || redirect == "" {
		c.log.Warn("gateway rejected pay request",
			zap.Int("status_code", resp.StatusCode),
			zap.String("code", result.Code),
			zap.String("merchant_transaction_id", req.MerchantTransactionID),
		)
		return paymentdomain.PayResponse{Code: result.Code}, paymentdomain.ErrGatewayRejected
	}

	return paymentdomain.PayResponse{RedirectURL: redirect, Code: result.Code}, nil
}

func (c *Client) VerifyCallback(response, signature string) bool {
	return c.signer.VerifyCallback(response, signature)
}
