package lnbits

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	domainerrors "rolegate.backend/internal/domain/errors"
	"rolegate.backend/pkg/logger"
)

// Client talks to the LNBits REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type createInvoiceRequest struct {
	Out    bool   `json:"out"`
	Amount int64  `json:"amount"`
	Memo   string `json:"memo"`
}

type createInvoiceResponse struct {
	Bolt11      string `json:"bolt11"`
	PaymentHash string `json:"payment_hash"`
}

// CreateInvoice mints a payment request for the given amount. Non-201
// responses are classified by status; a single call is never retried
// internally, the caller is told to retry.
func (c *Client) CreateInvoice(ctx context.Context, amountSats int64, memo string) (bolt11, paymentHash string, err error) {
	body, err := json.Marshal(createInvoiceRequest{Out: false, Amount: amountSats, Memo: memo})
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/payments", bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Error(ctx, "invoice creation failed: cannot reach payment provider", zap.Error(err))
		return "", "", domainerrors.NewAppError(http.StatusServiceUnavailable,
			"cannot reach payment provider - please try again later", domainerrors.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		logger.Error(ctx, "payment provider rejected invoice creation",
			zap.Int("status", resp.StatusCode))
		return "", "", domainerrors.ProviderError(resp.StatusCode)
	}

	var inv createInvoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&inv); err != nil {
		return "", "", domainerrors.NewAppError(http.StatusBadGateway,
			"invalid invoice data from payment provider", err)
	}
	if inv.Bolt11 == "" || inv.PaymentHash == "" {
		return "", "", domainerrors.NewAppError(http.StatusBadGateway,
			"invalid invoice data from payment provider", domainerrors.ErrProviderFailed)
	}

	return inv.Bolt11, inv.PaymentHash, nil
}
