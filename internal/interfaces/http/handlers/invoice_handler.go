package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domainerrors "rolegate.backend/internal/domain/errors"
	"rolegate.backend/internal/interfaces/http/response"
	"rolegate.backend/internal/usecases"
)

// InvoiceHandler exposes the invoice lifecycle to operators: minting payment
// requests and inspecting what is still awaiting payment.
type InvoiceHandler struct {
	usecase          *usecases.InvoiceUsecase
	defaultPriceSats int64
	defaultMemo      string
}

func NewInvoiceHandler(usecase *usecases.InvoiceUsecase, defaultPriceSats int64, defaultMemo string) *InvoiceHandler {
	return &InvoiceHandler{
		usecase:          usecase,
		defaultPriceSats: defaultPriceSats,
		defaultMemo:      defaultMemo,
	}
}

type createInvoiceRequest struct {
	RequesterID string `json:"requesterId" binding:"required"`
	ChannelID   string `json:"channelId"`
	AmountSats  int64  `json:"amountSats"`
	Memo        string `json:"memo"`
}

// Create handles POST /api/v1/invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest("requesterId is required"))
		return
	}

	if req.AmountSats == 0 {
		req.AmountSats = h.defaultPriceSats
	}
	if req.Memo == "" {
		req.Memo = h.defaultMemo
	}

	result, err := h.usecase.CreateInvoice(c.Request.Context(), usecases.CreateInvoiceInput{
		RequesterID: req.RequesterID,
		ChannelID:   req.ChannelID,
		AmountSats:  req.AmountSats,
		Memo:        req.Memo,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

type pendingInvoiceView struct {
	PaymentHash string    `json:"paymentHash"`
	RequesterID string    `json:"requesterId"`
	ChannelID   string    `json:"channelId"`
	CreatedAt   time.Time `json:"createdAt"`
	AgeSeconds  int64     `json:"ageSeconds"`
}

// List handles GET /api/v1/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	pending, err := h.usecase.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	now := time.Now()
	views := make([]pendingInvoiceView, 0, len(pending))
	for _, inv := range pending {
		views = append(views, pendingInvoiceView{
			PaymentHash: inv.PaymentHash,
			RequesterID: inv.RequesterID,
			ChannelID:   inv.ChannelID,
			CreatedAt:   inv.CreatedAt,
			AgeSeconds:  int64(inv.Age(now).Seconds()),
		})
	}

	response.Success(c, http.StatusOK, gin.H{"invoices": views})
}

// Stats handles GET /api/v1/invoices/stats
func (h *InvoiceHandler) Stats(c *gin.Context) {
	count, err := h.usecase.PendingCount(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"pendingCount": count,
		"priceSats":    h.defaultPriceSats,
	})
}
