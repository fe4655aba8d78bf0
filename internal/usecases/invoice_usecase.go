package usecases

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"rolegate.backend/internal/domain/entities"
	domainerrors "rolegate.backend/internal/domain/errors"
	"rolegate.backend/internal/domain/repositories"
	"rolegate.backend/pkg/logger"
	"rolegate.backend/pkg/metrics"
)

// InvoiceIssuer mints a payment request at the payment provider.
type InvoiceIssuer interface {
	CreateInvoice(ctx context.Context, amountSats int64, memo string) (bolt11, paymentHash string, err error)
}

// EntitlementGranter performs the idempotent privilege grant for a consumed
// record.
type EntitlementGranter interface {
	Grant(ctx context.Context, invoice *entities.PendingInvoice) (GrantOutcome, error)
}

// InvoiceUsecase orchestrates the invoice lifecycle: minting a payment
// request, correlating incoming confirmations to stored records, and handing
// consumed records to the granter.
type InvoiceUsecase struct {
	repo           repositories.PendingInvoiceRepository
	issuer         InvoiceIssuer
	granter        EntitlementGranter
	defaultChannel string
}

func NewInvoiceUsecase(
	repo repositories.PendingInvoiceRepository,
	issuer InvoiceIssuer,
	granter EntitlementGranter,
	defaultChannel string,
) *InvoiceUsecase {
	return &InvoiceUsecase{
		repo:           repo,
		issuer:         issuer,
		granter:        granter,
		defaultChannel: defaultChannel,
	}
}

type CreateInvoiceInput struct {
	RequesterID string
	ChannelID   string
	AmountSats  int64
	Memo        string
}

type CreateInvoiceResult struct {
	PaymentRequest string `json:"paymentRequest"`
	PaymentHash    string `json:"paymentHash"`
	AmountSats     int64  `json:"amountSats"`
}

// CreateInvoice mints a payment request and stores the pending record keyed
// by the provider-assigned payment hash. Provider failures are returned
// classified without storing anything.
func (u *InvoiceUsecase) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*CreateInvoiceResult, error) {
	if in.RequesterID == "" {
		return nil, domainerrors.BadRequest("requester id is required")
	}
	if in.AmountSats <= 0 {
		return nil, domainerrors.BadRequest("amount must be positive")
	}

	channelID := in.ChannelID
	if channelID == "" {
		channelID = u.defaultChannel
	}

	bolt11, paymentHash, err := u.issuer.CreateInvoice(ctx, in.AmountSats, in.Memo)
	if err != nil {
		return nil, err
	}

	inv := &entities.PendingInvoice{
		PaymentHash: paymentHash,
		RequesterID: in.RequesterID,
		ChannelID:   channelID,
	}
	if err := u.repo.Create(ctx, inv); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			// Provider-assigned hashes are unique; a duplicate here means the
			// store and the provider disagree. Abort rather than overwrite.
			logger.Error(ctx, "duplicate payment hash for new invoice",
				zap.String("payment_hash", paymentHash))
			return nil, domainerrors.InternalError(domainerrors.ErrAlreadyExists)
		}
		return nil, err
	}

	metrics.InvoicesCreated.Inc()
	metrics.InvoicesPending.Inc()
	logger.Info(ctx, "created invoice",
		zap.String("payment_hash", paymentHash),
		zap.String("requester_id", in.RequesterID),
		zap.Int64("amount_sats", in.AmountSats),
	)

	return &CreateInvoiceResult{
		PaymentRequest: bolt11,
		PaymentHash:    paymentHash,
		AmountSats:     in.AmountSats,
	}, nil
}

// HandleConfirmation consumes the pending record matching the signal, if
// any, and invokes the granter. Absent records are the expected case for
// foreign payments and duplicate deliveries; they are logged and dropped.
// Once a record is consumed it is never re-inserted, even if the grant
// fails.
func (u *InvoiceUsecase) HandleConfirmation(ctx context.Context, signal entities.PaymentConfirmation) error {
	inv, err := u.repo.Take(ctx, signal.PaymentHash)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			metrics.ConfirmationsOrphaned.Inc()
			logger.Info(ctx, "confirmation without matching invoice",
				zap.String("payment_hash", signal.PaymentHash))
			return nil
		}
		return err
	}

	metrics.ConfirmationsMatched.Inc()
	metrics.InvoicesPending.Dec()
	logger.Info(ctx, "matched confirmation to pending invoice",
		zap.String("payment_hash", inv.PaymentHash),
		zap.String("requester_id", inv.RequesterID),
	)

	if _, err := u.granter.Grant(ctx, inv); err != nil {
		// Terminal failure mode: the record is consumed, an operator must
		// intervene. Retrying against the identity API is an explicit non-goal.
		logger.Error(ctx, "entitlement grant failed",
			zap.String("payment_hash", inv.PaymentHash),
			zap.String("requester_id", inv.RequesterID),
			zap.Error(err),
		)
	}
	return nil
}

// ListPending returns every pending invoice, oldest first.
func (u *InvoiceUsecase) ListPending(ctx context.Context) ([]*entities.PendingInvoice, error) {
	return u.repo.ListAll(ctx)
}

// PendingCount returns the number of pending invoices.
func (u *InvoiceUsecase) PendingCount(ctx context.Context) (int64, error) {
	return u.repo.Count(ctx)
}
