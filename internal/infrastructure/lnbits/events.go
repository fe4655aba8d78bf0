package lnbits

import (
	"encoding/json"

	"rolegate.backend/internal/domain/entities"
)

// feedMessage is the raw shape of an event-feed message. Only messages
// carrying a payment object are meaningful; everything else is discarded.
type feedMessage struct {
	Payment *feedPayment `json:"payment"`
}

// feedPayment mirrors the provider's payment-update payload. Providers are
// inconsistent about which settlement field they populate, so all three are
// kept and OR-ed together.
type feedPayment struct {
	CheckingID  string `json:"checking_id"`
	PaymentHash string `json:"payment_hash"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	Paid        *bool  `json:"paid"`
	Pending     *bool  `json:"pending"`
}

// hash returns the identifier correlating this update to a pending invoice,
// preferring checking_id as the original feed does.
func (p *feedPayment) hash() string {
	if p.CheckingID != "" {
		return p.CheckingID
	}
	return p.PaymentHash
}

// confirmed applies the tolerant OR-of-signals rule: any of an explicit
// success status, an explicit paid flag, or an explicit not-pending flag
// marks the payment as settled.
func (p *feedPayment) confirmed() bool {
	if p.Status == "success" {
		return true
	}
	if p.Paid != nil && *p.Paid {
		return true
	}
	if p.Pending != nil && !*p.Pending {
		return true
	}
	return false
}

// parseFeedMessage decodes a raw feed message into a normalized confirmation
// signal. ok is false for payloads that are not payment updates; such
// messages are not protocol errors and must only be logged.
func parseFeedMessage(raw []byte) (entities.PaymentConfirmation, bool) {
	var msg feedMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Payment == nil {
		return entities.PaymentConfirmation{}, false
	}
	p := msg.Payment
	return entities.PaymentConfirmation{
		PaymentHash: p.hash(),
		AmountMsat:  p.Amount,
		Paid:        p.confirmed(),
	}, true
}
