package entities

import "time"

// PendingInvoice correlates an issued Lightning payment request with the
// entitlement it unlocks once paid. Records live from request issuance until
// either a matching confirmation consumes them or the expiry sweep reclaims
// them.
type PendingInvoice struct {
	PaymentHash string    `json:"paymentHash"`
	RequesterID string    `json:"requesterId"`
	ChannelID   string    `json:"channelId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Age returns how long the invoice has been pending.
func (i *PendingInvoice) Age(now time.Time) time.Duration {
	return now.Sub(i.CreatedAt)
}

// PaymentConfirmation is the normalized signal derived from a raw provider
// event: which payment it refers to, how much was paid, and whether the
// provider considers it settled.
type PaymentConfirmation struct {
	PaymentHash string `json:"paymentHash"`
	AmountMsat  int64  `json:"amount"`
	Paid        bool   `json:"paid"`
}

// Actionable reports whether the confirmation can trigger a grant: it must
// reference a payment, be confirmed, and carry a strictly positive amount.
func (c PaymentConfirmation) Actionable() bool {
	return c.PaymentHash != "" && c.Paid && c.AmountMsat > 0
}
