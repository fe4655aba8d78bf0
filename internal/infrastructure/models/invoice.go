package models

import "time"

// PendingInvoice is the durable row backing a pending-payment record. The
// payment hash is provider-assigned and unique, so it doubles as the primary
// key; there is no soft delete, removal is the terminal state.
type PendingInvoice struct {
	PaymentHash string    `gorm:"column:payment_hash;type:varchar(64);primaryKey"`
	RequesterID string    `gorm:"column:requester_id;type:varchar(32);not null;index"`
	ChannelID   string    `gorm:"column:channel_id;type:varchar(32);not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

func (PendingInvoice) TableName() string {
	return "pending_invoices"
}
