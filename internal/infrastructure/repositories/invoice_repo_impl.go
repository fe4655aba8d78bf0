package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"rolegate.backend/internal/domain/entities"
	domainerrors "rolegate.backend/internal/domain/errors"
	"rolegate.backend/internal/infrastructure/models"
)

// PendingInvoiceRepositoryImpl implements PendingInvoiceRepository on gorm.
//
// The store relies on gorm error translation (TranslateError) to detect
// duplicate keys uniformly across the sqlite and postgres drivers.
type PendingInvoiceRepositoryImpl struct {
	db *gorm.DB
}

func NewPendingInvoiceRepository(db *gorm.DB) *PendingInvoiceRepositoryImpl {
	return &PendingInvoiceRepositoryImpl{db: db}
}

func (r *PendingInvoiceRepositoryImpl) Create(ctx context.Context, inv *entities.PendingInvoice) error {
	m := &models.PendingInvoice{
		PaymentHash: inv.PaymentHash,
		RequesterID: inv.RequesterID,
		ChannelID:   inv.ChannelID,
		CreatedAt:   time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	inv.CreatedAt = m.CreatedAt
	return nil
}

// Take looks up and deletes the record in a single transaction. The DELETE
// row count arbitrates concurrent callers: whichever transaction's delete
// removes the row wins; every other caller observes zero rows affected and
// gets ErrNotFound.
func (r *PendingInvoiceRepositoryImpl) Take(ctx context.Context, paymentHash string) (*entities.PendingInvoice, error) {
	var m models.PendingInvoice
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("payment_hash = ?", paymentHash).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotFound
			}
			return err
		}

		res := tx.Where("payment_hash = ?", paymentHash).Delete(&models.PendingInvoice{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race against a concurrent Take.
			return domainerrors.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toEntity(&m), nil
}

func (r *PendingInvoiceRepositoryImpl) ListAll(ctx context.Context) ([]*entities.PendingInvoice, error) {
	var ms []models.PendingInvoice
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}

	invoices := make([]*entities.PendingInvoice, 0, len(ms))
	for i := range ms {
		invoices = append(invoices, toEntity(&ms[i]))
	}
	return invoices, nil
}

func (r *PendingInvoiceRepositoryImpl) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.PendingInvoice{})
	return res.RowsAffected, res.Error
}

func (r *PendingInvoiceRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.PendingInvoice{}).Count(&total).Error
	return total, err
}

func toEntity(m *models.PendingInvoice) *entities.PendingInvoice {
	return &entities.PendingInvoice{
		PaymentHash: m.PaymentHash,
		RequesterID: m.RequesterID,
		ChannelID:   m.ChannelID,
		CreatedAt:   m.CreatedAt,
	}
}
