package usecases

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"rolegate.backend/internal/domain/entities"
)

type mockInvoiceRepo struct {
	mock.Mock
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv *entities.PendingInvoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *mockInvoiceRepo) Take(ctx context.Context, paymentHash string) (*entities.PendingInvoice, error) {
	args := m.Called(ctx, paymentHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PendingInvoice), args.Error(1)
}

func (m *mockInvoiceRepo) ListAll(ctx context.Context) ([]*entities.PendingInvoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PendingInvoice), args.Error(1)
}

func (m *mockInvoiceRepo) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	args := m.Called(ctx, age)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockInvoiceRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockIssuer struct {
	mock.Mock
}

func (m *mockIssuer) CreateInvoice(ctx context.Context, amountSats int64, memo string) (string, string, error) {
	args := m.Called(ctx, amountSats, memo)
	return args.String(0), args.String(1), args.Error(2)
}

type mockGranter struct {
	mock.Mock
}

func (m *mockGranter) Grant(ctx context.Context, inv *entities.PendingInvoice) (GrantOutcome, error) {
	args := m.Called(ctx, inv)
	return args.Get(0).(GrantOutcome), args.Error(1)
}

type mockPlatform struct {
	mock.Mock
}

func (m *mockPlatform) Member(ctx context.Context, userID string) (*entities.Member, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Member), args.Error(1)
}

func (m *mockPlatform) Role(ctx context.Context, roleID string) (*entities.Role, error) {
	args := m.Called(ctx, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Role), args.Error(1)
}

func (m *mockPlatform) AssignRole(ctx context.Context, userID, roleID, reason string) error {
	args := m.Called(ctx, userID, roleID, reason)
	return args.Error(0)
}

func (m *mockPlatform) PostMessage(ctx context.Context, channelID, content string) error {
	args := m.Called(ctx, channelID, content)
	return args.Error(0)
}
