package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rolegate.backend/internal/domain/entities"
	domainerrors "rolegate.backend/internal/domain/errors"
	"rolegate.backend/pkg/logger"
)

func newGranter(platform *mockPlatform) *GranterUsecase {
	logger.Init("development")
	return NewGranterUsecase(platform, "role-1", 1000, 100*time.Millisecond)
}

func pendingInvoice() *entities.PendingInvoice {
	return &entities.PendingInvoice{PaymentHash: "h1", RequesterID: "u1", ChannelID: "c1"}
}

func TestGrant_AssignsRoleAndAnnounces(t *testing.T) {
	platform := new(mockPlatform)
	g := newGranter(platform)

	platform.On("Member", mock.Anything, "u1").
		Return(&entities.Member{ID: "u1", DisplayName: "Alice", RoleIDs: []string{"other"}}, nil)
	platform.On("Role", mock.Anything, "role-1").
		Return(&entities.Role{ID: "role-1", Name: "Supporter"}, nil)
	platform.On("AssignRole", mock.Anything, "u1", "role-1", "Paid Lightning invoice").Return(nil)
	platform.On("PostMessage", mock.Anything, "c1", mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "1000 sats") && strings.Contains(msg, "Supporter")
	})).Return(nil)

	outcome, err := g.Grant(context.Background(), pendingInvoice())
	require.NoError(t, err)
	assert.Equal(t, GrantOutcomeGranted, outcome)
	platform.AssertExpectations(t)
}

func TestGrant_AlreadyHeldSkipsAssignment(t *testing.T) {
	platform := new(mockPlatform)
	g := newGranter(platform)

	platform.On("Member", mock.Anything, "u1").
		Return(&entities.Member{ID: "u1", RoleIDs: []string{"role-1"}}, nil)
	platform.On("Role", mock.Anything, "role-1").
		Return(&entities.Role{ID: "role-1", Name: "Supporter"}, nil)
	platform.On("PostMessage", mock.Anything, "c1", mock.Anything).Return(nil)

	outcome, err := g.Grant(context.Background(), pendingInvoice())
	require.NoError(t, err)
	assert.Equal(t, GrantOutcomeAlreadyHeld, outcome)
	platform.AssertNotCalled(t, "AssignRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGrant_MemberAppearsWithinWait(t *testing.T) {
	platform := new(mockPlatform)
	g := newGranter(platform)

	platform.On("Member", mock.Anything, "u1").
		Return(nil, domainerrors.ErrNotFound).Twice()
	platform.On("Member", mock.Anything, "u1").
		Return(&entities.Member{ID: "u1"}, nil)
	platform.On("Role", mock.Anything, "role-1").
		Return(&entities.Role{ID: "role-1", Name: "Supporter"}, nil)
	platform.On("AssignRole", mock.Anything, "u1", "role-1", mock.Anything).Return(nil)
	platform.On("PostMessage", mock.Anything, "c1", mock.Anything).Return(nil)

	outcome, err := g.Grant(context.Background(), pendingInvoice())
	require.NoError(t, err)
	assert.Equal(t, GrantOutcomeGranted, outcome)
}

func TestGrant_MemberNeverResolves(t *testing.T) {
	platform := new(mockPlatform)
	g := newGranter(platform)

	platform.On("Member", mock.Anything, "ghost").Return(nil, domainerrors.ErrNotFound)

	inv := &entities.PendingInvoice{PaymentHash: "h1", RequesterID: "ghost", ChannelID: "c1"}
	_, err := g.Grant(context.Background(), inv)
	assert.ErrorIs(t, err, domainerrors.ErrIdentityNotFound)
	platform.AssertNotCalled(t, "AssignRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGrant_MemberLookupHardFailure(t *testing.T) {
	platform := new(mockPlatform)
	g := newGranter(platform)

	boom := errors.New("platform down")
	platform.On("Member", mock.Anything, "u1").Return(nil, boom)

	_, err := g.Grant(context.Background(), pendingInvoice())
	assert.ErrorIs(t, err, boom)
}

func TestGrant_AssignFailure(t *testing.T) {
	platform := new(mockPlatform)
	g := newGranter(platform)

	platform.On("Member", mock.Anything, "u1").
		Return(&entities.Member{ID: "u1"}, nil)
	platform.On("Role", mock.Anything, "role-1").
		Return(&entities.Role{ID: "role-1", Name: "Supporter"}, nil)
	platform.On("AssignRole", mock.Anything, "u1", "role-1", mock.Anything).
		Return(domainerrors.ErrForbidden)

	_, err := g.Grant(context.Background(), pendingInvoice())
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
	platform.AssertNotCalled(t, "PostMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestGrant_AnnouncementFailureIsNotFatal(t *testing.T) {
	platform := new(mockPlatform)
	g := newGranter(platform)

	platform.On("Member", mock.Anything, "u1").
		Return(&entities.Member{ID: "u1"}, nil)
	platform.On("Role", mock.Anything, "role-1").
		Return(&entities.Role{ID: "role-1", Name: "Supporter"}, nil)
	platform.On("AssignRole", mock.Anything, "u1", "role-1", mock.Anything).Return(nil)
	platform.On("PostMessage", mock.Anything, "c1", mock.Anything).
		Return(errors.New("channel gone"))

	outcome, err := g.Grant(context.Background(), pendingInvoice())
	require.NoError(t, err)
	assert.Equal(t, GrantOutcomeGranted, outcome)
}

func TestGrant_CancelledWhileWaitingForMember(t *testing.T) {
	platform := new(mockPlatform)
	logger.Init("development")
	g := NewGranterUsecase(platform, "role-1", 1000, 10*time.Second)

	platform.On("Member", mock.Anything, "u1").Return(nil, domainerrors.ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := g.Grant(ctx, pendingInvoice())
	assert.ErrorIs(t, err, context.Canceled)
}
