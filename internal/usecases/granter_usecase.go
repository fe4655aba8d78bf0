package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rolegate.backend/internal/domain/entities"
	domainerrors "rolegate.backend/internal/domain/errors"
	"rolegate.backend/pkg/logger"
	"rolegate.backend/pkg/metrics"
)

// PlatformGateway is the set of platform capabilities the granter depends
// on. The wire format behind it is an adapter concern.
type PlatformGateway interface {
	Member(ctx context.Context, userID string) (*entities.Member, error)
	Role(ctx context.Context, roleID string) (*entities.Role, error)
	AssignRole(ctx context.Context, userID, roleID, reason string) error
	PostMessage(ctx context.Context, channelID, content string) error
}

// GrantOutcome describes how a grant attempt concluded.
type GrantOutcome string

const (
	GrantOutcomeGranted     GrantOutcome = "granted"
	GrantOutcomeAlreadyHeld GrantOutcome = "already_held"
)

const grantReason = "Paid Lightning invoice"

// GranterUsecase performs the idempotent entitlement grant and posts the
// user-facing acknowledgment.
type GranterUsecase struct {
	platform       PlatformGateway
	roleID         string
	priceSats      int64
	resolveTimeout time.Duration
}

func NewGranterUsecase(platform PlatformGateway, roleID string, priceSats int64, resolveTimeout time.Duration) *GranterUsecase {
	return &GranterUsecase{
		platform:       platform,
		roleID:         roleID,
		priceSats:      priceSats,
		resolveTimeout: resolveTimeout,
	}
}

// Grant resolves the requester, assigns the role unless already held, and
// posts an acknowledgment in the invoice channel. Acknowledgment delivery is
// best-effort; only identity resolution and role assignment failures are
// returned.
func (u *GranterUsecase) Grant(ctx context.Context, inv *entities.PendingInvoice) (GrantOutcome, error) {
	member, err := u.resolveMember(ctx, inv.RequesterID)
	if err != nil {
		return "", err
	}

	role, err := u.platform.Role(ctx, u.roleID)
	if err != nil {
		metrics.GrantsFailed.Inc()
		return "", fmt.Errorf("role %s not resolvable: %w", u.roleID, err)
	}

	if member.HasRole(u.roleID) {
		logger.Info(ctx, "requester already holds role",
			zap.String("requester_id", member.ID),
			zap.String("role", role.Name),
		)
		u.acknowledge(ctx, inv.ChannelID, fmt.Sprintf(
			"✅ <@%s>, payment confirmed! You already have the '%s' role.", member.ID, role.Name))
		metrics.GrantsSucceeded.Inc()
		return GrantOutcomeAlreadyHeld, nil
	}

	if err := u.platform.AssignRole(ctx, member.ID, u.roleID, grantReason); err != nil {
		metrics.GrantsFailed.Inc()
		return "", fmt.Errorf("assigning role: %w", err)
	}

	logger.Info(ctx, "role granted",
		zap.String("requester_id", member.ID),
		zap.String("role", role.Name),
	)
	u.acknowledge(ctx, inv.ChannelID, fmt.Sprintf(
		"🎉 <@%s> has paid %d sats and been granted the '%s' role!", member.ID, u.priceSats, role.Name))
	metrics.GrantsSucceeded.Inc()
	return GrantOutcomeGranted, nil
}

// resolveMember looks the requester up, retrying within the bounded wait so
// a just-joined identity has time to become resolvable.
func (u *GranterUsecase) resolveMember(ctx context.Context, userID string) (*entities.Member, error) {
	deadline := time.Now().Add(u.resolveTimeout)
	poll := u.resolveTimeout / 4
	if poll > 2*time.Second {
		poll = 2 * time.Second
	}
	if poll < 10*time.Millisecond {
		poll = 10 * time.Millisecond
	}

	for {
		member, err := u.platform.Member(ctx, userID)
		if err == nil {
			return member, nil
		}
		if !errors.Is(err, domainerrors.ErrNotFound) {
			metrics.GrantsFailed.Inc()
			return nil, fmt.Errorf("resolving member %s: %w", userID, err)
		}
		if time.Now().After(deadline) {
			metrics.GrantsFailed.Inc()
			return nil, domainerrors.ErrIdentityNotFound
		}

		select {
		case <-ctx.Done():
			metrics.GrantsFailed.Inc()
			return nil, ctx.Err()
		case <-time.After(poll):
		}
	}
}

func (u *GranterUsecase) acknowledge(ctx context.Context, channelID, content string) {
	if err := u.platform.PostMessage(ctx, channelID, content); err != nil {
		logger.Error(ctx, "failed to post acknowledgment",
			zap.String("channel_id", channelID), zap.Error(err))
	}
}
