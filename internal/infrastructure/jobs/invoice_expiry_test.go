package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rolegate.backend/internal/domain/entities"
	"rolegate.backend/pkg/logger"
)

type stubInvoiceRepo struct {
	mu       sync.Mutex
	purges   int
	purgeErr error
	removed  int64
}

func (s *stubInvoiceRepo) Create(context.Context, *entities.PendingInvoice) error { return nil }
func (s *stubInvoiceRepo) Take(context.Context, string) (*entities.PendingInvoice, error) {
	return nil, errors.New("not implemented")
}
func (s *stubInvoiceRepo) ListAll(context.Context) ([]*entities.PendingInvoice, error) {
	return nil, nil
}
func (s *stubInvoiceRepo) Count(context.Context) (int64, error) { return 0, nil }

func (s *stubInvoiceRepo) PurgeOlderThan(_ context.Context, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purges++
	return s.removed, s.purgeErr
}

func (s *stubInvoiceRepo) purgeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purges
}

func TestInvoiceExpiryJob_SweepsPeriodically(t *testing.T) {
	logger.Init("development")
	repo := &stubInvoiceRepo{removed: 2}
	job := NewInvoiceExpiryJob(repo, 10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go job.Start(ctx)

	assert.Eventually(t, func() bool {
		return repo.purgeCount() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestInvoiceExpiryJob_StopEndsLoop(t *testing.T) {
	logger.Init("development")
	repo := &stubInvoiceRepo{}
	job := NewInvoiceExpiryJob(repo, time.Hour, time.Hour)

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()

	job.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop")
	}
}

func TestInvoiceExpiryJob_ContextCancelEndsLoop(t *testing.T) {
	logger.Init("development")
	repo := &stubInvoiceRepo{}
	job := NewInvoiceExpiryJob(repo, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop on context cancellation")
	}
}

func TestInvoiceExpiryJob_SurvivesStoreErrors(t *testing.T) {
	logger.Init("development")
	repo := &stubInvoiceRepo{purgeErr: errors.New("storage down")}
	job := NewInvoiceExpiryJob(repo, 10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go job.Start(ctx)

	// The loop keeps sweeping despite errors.
	assert.Eventually(t, func() bool {
		return repo.purgeCount() >= 2
	}, time.Second, 5*time.Millisecond)
}
