package usecases

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"rolegate.backend/internal/domain/entities"
	"rolegate.backend/pkg/logger"
)

// ErrDispatcherClosed is returned by Submit once Close has begun; the signal
// was not accepted and will not be processed.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// ConfirmationHandler consumes a single payment confirmation signal.
type ConfirmationHandler interface {
	HandleConfirmation(ctx context.Context, signal entities.PaymentConfirmation) error
}

// Dispatcher decouples the feed read loop from confirmation processing with a
// bounded queue and a fixed worker pool, so a slow identity API cannot stall
// the websocket reader.
type Dispatcher struct {
	handler ConfirmationHandler
	queue   chan entities.PaymentConfirmation
	wg      sync.WaitGroup
	workers int

	// mu orders Submit sends against Close: Close may only close the queue
	// once no Submit holds the read side.
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(handler ConfirmationHandler, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		handler: handler,
		queue:   make(chan entities.PaymentConfirmation, queueSize),
		workers: workers,
	}
}

// Start launches the worker pool. Workers run until the queue is closed; the
// context bounds each individual confirmation, not the pool's lifetime, so
// Close can drain signals already accepted.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for signal := range d.queue {
				if err := d.handler.HandleConfirmation(ctx, signal); err != nil {
					logger.Error(ctx, "failed to process confirmation",
						zap.String("payment_hash", signal.PaymentHash),
						zap.Error(err),
					)
				}
			}
		}()
	}
}

// Submit enqueues a confirmation for processing. When the queue is full it
// blocks until a worker frees a slot or the context is cancelled. After Close
// it returns ErrDispatcherClosed instead of accepting the signal.
func (d *Dispatcher) Submit(ctx context.Context, signal entities.PaymentConfirmation) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- signal:
		return nil
	default:
	}

	logger.Warn(ctx, "confirmation queue full, waiting",
		zap.String("payment_hash", signal.PaymentHash))
	select {
	case d.queue <- signal:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting signals and waits for queued and in-flight ones to
// finish. A Submit blocked on a full queue completes (a worker frees its
// slot) before the queue is closed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
