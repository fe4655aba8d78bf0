package lnbits

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"rolegate.backend/internal/domain/entities"
	"rolegate.backend/pkg/logger"
	"rolegate.backend/pkg/metrics"
)

// ConfirmationSink receives actionable confirmation signals. Submit must not
// perform the grant inline; it hands the signal to the worker pool so a slow
// downstream call cannot stall the read loop.
type ConfirmationSink interface {
	Submit(ctx context.Context, c entities.PaymentConfirmation) error
}

// Listener maintains the single logical subscription to the payment event
// feed. It never terminates voluntarily: any transport error puts it back
// into the connect loop after a fixed backoff. The feed is the only channel
// by which payments become known, so the retry is infinite by design.
type Listener struct {
	url     string
	backoff time.Duration
	sink    ConfirmationSink
	dialer  *websocket.Dialer
}

func NewListener(url string, backoff time.Duration, sink ConfirmationSink) *Listener {
	return &Listener{
		url:     url,
		backoff: backoff,
		sink:    sink,
		dialer:  websocket.DefaultDialer,
	}
}

// Run connects, consumes events, and reconnects until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	logger.Info(ctx, "connecting to payment event feed")

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := l.dialer.DialContext(ctx, l.url, nil)
		if err != nil {
			logger.Error(ctx, "payment feed connection failed",
				zap.Error(err), zap.Duration("retry_in", l.backoff))
			metrics.FeedReconnects.Inc()
			if !l.wait(ctx) {
				return
			}
			continue
		}

		logger.Info(ctx, "payment feed connected")
		l.readLoop(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		logger.Warn(ctx, "payment feed disconnected, reconnecting",
			zap.Duration("retry_in", l.backoff))
		metrics.FeedReconnects.Inc()
		if !l.wait(ctx) {
			return
		}
	}
}

// wait sleeps for the backoff interval, returning false if ctx was cancelled.
func (l *Listener) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(l.backoff):
		return true
	}
}

// readLoop consumes messages until the connection breaks or ctx is cancelled.
func (l *Listener) readLoop(ctx context.Context, conn *websocket.Conn) {
	// Unblock ReadMessage on shutdown.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		l.handleMessage(ctx, raw)
	}
}

func (l *Listener) handleMessage(ctx context.Context, raw []byte) {
	signal, ok := parseFeedMessage(raw)
	if !ok {
		logger.Warn(ctx, "unrecognized event feed message", zap.ByteString("payload", raw))
		return
	}

	if !signal.Actionable() {
		logger.Debug(ctx, "payment update ignored",
			zap.String("payment_hash", signal.PaymentHash),
			zap.Int64("amount", signal.AmountMsat),
			zap.Bool("paid", signal.Paid),
		)
		return
	}

	logger.Info(ctx, "payment confirmed",
		zap.String("payment_hash", signal.PaymentHash),
		zap.Int64("amount", signal.AmountMsat),
	)
	metrics.ConfirmationsReceived.Inc()

	if err := l.sink.Submit(ctx, signal); err != nil {
		logger.Error(ctx, "failed to submit confirmation for processing", zap.Error(err))
	}
}
