package lnbits

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolegate.backend/internal/domain/entities"
	"rolegate.backend/pkg/logger"
)

type recordingSink struct {
	mu      sync.Mutex
	signals []entities.PaymentConfirmation
}

func (s *recordingSink) Submit(_ context.Context, c entities.PaymentConfirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = append(s.signals, c)
	return nil
}

func (s *recordingSink) received() []entities.PaymentConfirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.PaymentConfirmation, len(s.signals))
	copy(out, s.signals)
	return out
}

// feedServer is a scripted websocket endpoint: each accepted connection sends
// its batch of messages and then closes.
type feedServer struct {
	t        *testing.T
	upgrader websocket.Upgrader
	mu       sync.Mutex
	batches  [][]string
	conns    int
}

func (f *feedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	f.mu.Lock()
	var batch []string
	if len(f.batches) > 0 {
		batch = f.batches[0]
		f.batches = f.batches[1:]
	}
	f.conns++
	f.mu.Unlock()

	for _, msg := range batch {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return
		}
	}
	// Abrupt close: the listener must treat this as a transport error
	// and reconnect after its backoff.
	time.Sleep(50 * time.Millisecond)
}

func (f *feedServer) connections() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conns
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestListener_DeliversActionableConfirmations(t *testing.T) {
	logger.Init("development")

	feed := &feedServer{t: t, batches: [][]string{{
		`{"payment":{"payment_hash":"h1","amount":1000,"status":"success"}}`,
		`{"payment":{"payment_hash":"zero","amount":0,"paid":true}}`,
		`{"unexpected":"shape"}`,
		`{"payment":{"payment_hash":"h2","amount":500,"paid":true}}`,
	}}}
	srv := httptest.NewServer(feed)
	defer srv.Close()

	sink := &recordingSink{}
	listener := NewListener(wsURL(srv), 10*time.Millisecond, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)

	require.Eventually(t, func() bool {
		return len(sink.received()) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	got := sink.received()[:2]
	assert.Equal(t, "h1", got[0].PaymentHash)
	assert.Equal(t, int64(1000), got[0].AmountMsat)
	assert.Equal(t, "h2", got[1].PaymentHash)
}

func TestListener_ReconnectsAfterDisconnect(t *testing.T) {
	logger.Init("development")

	feed := &feedServer{t: t, batches: [][]string{
		{`{"payment":{"payment_hash":"before","amount":100,"paid":true}}`},
		{`{"payment":{"payment_hash":"after","amount":200,"paid":true}}`},
	}}
	srv := httptest.NewServer(feed)
	defer srv.Close()

	sink := &recordingSink{}
	listener := NewListener(wsURL(srv), 20*time.Millisecond, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)

	// Both batches arrive despite the server dropping the connection between
	// them; no manual restart involved.
	require.Eventually(t, func() bool {
		return len(sink.received()) >= 2
	}, 3*time.Second, 10*time.Millisecond)

	got := sink.received()
	assert.Equal(t, "before", got[0].PaymentHash)
	assert.Equal(t, "after", got[1].PaymentHash)
	assert.GreaterOrEqual(t, feed.connections(), 2)
}

func TestListener_RetriesWhenFeedUnreachable(t *testing.T) {
	logger.Init("development")

	// Point at a server that is not serving yet, then bring it up.
	feed := &feedServer{t: t, batches: [][]string{
		{`{"payment":{"payment_hash":"late","amount":100,"paid":true}}`},
	}}
	srv := httptest.NewUnstartedServer(feed)

	sink := &recordingSink{}
	listener := NewListener("ws://"+srv.Listener.Addr().String(), 20*time.Millisecond, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)

	// Let a few dial failures happen before the feed comes up.
	time.Sleep(60 * time.Millisecond)
	srv.Start()
	defer srv.Close()

	require.Eventually(t, func() bool {
		return len(sink.received()) >= 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "late", sink.received()[0].PaymentHash)
}

func TestListener_StopsOnContextCancel(t *testing.T) {
	logger.Init("development")

	feed := &feedServer{t: t}
	srv := httptest.NewServer(feed)
	defer srv.Close()

	listener := NewListener(wsURL(srv), 10*time.Millisecond, &recordingSink{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		listener.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop on context cancellation")
	}
}
