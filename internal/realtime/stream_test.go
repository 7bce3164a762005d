package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"energyshare/internal/models"
)

const frontend = "http://localhost:3001"

func newStreamServer(tracker *fakeTracker, kind models.PaymentKind) (*httptest.Server, *PaymentHub) {
	hub := NewPaymentHub(tracker, zap.NewNop())
	stream := NewStream(hub, []string{frontend}, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stream.Serve(r.Context(), w, r, kind, "tx-1")
	}))
	return srv, hub
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func serveStream(t *testing.T, tracker *fakeTracker, kind models.PaymentKind) (*websocket.Conn, func()) {
	t.Helper()
	srv, hub := newStreamServer(tracker, kind)

	wc, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	return wc, func() {
		wc.Close()
		srv.Close()
		hub.Close()
	}
}

func TestStream_RelaysUntilTerminal(t *testing.T) {
	tracker := &fakeTracker{fn: func(ctx context.Context, kind models.PaymentKind, id string, onUpdate func(models.PaymentUpdate)) (*models.PaymentUpdate, error) {
		onUpdate(update("PENDING", 1))
		final := update("SUCCESS", 2)
		final.Token = "1234-5678"
		onUpdate(final)
		return &final, nil
	}}
	wc, done := serveStream(t, tracker, models.PaymentPurchase)
	defer done()

	var states []string
	for {
		var u models.PaymentUpdate
		wc.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := wc.ReadJSON(&u); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error %v", err)
			break
		}
		states = append(states, u.State)
		if u.State == "SUCCESS" {
			assert.Equal(t, "1234-5678", u.Token)
		}
	}
	assert.Equal(t, []string{"PENDING", "SUCCESS"}, states)
}

func TestStream_ClientCloseCancelsPolling(t *testing.T) {
	started := make(chan struct{})
	stopped := make(chan struct{})
	tracker := &fakeTracker{fn: func(ctx context.Context, kind models.PaymentKind, id string, onUpdate func(models.PaymentUpdate)) (*models.PaymentUpdate, error) {
		close(started)
		<-ctx.Done()
		close(stopped)
		return nil, ctx.Err()
	}}
	wc, done := serveStream(t, tracker, models.PaymentRepayment)
	defer done()

	<-started
	require.NoError(t, wc.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "")))
	wc.Close()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("polling kept running after the socket closed")
	}
}

func TestStream_InvalidKind(t *testing.T) {
	wc, done := serveStream(t, &fakeTracker{}, "refund")
	defer done()

	var frame errorFrame
	wc.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, wc.ReadJSON(&frame))
	assert.Equal(t, "INVALID_PAYMENT", frame.Code)
}

func TestStream_Origins(t *testing.T) {
	tracker := &fakeTracker{fn: func(ctx context.Context, kind models.PaymentKind, id string, onUpdate func(models.PaymentUpdate)) (*models.PaymentUpdate, error) {
		final := update("SUCCESS", 1)
		onUpdate(final)
		return &final, nil
	}}
	srv, hub := newStreamServer(tracker, models.PaymentPurchase)
	defer hub.Close()
	defer srv.Close()

	for _, origin := range []string{frontend, srv.URL} {
		wc, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), http.Header{"Origin": {origin}})
		require.NoError(t, err, origin)
		assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
		var u models.PaymentUpdate
		wc.SetReadDeadline(time.Now().Add(2 * time.Second))
		require.NoError(t, wc.ReadJSON(&u))
		assert.Equal(t, "SUCCESS", u.State)
		wc.Close()
	}

	calls := tracker.calls.Load()
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), http.Header{"Origin": {"https://evil.example"}})
	assert.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, calls, tracker.calls.Load(), "a refused handshake tracks nothing")
}
