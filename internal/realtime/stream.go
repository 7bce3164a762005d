package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"energyshare/internal/models"
	"energyshare/internal/services"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// errorFrame is sent instead of an update when tracking could not finish.
type errorFrame struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Stream relays one payment's updates over a websocket until the payment
// settles or the client goes away. Closing the socket stops the polling.
type Stream struct {
	hub      *PaymentHub
	upgrader websocket.Upgrader
	ping     time.Duration
	log      *zap.Logger
}

// NewStream accepts handshakes from the server's own origin and from the
// listed browser origins, the same list CORS allows.
func NewStream(hub *PaymentHub, allowedOrigins []string, log *zap.Logger) *Stream {
	s := &Stream{hub: hub, ping: pingInterval, log: log}
	s.upgrader.CheckOrigin = originChecker(allowedOrigins)
	return s
}

func originChecker(allowed []string) func(r *http.Request) bool {
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		origins[strings.ToLower(strings.TrimSuffix(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := origins[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// Serve upgrades the request. ctx carries the caller's session token.
func (s *Stream) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, kind models.PaymentKind, id string) {
	wc, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already answered the request
		s.log.Info("[payments][stream] upgrade failed", zap.String("origin", r.Header.Get("Origin")), zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		for {
			if _, _, err := wc.NextReader(); err != nil {
				return
			}
		}
	}()

	s.relay(ctx, wc, kind, id)
	wc.Close()
	<-readDone
}

func (s *Stream) relay(ctx context.Context, wc *websocket.Conn, kind models.PaymentKind, id string) {
	sub, err := s.hub.Subscribe(ctx, kind, id)
	if err != nil {
		s.writeJSON(wc, errorFrame{Error: err.Error(), Code: "INVALID_PAYMENT"})
		s.close(wc, websocket.CloseUnsupportedData)
		return
	}
	defer s.hub.Unsubscribe(sub)

	t := time.NewTicker(s.ping)
	defer t.Stop()

	var last string
	for {
		select {
		case u, ok := <-sub.Updates():
			if !ok {
				s.finish(wc, sub, last)
				return
			}
			last = u.State
			if err := s.writeJSON(wc, u); err != nil {
				return
			}
		case <-t.C:
			wc.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := wc.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// finish writes the outcome if the subscriber missed it and closes the
// socket normally.
func (s *Stream) finish(wc *websocket.Conn, sub *Subscriber, last string) {
	final, err := sub.Result()
	switch {
	case err == nil && final != nil && final.State != last:
		s.writeJSON(wc, final)
	case errors.Is(err, services.ErrAlreadyTracking):
		s.writeJSON(wc, errorFrame{Error: "Payment is already being tracked", Code: "ALREADY_TRACKING"})
	case err != nil && !errors.Is(err, context.Canceled):
		s.writeJSON(wc, errorFrame{Error: err.Error()})
	}
	s.close(wc, websocket.CloseNormalClosure)
}

func (s *Stream) writeJSON(wc *websocket.Conn, v any) error {
	wc.SetWriteDeadline(time.Now().Add(writeTimeout))
	return wc.WriteJSON(v)
}

func (s *Stream) close(wc *websocket.Conn, code int) {
	msg := websocket.FormatCloseMessage(code, "")
	_ = wc.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
}
