package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/jonathan/medcontent/internal/notify"
	"github.com/jonathan/medcontent/internal/server/middleware"
)

const wsWriteTimeout = 10 * time.Second

// readyMessage is the first message on every progress stream. Events published after
// it is received are delivered.
type readyMessage struct {
	Type      string `json:"type"`
	ChannelID string `json:"channel_id"`
}

// subscribe registers a fresh queue for the request's owner.
func (s *Server) subscribe(r *http.Request) (string, string, *notify.Queue) {
	ownerID, _ := middleware.GetOwnerID(r)
	owner := ownerID.String()
	q := notify.NewQueue(s.queueSize)
	return owner, s.registry.Subscribe(owner, q), q
}

// handleEvents streams the owner's progress events as Server-Sent Events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sse, err := NewSSEWriter(w)
	if err != nil {
		s.jsonResponse(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	owner, channelID, q := s.subscribe(r)
	defer s.registry.Unsubscribe(owner, channelID)

	if err := sse.WriteEvent("ready", readyMessage{Type: "ready", ChannelID: channelID}); err != nil {
		return
	}

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if err := sse.WriteComment("keep-alive"); err != nil {
				return
			}
		case evt, ok := <-q.Events():
			if !ok {
				// Dropped by the registry after falling behind.
				return
			}
			if err := sse.WriteEvent(string(evt.Type), evt); err != nil {
				return
			}
		}
	}
}

// handleWebSocket streams the owner's progress events as JSON websocket messages.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.origins})
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.CloseNow() //nolint:errcheck

	// Clients only listen; CloseRead handles their control frames and ends ctx on close.
	ctx := conn.CloseRead(r.Context())

	owner, channelID, q := s.subscribe(r)
	defer s.registry.Unsubscribe(owner, channelID)

	if err := writeJSON(ctx, conn, readyMessage{Type: "ready", ChannelID: channelID}); err != nil {
		return
	}

	heartbeat := time.NewTicker(s.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			pingCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		case evt, ok := <-q.Events():
			if !ok {
				conn.Close(websocket.StatusPolicyViolation, "subscriber fell behind") //nolint:errcheck
				return
			}
			if err := writeJSON(ctx, conn, evt); err != nil {
				return
			}
		}
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}
