package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleInspirationWS streams panel snapshots. The first frame is an "init"
// message with the current snapshot; every later change arrives as a "panel"
// message. Unconfigured servers send init and close with "try again later" so
// clients keep polling until a reload adds the key.
func (s *Server) HandleInspirationWS(w http.ResponseWriter, r *http.Request) {
	b := s.Backend()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := uuid.NewString()
	init := WSMessage{Type: "init", Session: session, Configured: b.Configured()}
	if b.Panel != nil {
		snap := b.Panel.Snapshot()
		init.Panel = &snap
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(init); err != nil {
		return
	}

	hub := s.getHub()
	if !b.Configured() || hub == nil {
		closeMsg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "not configured")
		_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
		return
	}

	id, events := hub.Register()
	defer hub.Unregister(id)
	s.log.Debugf("websocket session %s connected (%d listeners)", session, hub.Size())

	// Drain client frames so close and ping control messages are handled.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			s.log.Debugf("websocket session %s closed", session)
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			snap := ev.Panel
			msg := WSMessage{Type: ev.Type, Session: session, Configured: true, Panel: &snap}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				s.log.Debugf("websocket session %s write failed: %v", session, err)
				return
			}
		}
	}
}
