package inspect

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/statekit/pkg/store"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Message is one entry of the /ws stream.
type Message struct {
	Store   string `json:"store,omitempty"`
	Action  string `json:"action"`
	Pending bool   `json:"pending,omitempty"`
	Error   string `json:"error,omitempty"`
	State   any    `json:"state,omitempty"`
	At      int64  `json:"at"`
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Listeners run under the acting goroutine, so they only enqueue.
	changes := make(chan store.Change, s.buffer)
	unsubscribe := s.registry.OnChange(func(c store.Change) {
		select {
		case changes <- c:
		default:
			s.logger.Warn("inspector client too slow, dropping change", "store", c.Store, "action", c.Action)
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case c := <-changes:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(s.message(c)); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func (s *Server) message(c store.Change) Message {
	msg := Message{
		Store:   c.Store,
		Action:  c.Action,
		Pending: c.Pending,
		At:      c.At.UnixMilli(),
	}
	if c.Err != nil {
		msg.Error = c.Err.Error()
	}
	if c.Store == "" {
		return msg
	}

	state, err := s.registry.Snapshot(c.Store)
	if err != nil {
		msg.Error = err.Error()
		return msg
	}
	msg.State = state
	return msg
}
