// Package handoff carries customization presets from the admin side to a
// running viewer as typed websocket messages.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"album-cube/customization"
)

const (
	TypeCustomization = "customization"
	TypeAck           = "ack"
	TypeError         = "error"
)

// Message is the envelope sent by the admin side.
type Message struct {
	Type          string             `json:"type"`
	Customization customization.Wire `json:"customization"`
}

// Reply answers every message.
type Reply struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}

// Handler receives each valid customization. It runs on the connection's
// goroutine; UI-thread consumers must post the work.
type Handler func(customization.Customization)

type Server struct {
	upgrader websocket.Upgrader
	handler  Handler
	logger   *slog.Logger
}

func NewServer(fn Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{handler: fn, logger: logger}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("handoff upgrade", "err", err)
		return
	}
	defer conn.Close()
	s.logger.Info("handoff client connected", "remote", r.RemoteAddr)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("handoff read", "err", err)
			}
			return
		}
		reply := s.handle(msg)
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Debug("handoff write", "err", err)
			return
		}
	}
}

func (s *Server) handle(msg Message) Reply {
	if msg.Type != TypeCustomization {
		return Reply{Type: TypeError, Error: fmt.Sprintf("unknown message type %q", msg.Type)}
	}
	c, err := customization.Decode(msg.Customization)
	if err != nil {
		s.logger.Warn("handoff rejected customization", "err", err)
		return Reply{Type: TypeError, Error: err.Error()}
	}
	s.handler(c)
	return Reply{Type: TypeAck}
}

// Send delivers c to the viewer listening at url (ws://host/path) and waits
// for its reply.
func Send(ctx context.Context, url string, c customization.Customization) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial viewer: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}
	if err := conn.WriteJSON(Message{Type: TypeCustomization, Customization: customization.Encode(c)}); err != nil {
		return fmt.Errorf("send customization: %w", err)
	}
	var reply Reply
	if err := conn.ReadJSON(&reply); err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if reply.Type != TypeAck {
		return errors.New("viewer rejected customization: " + reply.Error)
	}
	return nil
}
