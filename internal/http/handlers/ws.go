package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/healthconnect/internal/booking"
	"github.com/wolfman30/healthconnect/internal/communication"
)

// wsInbound is a frame sent by the browser.
type wsInbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// wsOutbound is a frame pushed to the browser.
type wsOutbound struct {
	Type     string                  `json:"type"`
	Message  *communication.Message  `json:"message,omitempty"`
	Messages []communication.Message `json:"messages,omitempty"`
	Access   *booking.AccessUpdate   `json:"access,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// wsWriter serializes sends from the reader and the push loop.
type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWriter) send(frame wsOutbound) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return websocket.JSON.Send(w.conn, frame)
}

// ChatSocket handles GET /bookings/{bookingID}/chat/ws. The socket receives
// the history first, then every new message, and accepts
// {"type":"message","text":...} and {"type":"ping"} frames.
func (h *BookingsHandler) ChatSocket(w http.ResponseWriter, r *http.Request) {
	room, ok := h.openRoom(w, r)
	if !ok {
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveChat(conn, r, room)
	}).ServeHTTP(w, r)
}

func (h *BookingsHandler) serveChat(conn *websocket.Conn, r *http.Request, room *communication.ChatRoom) {
	out := &wsWriter{conn: conn}
	updates, cancel := room.Subscribe()
	defer cancel()

	if err := out.send(wsOutbound{Type: "history", Messages: room.Messages()}); err != nil {
		return
	}

	go func() {
		for msg := range updates {
			msg := msg
			if err := out.send(wsOutbound{Type: "message", Message: &msg}); err != nil {
				return
			}
		}
		_ = out.send(wsOutbound{Type: "closed"})
		_ = conn.Close()
	}()

	h.logger.Info("chat socket opened", "booking_id", room.BookingID())
	for {
		var in wsInbound
		if err := websocket.JSON.Receive(conn, &in); err != nil {
			h.logger.Debug("chat socket closed", "booking_id", room.BookingID(), "error", err)
			return
		}
		switch in.Type {
		case "ping":
			_ = out.send(wsOutbound{Type: "pong"})
		case "message":
			if strings.TrimSpace(in.Text) == "" {
				continue
			}
			if _, err := room.Send(r.Context(), in.Text); err != nil {
				_ = out.send(wsOutbound{Type: "error", Error: err.Error()})
				if isClosed(err) {
					return
				}
			}
		}
	}
}

// AccessSocket handles GET /bookings/{bookingID}/access/ws. It pushes every
// access-window evaluation of a confirmed chat or video booking, starting
// with the latest known one.
func (h *BookingsHandler) AccessSocket(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	watcher := s.Watcher()
	if watcher == nil {
		jsonError(w, "booking has no chat or video access to watch", http.StatusConflict)
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		out := &wsWriter{conn: conn}
		updates, cancel := watcher.Subscribe()
		defer cancel()

		gone := make(chan struct{})
		go func() {
			defer close(gone)
			var discard json.RawMessage
			for {
				if err := websocket.JSON.Receive(conn, &discard); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-gone:
				return
			case u, ok := <-updates:
				if !ok {
					_ = out.send(wsOutbound{Type: "closed"})
					return
				}
				if err := out.send(wsOutbound{Type: "access", Access: &u}); err != nil {
					return
				}
			}
		}
	}).ServeHTTP(w, r)
}
