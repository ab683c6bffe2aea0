package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; restrict in production
	},
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// WSMessage is the JSON frame exchanged over the chat WebSocket.
type WSMessage struct {
	Type    string `json:"type"`              // "chat", "clear", "ping", "answer", "error", "pong", "cleared"
	Content string `json:"content,omitempty"` // question or answer text
}

// handleWSChat upgrades the connection and runs a chat loop bound to the
// client's session. Each "chat" frame produces one "answer" frame.
func (s *Server) handleWSChat(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	sess := s.sessions.get(r.URL.Query().Get("session_id"))

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Keepalive pings until the read loop exits.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Type {
		case "chat":
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
			answer, err := s.assistant.Chat(ctx, sess, msg.Content)
			cancel()

			reply := WSMessage{Type: "answer", Content: answer}
			if err != nil {
				reply = WSMessage{Type: "error", Content: err.Error()}
			}
			if err := writeWS(conn, reply); err != nil {
				return
			}
		case "clear":
			sess.Clear()
			if err := writeWS(conn, WSMessage{Type: "cleared"}); err != nil {
				return
			}
		case "ping":
			if err := writeWS(conn, WSMessage{Type: "pong"}); err != nil {
				return
			}
		}
	}
}

func writeWS(conn *websocket.Conn, msg WSMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
