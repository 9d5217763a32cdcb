package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/app/tutor"
	"github.com/abdelazeemmohammad186-tech/Smart-tutor/internal/observability"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// handleWebSocket streams session snapshots and audio to the browser and
// receives microphone chunks and permission answers.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	live, ok := s.session(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client.
		return
	}
	defer conn.Close()

	log := observability.LoggerFromContext(observability.WithSessionID(r.Context(), string(live.ID())))
	log.Info("browser connected")

	peer := live.peer
	peer.attach(conn)
	defer peer.detach(conn)

	snapshots, unsubscribe := live.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	defer close(done)
	go pushSnapshots(conn, peer, snapshots, done)

	if err := peer.send(event{Type: eventSnapshot, Snapshot: live.Snapshot()}); err != nil {
		log.Warn("sending initial snapshot failed", "error", err)
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("browser connection lost", "error", err)
			}
			log.Info("browser disconnected")
			return
		}

		var msg clientMessage
		if msgType == websocket.TextMessage {
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Warn("ignoring malformed message", "error", err)
				continue
			}
		}
		peer.handle(msgType, data, msg)
	}
}

// pushSnapshots forwards state changes and keeps the connection alive.
func pushSnapshots(conn *websocket.Conn, peer *Peer, snapshots <-chan tutor.Snapshot, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case snap, ok := <-snapshots:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
					time.Now().Add(time.Second))
				return
			}
			if err := peer.send(event{Type: eventSnapshot, Snapshot: snap}); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}
