package mux

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"setteemezzo-server/pkg/lobby"
	"setteemezzo-server/pkg/model"
)

const writeWait = time.Second * 10
const pongWait = time.Second * 60
const pingPeriod = pongWait * 9 / 10

type wsAction struct {
	Action string `json:"action"`
}

func (m *Mux) getGameCodeWS() http.HandlerFunc {
	upgrader := &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		player := r.Context().Value(ctxPlayerKey).(*model.Player)
		code := mux.Vars(r)["code"]

		// reject unknown codes before hijacking the connection
		if _, err := m.lobby.View(code, player.ID); err != nil {
			writeGameError(w, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Error("could not upgrade connection")
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		watcher := lobby.NewWatcher(player.ID)
		if err := m.lobby.Watch(code, watcher); err != nil {
			_ = conn.Close()
			return
		}

		waitForCloseFrame := make(chan bool)
		defer func() {
			m.lobby.Unwatch(code, watcher)
			_ = conn.Close()
			close(waitForCloseFrame)
		}()

		go m.webSocketWriteLoop(conn, watcher, waitForCloseFrame)
		m.webSocketReadLoop(r, conn, watcher, code, player.ID)
	}
}

func (m *Mux) webSocketWriteLoop(conn *websocket.Conn, watcher *lobby.Watcher, waitForCloseFrame chan bool) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case reason := <-watcher.Close:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))

			// wait for the close frame
			select {
			case <-waitForCloseFrame:
			case <-time.After(time.Second):
			}
			return
		case msg, ok := <-watcher.Messages():
			if !ok {
				return
			}

			msgBytes, _ := json.Marshal(msg)
			logrus.WithField("message", string(msgBytes)).WithField("playerId", watcher.PlayerID).Trace("sending message to client")

			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				logrus.WithError(err).WithField("playerId", watcher.PlayerID).Error("could not write message")
				return
			}
		}
	}
}

func (m *Mux) webSocketReadLoop(r *http.Request, conn *websocket.Conn, watcher *lobby.Watcher, code string, playerID int64) {
	for {
		var msg wsAction
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsUnexpectedCloseError(err) {
				logrus.WithError(err).Error("could not read JSON")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure) {
				logrus.WithError(err).Error("could not read onMessage")
			}

			return
		}

		var err error
		switch msg.Action {
		case "hit":
			_, err = m.lobby.Hit(r.Context(), code, playerID)
		case "stand":
			_, err = m.lobby.Stand(r.Context(), code, playerID)
		default:
			err = lobby.ErrUnknownAction
		}

		if err != nil {
			watcher.Send(errorResponse{
				Message:    err.Error(),
				StatusCode: http.StatusBadRequest,
			})
		}
	}
}
