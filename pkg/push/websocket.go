// Copyright the ajax-relay-gateway authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package push streams relay status changes to long-lived HTTP clients:
// WebSocket and Server-Sent Events.
package push

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "go.uber.org/zap"

	"github.com/skyggedans/ajax-relay-gateway/pkg/relay"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 2 * time.Second
	wsPongWait   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades the request and streams every status change
// (plus a 2s ping / 10s pong-timeout heartbeat mirroring the relay's own
// liveness window) until the client disconnects.
func WebSocketHandler(gw *relay.Gateway, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Debug("websocket upgrade failed", log.Error(err))
			return
		}
		defer conn.Close()

		msgs := make(chan relay.StatusMessage, 8)
		id := gw.Subscribe(relay.SubscriberFunc(func(msg relay.StatusMessage) {
			select {
			case msgs <- msg:
			default:
				// Slow reader: drop rather than block the broadcast path.
			}
		}))
		defer gw.Unsubscribe(id)

		done := make(chan struct{})
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(wsPongWait))
			return nil
		})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case msg := <-msgs:
				b, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}
