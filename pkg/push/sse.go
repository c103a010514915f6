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

package push

import (
	"encoding/json"
	"net/http"

	sse "github.com/r3labs/sse/v2"
	log "go.uber.org/zap"

	"github.com/skyggedans/ajax-relay-gateway/pkg/relay"
)

// streamID is the single SSE stream all clients subscribe to; pkg/adapter's
// SeeClient is a client of exactly this server-side library's wire format,
// read in the opposite direction here.
const streamID = "status"

// SSEHub owns a github.com/r3labs/sse/v2 server and republishes every
// relay status change onto it, so any number of HTTP clients can GET
// /sse and receive the same broadcast stream.
type SSEHub struct {
	server *sse.Server
	logger *log.Logger
}

// NewSSEHub creates the hub and subscribes it to gw for the lifetime of
// the process; it is not itself closeable since the gateway never is.
func NewSSEHub(gw *relay.Gateway, logger *log.Logger) *SSEHub {
	server := sse.New()
	server.AutoReplay = false
	server.CreateStream(streamID)

	h := &SSEHub{server: server, logger: logger}
	gw.Subscribe(relay.SubscriberFunc(h.onStatus))
	return h
}

func (h *SSEHub) onStatus(msg relay.StatusMessage) {
	b, err := json.Marshal(msg)
	if err != nil {
		h.logger.Debug("dropping sse event, marshal failed", log.Error(err))
		return
	}
	h.server.Publish(streamID, &sse.Event{Event: []byte("status"), Data: b})
}

func (h *SSEHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("stream", streamID)
	r.URL.RawQuery = q.Encode()
	h.server.ServeHTTP(w, r)
}
