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

package relay

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	log "go.uber.org/zap"
)

// Gateway is the top-level handle a caller (the HTTP API, the CLI, the
// GPIO/display adapters) holds. It owns the subscriber registry — which
// outlives any individual TCP connection — and supervises a sequence of
// Sessions, restarting one whenever it dies.
type Gateway struct {
	cfg    Config
	logger *log.Logger
	addr   string

	subs *registry

	mu         sync.Mutex
	cur        *Session
	generation atomic.Int64

	restarts atomic.Int64
}

// NewGateway constructs a Gateway. Call Run to start the supervisor loop;
// it blocks until ctx is cancelled.
func NewGateway(cfg Config, logger *log.Logger) *Gateway {
	cfg.SetDefaults()
	if logger == nil {
		logger = log.NewNop()
	}
	return &Gateway{
		cfg:    cfg,
		logger: logger,
		addr:   net.JoinHostPort(cfg.RelayHost, strconv.Itoa(int(cfg.RelayPort))),
		subs:   newRegistry(),
	}
}

// Run dials the relay and supervises it, restarting the session on any
// fatal error, until ctx is cancelled. It returns ctx.Err() on clean
// shutdown.
func (g *Gateway) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := dial(ctx, g.addr)
		if err != nil {
			return err // only returns non-nil when ctx is done
		}

		sess := newSession(g.cfg, g.subs, g.logger)
		g.mu.Lock()
		g.cur = sess
		gen := g.generation.Add(1)
		g.mu.Unlock()

		g.logger.Info("relay session established", log.String("addr", g.addr), log.Int64("generation", gen))

		err = sess.run(ctx, conn)
		conn.Close()

		g.mu.Lock()
		if g.cur == sess {
			g.cur = nil
		}
		g.mu.Unlock()

		g.subs.broadcast(StatusMessage{Connected: false})

		if ctx.Err() != nil {
			return ctx.Err()
		}

		g.restarts.Add(1)
		g.logger.Warn("relay session ended, restarting", log.Error(err), log.Int64("generation", gen))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

// current returns the live session, or nil when no connection is
// currently established.
func (g *Gateway) current() *Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cur
}

// Status reports the gateway's current, synchronously-known state.
func (g *Gateway) Status() StatusMessage {
	if sess := g.current(); sess != nil {
		return sess.Status()
	}
	return StatusMessage{Connected: false}
}

// Subscribe registers sub for status broadcasts and immediately delivers
// the current state, so a subscriber attaching mid-stream (or after a
// restart) doesn't have to wait for the next change to learn where things
// stand. It returns an unsubscribe token for Unsubscribe.
func (g *Gateway) Subscribe(sub Subscriber) string {
	id := g.subs.register(sub)
	notifySafely(sub, g.Status())
	return id
}

func (g *Gateway) Unsubscribe(id string) {
	g.subs.unregister(id)
}

// SubscriberCount reports the number of currently registered subscribers.
func (g *Gateway) SubscriberCount() int {
	return g.subs.count()
}

// RestartCount reports how many times the supervisor has restarted a
// failed session, for the relay_restarts_total counter.
func (g *Gateway) RestartCount() int64 {
	return g.restarts.Load()
}
