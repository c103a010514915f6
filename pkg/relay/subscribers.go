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
	"sync"

	"github.com/google/uuid"

	"github.com/skyggedans/ajax-relay-gateway/pkg/metrics"
)

// Subscriber receives a StatusMessage every time the input vector changes
// or the session's connectedness flips. Notify must not
// block for long — it runs on the shared broadcast path, so a slow
// subscriber (e.g. a stalled WebSocket write) delays every other one.
// Implementations that push over the network should buffer internally
// and drop or disconnect on backpressure rather than block here.
type Subscriber interface {
	Notify(StatusMessage)
}

// SubscriberFunc adapts a plain func to a Subscriber.
type SubscriberFunc func(StatusMessage)

func (f SubscriberFunc) Notify(msg StatusMessage) { f(msg) }

// registry is the fan-out broadcaster: any number of subscribers (the
// WebSocket hub, the SSE hub, the GPIO opto-coupler driver, the SPI
// display) may register and unregister independently of the session's
// connection lifecycle.
type registry struct {
	mu   sync.RWMutex
	subs map[string]Subscriber
}

func newRegistry() *registry {
	return &registry{subs: make(map[string]Subscriber)}
}

// register adds sub and returns a token for later unregister. IDs come
// from google/uuid rather than a counter so tokens remain stable and
// collision-free across session restarts within the same Gateway.
func (r *registry) register(sub Subscriber) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.subs[id] = sub
	r.mu.Unlock()
	return id
}

func (r *registry) unregister(id string) {
	r.mu.Lock()
	delete(r.subs, id)
	r.mu.Unlock()
}

// broadcast delivers msg to every registered subscriber. A subscriber that
// panics is recovered and skipped — one misbehaving listener must never
// take down the relay session or the other listeners.
func (r *registry) broadcast(msg StatusMessage) {
	metrics.Broadcast()

	r.mu.RLock()
	subs := make([]Subscriber, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	r.mu.RUnlock()

	for _, s := range subs {
		notifySafely(s, msg)
	}
}

func notifySafely(s Subscriber, msg StatusMessage) {
	defer func() {
		_ = recover()
	}()
	s.Notify(msg)
}

// count reports the number of currently registered subscribers, for the
// relay_subscribers gauge.
func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
