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
	"fmt"
	"sync"
	"time"

	"github.com/skyggedans/ajax-relay-gateway/pkg/metrics"
)

// pendingTable is a keyed FIFO registry: enqueue appends a one-shot slot
// to a key's queue, fire pops and delivers to the oldest slot. Reply
// payloads are type-erased (any) rather than kept in one pending map per
// payload type, since every key already statically determines its own
// payload shape.
type pendingTable struct {
	mu     sync.Mutex
	queues map[string][]chan any
}

func newPendingTable() *pendingTable {
	return &pendingTable{queues: make(map[string][]chan any)}
}

// enqueue appends a fresh one-shot slot for key and returns the channel a
// caller awaits. The channel is buffered so a late fire after the waiter
// has already timed out doesn't block the parser — it's simply never read,
// and the reply is silently discarded.
func (t *pendingTable) enqueue(key string) <-chan any {
	ch := make(chan any, 1)
	t.mu.Lock()
	t.queues[key] = append(t.queues[key], ch)
	t.mu.Unlock()
	return ch
}

// fire delivers value to the oldest waiter for key, if any. A key with no
// queued waiter drops the value: it's a stale or unsolicited reply.
func (t *pendingTable) fire(key string, value any) {
	t.mu.Lock()
	q := t.queues[key]
	if len(q) == 0 {
		t.mu.Unlock()
		return
	}
	ch := q[0]
	if len(q) == 1 {
		delete(t.queues, key)
	} else {
		t.queues[key] = q[1:]
	}
	t.mu.Unlock()

	select {
	case ch <- value:
	default:
		// Buffer already holds an undelivered value (the waiter gave up
		// and nobody ever drained it) — drop it.
	}
}

// await blocks for a reply on ch, a per-request timeout, or ctx
// cancellation, type-asserting the eventual value to T. op/key are only
// used to build a TimeoutError.
func await[T any](ctx context.Context, ch <-chan any, d time.Duration, op, key string) (T, error) {
	var zero T
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case v := <-ch:
		if t, ok := v.(T); ok {
			metrics.ReplyReceived(key)
			return t, nil
		}
		// Each key statically ties to one payload shape, so this only
		// fires on a parser/handler mismatch bug.
		return zero, fmt.Errorf("%s: unexpected reply type %T for key %s", op, v, key)
	case <-timer.C:
		metrics.Timeout(key)
		return zero, timeout(op, key)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
