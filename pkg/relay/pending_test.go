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
	"testing"
	"time"
)

func TestAwaitReceivesFiredValue(t *testing.T) {
	tbl := newPendingTable()
	ch := tbl.enqueue("time")
	tbl.fire("time", TimeReply{DateTime: "2026-07-31 12:00:00", DayOfWeek: "5"})

	got, err := await[TimeReply](context.Background(), ch, time.Second, "GetTime", "time")
	if err != nil {
		t.Fatalf("await() error = %v", err)
	}
	if got.DateTime != "2026-07-31 12:00:00" {
		t.Errorf("DateTime = %q", got.DateTime)
	}
}

func TestAwaitTimesOut(t *testing.T) {
	tbl := newPendingTable()
	ch := tbl.enqueue("time")

	_, err := await[TimeReply](context.Background(), ch, 10*time.Millisecond, "GetTime", "time")
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if !IsTimeout(err) {
		t.Errorf("err = %v, want a TimeoutError", err)
	}
}

func TestAwaitContextCancelled(t *testing.T) {
	tbl := newPendingTable()
	ch := tbl.enqueue("time")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := await[TimeReply](ctx, ch, time.Second, "GetTime", "time")
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAwaitTypeMismatch(t *testing.T) {
	tbl := newPendingTable()
	ch := tbl.enqueue("time")
	tbl.fire("time", 42)

	_, err := await[TimeReply](context.Background(), ch, time.Second, "GetTime", "time")
	if err == nil {
		t.Fatal("expected an error when the fired value doesn't match the awaited type")
	}
}

func TestFireIsFIFOPerKey(t *testing.T) {
	tbl := newPendingTable()
	first := tbl.enqueue("output:1")
	second := tbl.enqueue("output:1")

	tbl.fire("output:1", outputFrame{N: 1, State: 1})
	tbl.fire("output:1", outputFrame{N: 1, State: 0})

	v1 := (<-first).(outputFrame)
	v2 := (<-second).(outputFrame)
	if v1.State != 1 {
		t.Errorf("first waiter got State=%d, want 1", v1.State)
	}
	if v2.State != 0 {
		t.Errorf("second waiter got State=%d, want 0", v2.State)
	}
}

func TestFireWithNoWaiterIsDropped(t *testing.T) {
	tbl := newPendingTable()
	// Should not panic or block; there is nothing queued for this key.
	tbl.fire("time", TimeReply{})
}

func TestFireAfterTimeoutIsDiscardedSilently(t *testing.T) {
	tbl := newPendingTable()
	ch := tbl.enqueue("time")

	if _, err := await[TimeReply](context.Background(), ch, 10*time.Millisecond, "GetTime", "time"); err == nil {
		t.Fatal("expected a timeout error")
	}

	// A late fire must not block, even though nobody is left to read ch.
	done := make(chan struct{})
	go func() {
		tbl.fire("time", TimeReply{DateTime: "late"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fire() blocked on a reply nobody will ever read")
	}
}
