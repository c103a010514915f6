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

import "testing"

func TestRegistryBroadcastDeliversToAllSubscribers(t *testing.T) {
	r := newRegistry()
	var a, b int
	r.register(SubscriberFunc(func(StatusMessage) { a++ }))
	r.register(SubscriberFunc(func(StatusMessage) { b++ }))

	r.broadcast(StatusMessage{Connected: true})

	if a != 1 || b != 1 {
		t.Errorf("a=%d b=%d, want both delivered exactly once", a, b)
	}
}

func TestRegistryUnregisterStopsDelivery(t *testing.T) {
	r := newRegistry()
	var n int
	id := r.register(SubscriberFunc(func(StatusMessage) { n++ }))
	r.unregister(id)

	r.broadcast(StatusMessage{Connected: true})

	if n != 0 {
		t.Errorf("n = %d, want 0 after unregister", n)
	}
}

func TestRegistryPanickingSubscriberDoesNotStopOthers(t *testing.T) {
	r := newRegistry()
	var delivered bool
	r.register(SubscriberFunc(func(StatusMessage) { panic("boom") }))
	r.register(SubscriberFunc(func(StatusMessage) { delivered = true }))

	r.broadcast(StatusMessage{Connected: true})

	if !delivered {
		t.Error("a panicking subscriber should not prevent delivery to the others")
	}
}

func TestRegistryCount(t *testing.T) {
	r := newRegistry()
	if r.count() != 0 {
		t.Fatalf("count() = %d, want 0", r.count())
	}
	id1 := r.register(SubscriberFunc(func(StatusMessage) {}))
	r.register(SubscriberFunc(func(StatusMessage) {}))
	if r.count() != 2 {
		t.Fatalf("count() = %d, want 2", r.count())
	}
	r.unregister(id1)
	if r.count() != 1 {
		t.Fatalf("count() = %d, want 1", r.count())
	}
}
