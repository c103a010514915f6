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

// Package metrics registers the gateway's Prometheus collectors. It
// intentionally has no dependency on pkg/relay — the relay package calls
// the counter functions directly on its hot path, and cmd/serve.go samples
// gauge values from the Gateway on a tick, so neither package needs to
// import the other's public surface beyond these plain functions.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var lastSeenRestarts atomic.Int64

var (
	repliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_replies_total",
		Help: "Replies received from the relay, by reply key.",
	}, []string{"key"})

	timeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_timeouts_total",
		Help: "Commands that timed out waiting for a reply, by reply key.",
	}, []string{"key"})

	malformedFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_malformed_frames_total",
		Help: "Frames that matched a known prefix but failed field decode.",
	})

	broadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_broadcasts_total",
		Help: "Status broadcasts fanned out to subscribers.",
	})

	subscribersGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_subscribers",
		Help: "Currently registered status subscribers.",
	})

	connectedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_connected",
		Help: "1 when the session has a live relay connection, 0 otherwise.",
	})

	restartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_restarts_total",
		Help: "Times the session supervisor has restarted a failed connection.",
	})

	lastActivitySeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_last_activity_seconds",
		Help: "Unix timestamp of the latest poll that found the relay connected.",
	})
)

// ReplyReceived increments the per-key reply counter.
func ReplyReceived(key string) { repliesTotal.WithLabelValues(key).Inc() }

// Timeout increments the per-key timeout counter.
func Timeout(key string) { timeoutsTotal.WithLabelValues(key).Inc() }

// MalformedFrame increments the malformed-frame counter.
func MalformedFrame() { malformedFramesTotal.Inc() }

// Broadcast increments the broadcast counter.
func Broadcast() { broadcastsTotal.Inc() }

// Poll samples the gateway's current state into the gauges. Called on a
// fixed tick from cmd/serve.go. relay_last_activity_seconds is set to the
// poll time whenever connected is true; reads from the relay do not move it.
func Poll(connected bool, subscriberCount int, restarts int64) {
	if connected {
		connectedGauge.Set(1)
		lastActivitySeconds.Set(float64(time.Now().Unix()))
	} else {
		connectedGauge.Set(0)
	}
	subscribersGauge.Set(float64(subscriberCount))

	if prev := lastSeenRestarts.Swap(restarts); restarts > prev {
		restartsTotal.Add(float64(restarts - prev))
	}
}
