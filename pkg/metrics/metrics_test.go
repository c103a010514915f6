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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestReplyReceivedIncrementsByKey(t *testing.T) {
	before := testutil.ToFloat64(repliesTotal.WithLabelValues("time"))
	ReplyReceived("time")
	after := testutil.ToFloat64(repliesTotal.WithLabelValues("time"))
	if after != before+1 {
		t.Errorf("repliesTotal[time] = %v, want %v", after, before+1)
	}
}

func TestTimeoutIncrementsByKey(t *testing.T) {
	before := testutil.ToFloat64(timeoutsTotal.WithLabelValues("output:1"))
	Timeout("output:1")
	after := testutil.ToFloat64(timeoutsTotal.WithLabelValues("output:1"))
	if after != before+1 {
		t.Errorf("timeoutsTotal[output:1] = %v, want %v", after, before+1)
	}
}

func TestMalformedFrameIncrements(t *testing.T) {
	before := testutil.ToFloat64(malformedFramesTotal)
	MalformedFrame()
	after := testutil.ToFloat64(malformedFramesTotal)
	if after != before+1 {
		t.Errorf("malformedFramesTotal = %v, want %v", after, before+1)
	}
}

func TestPollSetsConnectedGauge(t *testing.T) {
	Poll(true, 3, 0)
	if got := testutil.ToFloat64(connectedGauge); got != 1 {
		t.Errorf("connectedGauge = %v, want 1 when connected", got)
	}
	if got := testutil.ToFloat64(subscribersGauge); got != 3 {
		t.Errorf("subscribersGauge = %v, want 3", got)
	}

	Poll(false, 0, 0)
	if got := testutil.ToFloat64(connectedGauge); got != 0 {
		t.Errorf("connectedGauge = %v, want 0 when disconnected", got)
	}
}

func TestPollOnlyAddsRestartDelta(t *testing.T) {
	lastSeenRestarts.Store(0)
	before := testutil.ToFloat64(restartsTotal)

	Poll(true, 0, 2)
	afterFirst := testutil.ToFloat64(restartsTotal)
	if afterFirst != before+2 {
		t.Fatalf("restartsTotal after first Poll = %v, want %v", afterFirst, before+2)
	}

	Poll(true, 0, 2)
	afterSecond := testutil.ToFloat64(restartsTotal)
	if afterSecond != afterFirst {
		t.Errorf("restartsTotal after a repeated restart count = %v, want unchanged %v", afterSecond, afterFirst)
	}

	Poll(true, 0, 5)
	afterThird := testutil.ToFloat64(restartsTotal)
	if afterThird != afterFirst+3 {
		t.Errorf("restartsTotal after restarts advancing by 3 = %v, want %v", afterThird, afterFirst+3)
	}
}
