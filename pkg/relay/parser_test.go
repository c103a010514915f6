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

func TestParseFrameUnknown(t *testing.T) {
	f, err := parseFrame("some unrelated line", 4)
	if err != nil {
		t.Fatalf("parseFrame() error = %v, want nil", err)
	}
	if f.Kind != frameUnknown {
		t.Errorf("Kind = %v, want frameUnknown", f.Kind)
	}
}

func TestParseTime(t *testing.T) {
	f, err := parseFrame("+TIME:2026-07-31 12:00:00 5", 4)
	if err != nil {
		t.Fatalf("parseFrame() error = %v, want nil", err)
	}
	if f.Kind != frameTime {
		t.Fatalf("Kind = %v, want frameTime", f.Kind)
	}
	if f.Time.DateTime != "2026-07-31 12:00:00" {
		t.Errorf("DateTime = %q", f.Time.DateTime)
	}
	if f.Time.DayOfWeek != "5" {
		t.Errorf("DayOfWeek = %q", f.Time.DayOfWeek)
	}
}

func TestParseTimeMalformed(t *testing.T) {
	if _, err := parseFrame("+TIME:nospaceshere", 4); err == nil {
		t.Fatal("expected error for a time reply with no trailing field")
	}
}

func TestParseInputsPush(t *testing.T) {
	f, err := parseFrame("+OCCH_ALL:1,0,1,0", 4)
	if err != nil {
		t.Fatalf("parseFrame() error = %v, want nil", err)
	}
	if f.Kind != frameInputsPush {
		t.Fatalf("Kind = %v, want frameInputsPush", f.Kind)
	}
	want := []int{1, 0, 1, 0}
	if len(f.Inputs) != len(want) {
		t.Fatalf("Inputs = %v, want %v", f.Inputs, want)
	}
	for i := range want {
		if f.Inputs[i] != want[i] {
			t.Errorf("Inputs[%d] = %d, want %d", i, f.Inputs[i], want[i])
		}
	}
}

func TestParseInputsPushWrongLength(t *testing.T) {
	if _, err := parseFrame("+OCCH_ALL:1,0,1", 4); err == nil {
		t.Fatal("expected error when the pushed vector length doesn't match the configured count")
	}
}

func TestParseOutput(t *testing.T) {
	f, err := parseFrame("+STACH2=1", 4)
	if err != nil {
		t.Fatalf("parseFrame() error = %v, want nil", err)
	}
	if f.Kind != frameOutput {
		t.Fatalf("Kind = %v, want frameOutput", f.Kind)
	}
	if f.Output.N != 2 || f.Output.State != 1 {
		t.Errorf("Output = %+v, want {N:2 State:1}", f.Output)
	}
}

func TestParseScheduleDailyReordersChronologically(t *testing.T) {
	f, err := parseFrame("+TIMESW:1,1,22:00 0,07:00 1", 4)
	if err != nil {
		t.Fatalf("parseFrame() error = %v, want nil", err)
	}
	if f.Kind != frameSchedule {
		t.Fatalf("Kind = %v, want frameSchedule", f.Kind)
	}
	sched := f.Schedule
	if sched.N != 1 || sched.Mode != 1 {
		t.Fatalf("Schedule = %+v, want N:1 Mode:1", sched)
	}
	if len(sched.Daily) != 2 {
		t.Fatalf("Daily = %+v, want 2 events", sched.Daily)
	}
	if sched.Daily[0].Time != "07:00" || sched.Daily[1].Time != "22:00" {
		t.Errorf("Daily = %+v, want chronological order starting at 07:00", sched.Daily)
	}
}

func TestParseScheduleCustom(t *testing.T) {
	f, err := parseFrame("+TIMESW:3,3,2026-08-01 07:00:00 1", 4)
	if err != nil {
		t.Fatalf("parseFrame() error = %v, want nil", err)
	}
	if len(f.Schedule.Custom) != 1 {
		t.Fatalf("Custom = %+v, want 1 event", f.Schedule.Custom)
	}
	if f.Schedule.Custom[0].DateTime != "2026-08-01 07:00:00" || f.Schedule.Custom[0].State != 1 {
		t.Errorf("Custom[0] = %+v", f.Schedule.Custom[0])
	}
}

func TestParseScheduleClearCarriesNoEvents(t *testing.T) {
	f, err := parseFrame("+TIMESW:0,0", 4)
	if err != nil {
		t.Fatalf("parseFrame() error = %v, want nil", err)
	}
	if f.Schedule.Daily != nil || f.Schedule.Custom != nil {
		t.Errorf("Schedule = %+v, want no events for a clear ack", f.Schedule)
	}
}

func TestParseScheduleUnknownMode(t *testing.T) {
	if _, err := parseFrame("+TIMESW:0,9", 4); err == nil {
		t.Fatal("expected error for an unrecognized schedule mode")
	}
}

func TestSplitTrailingField(t *testing.T) {
	tests := []struct {
		in       string
		wantHead string
		wantTail string
		wantOK   bool
	}{
		{"07:00 1", "07:00", "1", true},
		{"2026-08-01 07:00:00 1", "2026-08-01 07:00:00", "1", true},
		{"nospace", "", "", false},
		{"trailing ", "", "", false},
	}
	for _, tt := range tests {
		head, tail, ok := splitTrailingField(tt.in)
		if ok != tt.wantOK {
			t.Errorf("splitTrailingField(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			continue
		}
		if ok && (head != tt.wantHead || tail != tt.wantTail) {
			t.Errorf("splitTrailingField(%q) = (%q, %q), want (%q, %q)", tt.in, head, tail, tt.wantHead, tt.wantTail)
		}
	}
}
