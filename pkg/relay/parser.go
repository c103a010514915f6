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
	"strconv"
	"strings"
)

// frameKind classifies a decoded line.
type frameKind int

const (
	frameUnknown frameKind = iota
	frameTime
	frameInputsPush
	frameOutput
	frameSchedule
)

// outputFrame is the decoded payload of a +STACH single-output reply.
type outputFrame struct {
	N     int
	State int
}

// scheduleFrame is the decoded payload of a +TIMESW reply. Mode 0/2
// (clear acks) carry no events.
type scheduleFrame struct {
	N      int
	Mode   int
	Daily  []DailyEvent
	Custom []CustomEvent
}

// frame is parseFrame's output: exactly one of the pointer fields is set,
// chosen by Kind.
type frame struct {
	Kind     frameKind
	Time     *TimeReply
	Inputs   []int
	Output   *outputFrame
	Schedule *scheduleFrame
}

// parseFrame classifies and decodes one device line. Prefixes are checked
// longer/more specific first so "+TIME" doesn't shadow "+TIMESW".
//
// A non-nil error means the line matched a known prefix but failed field
// decode, or an unsolicited push had the wrong length for the configured
// input count; the caller logs and drops it.
// A line matching no known prefix returns (frame{Kind: frameUnknown}, nil)
// — unrecognized lines are not errors, they're ignored traffic.
func parseFrame(line string, inputsNumber int) (frame, error) {
	switch {
	case strings.HasPrefix(line, "+TIMESW"):
		return parseSchedule(line)
	case strings.HasPrefix(line, "+TIME"):
		return parseTime(line)
	case strings.HasPrefix(line, "+OCCH_ALL"):
		return parseInputsPush(line, inputsNumber)
	case strings.HasPrefix(line, "+STACH"):
		return parseOutput(line)
	default:
		return frame{Kind: frameUnknown}, nil
	}
}

// splitTrailingField splits "<head> <tail>" on the last space rather than
// at a fixed offset, so it tolerates whitespace variance that fixed
// fragment lengths would reject.
func splitTrailingField(s string) (head, tail string, ok bool) {
	idx := strings.LastIndexByte(s, ' ')
	if idx < 0 || idx == len(s)-1 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}

func parseTime(line string) (frame, error) {
	raw := strings.TrimPrefix(line, "+TIME:")
	dateTime, dow, ok := splitTrailingField(raw)
	if !ok {
		return frame{}, malformed(line)
	}
	return frame{Kind: frameTime, Time: &TimeReply{DateTime: dateTime, DayOfWeek: dow}}, nil
}

func parseInputsPush(line string, inputsNumber int) (frame, error) {
	raw := strings.TrimPrefix(line, "+OCCH_ALL:")
	parts := strings.Split(raw, ",")
	if len(parts) != inputsNumber {
		return frame{}, malformed(line)
	}
	states := make([]int, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) == 0 {
			return frame{}, malformed(line)
		}
		d := p[0] - '0'
		if d > 9 {
			return frame{}, malformed(line)
		}
		states[i] = int(d)
	}
	return frame{Kind: frameInputsPush, Inputs: states}, nil
}

func parseOutput(line string) (frame, error) {
	raw := strings.TrimPrefix(line, "+STACH")
	parts := strings.SplitN(raw, "=", 2)
	if len(parts) != 2 {
		return frame{}, malformed(line)
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return frame{}, malformed(line)
	}
	state, err := strconv.Atoi(parts[1])
	if err != nil {
		return frame{}, malformed(line)
	}
	return frame{Kind: frameOutput, Output: &outputFrame{N: n, State: state}}, nil
}

func parseSchedule(line string) (frame, error) {
	raw := strings.TrimPrefix(line, "+TIMESW:")
	parts := strings.Split(raw, ",")
	if len(parts) < 2 {
		return frame{}, malformed(line)
	}
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return frame{}, malformed(line)
	}
	mode, err := strconv.Atoi(parts[1])
	if err != nil {
		return frame{}, malformed(line)
	}

	sf := &scheduleFrame{N: n, Mode: mode}
	eventParts := parts[2:]

	switch mode {
	case 1: // daily query reply
		daily := make([]DailyEvent, 0, len(eventParts))
		for _, ev := range eventParts {
			t, s, ok := splitTrailingField(ev)
			if !ok {
				continue
			}
			state, err := strconv.Atoi(s)
			if err != nil {
				continue
			}
			daily = append(daily, DailyEvent{Time: t, State: state})
		}
		// The device emits daily events most-recent-first; reverse to
		// restore chronological order.
		for i, j := 0, len(daily)-1; i < j; i, j = i+1, j-1 {
			daily[i], daily[j] = daily[j], daily[i]
		}
		sf.Daily = daily
	case 3: // custom query reply
		custom := make([]CustomEvent, 0, len(eventParts))
		for _, ev := range eventParts {
			dt, s, ok := splitTrailingField(ev)
			if !ok {
				continue
			}
			state, err := strconv.Atoi(s)
			if err != nil {
				continue
			}
			custom = append(custom, CustomEvent{DateTime: dt, State: state})
		}
		sf.Custom = custom
	case 0, 2:
		// clear acknowledgements carry no payload
	default:
		return frame{}, malformed(line)
	}

	return frame{Kind: frameSchedule, Schedule: sf}, nil
}
