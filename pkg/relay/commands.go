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
)

// Query handlers below follow the same three-step shape: enqueue a reply
// slot under the key the frame parser will fire on, write the AT command,
// then await the typed reply (or the configured timeout). Set/clear
// handlers write the command and return as soon as it's handed to the
// codec — the device sends no ack for these, so there is nothing to await.

// GetTime issues AT+TIME=? and awaits the device's current date/time.
func (g *Gateway) GetTime(ctx context.Context) (TimeReply, error) {
	sess := g.current()
	if sess == nil {
		return TimeReply{}, notConnected("GetTime")
	}
	const key = "time"
	ch := sess.pending.enqueue(key)
	if err := sess.write("GetTime", "AT+TIME=?"); err != nil {
		return TimeReply{}, err
	}
	return await[TimeReply](ctx, ch, requestTimeout, "GetTime", key)
}

// SetTime issues AT+TIME=<dateTime> <dayOfWeek>. The device sends no ack,
// so this returns as soon as the command is handed to the codec.
func (g *Gateway) SetTime(ctx context.Context, dateTime, dayOfWeek string) error {
	sess := g.current()
	if sess == nil {
		return notConnected("SetTime")
	}
	cmd := fmt.Sprintf("AT+TIME=%s %s", dateTime, dayOfWeek)
	return sess.write("SetTime", cmd)
}

// GetInputs returns the most recently pushed input vector. This is
// synchronous — there is no query command for inputs, only the device's
// own unsolicited push — so it never blocks on the device.
func (g *Gateway) GetInputs() InputsSnapshot {
	sess := g.current()
	if sess == nil {
		return InputsSnapshot{Number: g.cfg.InputsNumber, Connected: false}
	}
	return InputsSnapshot{
		Number:    g.cfg.InputsNumber,
		States:    sess.inputs.snapshot(),
		Connected: sess.connected.Load(),
	}
}

// GetOutput issues AT+STACH<n>=? and awaits the output's current state.
func (g *Gateway) GetOutput(ctx context.Context, n int) (int, error) {
	sess := g.current()
	if sess == nil {
		return 0, notConnected("GetOutput")
	}
	key := fmt.Sprintf("output:%d", n)
	ch := sess.pending.enqueue(key)
	cmd := fmt.Sprintf("AT+STACH%d=?", n)
	if err := sess.write("GetOutput", cmd); err != nil {
		return 0, err
	}
	of, err := await[outputFrame](ctx, ch, requestTimeout, "GetOutput", key)
	if err != nil {
		return 0, err
	}
	return of.State, nil
}

// SetOutput issues AT+STACH<n>=<state>. The device sends no ack, so this
// returns as soon as the command is handed to the codec.
func (g *Gateway) SetOutput(ctx context.Context, n, state int) error {
	sess := g.current()
	if sess == nil {
		return notConnected("SetOutput")
	}
	cmd := fmt.Sprintf("AT+STACH%d=%d", n, state)
	return sess.write("SetOutput", cmd)
}

// GetDaily issues AT+TIMESW=<n>,1? and awaits the output's daily schedule.
func (g *Gateway) GetDaily(ctx context.Context, n int) ([]DailyEvent, error) {
	sess := g.current()
	if sess == nil {
		return nil, notConnected("GetDaily")
	}
	key := fmt.Sprintf("daily:%d", n)
	ch := sess.pending.enqueue(key)
	cmd := fmt.Sprintf("AT+TIMESW=%d,1?", n)
	if err := sess.write("GetDaily", cmd); err != nil {
		return nil, err
	}
	return await[[]DailyEvent](ctx, ch, requestTimeout, "GetDaily", key)
}

// SetDaily issues AT+TIMESW=<n>,1,<HH:MM:SS> <s>, one command per event —
// the device appends one event per command and sends no ack for any of
// them, so this returns as soon as every command is handed to the codec.
func (g *Gateway) SetDaily(ctx context.Context, n int, events []DailyEvent) error {
	sess := g.current()
	if sess == nil {
		return notConnected("SetDaily")
	}
	for _, ev := range events {
		cmd := fmt.Sprintf("AT+TIMESW=%d,1,%s %d", n, ev.Time, ev.State)
		if err := sess.write("SetDaily", cmd); err != nil {
			return err
		}
	}
	return nil
}

// ClearDaily issues AT+TIMESW=<n>,0. The device sends no ack, so this
// returns as soon as the command is handed to the codec.
func (g *Gateway) ClearDaily(ctx context.Context, n int) error {
	sess := g.current()
	if sess == nil {
		return notConnected("ClearDaily")
	}
	cmd := fmt.Sprintf("AT+TIMESW=%d,0", n)
	return sess.write("ClearDaily", cmd)
}

// GetCustom issues AT+TIMESW=<n>,3? and awaits the output's custom
// (one-off, dated) schedule.
func (g *Gateway) GetCustom(ctx context.Context, n int) ([]CustomEvent, error) {
	sess := g.current()
	if sess == nil {
		return nil, notConnected("GetCustom")
	}
	key := fmt.Sprintf("custom:%d", n)
	ch := sess.pending.enqueue(key)
	cmd := fmt.Sprintf("AT+TIMESW=%d,3?", n)
	if err := sess.write("GetCustom", cmd); err != nil {
		return nil, err
	}
	return await[[]CustomEvent](ctx, ch, requestTimeout, "GetCustom", key)
}

// SetCustom issues AT+TIMESW=<n>,3,<YYYY-MM-DD HH:MM:SS> <s>, one command
// per event — the device appends one event per command and sends no ack
// for any of them, so this returns as soon as every command is handed to
// the codec.
func (g *Gateway) SetCustom(ctx context.Context, n int, events []CustomEvent) error {
	sess := g.current()
	if sess == nil {
		return notConnected("SetCustom")
	}
	for _, ev := range events {
		cmd := fmt.Sprintf("AT+TIMESW=%d,3,%s %d", n, ev.DateTime, ev.State)
		if err := sess.write("SetCustom", cmd); err != nil {
			return err
		}
	}
	return nil
}

// ClearCustom issues AT+TIMESW=<n>,2. The device sends no ack, so this
// returns as soon as the command is handed to the codec.
func (g *Gateway) ClearCustom(ctx context.Context, n int) error {
	sess := g.current()
	if sess == nil {
		return notConnected("ClearCustom")
	}
	cmd := fmt.Sprintf("AT+TIMESW=%d,2", n)
	return sess.write("ClearCustom", cmd)
}
