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
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "go.uber.org/zap"

	"github.com/skyggedans/ajax-relay-gateway/pkg/metrics"
)

// Session owns one live TCP connection to the device: the read loop that
// feeds the frame parser, the pending table that correlates commands with
// their replies, the input state, and the heartbeat that detects a stalled
// link.
//
// A Session is single-use: once its run loop exits (device closed the
// connection, or it stalled past idleTimeout+gracePeriod), it reports a
// fatal error to its Gateway and is discarded. The Gateway builds a
// fresh Session for the next connection attempt.
type Session struct {
	cfg    Config
	logger *log.Logger

	pending *pendingTable
	inputs  *inputState
	subs    *registry

	connMu sync.Mutex
	writer *lineWriter
	conn   net.Conn

	lastActivity atomic.Int64 // unix nanos

	connected atomic.Bool
}

func newSession(cfg Config, subs *registry, logger *log.Logger) *Session {
	return &Session{
		cfg:     cfg,
		logger:  logger,
		pending: newPendingTable(),
		inputs:  newInputState(cfg.InputsNumber),
		subs:    subs,
	}
}

// dial opens the TCP connection, retrying with exponential backoff until
// ctx is cancelled, so a relay that is slow to boot doesn't get hammered
// with SYNs.
func dial(ctx context.Context, addr string) (net.Conn, error) {
	var conn net.Conn
	op := func() error {
		var dialer net.Dialer
		c, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 30 * time.Second
	b.RandomizationFactor = 0.1
	b.MaxElapsedTime = 0 // retry forever, bounded only by ctx

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return conn, nil
}

// run drives the session until the connection fails or ctx is cancelled.
// It blocks; the caller (the Gateway) runs it on a dedicated goroutine.
func (s *Session) run(ctx context.Context, conn net.Conn) error {
	s.connMu.Lock()
	s.conn = conn
	s.writer = newLineWriter(conn)
	s.connMu.Unlock()

	s.touch()
	s.setConnected(true)
	s.broadcastNow()

	if err := s.writer.writeLine(enableCommand); err != nil {
		s.setConnected(false)
		return &ProtocolDesyncError{baseError{Op: "enable"}, err}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readErrCh := make(chan error, 1)
	go s.readLoop(conn, readErrCh)

	ticker := time.NewTicker(heartbeatTick)
	defer ticker.Stop()

	// graceTimer is nil (and its channel therefore never ready) until the
	// link is first found idle past idleTimeout; a nil channel in a select
	// blocks forever, which is the idiomatic way to model an "optional"
	// timer without a sentinel duration.
	var graceTimer *time.Timer
	var graceC <-chan time.Time
	defer func() {
		if graceTimer != nil {
			graceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.setConnected(false)
			return ctx.Err()

		case err := <-readErrCh:
			s.setConnected(false)
			return &ProtocolDesyncError{baseError{Op: "read"}, err}

		case <-ticker.C:
			idleFor := time.Since(s.lastActivityTime())
			if idleFor <= idleTimeout {
				if graceTimer != nil {
					graceTimer.Stop()
					graceTimer, graceC = nil, nil
				}
				continue
			}
			if graceTimer == nil {
				s.logger.Warn("relay idle past threshold, entering grace period",
					log.Duration("idle_for", idleFor))
				s.setConnected(false)
				s.subs.broadcast(StatusMessage{Connected: false})
				graceTimer = time.NewTimer(gracePeriod)
				graceC = graceTimer.C
			}

		case <-graceC:
			return fmt.Errorf("relay idle past grace period")
		}
	}
}

func (s *Session) readLoop(conn net.Conn, errCh chan<- error) {
	lr := newLineReader(conn)
	for {
		line, err := lr.readLine()
		if err != nil {
			errCh <- err
			return
		}
		s.touch()
		s.handleLine(line)
	}
}

func (s *Session) handleLine(line string) {
	f, err := parseFrame(line, s.cfg.InputsNumber)
	if err != nil {
		metrics.MalformedFrame()
		s.logger.Debug("dropping malformed frame", log.Error(err))
		return
	}

	switch f.Kind {
	case frameUnknown:
		return

	case frameTime:
		s.pending.fire("time", *f.Time)

	case frameInputsPush:
		changed, err := s.inputs.update(f.Inputs)
		if err != nil {
			s.logger.Debug("dropping input push", log.Error(err))
			return
		}
		if changed {
			s.subs.broadcast(StatusMessage{Inputs: f.Inputs, Connected: true})
		}

	case frameOutput:
		s.pending.fire(fmt.Sprintf("output:%d", f.Output.N), *f.Output)

	case frameSchedule:
		sched := f.Schedule
		switch sched.Mode {
		case 1:
			s.pending.fire(fmt.Sprintf("daily:%d", sched.N), sched.Daily)
		case 3:
			s.pending.fire(fmt.Sprintf("custom:%d", sched.N), sched.Custom)
		case 0, 2:
			s.pending.fire(fmt.Sprintf("clear:%d", sched.N), struct{}{})
		}
	}
}

func (s *Session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

func (s *Session) lastActivityTime() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *Session) setConnected(v bool) {
	s.connected.Store(v)
}

func (s *Session) broadcastNow() {
	s.subs.broadcast(StatusMessage{Inputs: s.inputs.snapshot(), Connected: true})
}

// write sends a raw command line, failing fast with NotConnectedError when
// no connection is currently established.
func (s *Session) write(op, line string) error {
	s.connMu.Lock()
	w := s.writer
	s.connMu.Unlock()
	if w == nil || !s.connected.Load() {
		return notConnected(op)
	}
	if err := w.writeLine(line); err != nil {
		return &ProtocolDesyncError{baseError{Op: op}, err}
	}
	return nil
}

// Status returns the session's current, synchronously-known state — no
// round trip to the device.
func (s *Session) Status() StatusMessage {
	if !s.connected.Load() {
		return StatusMessage{Connected: false}
	}
	return StatusMessage{Inputs: s.inputs.snapshot(), Connected: true}
}
