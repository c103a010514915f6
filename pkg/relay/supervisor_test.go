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
	"net"
	"strconv"
	"testing"
	"time"

	log "go.uber.org/zap"
)

// acceptFakeDevices listens on a loopback port and returns its address
// plus a channel that receives a fakeDevice for every accepted connection.
func acceptFakeDevices(t *testing.T) (addr string, devices <-chan *fakeDevice) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	ch := make(chan *fakeDevice, 4)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			ch <- newFakeDevice(conn)
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return ln.Addr().String(), ch
}

func TestGatewayGetTimeRoundTrip(t *testing.T) {
	addr, devices := acceptFakeDevices(t)
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("SplitHostPort() error = %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("Atoi() error = %v", err)
	}

	gw := NewGateway(Config{RelayHost: host, RelayPort: uint16(port), InputsNumber: 4}, log.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go gw.Run(ctx)

	device := <-devices
	device.readLine(t) // enable command

	done := make(chan struct{})
	var reply TimeReply
	var getErr error
	go func() {
		reply, getErr = gw.GetTime(context.Background())
		close(done)
	}()

	if got := device.readLine(t); got != "AT+TIME=?" {
		t.Fatalf("command = %q, want AT+TIME=?", got)
	}
	device.writeLine(t, "+TIME:2026-07-31 12:00:00 5")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("GetTime() did not return")
	}
	if getErr != nil {
		t.Fatalf("GetTime() error = %v", getErr)
	}
	if reply.DateTime != "2026-07-31 12:00:00" {
		t.Errorf("DateTime = %q", reply.DateTime)
	}
}

func TestGatewayGetInputsWhenNeverConnected(t *testing.T) {
	gw := NewGateway(Config{RelayHost: "127.0.0.1", RelayPort: 1, InputsNumber: 4}, log.NewNop())
	snap := gw.GetInputs()
	if snap.Connected {
		t.Error("GetInputs() Connected = true before any connection was established")
	}
	if snap.Number != 4 {
		t.Errorf("Number = %d, want 4", snap.Number)
	}
}

func TestGatewaySubscribeDeliversCurrentStateImmediately(t *testing.T) {
	gw := NewGateway(Config{RelayHost: "127.0.0.1", RelayPort: 1, InputsNumber: 4}, log.NewNop())
	got := make(chan StatusMessage, 1)
	gw.Subscribe(SubscriberFunc(func(msg StatusMessage) { got <- msg }))

	select {
	case msg := <-got:
		if msg.Connected {
			t.Error("a gateway with no live session should report disconnected")
		}
	case <-time.After(time.Second):
		t.Fatal("Subscribe() did not deliver the current state")
	}
}

func TestGatewayCommandWithoutConnectionFailsFast(t *testing.T) {
	gw := NewGateway(Config{RelayHost: "127.0.0.1", RelayPort: 1, InputsNumber: 4}, log.NewNop())
	_, err := gw.GetTime(context.Background())
	if !IsNotConnected(err) {
		t.Errorf("GetTime() error = %v, want a NotConnectedError", err)
	}
}

func TestGatewayRestartsAfterDeviceCloses(t *testing.T) {
	addr, devices := acceptFakeDevices(t)
	host, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)

	gw := NewGateway(Config{RelayHost: host, RelayPort: uint16(port), InputsNumber: 4}, log.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go gw.Run(ctx)

	first := <-devices
	first.readLine(t) // enable command
	first.conn.Close()

	second := <-devices
	if got := second.readLine(t); got != enableCommand {
		t.Fatalf("enable command on reconnect = %q, want %q", got, enableCommand)
	}
	if gw.RestartCount() < 1 {
		t.Errorf("RestartCount() = %d, want at least 1 after the device closed", gw.RestartCount())
	}
}
