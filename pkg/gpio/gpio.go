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

//go:build linux

// Package gpio drives the opto-coupler output pin that mirrors "any input
// active" onto a physical relay, grounded on original_source/src/gpio.rs's
// GpioActor.
package gpio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
	log "go.uber.org/zap"

	"github.com/skyggedans/ajax-relay-gateway/pkg/relay"
)

// Driver sets pinName high whenever a connected status reports any input
// active and low when it reports none, subscribing to the gateway for the
// lifetime of the process. Disconnected statuses leave the pin unchanged.
type Driver struct {
	pin    gpio.PinIO
	logger *log.Logger
}

// New initializes the host GPIO subsystem and resolves pinName (e.g.
// "GPIO7"). It subscribes to gw immediately; the returned Driver has no
// further API — it runs until the process exits.
func New(gw *relay.Gateway, pinName string, logger *log.Logger) (*Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio: host init: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("gpio: pin %q not found", pinName)
	}
	d := &Driver{pin: pin, logger: logger}
	if err := d.set(false); err != nil {
		return nil, err
	}
	gw.Subscribe(relay.SubscriberFunc(d.onStatus))
	return d, nil
}

func (d *Driver) onStatus(msg relay.StatusMessage) {
	if !msg.Connected {
		return
	}
	active := false
	for _, v := range msg.Inputs {
		if v != 0 {
			active = true
			break
		}
	}
	if err := d.set(active); err != nil {
		d.logger.Warn("failed to drive opto-coupler pin", log.Error(err))
	}
}

func (d *Driver) set(high bool) error {
	level := gpio.Low
	if high {
		level = gpio.High
	}
	return d.pin.Out(level)
}
