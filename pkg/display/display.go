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

// Package display drives a small SPI TFT (ST7789-family) status panel: one
// colored square per input, green when idle and red when active, grounded
// on original_source/src/display.rs's DisplayActor.
package display

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	log "go.uber.org/zap"

	"github.com/skyggedans/ajax-relay-gateway/pkg/relay"
)

const (
	width, height = 240, 240
	squareSize    = 60

	cmdSWRESET = 0x01
	cmdSLPOUT  = 0x11
	cmdCOLMOD  = 0x3A
	cmdDISPON  = 0x29
	cmdCASET   = 0x2A
	cmdRASET   = 0x2B
	cmdRAMWR   = 0x2C
)

var (
	green = rgb565(0, 255, 0)
	red   = rgb565(255, 0, 0)
	black = rgb565(0, 0, 0)
)

func rgb565(r, g, b byte) uint16 {
	return (uint16(r)&0xF8)<<8 | (uint16(g)&0xFC)<<3 | uint16(b)>>3
}

// Driver owns the SPI connection and the reset/data-command GPIO pins.
type Driver struct {
	conn   spi.Conn
	dc     gpio.PinOut
	logger *log.Logger
}

// New opens devPath (e.g. "/dev/spidev0.0"), resets and initializes the
// panel, then subscribes to gw for the lifetime of the process.
func New(gw *relay.Gateway, devPath string, logger *log.Logger) (*Driver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("display: host init: %w", err)
	}
	port, err := spireg.Open(devPath)
	if err != nil {
		return nil, fmt.Errorf("display: open %s: %w", devPath, err)
	}
	conn, err := port.Connect(40*physic.MegaHertz, spi.Mode3, 8)
	if err != nil {
		return nil, fmt.Errorf("display: configure: %w", err)
	}

	rst := gpioreg.ByName("GPIO1")
	dc := gpioreg.ByName("GPIO0")
	if rst == nil || dc == nil {
		return nil, fmt.Errorf("display: reset/data-command pins not found")
	}

	d := &Driver{conn: conn, dc: dc, logger: logger}
	if err := d.reset(rst); err != nil {
		return nil, err
	}
	if err := d.initPanel(); err != nil {
		return nil, err
	}

	gw.Subscribe(relay.SubscriberFunc(d.onStatus))
	return d, nil
}

func (d *Driver) reset(rst gpio.PinOut) error {
	if err := rst.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(20 * time.Millisecond)
	if err := rst.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)
	return nil
}

func (d *Driver) initPanel() error {
	if err := d.writeCommand(cmdSWRESET); err != nil {
		return err
	}
	time.Sleep(150 * time.Millisecond)
	if err := d.writeCommand(cmdSLPOUT); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)
	if err := d.writeCommand(cmdCOLMOD, 0x55); err != nil { // 16bpp
		return err
	}
	if err := d.writeCommand(cmdDISPON); err != nil {
		return err
	}
	return d.fill(0, 0, width, height, black)
}

func (d *Driver) writeCommand(cmd byte, data ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.conn.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	return d.conn.Tx(data, nil)
}

func (d *Driver) fill(x0, y0, x1, y1 int, color uint16) error {
	if err := d.writeCommand(cmdCASET, byte(x0>>8), byte(x0), byte((x1-1)>>8), byte(x1-1)); err != nil {
		return err
	}
	if err := d.writeCommand(cmdRASET, byte(y0>>8), byte(y0), byte((y1-1)>>8), byte(y1-1)); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.conn.Tx([]byte{cmdRAMWR}, nil); err != nil {
		return err
	}
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	n := (x1 - x0) * (y1 - y0)
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		buf[2*i] = byte(color >> 8)
		buf[2*i+1] = byte(color)
	}
	return d.conn.Tx(buf, nil)
}

// quadrants lays out up to 4 inputs in a 2x2 grid of squares.
var quadrants = [4][2]int{
	{30, 30}, {150, 30}, {30, 150}, {150, 150},
}

func (d *Driver) onStatus(msg relay.StatusMessage) {
	if !msg.Connected {
		return
	}
	for i, v := range msg.Inputs {
		if i >= len(quadrants) {
			break
		}
		color := green
		if v != 0 {
			color = red
		}
		x, y := quadrants[i][0], quadrants[i][1]
		if err := d.fill(x, y, x+squareSize, y+squareSize, color); err != nil {
			d.logger.Warn("failed to draw status panel", log.Error(err))
			return
		}
	}
}
