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

package cmd

import (
	log "go.uber.org/zap"

	"github.com/skyggedans/ajax-relay-gateway/pkg/display"
	gwconfig "github.com/skyggedans/ajax-relay-gateway/pkg/config"
	"github.com/skyggedans/ajax-relay-gateway/pkg/gpio"
	"github.com/skyggedans/ajax-relay-gateway/pkg/relay"
)

func startGPIO(gw *relay.Gateway, c gwconfig.Config, logger *log.Logger) error {
	_, err := gpio.New(gw, c.OptoPin, logger)
	return err
}

func startDisplay(gw *relay.Gateway, c gwconfig.Config, logger *log.Logger) error {
	_, err := display.New(gw, c.SPIDev, logger)
	return err
}
