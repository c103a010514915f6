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

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	log "go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/skyggedans/ajax-relay-gateway/pkg/adapter"
	gwconfig "github.com/skyggedans/ajax-relay-gateway/pkg/config"
)

// flags, shared across subcommands.
var (
	apiAddr       string
	relayHost     string
	relayPort     int
	inputsNumber  int
	outputsNumber int
	logLevelFlag  string
	logEncoding   string
	debug         bool
)

var logger *log.Logger
var cfg gwconfig.Config

var rootCmd = &cobra.Command{
	Use:   "gatewayctl",
	Short: "Operate and query an ajax-relay-gateway deployment",
	Long: `gatewayctl runs the gateway's TCP-to-relay bridge and HTTP API, and
talks to a running instance to inspect or control it.`,
}

// Execute runs the root command; version is embedded by the linker at
// build time via cli.go's package-level vars.
func Execute(version string) {
	rootCmd.Version = version
	rootCmd.SilenceUsage = true
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&apiAddr, "api", "http://localhost:8080", "Base URL of a running gateway's HTTP API")
	rootCmd.PersistentFlags().StringVar(&relayHost, "relay-host", "", "Relay TCP host (overrides config file/env)")
	rootCmd.PersistentFlags().IntVar(&relayPort, "relay-port", 0, "Relay TCP port (overrides config file/env)")
	rootCmd.PersistentFlags().IntVar(&inputsNumber, "inputs-number", 0, "Number of inputs the relay reports (overrides config file/env)")
	rootCmd.PersistentFlags().IntVar(&outputsNumber, "outputs-number", 0, "Number of outputs the relay exposes (overrides config file/env)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (overrides config file/env)")
	rootCmd.PersistentFlags().StringVar(&logEncoding, "log-encoding", "", "Log encoding: console, json (overrides config file/env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Shorthand for --log-level=debug")
}

// initConfig loads the file+env layer, then overlays any flags the user
// actually set — flags > env > file — and builds the shared zap logger.
func initConfig() {
	loaded, err := gwconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load config: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded

	normalized, err := adapter.NormalizeBaseURL(apiAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --api value: %v\n", err)
		os.Exit(1)
	}
	apiAddr = normalized

	if relayHost != "" {
		cfg.RelayHost = relayHost
	}
	if relayPort != 0 {
		cfg.RelayPort = uint16(relayPort)
	}
	if inputsNumber != 0 {
		cfg.InputsNumber = inputsNumber
	}
	if outputsNumber != 0 {
		cfg.OutputsNumber = outputsNumber
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if logEncoding != "" {
		cfg.LogEncoding = logEncoding
	}

	zcfg := log.NewDevelopmentConfig()
	zcfg.OutputPaths = []string{"stdout"}
	zcfg.Encoding = cfg.LogEncoding
	if zcfg.Encoding == "" {
		zcfg.Encoding = "console"
	}

	level := zapcore.InfoLevel
	if debug || cfg.LogLevel == "debug" {
		level = zapcore.DebugLevel
	} else if cfg.LogLevel != "" {
		_ = level.UnmarshalText([]byte(cfg.LogLevel))
	}
	zcfg.Level = log.NewAtomicLevelAt(level)

	built, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	SetLogger(built)
}

func Logger() *log.Logger { return logger }

func SetLogger(l *log.Logger) { logger = l }
