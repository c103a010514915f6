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

// Package config loads the gateway's settings from a YAML file, the
// ARGW_-prefixed environment, and command-line flags, in that increasing
// order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v2"
)

// EnvPrefix is prepended (with an underscore) to every recognized
// environment variable, e.g. ARGW_RELAY_HOST.
const EnvPrefix = "ARGW"

const fileName = "config.yaml"
const fileDir = "ajax-relay-gateway"

// Config is the full set of gateway settings, serialized as YAML for the
// on-disk file and individually overridable by environment and flags.
type Config struct {
	RelayHost     string `yaml:"relay_host"`
	RelayPort     uint16 `yaml:"relay_port"`
	InputsNumber  int    `yaml:"inputs_number"`
	OutputsNumber int    `yaml:"outputs_number"`
	HTTPAddr      string `yaml:"http_addr"`
	LogLevel      string `yaml:"log_level"`
	LogEncoding   string `yaml:"log_encoding"`
	EnableDisplay bool   `yaml:"enable_display"`
	EnableGPIO    bool   `yaml:"enable_gpio"`
	OptoPin       string `yaml:"opto_pin"`
	SPIDev        string `yaml:"spi_dev"`
	StaticDir     string `yaml:"static_dir"`
}

// Default returns the documented defaults, used as the base layer before
// a config file, the environment, or flags are applied.
func Default() Config {
	return Config{
		RelayHost:     "127.0.0.1",
		RelayPort:     12345,
		InputsNumber:  4,
		OutputsNumber: 4,
		HTTPAddr:      ":8080",
		LogLevel:      "info",
		LogEncoding:   "console",
		OptoPin:       "GPIO7",
		SPIDev:        "/dev/spidev0.0",
	}
}

// Dir returns the per-user directory the config file lives in, creating
// it if requested.
func Dir(createIfNoExist bool) (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot find user configuration directory: %w", err)
	}
	dir := filepath.Join(userConfigDir, fileDir)
	if createIfNoExist {
		if err := os.MkdirAll(dir, 0750); err != nil && !os.IsExist(err) {
			return "", fmt.Errorf("cannot create configuration directory %s: %w", dir, err)
		}
	}
	return dir, nil
}

// FilePath returns the absolute path of the config file, without
// requiring it (or its directory) to exist yet.
func FilePath() (string, error) {
	dir, err := Dir(false)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the config file (if present), overlays ARGW_-prefixed
// environment variables, and returns the result. A missing file is not an
// error — Default() is returned instead, so the gateway runs with no
// config file at all.
func Load() (Config, error) {
	cfg := Default()

	path, err := FilePath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Write marshals cfg to the config file, creating its directory if
// needed. Used by `gatewayctl config init`.
func Write(cfg Config) error {
	dir, err := Dir(true)
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, fileName), b, 0600)
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv(EnvPrefix + "_RELAY_HOST"); ok {
		cfg.RelayHost = v
	}
	if v, ok := envUint16(EnvPrefix + "_RELAY_PORT"); ok {
		cfg.RelayPort = v
	}
	if v, ok := envInt(EnvPrefix + "_INPUTS_NUMBER"); ok {
		cfg.InputsNumber = v
	}
	if v, ok := envInt(EnvPrefix + "_OUTPUTS_NUMBER"); ok {
		cfg.OutputsNumber = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "_HTTP_ADDR"); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "_LOG_ENCODING"); ok {
		cfg.LogEncoding = v
	}
	if v, ok := envBool(EnvPrefix + "_ENABLE_DISPLAY"); ok {
		cfg.EnableDisplay = v
	}
	if v, ok := envBool(EnvPrefix + "_ENABLE_GPIO"); ok {
		cfg.EnableGPIO = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "_OPTO_PIN"); ok {
		cfg.OptoPin = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "_SPI_DEV"); ok {
		cfg.SPIDev = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "_STATIC_DIR"); ok {
		cfg.StaticDir = v
	}
}

func envInt(key string) (int, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envUint16(key string) (uint16, bool) {
	n, ok := envInt(key)
	if !ok || n < 0 || n > 0xFFFF {
		return 0, false
	}
	return uint16(n), true
}

func envBool(key string) (bool, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
