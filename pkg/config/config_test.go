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

package config

import (
	"os"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.RelayHost != "127.0.0.1" {
		t.Errorf("RelayHost = %q, want 127.0.0.1", cfg.RelayHost)
	}
	if cfg.RelayPort != 12345 {
		t.Errorf("RelayPort = %d, want 12345", cfg.RelayPort)
	}
	if cfg.InputsNumber != 4 || cfg.OutputsNumber != 4 {
		t.Errorf("InputsNumber/OutputsNumber = %d/%d, want 4/4", cfg.InputsNumber, cfg.OutputsNumber)
	}
}

func TestApplyEnvOverridesDefaults(t *testing.T) {
	for k, v := range map[string]string{
		"ARGW_RELAY_HOST":    "10.0.0.5",
		"ARGW_RELAY_PORT":    "9999",
		"ARGW_ENABLE_GPIO":   "true",
		"ARGW_INPUTS_NUMBER": "8",
	} {
		t.Setenv(k, v)
	}

	cfg := Default()
	applyEnv(&cfg)

	if cfg.RelayHost != "10.0.0.5" {
		t.Errorf("RelayHost = %q, want 10.0.0.5", cfg.RelayHost)
	}
	if cfg.RelayPort != 9999 {
		t.Errorf("RelayPort = %d, want 9999", cfg.RelayPort)
	}
	if !cfg.EnableGPIO {
		t.Error("EnableGPIO = false, want true")
	}
	if cfg.InputsNumber != 8 {
		t.Errorf("InputsNumber = %d, want 8", cfg.InputsNumber)
	}
}

func TestApplyEnvIgnoresUnsetVars(t *testing.T) {
	cfg := Default()
	want := cfg
	applyEnv(&cfg)
	if cfg != want {
		t.Errorf("applyEnv() changed cfg with no relevant vars set: got %+v, want %+v", cfg, want)
	}
}

func TestApplyEnvIgnoresMalformedInts(t *testing.T) {
	t.Setenv("ARGW_RELAY_PORT", "not-a-number")
	cfg := Default()
	applyEnv(&cfg)
	if cfg.RelayPort != 12345 {
		t.Errorf("RelayPort = %d, want the default 12345 preserved on a malformed override", cfg.RelayPort)
	}
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RelayHost != "127.0.0.1" {
		t.Errorf("RelayHost = %q, want the default when no config file exists", cfg.RelayHost)
	}
}

func TestWriteThenLoadRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")

	cfg := Default()
	cfg.RelayHost = "192.168.1.50"
	cfg.OutputsNumber = 6

	if err := Write(cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.RelayHost != "192.168.1.50" {
		t.Errorf("RelayHost = %q, want 192.168.1.50", loaded.RelayHost)
	}
	if loaded.OutputsNumber != 6 {
		t.Errorf("OutputsNumber = %d, want 6", loaded.OutputsNumber)
	}
}

func TestEnvUint16RejectsOutOfRange(t *testing.T) {
	t.Setenv("ARGW_TEST_PORT", "100000")
	if _, ok := envUint16("ARGW_TEST_PORT"); ok {
		t.Error("envUint16() accepted a value above the uint16 range")
	}
	os.Unsetenv("ARGW_TEST_PORT")
}
