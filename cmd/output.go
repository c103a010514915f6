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
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/skyggedans/ajax-relay-gateway/pkg/relay"
)

var outputCmd = &cobra.Command{
	Use:   "output",
	Short: "Get or set an output's state, or manage its schedule",
}

var outputGetCmd = &cobra.Command{
	Use:   "get <n>",
	Short: "Print an output's current state",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		var v map[string]int
		cobra.CheckErr(getJSON("/api/v1/outputs/"+args[0], &v))
		fmt.Println(v["state"])
	},
}

var outputSetCmd = &cobra.Command{
	Use:   "set <n> <0|1>",
	Short: "Set an output's state",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		state, err := strconv.Atoi(args[1])
		cobra.CheckErr(err)
		body, err := json.Marshal(map[string]int{"state": state})
		cobra.CheckErr(err)
		// The device acks no set command, so the gateway replies 204.
		cobra.CheckErr(doJSON(http.MethodPut, "/api/v1/outputs/"+args[0], body, nil))
		fmt.Println(state)
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage an output's daily or custom schedule",
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Manage an output's recurring daily schedule",
}

var dailyGetCmd = &cobra.Command{
	Use:  "get <n>",
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		var events []relay.DailyEvent
		cobra.CheckErr(getJSON("/api/v1/outputs/"+args[0]+"/schedule/daily", &events))
		printEvents(events)
	},
}

var dailySetCmd = &cobra.Command{
	Use:   "set <n> <HH:MM=state>...",
	Short: `Append events to an output's daily schedule, e.g. "07:00=1" "22:00=0"`,
	Args:  cobra.MinimumNArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		events, err := parseDailyArgs(args[1:])
		cobra.CheckErr(err)
		body, err := json.Marshal(events)
		cobra.CheckErr(err)
		// The device acks no set command, so the gateway replies 204 — fetch
		// the schedule back explicitly to confirm what was applied.
		cobra.CheckErr(doJSON(http.MethodPost, "/api/v1/outputs/"+args[0]+"/schedule/daily", body, nil))
		var result []relay.DailyEvent
		cobra.CheckErr(getJSON("/api/v1/outputs/"+args[0]+"/schedule/daily", &result))
		printEvents(result)
	},
}

var dailyClearCmd = &cobra.Command{
	Use:  "clear <n>",
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		cobra.CheckErr(doJSON(http.MethodDelete, "/api/v1/outputs/"+args[0]+"/schedule/daily", nil, nil))
	},
}

var customCmd = &cobra.Command{
	Use:   "custom",
	Short: "Manage an output's one-off dated schedule",
}

var customGetCmd = &cobra.Command{
	Use:  "get <n>",
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		var events []relay.CustomEvent
		cobra.CheckErr(getJSON("/api/v1/outputs/"+args[0]+"/schedule/custom", &events))
		printCustomEvents(events)
	},
}

var customSetCmd = &cobra.Command{
	Use:   "set <n> <YYYY-MM-DD HH:MM:SS=state>...",
	Short: `Append events to an output's custom schedule, e.g. "2026-08-01 07:00:00=1"`,
	Args:  cobra.MinimumNArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		events, err := parseCustomArgs(args[1:])
		cobra.CheckErr(err)
		body, err := json.Marshal(events)
		cobra.CheckErr(err)
		// The device acks no set command, so the gateway replies 204 — fetch
		// the schedule back explicitly to confirm what was applied.
		cobra.CheckErr(doJSON(http.MethodPost, "/api/v1/outputs/"+args[0]+"/schedule/custom", body, nil))
		var result []relay.CustomEvent
		cobra.CheckErr(getJSON("/api/v1/outputs/"+args[0]+"/schedule/custom", &result))
		printCustomEvents(result)
	},
}

var customClearCmd = &cobra.Command{
	Use:  "clear <n>",
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		cobra.CheckErr(doJSON(http.MethodDelete, "/api/v1/outputs/"+args[0]+"/schedule/custom", nil, nil))
	},
}

func init() {
	rootCmd.AddCommand(outputCmd)
	outputCmd.AddCommand(outputGetCmd, outputSetCmd, scheduleCmd)
	scheduleCmd.AddCommand(dailyCmd, customCmd)
	dailyCmd.AddCommand(dailyGetCmd, dailySetCmd, dailyClearCmd)
	customCmd.AddCommand(customGetCmd, customSetCmd, customClearCmd)
}

func doJSON(method, path string, body []byte, v any) error {
	var reqBody *bytes.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	} else {
		reqBody = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, apiAddr+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		var env struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Error == "" {
			return fmt.Errorf("%s %s: %s", method, path, resp.Status)
		}
		return fmt.Errorf("%s", env.Error)
	}
	if v == nil {
		return nil
	}
	return decodeEnvelope(resp, v)
}

func parseDailyArgs(args []string) ([]relay.DailyEvent, error) {
	events := make([]relay.DailyEvent, 0, len(args))
	for _, a := range args {
		t, s, ok := splitOnEquals(a)
		if !ok {
			return nil, fmt.Errorf("malformed event %q, expected HH:MM=state", a)
		}
		state, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("malformed state in %q: %w", a, err)
		}
		events = append(events, relay.DailyEvent{Time: t, State: state})
	}
	return events, nil
}

func parseCustomArgs(args []string) ([]relay.CustomEvent, error) {
	events := make([]relay.CustomEvent, 0, len(args))
	for _, a := range args {
		dt, s, ok := splitOnEquals(a)
		if !ok {
			return nil, fmt.Errorf("malformed event %q, expected datetime=state", a)
		}
		state, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("malformed state in %q: %w", a, err)
		}
		events = append(events, relay.CustomEvent{DateTime: dt, State: state})
	}
	return events, nil
}

func splitOnEquals(s string) (head, tail string, ok bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '=' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func printEvents(events []relay.DailyEvent) {
	for _, ev := range events {
		fmt.Printf("%s=%d\n", ev.Time, ev.State)
	}
}

func printCustomEvents(events []relay.CustomEvent) {
	for _, ev := range events {
		fmt.Printf("%s=%d\n", ev.DateTime, ev.State)
	}
}
