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
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/skyggedans/ajax-relay-gateway/pkg/adapter"
	"github.com/skyggedans/ajax-relay-gateway/pkg/relay"
)

var watchStatus bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the gateway's current connection and input state",
	Run: func(_ *cobra.Command, _ []string) {
		if watchStatus {
			cobra.CheckErr(watchStatusStream())
			return
		}
		var snap relay.InputsSnapshot
		cobra.CheckErr(getJSON("/api/v1/inputs", &snap))
		printStatus(relay.StatusMessage{Inputs: snap.States, Connected: snap.Connected})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&watchStatus, "watch", false, "Stream status changes as they happen (SSE)")
}

func getJSON(path string, v any) error {
	resp, err := http.Get(apiAddr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	if env.Error != "" {
		return fmt.Errorf("%s", env.Error)
	}
	return json.Unmarshal(env.Data, v)
}

func printStatus(status relay.StatusMessage) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateColumns = false
	t.Style().Options.DrawBorder = false

	connected := "no"
	if status.Connected {
		connected = "yes"
	}
	t.AppendRows([]table.Row{
		{"Connected", connected},
		{"Observed", humanize.Time(time.Now())},
		{"Inputs", fmt.Sprintf("%v", status.Inputs)},
	})
	fmt.Printf("\n%s\n\n", t.Render())
}

// watchStatusStream subscribes to /sse and reprints the status table on
// every change, reconnecting with backoff on transient errors, via
// pkg/adapter's reconnecting SSE client.
func watchStatusStream() error {
	client := adapter.NewSeeClient(apiAddr+"/sse", adapter.SeeOptions{
		OnEvent: func(ev adapter.SseEvent) {
			var status relay.StatusMessage
			if err := json.Unmarshal([]byte(ev.Data), &status); err != nil {
				return
			}
			printStatus(status)
		},
		OnError: func(err error) {
			fmt.Fprintf(os.Stderr, "stream error: %v\n", err)
		},
	})
	return client.Run(context.Background(), nil)
}
