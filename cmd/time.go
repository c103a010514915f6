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
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/skyggedans/ajax-relay-gateway/pkg/relay"
)

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Get or set the relay's clock",
}

var timeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the relay's current date/time",
	Run: func(_ *cobra.Command, _ []string) {
		var t relay.TimeReply
		cobra.CheckErr(getJSON("/api/v1/time", &t))
		fmt.Printf("%s %s\n", t.DateTime, t.DayOfWeek)
	},
}

var timeSetCmd = &cobra.Command{
	Use:   "set <RFC3339-or-free-form-timestamp>",
	Short: "Set the relay's clock",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		body, err := json.Marshal(map[string]string{"time": args[0]})
		cobra.CheckErr(err)
		// The device acks no set command, so the gateway replies 204 — there
		// is nothing to decode, only an error (if any) to surface.
		cobra.CheckErr(doJSON(http.MethodPut, "/api/v1/time", body, nil))
		fmt.Println("ok")
	},
}

func init() {
	rootCmd.AddCommand(timeCmd)
	timeCmd.AddCommand(timeGetCmd)
	timeCmd.AddCommand(timeSetCmd)
}

func decodeEnvelope(resp *http.Response, v any) error {
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
