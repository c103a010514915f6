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
	"net/http"
	"time"

	ansi "github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var waitTimeoutSec int

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Block until the gateway reports a connected relay",
	Run: func(_ *cobra.Command, _ []string) {
		cobra.CheckErr(waitForConnected(time.Duration(waitTimeoutSec) * time.Second))
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().IntVar(&waitTimeoutSec, "timeout", 60, "Max. number of seconds to wait")
}

func waitForConnected(timeout time.Duration) error {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(ansi.NewAnsiStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("waiting for relay connection"),
		progressbar.OptionSpinnerType(14),
	)
	defer fmt.Fprintln(ansi.NewAnsiStderr())

	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %s waiting for relay connection", timeout)
		}
		resp, err := http.Get(apiAddr + "/api/v1/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		_ = bar.Add(1)
		time.Sleep(500 * time.Millisecond)
	}
}
