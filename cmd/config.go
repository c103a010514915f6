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

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	gwconfig "github.com/skyggedans/ajax-relay-gateway/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the gateway's config file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config (file + env + flags merged)",
	Run: func(_ *cobra.Command, _ []string) {
		b, err := yaml.Marshal(cfg)
		cobra.CheckErr(err)
		fmt.Print(string(b))
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current effective config to the config file",
	Run: func(_ *cobra.Command, _ []string) {
		cobra.CheckErr(gwconfig.Write(cfg))
		path, err := gwconfig.FilePath()
		cobra.CheckErr(err)
		fmt.Printf("Config written to %s\n", path)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
