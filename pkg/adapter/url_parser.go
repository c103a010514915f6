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

package adapter

import (
	"fmt"
	neturl "net/url"
	"strings"
)

// NormalizeBaseURL validates the base URL a CLI command was given for a
// running gateway's HTTP API (the --api flag) and returns it with any
// trailing slash trimmed, so callers can safely concatenate a path. It
// rejects anything that isn't an absolute http(s) URL up front, rather
// than letting a malformed --api value surface as a confusing dial error
// on the first request.
func NormalizeBaseURL(raw string) (string, error) {
	parsed, err := neturl.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse api address: %w", err)
	}
	if !parsed.IsAbs() {
		return "", fmt.Errorf("api address %q must be an absolute URL", raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("invalid scheme in api address %q: %s", raw, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("api address %q is missing a host", raw)
	}
	return strings.TrimSuffix(parsed.String(), "/"), nil
}
