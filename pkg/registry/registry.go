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

// Package registry holds a single process-wide *relay.Gateway, a
// singleton-lookup convenience for code that has no constructor path to
// thread it through. Dependency injection — passing the *relay.Gateway
// explicitly, as cmd/serve.go and pkg/httpapi do — remains the primary
// wiring path; this package only exists for callers that genuinely have
// no constructor to thread it through, such as a future build-tag-gated
// adapter wired up via init().
package registry

import "github.com/skyggedans/ajax-relay-gateway/pkg/relay"

var current *relay.Gateway

// Set installs the process-wide Gateway. cmd/serve.go calls this once
// after constructing the Gateway and before starting any adapter that
// looks it up via Get.
func Set(gw *relay.Gateway) {
	current = gw
}

// Get returns the process-wide Gateway, or nil if Set has not been
// called yet.
func Get() *relay.Gateway {
	return current
}
