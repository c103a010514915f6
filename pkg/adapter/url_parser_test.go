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

import "testing"

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "valid http URL",
			raw:  "http://localhost:8080",
			want: "http://localhost:8080",
		},
		{
			name: "trailing slash is trimmed",
			raw:  "http://localhost:8080/",
			want: "http://localhost:8080",
		},
		{
			name: "valid https URL",
			raw:  "https://gateway.example.com",
			want: "https://gateway.example.com",
		},
		{
			name:    "missing scheme",
			raw:     "localhost:8080",
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			raw:     "ws://localhost:8080",
			wantErr: true,
		},
		{
			name:    "missing host",
			raw:     "http://",
			wantErr: true,
		},
		{
			name:    "unparseable URL",
			raw:     "http://%zz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBaseURL(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeBaseURL(%q) error = nil, wantErr true", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeBaseURL(%q) unexpected error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
