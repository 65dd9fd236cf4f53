// Copyright 2026 Juicebox Systems, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gcpauth

import (
	"errors"
	"strings"
	"testing"
)

func TestDiscoveryError_CarriesAllCauses(t *testing.T) {
	saErr := errors.New("GOOGLE_APPLICATION_CREDENTIALS is not set")
	userErr := errors.New("no application default credentials")
	mdErr := errors.New("metadata probe timed out")
	cliErr := errors.New("gcloud not on PATH")
	err := &DiscoveryError{
		ServiceAccountKey: saErr,
		AuthorizedUser:    userErr,
		MetadataService:   mdErr,
		GCloudCLI:         cliErr,
	}

	msg := err.Error()
	for _, cause := range []error{saErr, userErr, mdErr, cliErr} {
		if !strings.Contains(msg, cause.Error()) {
			t.Errorf("message %q missing cause %q", msg, cause)
		}
		if !errors.Is(err, cause) {
			t.Errorf("errors.Is(err, %q) = false; want true", cause)
		}
	}
	if got := len(err.Unwrap()); got != 4 {
		t.Errorf("len(Unwrap()) = %d; want 4", got)
	}
}
