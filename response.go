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
	"encoding/json"
	"io"
	"net/http"
)

// maxResponseBytes bounds how much of a token response is read.
const maxResponseBytes = 1 << 20

// decodeJSONResponse consumes a completed HTTP exchange and decodes the body
// into v.
//
// A transport-level failure maps to [*ConnectionError], a non-2xx status to
// [*ServerUnavailableError] and a body that does not decode to [ErrParsing].
// The body is never echoed into an error, it may contain secret material.
func decodeJSONResponse(resp *http.Response, err error, v interface{}) error {
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &ConnectionError{Err: err}
	}
	if c := resp.StatusCode; c < 200 || c > 299 {
		return &ServerUnavailableError{StatusCode: c, Status: resp.Status}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return ErrParsing
	}
	return nil
}
