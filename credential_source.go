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

import "context"

// CredentialSource is the contract every credential discovery strategy
// implements. One concrete source is chosen permanently for the lifetime of
// an [AuthenticationManager]; the manager coordinates when refreshes happen
// while the source owns the token cache itself.
//
// Implementations must be safe for concurrent use: CachedToken may be called
// by any number of readers while a single RefreshToken call is writing.
type CredentialSource interface {
	// ProjectID returns the cloud project associated with the credential.
	// Strategies that cannot determine a project ID return a descriptive
	// error; that is expected for some of them.
	ProjectID(ctx context.Context) (string, error)

	// CachedToken returns the token last stored for a compatible scope set,
	// or nil if none has ever been fetched. It never blocks and never
	// checks expiry, that is the caller's concern.
	CachedToken(scopes []string) *Token

	// RefreshToken performs the network or process call the strategy
	// requires, stores the result so a subsequent CachedToken returns it,
	// and returns it.
	RefreshToken(ctx context.Context, scopes []string) (*Token, error)
}
