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
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// expiryDelta is subtracted from a token's expiry when deciding whether it
// can still be used.
//
// The official Python implementation uses 20s and states it should be no
// more than 30s. The official Go implementation uses 10s (0s for the
// metadata server). The metadata server caches tokens until 5 minutes before
// expiry. 20s keeps us on the safe side without discarding tokens wastefully.
const expiryDelta = 20 * time.Second

const redactedPlaceholder = "(redacted)"

// for testing
var timeNow = time.Now

// SecretString holds a secret value.
//
// The value is never rendered by [fmt] verbs or [slog] output, which all
// print "(redacted)"; it is only reachable through [SecretString.Secret].
// Call [SecretString.Destroy] to overwrite the backing memory when the
// secret is no longer needed.
type SecretString struct {
	b []byte
}

// NewSecretString wraps the provided secret.
func NewSecretString(secret string) SecretString {
	return SecretString{b: []byte(secret)}
}

// Secret returns the wrapped plaintext. Calling this method is the explicit
// opt-in to viewing the secret value.
func (s SecretString) Secret() string {
	return string(s.b)
}

// Destroy overwrites the backing memory. Go has no deterministic
// destructors, so owners call this on every exit path once the secret is no
// longer needed. The scrub is best effort: copies produced by
// [SecretString.Secret] are outside its reach.
func (s *SecretString) Destroy() {
	for i := range s.b {
		s.b[i] = 0
	}
	s.b = nil
}

// String implements [fmt.Stringer], redacting the secret.
func (s SecretString) String() string {
	return redactedPlaceholder
}

// GoString implements [fmt.GoStringer], redacting the secret.
func (s SecretString) GoString() string {
	return redactedPlaceholder
}

// LogValue implements [slog.LogValuer], redacting the secret.
func (s SecretString) LogValue() slog.Value {
	return slog.StringValue(redactedPlaceholder)
}

// MarshalJSON implements [json.Marshaler]. The secret is emitted in the
// clear so credential files round-trip; diagnostic paths never go through
// JSON marshaling.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s.b))
}

// UnmarshalJSON implements [json.Unmarshaler].
func (s *SecretString) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s.b = []byte(v)
	return nil
}

// Token represents an access token. All access tokens are Bearer tokens.
//
// Tokens are immutable and cheap to share: every holder of a *Token sees the
// same instance, and "refreshing" always produces a new Token. Callers
// should not cache tokens themselves, the [AuthenticationManager] already
// handles caching correctly.
//
// Neither [fmt] verbs nor [slog] output expose the token value, which is
// only available through [Token.Secret].
type Token struct {
	accessToken SecretString
	expiresAt   time.Time
}

// NewToken constructs a token that expires expiresIn from now.
func NewToken(accessToken string, expiresIn time.Duration) *Token {
	return &Token{
		accessToken: NewSecretString(accessToken),
		expiresAt:   timeNow().Add(expiresIn),
	}
}

// Secret returns the plaintext access token.
func (t *Token) Secret() string {
	return t.accessToken.Secret()
}

// ExpiresAt returns the absolute expiry instant of the token.
func (t *Token) ExpiresAt() time.Time {
	return t.expiresAt
}

// HasExpired reports whether the token can no longer be used. A nil token
// has expired. The check applies a 20 second safety margin so a token that
// passes it can still reasonably be presented instead of expiring right
// after having been checked.
func (t *Token) HasExpired() bool {
	if t == nil {
		return true
	}
	return !timeNow().Before(t.expiresAt.Add(-expiryDelta))
}

// String implements [fmt.Stringer], redacting the token value.
func (t *Token) String() string {
	return fmt.Sprintf("Token{access_token: %s, expires_at: %s}", redactedPlaceholder, t.expiresAt.Format(time.RFC3339))
}

// GoString implements [fmt.GoStringer], redacting the token value.
func (t *Token) GoString() string {
	return t.String()
}

// LogValue implements [slog.LogValuer], redacting the token value.
func (t *Token) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("access_token", redactedPlaceholder),
		slog.Time("expires_at", t.expiresAt),
	)
}

// UnmarshalJSON decodes the token wire shape returned by token endpoints.
// The relative "expires_in" seconds value is converted to an absolute
// instant at decode time.
func (t *Token) UnmarshalJSON(b []byte) error {
	var res struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(b, &res); err != nil {
		return err
	}
	if res.AccessToken == "" {
		return errors.New("gcpauth: token response missing access_token")
	}
	t.accessToken = NewSecretString(res.AccessToken)
	t.expiresAt = timeNow().Add(time.Duration(res.ExpiresIn) * time.Second)
	return nil
}
