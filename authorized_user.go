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
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/juicebox-systems/gcp-auth-fork/internal/credsfile"
)

// userCredentialsFilename is the well-known location, relative to the user
// config directory, where "gcloud auth application-default login" stores
// developer credentials.
const userCredentialsFilename = "gcloud/application_default_credentials.json"

// userTokenURL is a package var for unit test substitution.
var userTokenURL = "https://oauth2.googleapis.com/token"

// AuthorizedUser obtains tokens from local developer credentials via the
// OAuth2 refresh-token grant. All refreshes use the credential's fixed
// scope, so a single token is cached.
type AuthorizedUser struct {
	client *http.Client
	file   *credsfile.UserCredentialsFile

	mu    sync.RWMutex
	token *Token
}

var _ CredentialSource = (*AuthorizedUser)(nil)

// NewAuthorizedUser reads developer credentials from the well-known gcloud
// location. Construction fails when the file is absent or does not hold
// authorized user credentials.
func NewAuthorizedUser(client *http.Client) (*AuthorizedUser, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("gcpauth: failed to locate user config directory: %w", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, userCredentialsFilename))
	if err != nil {
		return nil, fmt.Errorf("gcpauth: failed to read application default credentials: %w", err)
	}
	f, err := credsfile.ParseUserCredentials(b)
	if err != nil {
		return nil, fmt.Errorf("gcpauth: invalid application default credentials: %w", err)
	}
	if f.Type != "authorized_user" {
		return nil, errors.New("gcpauth: application default credentials are not authorized user credentials")
	}
	if f.ClientID == "" || f.ClientSecret == "" || f.RefreshToken == "" {
		return nil, errors.New("gcpauth: application default credentials are incomplete")
	}
	return &AuthorizedUser{client: client, file: f}, nil
}

// ProjectID returns the quota project recorded alongside the credentials,
// if any. Authorized user credentials are not bound to a project, so this
// commonly fails.
func (u *AuthorizedUser) ProjectID(ctx context.Context) (string, error) {
	if u.file.QuotaProjectID == "" {
		return "", errors.New("gcpauth: no project ID available for authorized user credentials")
	}
	return u.file.QuotaProjectID, nil
}

// CachedToken returns the last fetched token. The refresh-token grant does
// not vary by scope, so any scope set is compatible.
func (u *AuthorizedUser) CachedToken(scopes []string) *Token {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.token
}

// RefreshToken performs the refresh-token grant and caches the result.
func (u *AuthorizedUser) RefreshToken(ctx context.Context, scopes []string) (*Token, error) {
	v := url.Values{}
	v.Set("grant_type", "refresh_token")
	v.Set("client_id", u.file.ClientID)
	v.Set("client_secret", u.file.ClientSecret)
	v.Set("refresh_token", u.file.RefreshToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, userTokenURL, strings.NewReader(v.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	token := &Token{}
	resp, err := u.client.Do(req)
	if err := decodeJSONResponse(resp, err, token); err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.token = token
	u.mu.Unlock()
	return token, nil
}
