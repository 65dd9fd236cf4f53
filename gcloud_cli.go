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
	"os/exec"
	"strings"
	"sync"
	"time"
)

// gcloudTokenLifetime is assumed for tokens printed by the CLI, which emits
// no expiry. gcloud access tokens are valid for an hour; combined with the
// refresh-ahead window this only risks one early refresh.
const gcloudTokenLifetime = time.Hour

// lookGCloudPath is a package var for unit test substitution.
var lookGCloudPath = func() (string, error) {
	return exec.LookPath("gcloud")
}

// GCloudCLI obtains tokens by shelling out to the gcloud tool of a
// logged-in developer. Scopes are ignored: the CLI always issues its fixed
// cloud-platform scope.
type GCloudCLI struct {
	path string

	mu    sync.RWMutex
	token *Token
}

var _ CredentialSource = (*GCloudCLI)(nil)

// NewGCloudCLI probes for the gcloud executable on PATH.
func NewGCloudCLI() (*GCloudCLI, error) {
	path, err := lookGCloudPath()
	if err != nil {
		return nil, fmt.Errorf("gcpauth: gcloud CLI not found on PATH: %w", err)
	}
	return &GCloudCLI{path: path}, nil
}

// ProjectID returns the CLI's active project configuration.
func (g *GCloudCLI) ProjectID(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, g.path, "config", "get-value", "project").Output()
	if err != nil {
		return "", fmt.Errorf("gcpauth: gcloud config get-value project failed: %w", err)
	}
	projectID := strings.TrimSpace(string(out))
	if projectID == "" || projectID == "(unset)" {
		return "", errors.New("gcpauth: no project configured in gcloud")
	}
	return projectID, nil
}

// CachedToken returns the last fetched token for any scope set.
func (g *GCloudCLI) CachedToken(scopes []string) *Token {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// RefreshToken asks the CLI for a fresh access token and caches it. Command
// output is never included in errors, it may contain the token itself.
func (g *GCloudCLI) RefreshToken(ctx context.Context, scopes []string) (*Token, error) {
	out, err := exec.CommandContext(ctx, g.path, "auth", "print-access-token").Output()
	if err != nil {
		return nil, fmt.Errorf("gcpauth: gcloud auth print-access-token failed: %w", err)
	}
	value := strings.TrimSpace(string(out))
	if value == "" {
		return nil, errors.New("gcpauth: gcloud returned an empty access token")
	}
	token := NewToken(value, gcloudTokenLifetime)

	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
	return token, nil
}
