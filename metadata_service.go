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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/compute/metadata"
)

const (
	metadataTokenURI = "instance/service-accounts/default/token"
	metadataProbeURI = "instance/service-accounts/default/email"

	// metadataProbeTimeout bounds the construction-time reachability probe
	// so discovery fails fast off-platform.
	metadataProbeTimeout = time.Second
)

// MetadataService obtains tokens for the default service account from the
// Compute Engine metadata service. A single token is cached; the metadata
// service ignores scope differences for the default account's token
// endpoint beyond restricting the issued scopes.
type MetadataService struct {
	mdClient *metadata.Client

	mu    sync.RWMutex
	token *Token
}

var _ CredentialSource = (*MetadataService)(nil)

// NewMetadataService probes the metadata service and fails when it is not
// reachable, which is the expected outcome anywhere but on Google Cloud
// compute platforms.
func NewMetadataService(ctx context.Context, client *http.Client) (*MetadataService, error) {
	mdClient := metadata.NewClient(client)
	probeCtx, cancel := context.WithTimeout(ctx, metadataProbeTimeout)
	defer cancel()
	if _, err := mdClient.GetWithContext(probeCtx, metadataProbeURI); err != nil {
		return nil, fmt.Errorf("gcpauth: metadata service not reachable: %w", err)
	}
	return &MetadataService{mdClient: mdClient}, nil
}

// ProjectID reads the project ID from the metadata service.
func (s *MetadataService) ProjectID(ctx context.Context) (string, error) {
	projectID, err := s.mdClient.ProjectIDWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("gcpauth: failed to read project ID from metadata service: %w", err)
	}
	return projectID, nil
}

// CachedToken returns the last fetched token.
func (s *MetadataService) CachedToken(scopes []string) *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// RefreshToken fetches a token for the default service account, restricted
// to the provided scopes, and caches it.
func (s *MetadataService) RefreshToken(ctx context.Context, scopes []string) (*Token, error) {
	suffix := metadataTokenURI
	if len(scopes) > 0 {
		v := url.Values{}
		v.Set("scopes", strings.Join(scopes, ","))
		suffix += "?" + v.Encode()
	}
	tokenJSON, err := s.mdClient.GetWithContext(ctx, suffix)
	if err != nil {
		return nil, fmt.Errorf("gcpauth: failed to fetch token from metadata service: %w", err)
	}
	token := &Token{}
	if err := json.Unmarshal([]byte(tokenJSON), token); err != nil {
		return nil, ErrParsing
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return token, nil
}
