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

// Package gcpauth obtains and caches short-lived bearer tokens for Google
// Cloud API access.
//
// An [AuthenticationManager] discovers an applicable credential source,
// exchanges it for tokens and serves them to any number of concurrent
// callers while keeping at most one network refresh in flight.
package gcpauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/googleapis/gax-go/v2/internallog"
	"golang.org/x/sync/semaphore"
)

// refreshAheadWindow is the remaining validity below which a served token
// triggers an opportunistic background refresh.
const refreshAheadWindow = 60 * time.Second

// Options configures an [AuthenticationManager]. The zero value is valid.
type Options struct {
	// Client is the HTTP client shared by the manager and its credential
	// source. Optional.
	Client *http.Client
	// Logger receives structured diagnostics. Token values never appear in
	// log output. Optional.
	Logger *slog.Logger
}

func (o *Options) client() *http.Client {
	if o != nil && o.Client != nil {
		return o.Client
	}
	return &http.Client{}
}

func (o *Options) logger() *slog.Logger {
	if o == nil {
		return internallog.New(nil)
	}
	return internallog.New(o.Logger)
}

// AuthenticationManager caches and obtains tokens for the required scopes.
//
// Construct one with [NewAuthenticationManager] or, for an explicit key
// file, with [NewManagerFromServiceAccount]. A manager is safe for
// concurrent use and is intended to be shared.
type AuthenticationManager struct {
	client *http.Client
	source CredentialSource
	logger *slog.Logger

	// refreshSem guards "a refresh is in progress". Weight 1: the
	// opportunistic path tries it without waiting, the blocking path waits
	// with the caller's context.
	refreshSem *semaphore.Weighted
}

// NewAuthenticationManager finds a credential source to obtain tokens from.
//
// It tries the following strategies, in order, stopping at the first that
// initializes successfully:
//
//  1. Key material from the file named by the GOOGLE_APPLICATION_CREDENTIALS
//     environment variable.
//  2. Developer credentials written by "gcloud auth application-default
//     login" under the user config directory.
//  3. The Google Compute Engine metadata service.
//  4. The gcloud CLI tool, if available on PATH.
//
// If every strategy fails the returned error is a [*DiscoveryError] carrying
// all per-strategy causes. A set GOOGLE_APPLICATION_CREDENTIALS variable
// pointing at unusable key material fails construction immediately; it does
// not fall through to the remaining strategies.
func NewAuthenticationManager(ctx context.Context, opts *Options) (*AuthenticationManager, error) {
	client, logger := opts.client(), opts.logger()

	sa, err := serviceAccountKeyFromEnv(client)
	if err != nil {
		return nil, err
	}
	if sa != nil {
		logger.DebugContext(ctx, "using service account key credentials")
		return build(client, logger, sa), nil
	}
	discoveryErr := &DiscoveryError{
		ServiceAccountKey: fmt.Errorf("gcpauth: %s is not set", envCredentialsFile),
	}

	user, err := NewAuthorizedUser(client)
	if err == nil {
		logger.DebugContext(ctx, "using authorized user credentials")
		return build(client, logger, user), nil
	}
	discoveryErr.AuthorizedUser = err

	md, err := NewMetadataService(ctx, client)
	if err == nil {
		logger.DebugContext(ctx, "using metadata service credentials")
		return build(client, logger, md), nil
	}
	discoveryErr.MetadataService = err

	cli, err := NewGCloudCLI()
	if err == nil {
		logger.DebugContext(ctx, "using gcloud CLI credentials")
		return build(client, logger, cli), nil
	}
	discoveryErr.GCloudCLI = err

	return nil, discoveryErr
}

// NewManagerFromServiceAccount builds a manager around an already
// constructed service account key source, bypassing discovery.
func NewManagerFromServiceAccount(sa *ServiceAccountKey, opts *Options) *AuthenticationManager {
	return build(opts.client(), opts.logger(), sa)
}

func build(client *http.Client, logger *slog.Logger, source CredentialSource) *AuthenticationManager {
	return &AuthenticationManager{
		client:     client,
		source:     source,
		logger:     logger,
		refreshSem: semaphore.NewWeighted(1),
	}
}

// GetToken returns a Bearer token valid for the provided scopes, to be sent
// in an Authorization header as "Bearer {token}".
//
// The common case, a cached token with plenty of validity left, performs no
// locking and no I/O. A cached token within 60 seconds of expiry is still
// returned immediately, but a background refresh is started unless one is
// already in flight. Only when no usable token is cached does the call block:
// it waits for the refresh lock, re-checks the cache in case a concurrent
// refresh completed in the meantime, and otherwise refreshes synchronously,
// propagating the outcome.
func (m *AuthenticationManager) GetToken(ctx context.Context, scopes []string) (*Token, error) {
	if token := m.source.CachedToken(scopes); !token.HasExpired() {
		if validFor := token.ExpiresAt().Sub(timeNow()); validFor < refreshAheadWindow {
			m.logger.DebugContext(ctx, "token expires soon", "valid_for", validFor)
			if m.refreshSem.TryAcquire(1) {
				// The caller's cancellation must not tear down the
				// fire-and-forget refresh.
				go m.backgroundRefresh(context.WithoutCancel(ctx), scopes)
			}
		}
		return token, nil
	}

	m.logger.WarnContext(ctx, "starting blocking refresh of access token")
	if err := m.refreshSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer m.refreshSem.Release(1)

	// A concurrent refresh may have completed while waiting for the lock.
	if token := m.source.CachedToken(scopes); !token.HasExpired() {
		return token, nil
	}
	return m.source.RefreshToken(ctx, scopes)
}

// backgroundRefresh owns one unit of refreshSem and releases it when the
// refresh completes. Its outcome is only logged, never surfaced: if the
// refresh fails the next caller past the token's expiry simply takes the
// blocking path.
func (m *AuthenticationManager) backgroundRefresh(ctx context.Context, scopes []string) {
	defer m.refreshSem.Release(1)
	m.logger.DebugContext(ctx, "starting background refresh of access token")
	token, err := m.source.RefreshToken(ctx, scopes)
	if err != nil {
		m.logger.WarnContext(ctx, "background token refresh failed", "error", err)
		return
	}
	m.logger.DebugContext(ctx, "background token refresh complete", "valid_for", token.ExpiresAt().Sub(timeNow()))
}

// ProjectID returns the project ID for the authenticating account. Not all
// credential sources can provide one.
func (m *AuthenticationManager) ProjectID(ctx context.Context) (string, error) {
	return m.source.ProjectID(ctx)
}
