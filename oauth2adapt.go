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

	"golang.org/x/oauth2"
)

// TokenSource returns an [oauth2.TokenSource] backed by the manager, so it
// plugs into clients built on [golang.org/x/oauth2]. The provided context is
// used for every token fetch made through the adapter.
//
// Do not wrap the result in [oauth2.ReuseTokenSource]: the manager already
// caches and refreshes correctly, an extra caching layer would defeat the
// refresh-ahead behavior.
func (m *AuthenticationManager) TokenSource(ctx context.Context, scopes ...string) oauth2.TokenSource {
	return &managerTokenSource{ctx: ctx, manager: m, scopes: scopes}
}

type managerTokenSource struct {
	ctx     context.Context
	manager *AuthenticationManager
	scopes  []string
}

func (ts *managerTokenSource) Token() (*oauth2.Token, error) {
	token, err := ts.manager.GetToken(ts.ctx, ts.scopes)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: token.Secret(),
		TokenType:   "Bearer",
		Expiry:      token.ExpiresAt(),
	}, nil
}
