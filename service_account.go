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
	"strings"
	"sync"
	"time"

	"github.com/juicebox-systems/gcp-auth-fork/internal/credsfile"
	"github.com/juicebox-systems/gcp-auth-fork/internal/jwt"
)

// envCredentialsFile names the file holding service account key material.
const envCredentialsFile = "GOOGLE_APPLICATION_CREDENTIALS"

const (
	jwtTokenURL   = "https://oauth2.googleapis.com/token"
	grantTypeJWT  = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionLife = time.Hour
)

// ServiceAccountKey obtains tokens from a service account JSON key: it signs
// JWT-bearer assertions with the key and exchanges them at the key's token
// endpoint. Tokens are cached per scope set.
type ServiceAccountKey struct {
	client *http.Client
	file   *credsfile.ServiceAccountFile
	signer *Signer

	mu     sync.RWMutex
	tokens map[string]*Token
}

var _ CredentialSource = (*ServiceAccountKey)(nil)

// NewServiceAccountKey constructs the source from raw key file JSON.
func NewServiceAccountKey(b []byte, client *http.Client) (*ServiceAccountKey, error) {
	fileType, err := credsfile.ParseFileType(b)
	if err != nil {
		return nil, fmt.Errorf("gcpauth: invalid credentials file: %w", err)
	}
	if fileType != credsfile.ServiceAccountKey {
		return nil, errors.New("gcpauth: credentials file is not a service account key")
	}
	f, err := credsfile.ParseServiceAccount(b)
	if err != nil {
		return nil, fmt.Errorf("gcpauth: invalid service account key: %w", err)
	}
	if f.ClientEmail == "" || f.PrivateKey == "" {
		return nil, errors.New("gcpauth: service account key missing client_email or private_key")
	}
	signer, err := NewSigner([]byte(f.PrivateKey))
	if err != nil {
		return nil, err
	}
	return &ServiceAccountKey{
		client: client,
		file:   f,
		signer: signer,
		tokens: make(map[string]*Token),
	}, nil
}

// ServiceAccountKeyFromFile constructs the source from a key file on disk.
func ServiceAccountKeyFromFile(path string, client *http.Client) (*ServiceAccountKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gcpauth: failed to read credentials file: %w", err)
	}
	return NewServiceAccountKey(b, client)
}

// serviceAccountKeyFromEnv loads the key named by the
// GOOGLE_APPLICATION_CREDENTIALS environment variable, or returns nil if the
// variable is not set.
func serviceAccountKeyFromEnv(client *http.Client) (*ServiceAccountKey, error) {
	path := os.Getenv(envCredentialsFile)
	if path == "" {
		return nil, nil
	}
	return ServiceAccountKeyFromFile(path, client)
}

// Email returns the service account's email address.
func (k *ServiceAccountKey) Email() string {
	return k.file.ClientEmail
}

// Signer returns the signer backed by the key, for callers that need signed
// blobs outside of token exchange.
func (k *ServiceAccountKey) Signer() *Signer {
	return k.signer
}

// ProjectID returns the project the key belongs to.
func (k *ServiceAccountKey) ProjectID(ctx context.Context) (string, error) {
	if k.file.ProjectID == "" {
		return "", errors.New("gcpauth: service account key has no project_id")
	}
	return k.file.ProjectID, nil
}

// CachedToken returns the last token fetched for exactly this scope set.
func (k *ServiceAccountKey) CachedToken(scopes []string) *Token {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.tokens[scopeKey(scopes)]
}

// RefreshToken exchanges a freshly signed assertion for a token and caches
// it under the scope set.
func (k *ServiceAccountKey) RefreshToken(ctx context.Context, scopes []string) (*Token, error) {
	assertion, err := k.assertion(scopes)
	if err != nil {
		return nil, err
	}
	v := url.Values{}
	v.Set("grant_type", grantTypeJWT)
	v.Set("assertion", assertion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.tokenURL(), strings.NewReader(v.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	token := &Token{}
	resp, err := k.client.Do(req)
	if err := decodeJSONResponse(resp, err, token); err != nil {
		return nil, err
	}

	k.mu.Lock()
	k.tokens[scopeKey(scopes)] = token
	k.mu.Unlock()
	return token, nil
}

func (k *ServiceAccountKey) assertion(scopes []string) (string, error) {
	now := timeNow()
	claims := &jwt.Claims{
		Iss:   k.file.ClientEmail,
		Scope: strings.Join(scopes, " "),
		Aud:   k.tokenURL(),
		Exp:   now.Add(assertionLife).Unix(),
		Iat:   now.Unix(),
	}
	header := &jwt.Header{
		Algorithm: jwt.HeaderAlgRSA256,
		Type:      jwt.HeaderType,
		KeyID:     k.file.PrivateKeyID,
	}
	return jwt.EncodeJWS(header, claims, k.signer)
}

func (k *ServiceAccountKey) tokenURL() string {
	if k.file.TokenURL != "" {
		return k.file.TokenURL
	}
	return jwtTokenURL
}

func scopeKey(scopes []string) string {
	return strings.Join(scopes, " ")
}
