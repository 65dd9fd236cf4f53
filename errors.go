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
	"fmt"
	"strings"
)

var (
	// ErrSignerInit is wrapped by errors returned when a [Signer] cannot be
	// constructed from the provided key material.
	ErrSignerInit = errors.New("gcpauth: signer initialization failed")
	// ErrSignerFailed is returned when the underlying cryptographic signing
	// operation fails. No further detail is surfaced: signing failures
	// rarely carry actionable information and the failure path must not
	// leak key material.
	ErrSignerFailed = errors.New("gcpauth: signing operation failed")
	// ErrParsing is returned when a response body cannot be decoded. It is
	// deliberately detail-free, the body may contain secret material.
	ErrParsing = errors.New("gcpauth: failed to parse response body")
)

// ConnectionError reports a transport-level failure before a response was
// received.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("gcpauth: connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ServerUnavailableError reports a response with a non-success HTTP status.
type ServerUnavailableError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// Status is the HTTP status line of the response.
	Status string
}

func (e *ServerUnavailableError) Error() string {
	return fmt.Sprintf("gcpauth: server responded with error %s", e.Status)
}

// DiscoveryError is returned by [NewAuthenticationManager] when every
// credential discovery strategy failed. It carries one cause per strategy so
// operators can diagnose which mechanism almost worked.
type DiscoveryError struct {
	// ServiceAccountKey is the reason file-based key material was not used.
	ServiceAccountKey error
	// AuthorizedUser is the failure from the local developer credentials.
	AuthorizedUser error
	// MetadataService is the failure from the metadata service probe.
	MetadataService error
	// GCloudCLI is the failure from the external CLI tool probe.
	GCloudCLI error
}

func (e *DiscoveryError) Error() string {
	var b strings.Builder
	b.WriteString("gcpauth: no credential source found, all discovery strategies failed:")
	fmt.Fprintf(&b, "\n\tservice account key: %v", e.ServiceAccountKey)
	fmt.Fprintf(&b, "\n\tauthorized user: %v", e.AuthorizedUser)
	fmt.Fprintf(&b, "\n\tmetadata service: %v", e.MetadataService)
	fmt.Fprintf(&b, "\n\tgcloud CLI: %v", e.GCloudCLI)
	return b.String()
}

// Unwrap returns the per-strategy causes.
func (e *DiscoveryError) Unwrap() []error {
	return []error{e.ServiceAccountKey, e.AuthorizedUser, e.MetadataService, e.GCloudCLI}
}
