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
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log/slog"
)

// Signer produces RSA PKCS#1 v1.5 SHA-256 signatures over arbitrary
// payloads. It is constructed once from a PEM-encoded private key and is
// immutable and safe for concurrent use thereafter.
//
// Diagnostic formatting of a Signer never renders key material.
type Signer struct {
	key *rsa.PrivateKey
}

// NewSigner parses the first private key found in the provided PEM blob.
// Additional keys in the blob are ignored. Construction fails wrapping
// [ErrSignerInit] when the blob holds no private key, is malformed, or the
// key is not an RSA key.
func NewSigner(pemKey []byte) (*Signer, error) {
	var block *pem.Block
	rest := pemKey
	for {
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, fmt.Errorf("%w: no private key found in PEM", ErrSignerInit)
		}
		if block.Type == "PRIVATE KEY" || block.Type == "RSA PRIVATE KEY" {
			break
		}
	}
	key, err := parsePrivateKey(block)
	if err != nil {
		return nil, err
	}
	return &Signer{key: key}, nil
}

func parsePrivateKey(block *pem.Block) (*rsa.PrivateKey, error) {
	switch block.Type {
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSignerInit, err)
		}
		key, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: private key is not an RSA key", ErrSignerInit)
		}
		return key, nil
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSignerInit, err)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("%w: unsupported PEM block type %q", ErrSignerInit, block.Type)
	}
}

// Sign signs the input message and returns the signature. Underlying
// cryptographic failures are reported as [ErrSignerFailed] with no further
// detail.
func (s *Signer) Sign(data []byte) ([]byte, error) {
	h := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, h[:])
	if err != nil {
		return nil, ErrSignerFailed
	}
	return sig, nil
}

// String implements [fmt.Stringer] without rendering key material.
func (s *Signer) String() string {
	return "Signer"
}

// GoString implements [fmt.GoStringer] without rendering key material.
func (s *Signer) GoString() string {
	return "Signer"
}

// LogValue implements [slog.LogValuer] without rendering key material.
func (s *Signer) LogValue() slog.Value {
	return slog.StringValue("Signer")
}
