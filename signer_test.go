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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"testing"
)

func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func pemPKCS8(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func pemPKCS1(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

func TestSigner_SignAndVerify(t *testing.T) {
	key := generateTestKey(t)
	cases := []struct {
		name string
		pem  []byte
	}{
		{name: "PKCS#8", pem: pemPKCS8(t, key)},
		{name: "PKCS#1", pem: pemPKCS1(t, key)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			signer, err := NewSigner(tc.pem)
			if err != nil {
				t.Fatal(err)
			}
			payload := []byte("payload to sign")
			sig, err := signer.Sign(payload)
			if err != nil {
				t.Fatal(err)
			}
			h := sha256.Sum256(payload)
			if err := rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, h[:], sig); err != nil {
				t.Errorf("signature does not verify: %v", err)
			}
		})
	}
}

func TestNewSigner_UsesFirstKey(t *testing.T) {
	first := generateTestKey(t)
	second := generateTestKey(t)
	blob := append(pemPKCS8(t, first), pemPKCS8(t, second)...)

	signer, err := NewSigner(blob)
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte("payload")
	sig, err := signer.Sign(payload)
	if err != nil {
		t.Fatal(err)
	}
	h := sha256.Sum256(payload)
	if err := rsa.VerifyPKCS1v15(&first.PublicKey, crypto.SHA256, h[:], sig); err != nil {
		t.Errorf("signature not made with the first key: %v", err)
	}
}

func TestNewSigner_Errors(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	ecDER, err := x509.MarshalPKCS8PrivateKey(ecKey)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		pem  []byte
	}{
		{name: "empty input", pem: nil},
		{name: "not PEM", pem: []byte("this is not a key")},
		{name: "no private key blocks", pem: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("junk")})},
		{name: "garbage key bytes", pem: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("junk")})},
		{name: "non-RSA key", pem: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: ecDER})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSigner(tc.pem)
			if !errors.Is(err, ErrSignerInit) {
				t.Errorf("NewSigner() error = %v; want ErrSignerInit", err)
			}
		})
	}
}

func TestSigner_Redaction(t *testing.T) {
	signer, err := NewSigner(pemPKCS8(t, generateTestKey(t)))
	if err != nil {
		t.Fatal(err)
	}
	for verb, got := range map[string]string{
		"%v":  fmt.Sprintf("%v", signer),
		"%#v": fmt.Sprintf("%#v", signer),
	} {
		if got != "Signer" {
			t.Errorf("%s = %q; want %q", verb, got, "Signer")
		}
	}
}
