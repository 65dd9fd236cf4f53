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

// Package jwt implements the bare minimum of JSON Web Signature encoding
// needed to build signed bearer assertions.
package jwt

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// HeaderAlgRSA256 is the RS256 JWA value.
	HeaderAlgRSA256 = "RS256"
	// HeaderType is the standard JWT header type.
	HeaderType = "JWT"
)

// Signer produces a signature over the given bytes. It is satisfied by the
// root package's RSA signer.
type Signer interface {
	Sign(data []byte) ([]byte, error)
}

// Header represents a JWT header.
type Header struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ"`
	KeyID     string `json:"kid,omitempty"`
}

// Claims represents the claims set of a JWT.
type Claims struct {
	Iss   string `json:"iss"`
	Scope string `json:"scope,omitempty"`
	Exp   int64  `json:"exp"`
	Iat   int64  `json:"iat"`
	Aud   string `json:"aud"`
	Sub   string `json:"sub,omitempty"`
	// AdditionalClaims contains any additional non-standard JWT claims.
	AdditionalClaims map[string]interface{} `json:"-"`
}

// MarshalJSON implements [json.Marshaler], folding AdditionalClaims into the
// top-level object. Additional claims may not collide with standard claims.
func (c *Claims) MarshalJSON() ([]byte, error) {
	type aliasClaims Claims
	b, err := json.Marshal((*aliasClaims)(c))
	if err != nil {
		return nil, err
	}
	if len(c.AdditionalClaims) == 0 {
		return b, nil
	}
	var merged map[string]interface{}
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range c.AdditionalClaims {
		if _, ok := merged[k]; ok {
			return nil, fmt.Errorf("jwt: claim %q collides with a standard claim", k)
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON implements [json.Unmarshaler], collecting non-standard
// top-level members into AdditionalClaims.
func (c *Claims) UnmarshalJSON(b []byte) error {
	type aliasClaims Claims
	if err := json.Unmarshal(b, (*aliasClaims)(c)); err != nil {
		return err
	}
	var all map[string]interface{}
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, std := range []string{"iss", "scope", "exp", "iat", "aud", "sub"} {
		delete(all, std)
	}
	if len(all) > 0 {
		c.AdditionalClaims = all
	}
	return nil
}

// EncodeJWS encodes the header and claims, signs the result with the
// provided signer and returns the compact serialization.
func EncodeJWS(header *Header, c *Claims, signer Signer) (string, error) {
	head, err := json.Marshal(header)
	if err != nil {
		return "", err
	}
	claims, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	ss := base64.RawURLEncoding.EncodeToString(head) + "." + base64.RawURLEncoding.EncodeToString(claims)
	sig, err := signer.Sign([]byte(ss))
	if err != nil {
		return "", err
	}
	return ss + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// DecodeJWS decodes a claim set from a serialized JWS payload. The signature
// is not checked, use [VerifyJWS] for that.
func DecodeJWS(payload string) (*Claims, error) {
	s := strings.Split(payload, ".")
	if len(s) < 2 {
		return nil, errors.New("jwt: invalid token received")
	}
	decoded, err := base64.RawURLEncoding.DecodeString(s[1])
	if err != nil {
		return nil, err
	}
	c := &Claims{}
	if err := json.Unmarshal(decoded, c); err != nil {
		return nil, err
	}
	return c, nil
}

// VerifyJWS tests whether the provided token was signed by the private
// counterpart of key.
func VerifyJWS(token string, key *rsa.PublicKey) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return errors.New("jwt: invalid token received, token must have 3 parts")
	}
	signedContent := parts[0] + "." + parts[1]
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return err
	}
	h := sha256.Sum256([]byte(signedContent))
	return rsa.VerifyPKCS1v15(key, crypto.SHA256, h[:], signature)
}
