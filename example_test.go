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

package gcpauth_test

import (
	"context"
	"log"
	"net/http"

	gcpauth "github.com/juicebox-systems/gcp-auth-fork"
)

func ExampleNewAuthenticationManager() {
	ctx := context.Background()
	manager, err := gcpauth.NewAuthenticationManager(ctx, nil)
	if err != nil {
		log.Fatal(err)
	}
	token, err := manager.GetToken(ctx, []string{"https://www.googleapis.com/auth/cloud-platform"})
	if err != nil {
		log.Fatal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://cloudresourcemanager.googleapis.com/v1/projects", nil)
	if err != nil {
		log.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Secret())
	// Send the request with your client of choice.
}

func ExampleNewManagerFromServiceAccount() {
	ctx := context.Background()
	sa, err := gcpauth.ServiceAccountKeyFromFile("/path/to/key.json", &http.Client{})
	if err != nil {
		log.Fatal(err)
	}
	manager := gcpauth.NewManagerFromServiceAccount(sa, nil)

	projectID, err := manager.ProjectID(ctx)
	if err != nil {
		log.Fatal(err)
	}
	_ = projectID
}
