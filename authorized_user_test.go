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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeUserCredentials(t *testing.T, contents string) {
	t.Helper()
	configDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	gcloudDir := filepath.Join(configDir, "gcloud")
	if err := os.MkdirAll(gcloudDir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(gcloudDir, "application_default_credentials.json"), []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestAuthorizedUser_RefreshToken(t *testing.T) {
	writeUserCredentials(t, `{
		"type": "authorized_user",
		"client_id": "123456789.apps.googleusercontent.com",
		"client_secret": "shhhh",
		"quota_project_id": "fake_project",
		"refresh_token": "refreshing"
	}`)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Error(err)
		}
		for key, want := range map[string]string{
			"grant_type":    "refresh_token",
			"client_id":     "123456789.apps.googleusercontent.com",
			"client_secret": "shhhh",
			"refresh_token": "refreshing",
		} {
			if got := r.Form.Get(key); got != want {
				t.Errorf("%s = %q; want %q", key, got, want)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "user-token", "expires_in": 3600}`))
	}))
	defer ts.Close()
	orig := userTokenURL
	userTokenURL = ts.URL
	defer func() { userTokenURL = orig }()

	user, err := NewAuthorizedUser(ts.Client())
	if err != nil {
		t.Fatal(err)
	}

	if got := user.CachedToken(testScopes); got != nil {
		t.Errorf("CachedToken() before any refresh = %v; want nil", got)
	}
	token, err := user.RefreshToken(context.Background(), testScopes)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := token.Secret(), "user-token"; got != want {
		t.Errorf("Secret() = %q; want %q", got, want)
	}
	// A single token is cached; any scope set is compatible.
	if got := user.CachedToken([]string{"unrelated-scope"}); got != token {
		t.Error("CachedToken() did not return the refreshed token instance")
	}

	projectID, err := user.ProjectID(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if projectID != "fake_project" {
		t.Errorf("ProjectID() = %q; want %q", projectID, "fake_project")
	}
}

func TestAuthorizedUser_NoProjectID(t *testing.T) {
	writeUserCredentials(t, `{
		"type": "authorized_user",
		"client_id": "id",
		"client_secret": "secret",
		"refresh_token": "refreshing"
	}`)
	user, err := NewAuthorizedUser(&http.Client{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := user.ProjectID(context.Background()); err == nil {
		t.Error("got no error; want project ID lookup to fail without a quota project")
	}
}

func TestNewAuthorizedUser_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		if _, err := NewAuthorizedUser(&http.Client{}); err == nil {
			t.Error("got no error; want construction to fail without credentials")
		}
	})
	t.Run("wrong type", func(t *testing.T) {
		writeUserCredentials(t, `{"type": "service_account"}`)
		if _, err := NewAuthorizedUser(&http.Client{}); err == nil {
			t.Error("got no error; want non-user credentials to be rejected")
		}
	})
	t.Run("incomplete", func(t *testing.T) {
		writeUserCredentials(t, `{"type": "authorized_user", "client_id": "id"}`)
		if _, err := NewAuthorizedUser(&http.Client{}); err == nil {
			t.Error("got no error; want incomplete credentials to be rejected")
		}
	})
}
