//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var baseURL = func() string {
	if url := os.Getenv("BEEMON_TEST_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}()

// adminToken holds a bearer token for an administrator account; report and
// research-management tests are skipped without one.
var adminToken = os.Getenv("BEEMON_TEST_ADMIN_TOKEN")

func newClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

// setupTestUser registers a fresh user and returns their access token.
func setupTestUser(t *testing.T, client *http.Client) (string, string) {
	t.Helper()

	email := fmt.Sprintf("it_%d@example.com", time.Now().UnixNano())
	payload := map[string]string{
		"email":        email,
		"password":     "password123",
		"display_name": "Integration Keeper",
	}

	var resp struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	status := doJSON(t, client, http.MethodPost, "/v1/auth/register", "", payload, &resp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, resp.Tokens.AccessToken)

	return resp.Tokens.AccessToken, email
}

// doJSON issues a JSON request and decodes the response body into out when
// out is non-nil. Returns the status code.
func doJSON(t *testing.T, client *http.Client, method, path, token string, payload, out interface{}) int {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}
