//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseURL = func() string {
	if url := os.Getenv("BEEMON_TEST_BASE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}()

var adminToken = os.Getenv("BEEMON_TEST_ADMIN_TOKEN")

// TestKeeperFullWorkflow walks the whole product surface: registration,
// asset setup, consent, report and export download.
func TestKeeperFullWorkflow(t *testing.T) {
	if adminToken == "" {
		t.Skip("BEEMON_TEST_ADMIN_TOKEN not set")
	}

	client := &http.Client{Timeout: 30 * time.Second}

	email := fmt.Sprintf("e2e_%d@example.com", time.Now().UnixNano())
	password := "password123"

	// register
	var registered struct {
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	status := do(t, client, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":        email,
		"password":     password,
		"display_name": "E2E Keeper",
	}, &registered)
	require.Equal(t, http.StatusCreated, status)

	// login stamps last_login and returns fresh tokens
	var loggedIn struct {
		User struct {
			LastLogin *time.Time `json:"last_login"`
		} `json:"user"`
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	status = do(t, client, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &loggedIn)
	require.Equal(t, http.StatusOK, status)
	token := loggedIn.Tokens.AccessToken
	require.NotEmpty(t, token)

	// refresh rotates the pair
	var refreshed struct {
		Tokens struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		} `json:"tokens"`
	}
	status = do(t, client, http.MethodPost, "/v1/auth/refresh", "", map[string]string{
		"refresh_token": loggedIn.Tokens.RefreshToken,
	}, &refreshed)
	require.Equal(t, http.StatusOK, status)
	assert.NotEqual(t, loggedIn.Tokens.RefreshToken, refreshed.Tokens.RefreshToken)
	token = refreshed.Tokens.AccessToken

	// build out the keeper's assets
	var apiaryResp struct {
		ID string `json:"id"`
	}
	status = do(t, client, http.MethodPost, "/v1/apiaries", token, map[string]interface{}{
		"name": "E2E Yard",
	}, &apiaryResp)
	require.Equal(t, http.StatusCreated, status)

	var hiveResp struct {
		ID string `json:"id"`
	}
	status = do(t, client, http.MethodPost, "/v1/hives", token, map[string]interface{}{
		"name":      "E2E Hive",
		"apiary_id": apiaryResp.ID,
	}, &hiveResp)
	require.Equal(t, http.StatusCreated, status)

	status = do(t, client, http.MethodPost, "/v1/inspections", token, map[string]interface{}{
		"hive_id":    hiveResp.ID,
		"impression": 3,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	// admin provisions the study
	var study struct {
		ID string `json:"id"`
	}
	status = do(t, client, http.MethodPost, "/v1/research", adminToken, map[string]interface{}{
		"name":       fmt.Sprintf("e2e-study-%d", time.Now().UnixNano()),
		"start_date": time.Now().AddDate(0, 0, -7).UTC().Format(time.RFC3339),
		"end_date":   time.Now().AddDate(0, 0, 7).UTC().Format(time.RFC3339),
	}, &study)
	require.Equal(t, http.StatusCreated, status)

	// the keeper consents
	status = do(t, client, http.MethodPost, "/v1/research/"+study.ID+"/consent", token, map[string]interface{}{
		"consent": true,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	// admin pulls the report
	var report struct {
		Buckets []struct {
			Date  string `json:"date"`
			Users int64  `json:"users"`
		} `json:"buckets"`
	}
	status = do(t, client, http.MethodGet, "/v1/research/"+study.ID+"/report", adminToken, nil, &report)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, report.Buckets)

	// admin downloads the export artifact
	var artifact struct {
		ObjectName  string `json:"object_name"`
		DownloadURL string `json:"download_url"`
		SizeBytes   int64  `json:"size_bytes"`
	}
	status = do(t, client, http.MethodGet, "/v1/research/"+study.ID+"/report?download=true", adminToken, nil, &artifact)
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, artifact.ObjectName)
	assert.NotEmpty(t, artifact.DownloadURL)
	assert.Greater(t, artifact.SizeBytes, int64(0))

	// the presigned URL serves the workbook
	resp, err := client.Get(artifact.DownloadURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func do(t *testing.T, client *http.Client, method, path, token string, payload, out interface{}) int {
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
