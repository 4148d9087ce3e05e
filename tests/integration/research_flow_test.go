//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createResearch provisions a study via the admin API.
func createResearch(t *testing.T, client *http.Client, name string) string {
	t.Helper()

	var resp struct {
		ID string `json:"id"`
	}
	status := doJSON(t, client, http.MethodPost, "/v1/research", adminToken, map[string]interface{}{
		"name":       name,
		"start_date": time.Now().AddDate(0, 0, -14).UTC().Format(time.RFC3339),
		"end_date":   time.Now().AddDate(0, 0, 14).UTC().Format(time.RFC3339),
	}, &resp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestConsentToReportFlow(t *testing.T) {
	if adminToken == "" {
		t.Skip("BEEMON_TEST_ADMIN_TOKEN not set")
	}

	client := newClient()
	token, _ := setupTestUser(t, client)
	researchID := createResearch(t, client, fmt.Sprintf("it-study-%d", time.Now().UnixNano()))

	// the user registers a hive before consenting
	var hiveResp struct {
		ID string `json:"id"`
	}
	status := doJSON(t, client, http.MethodPost, "/v1/hives", token, map[string]interface{}{"name": "Report Hive"}, &hiveResp)
	require.Equal(t, http.StatusCreated, status)

	// grant consent
	status = doJSON(t, client, http.MethodPost, "/v1/research/"+researchID+"/consent", token,
		map[string]interface{}{"consent": true}, nil)
	require.Equal(t, http.StatusCreated, status)

	// the user now appears in the granted list
	var users struct {
		Users []struct {
			ID string `json:"id"`
		} `json:"users"`
	}
	status = doJSON(t, client, http.MethodGet, "/v1/research/"+researchID+"/users", adminToken, nil, &users)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, users.Users)

	// the report covers the study range with newest-first buckets
	var report struct {
		UserIDs []string `json:"user_ids"`
		Buckets []struct {
			Date  string `json:"date"`
			Users int64  `json:"users"`
			Hives int64  `json:"hives"`
		} `json:"buckets"`
	}
	status = doJSON(t, client, http.MethodGet, "/v1/research/"+researchID+"/report?user_ids="+users.Users[0].ID, adminToken, nil, &report)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, report.Buckets)
	assert.True(t, report.Buckets[0].Date > report.Buckets[len(report.Buckets)-1].Date, "buckets must be newest first")

	// today's bucket counts the consenting user and their hive
	today := time.Now().UTC().Format("2006-01-02")
	for _, b := range report.Buckets {
		if b.Date == today {
			assert.Equal(t, int64(1), b.Users)
			assert.Equal(t, int64(1), b.Hives)
		}
	}

	// revoking removes future contribution but history stays
	status = doJSON(t, client, http.MethodPost, "/v1/research/"+researchID+"/consent", token,
		map[string]interface{}{"consent": false}, nil)
	require.Equal(t, http.StatusCreated, status)
}

func TestResearchAdminRoutesRejectNonAdmins(t *testing.T) {
	client := newClient()
	token, _ := setupTestUser(t, client)

	status := doJSON(t, client, http.MethodPost, "/v1/research", token, map[string]interface{}{
		"name":       "forbidden",
		"start_date": time.Now().UTC().Format(time.RFC3339),
		"end_date":   time.Now().AddDate(0, 0, 7).UTC().Format(time.RFC3339),
	}, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestResearchListVisibleToUsers(t *testing.T) {
	client := newClient()
	token, _ := setupTestUser(t, client)

	var list struct {
		Research []struct {
			ID string `json:"id"`
		} `json:"research"`
	}
	status := doJSON(t, client, http.MethodGet, "/v1/research", token, nil, &list)
	assert.Equal(t, http.StatusOK, status)
}
