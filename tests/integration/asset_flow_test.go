//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrationToAssetCreation(t *testing.T) {
	client := newClient()
	token, _ := setupTestUser(t, client)

	// apiary
	var apiaryResp struct {
		ID string `json:"id"`
	}
	status := doJSON(t, client, http.MethodPost, "/v1/apiaries", token, map[string]interface{}{
		"name": "Integration Yard",
		"type": "stationary",
	}, &apiaryResp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, apiaryResp.ID)

	// hive placed at the apiary
	var hiveResp struct {
		ID string `json:"id"`
	}
	status = doJSON(t, client, http.MethodPost, "/v1/hives", token, map[string]interface{}{
		"name":         "Hive A",
		"apiary_id":    apiaryResp.ID,
		"brood_layers": 2,
	}, &hiveResp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, hiveResp.ID)

	// device on the hive
	var deviceResp struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	status = doJSON(t, client, http.MethodPost, "/v1/devices", token, map[string]interface{}{
		"name":    "Scale 1",
		"key":     "it-scale-1",
		"hive_id": hiveResp.ID,
	}, &deviceResp)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "it-scale-1", deviceResp.Key)

	// inspection on the hive
	var inspectionResp struct {
		ID string `json:"id"`
	}
	status = doJSON(t, client, http.MethodPost, "/v1/inspections", token, map[string]interface{}{
		"hive_id":    hiveResp.ID,
		"impression": 4,
		"notes":      "calm colony",
	}, &inspectionResp)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, inspectionResp.ID)

	// all lists reflect the created assets
	var apiaries struct {
		Apiaries []struct {
			ID string `json:"id"`
		} `json:"apiaries"`
	}
	status = doJSON(t, client, http.MethodGet, "/v1/apiaries", token, nil, &apiaries)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, apiaries.Apiaries, 1)

	var hives struct {
		Hives []struct {
			ID string `json:"id"`
		} `json:"hives"`
	}
	status = doJSON(t, client, http.MethodGet, "/v1/hives", token, nil, &hives)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, hives.Hives, 1)
}

func TestAssetRoutesRequireAuth(t *testing.T) {
	client := newClient()

	for _, path := range []string{"/v1/apiaries", "/v1/hives", "/v1/devices", "/v1/inspections", "/v1/research"} {
		status := doJSON(t, client, http.MethodGet, path, "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, status, "path %s", path)
	}
}
