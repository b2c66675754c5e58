// Package integration provides end-to-end tests against a running
// back-office server. The tests are skipped unless BACKOFFICE_TEST_SERVER
// points at a reachable instance seeded with the configured credentials.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfig holds the configuration for integration tests.
type TestConfig struct {
	BaseURL  string
	Username string
	Password string
}

// getTestConfig reads test configuration from environment variables.
func getTestConfig(t *testing.T) TestConfig {
	t.Helper()
	base := os.Getenv("BACKOFFICE_TEST_SERVER")
	if base == "" {
		t.Skip("BACKOFFICE_TEST_SERVER not set, skipping integration tests")
	}
	return TestConfig{
		BaseURL:  strings.TrimRight(base, "/"),
		Username: getEnv("BACKOFFICE_TEST_USERNAME", "admin"),
		Password: getEnv("BACKOFFICE_TEST_PASSWORD", "password123"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type apiClient struct {
	cfg   TestConfig
	http  *http.Client
	token string
}

func newAPIClient(t *testing.T) *apiClient {
	t.Helper()
	c := &apiClient{
		cfg:  getTestConfig(t),
		http: &http.Client{Timeout: 30 * time.Second},
	}
	c.login(t)
	return c
}

func (c *apiClient) login(t *testing.T) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	})
	resp, err := c.http.Post(c.cfg.BaseURL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	c.token = out.Token
}

func (c *apiClient) do(t *testing.T, method, path string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, c.cfg.BaseURL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.http.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func uniqueSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano()%1_000_000_000)
}

func intakeForm(t *testing.T, suffix string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"vehicleNumber": "MH12T" + suffix[:5],
		"chassisNo":     "ITCH" + suffix,
		"engineNo":      "ITEN" + suffix,
		"vehicleName":   "Integration Scooter",
		"modelYear":     "2022",
		"ownerName":     "Integration Owner",
		"ownerType":     "1st",
		"mobileNo":      "9876543210",
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	cfg := getTestConfig(t)

	resp, err := http.Get(cfg.BaseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestVehicleLifecycle(t *testing.T) {
	client := newAPIClient(t)
	suffix := uniqueSuffix()

	// Intake.
	body, contentType := intakeForm(t, suffix)
	resp := client.do(t, http.MethodPost, "/api/vehicles/in", body, contentType)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeJSON(t, resp)
	vehicle := created["vehicle"].(map[string]interface{})
	id := int64(vehicle["id"].(float64))
	assert.True(t, strings.HasPrefix(vehicle["uniqueId"].(string), "JM-"))

	// It shows up in the listing.
	resp = client.do(t, http.MethodGet, fmt.Sprintf("/api/vehicles?search=ITCH%s", suffix), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decodeJSON(t, resp)
	assert.Len(t, listed["vehicles"].([]interface{}), 1)

	// Sell it.
	var sellBuf bytes.Buffer
	sw := multipart.NewWriter(&sellBuf)
	for k, v := range map[string]string{
		"buyerName": "Integration Buyer",
		"mobileNo":  "9123456789",
		"price":     "42000",
	} {
		require.NoError(t, sw.WriteField(k, v))
	}
	require.NoError(t, sw.Close())
	resp = client.do(t, http.MethodPost, fmt.Sprintf("/api/vehicles/%d/out", id), &sellBuf, sw.FormDataContentType())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sold := decodeJSON(t, resp)
	assert.Equal(t, "out", sold["vehicle"].(map[string]interface{})["status"])

	// The detail PDF is reachable without a token.
	pdfResp, err := http.Get(client.cfg.BaseURL + fmt.Sprintf("/api/export/vehicle/%d/pdf", id))
	require.NoError(t, err)
	pdfData, _ := io.ReadAll(pdfResp.Body)
	pdfResp.Body.Close()
	require.Equal(t, http.StatusOK, pdfResp.StatusCode)
	assert.True(t, bytes.HasPrefix(pdfData, []byte("%PDF")))

	// Clean up.
	resp = client.do(t, http.MethodDelete, fmt.Sprintf("/api/vehicles/%d", id), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestDashboardStats(t *testing.T) {
	client := newAPIClient(t)

	resp := client.do(t, http.MethodGet, "/api/vehicles/stats/dashboard", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeJSON(t, resp)
	summary := body["summary"].(map[string]interface{})
	assert.Contains(t, summary, "totalVehicles")
	assert.Len(t, body["monthlyData"].([]interface{}), 12)
}

func TestExportCSVDownload(t *testing.T) {
	client := newAPIClient(t)

	resp := client.do(t, http.MethodGet, "/api/export/vehicles/csv", nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Unique ID,"))
}
