package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"coreforge/internal/external-adapters/yaml"
)

func newTestServer(t *testing.T, reportPath string) *Server {
	t.Helper()
	return New(Config{
		Repo:       yaml.NewBundleRepository(""),
		ReportPath: reportPath,
	})
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
	require.NotEmpty(t, body["timestamp"])
}

func TestServer_ListBundles(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, http.MethodGet, "/api/bundles")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Bundles []struct {
			Name            string `json:"name"`
			Image           string `json:"image"`
			Entrypoint      string `json:"entrypoint"`
			UsesCredentials bool   `json:"uses_credentials"`
		} `json:"bundles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.GreaterOrEqual(t, len(body.Bundles), 7)

	names := make([]string, 0, len(body.Bundles))
	for _, b := range body.Bundles {
		names = append(names, b.Name)
	}
	require.Contains(t, names, "web-cam-image")
	require.Contains(t, names, "retinanet-fire-detector")
}

func TestServer_GetBundle(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, http.MethodGet, "/api/bundles/web-cam-image")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Name            string `json:"name"`
		Platform        string `json:"platform"`
		Entrypoint      string `json:"entrypoint"`
		UsesCredentials bool   `json:"uses_credentials"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "web-cam-image", body.Name)
	require.Equal(t, "linux/arm64", body.Platform)
	require.Equal(t, "web_cam_image_service.py", body.Entrypoint)
	require.True(t, body.UsesCredentials)
}

func TestServer_GetBundle_NotFound(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, http.MethodGet, "/api/bundles/no-such-bundle")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Dockerfile(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, http.MethodGet, "/api/bundles/web-cam-image/dockerfile")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, "FROM --platform=linux/arm64"), "body: %s", body)
	require.Contains(t, body, `ENTRYPOINT ["python3", "web_cam_image_service.py"]`)
}

func TestServer_Dockerfile_NotFound(t *testing.T) {
	s := newTestServer(t, "")

	rec := doRequest(t, s, http.MethodGet, "/api/bundles/no-such-bundle/dockerfile")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_LatestReport(t *testing.T) {
	t.Run("serves the report", func(t *testing.T) {
		reportPath := filepath.Join(t.TempDir(), "report.json")
		report := `{"id":"abc","successful":2,"failed":0,"skipped":0}`
		require.NoError(t, os.WriteFile(reportPath, []byte(report), 0600))

		s := newTestServer(t, reportPath)
		rec := doRequest(t, s, http.MethodGet, "/api/reports/latest")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "abc", body["id"])
	})

	t.Run("missing file", func(t *testing.T) {
		s := newTestServer(t, filepath.Join(t.TempDir(), "missing.json"))
		rec := doRequest(t, s, http.MethodGet, "/api/reports/latest")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("not configured", func(t *testing.T) {
		s := newTestServer(t, "")
		rec := doRequest(t, s, http.MethodGet, "/api/reports/latest")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("corrupt report", func(t *testing.T) {
		reportPath := filepath.Join(t.TempDir(), "report.json")
		require.NoError(t, os.WriteFile(reportPath, []byte("not json"), 0600))

		s := newTestServer(t, reportPath)
		rec := doRequest(t, s, http.MethodGet, "/api/reports/latest")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
