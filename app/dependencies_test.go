package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synclinehq/syncline/config"
	"github.com/synclinehq/syncline/storage"
	"go.uber.org/zap"
)

func platformTestConfig(url string) *config.Config {
	return &config.Config{
		Environment: "test",
		App: config.AppConfig{
			LoginPath:       "/login",
			RestrictedPaths: []string{"/dashboard", "/admin"},
		},
		Platform: config.PlatformConfig{
			URL:            url,
			AnonKey:        "anon-key",
			ServiceRoleKey: "service-key",
			HTTPTimeout:    5 * time.Second,
		},
	}
}

func TestDependencies_InitStorage(t *testing.T) {
	t.Run("storage client carries the factory's privileged credential", func(t *testing.T) {
		var authHeaders []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeaders = append(authHeaders, r.Header.Get("Authorization"))
			if r.Method == http.MethodGet && r.URL.Path == "/storage/v1/bucket" {
				_, _ = w.Write([]byte(`[]`))
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		cfg := platformTestConfig(srv.URL)
		d := &Dependencies{Config: cfg, Logger: zap.NewNop()}
		d.initAuth(cfg)
		d.initStorage(cfg)

		rec := httptest.NewRecorder()
		d.StorageHandler.HandleStorageCheck(rec, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics/storage", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, authHeaders)
		for _, h := range authHeaders {
			assert.Equal(t, "Bearer service-key", h)
		}
	})

	t.Run("missing service-role key leaves storage unconfigured", func(t *testing.T) {
		cfg := platformTestConfig("https://platform.example.com")
		cfg.Platform.ServiceRoleKey = ""

		d := &Dependencies{Config: cfg, Logger: zap.NewNop()}
		d.initAuth(cfg)
		d.initStorage(cfg)

		rec := httptest.NewRecorder()
		d.StorageHandler.HandleStorageCheck(rec, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics/storage", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var report storage.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, "storage not configured", report.Error)
	})

	t.Run("missing platform URL leaves storage unconfigured", func(t *testing.T) {
		cfg := platformTestConfig("")

		d := &Dependencies{Config: cfg, Logger: zap.NewNop()}
		d.initAuth(cfg)
		d.initStorage(cfg)

		rec := httptest.NewRecorder()
		d.StorageHandler.HandleStorageCheck(rec, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics/storage", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
