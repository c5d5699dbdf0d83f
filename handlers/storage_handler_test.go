package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synclinehq/syncline/storage"
	"go.uber.org/zap"
)

func newStorageTestHandler(t *testing.T, platform http.HandlerFunc) *StorageHandler {
	t.Helper()

	var client *storage.Client
	if platform != nil {
		server := httptest.NewServer(platform)
		t.Cleanup(server.Close)
		client = storage.NewClient(server.URL, "service-key", 5*time.Second)
	}

	diag := storage.NewDiagnostician(client, zap.NewNop())
	return NewStorageHandler(diag, zap.NewNop())
}

func TestStorageHandler_HandleStorageCheck(t *testing.T) {
	t.Run("healthy storage returns 200 with bucket inventory", func(t *testing.T) {
		handler := newStorageTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
			if r.Method == http.MethodGet && r.URL.Path == "/storage/v1/bucket" {
				_ = json.NewEncoder(w).Encode([]map[string]interface{}{
					{"id": "avatars", "name": "avatars", "public": true},
					{"id": "exports", "name": "exports", "public": false},
				})
				return
			}
			// Bucket creation and the sample upload just succeed.
			w.WriteHeader(http.StatusOK)
		})

		rec := httptest.NewRecorder()
		handler.HandleStorageCheck(rec, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics/storage", nil))

		assert.Equal(t, http.StatusOK, rec.Code)

		var report storage.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.True(t, report.Healthy)
		assert.Equal(t, 3, report.BucketCount)
		assert.Contains(t, report.Buckets, "avatars")
		assert.NotEmpty(t, report.Uploaded)
	})

	t.Run("rejected credentials return 500 with a key hint", func(t *testing.T) {
		handler := newStorageTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"statusCode": "403",
				"error":      "Forbidden",
				"message":    "signature verification failed",
			})
		})

		rec := httptest.NewRecorder()
		handler.HandleStorageCheck(rec, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics/storage", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var report storage.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.False(t, report.Healthy)
		assert.Equal(t, "storage rejected the credentials", report.Error)
		assert.Contains(t, report.Details, "signature verification failed")
		assert.Contains(t, report.Hint, "service-role key")
	})

	t.Run("missing service key returns 500 with a config hint", func(t *testing.T) {
		handler := newStorageTestHandler(t, nil)

		rec := httptest.NewRecorder()
		handler.HandleStorageCheck(rec, httptest.NewRequest(http.MethodGet, "/api/v1/diagnostics/storage", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		var report storage.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, "storage not configured", report.Error)
		assert.Contains(t, report.Hint, "PLATFORM_SERVICE_KEY")
	})
}
