package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naude555/watson/internal/gateway/app"
)

func writeUpload(t *testing.T, env *testEnv, name, content string) {
	t.Helper()
	dir := filepath.Join(env.dir, "uploads")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestSignedMediaServing(t *testing.T) {
	env := newTestEnv(t)
	writeUpload(t, env, "in_1_image.jpg", "jpeg-bytes")

	signer := app.NewMediaSigner("media-secret", time.Hour)
	signed := signer.SignedPath("in_1_image.jpg")

	// No API key required for signed media.
	req := httptest.NewRequest(http.MethodGet, signed, nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg-bytes", rec.Body.String())
}

func TestSignedMediaRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	writeUpload(t, env, "in_1_image.jpg", "jpeg-bytes")

	req := httptest.NewRequest(http.MethodGet, "/media/in_1_image.jpg?exp=99999999999&sig=deadbeef", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminMediaServing(t *testing.T) {
	env := newTestEnv(t)
	writeUpload(t, env, "preview.pdf", "pdf-bytes")

	req := httptest.NewRequest(http.MethodGet, "/admin/media/preview.pdf", nil)
	req.Header.Set("X-Admin-Key", testAdminKey)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pdf-bytes", rec.Body.String())
}

func TestHealthAndMetricsNeedNoKey(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["ok"])

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
