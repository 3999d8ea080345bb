package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naude555/watson/internal/gateway/adapters/chatclient"
	"github.com/Naude555/watson/internal/gateway/domain"
)

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func apiHeaders() map[string]string {
	return map[string]string{"X-API-Key": testAPIKey}
}

func adminHeaders() map[string]string {
	return map[string]string{"X-Admin-Key": testAdminKey}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSendTextQueuesMessage(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/send",
		SendTextRequestDTO{To: "0821234567", Message: "hello"}, apiHeaders())

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "27821234567@s.whatsapp.net", body["jid"])
	assert.Equal(t, true, body["queued"])
	assert.NotEmpty(t, body["jobId"])
	assert.NotEmpty(t, body["msgId"])
	assert.Equal(t, 1, env.queue.Depth())
}

func TestSendTextRequiresAPIKey(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/send",
		SendTextRequestDTO{To: "0821234567", Message: "hello"}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["ok"])
}

func TestSendTextRejectsMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/send",
		map[string]string{"to": "0821234567"}, apiHeaders())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendTextWhenDisconnected(t *testing.T) {
	env := newTestEnv(t)
	env.client.SetState(chatclient.StateDisconnected)

	rec := doJSON(t, env.router, http.MethodPost, "/send",
		SendTextRequestDTO{To: "0821234567", Message: "hello"}, apiHeaders())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSendTextAmbiguousGroupConflict(t *testing.T) {
	env := newTestEnv(t)
	env.client.SetGroups([]domain.GroupInfo{
		{JID: "120363000000000001@g.us", Subject: "Project Alpha"},
		{JID: "120363000000000002@g.us", Subject: "Project Beta"},
	})
	// Warm the directory through the admin refresh endpoint.
	refresh := doJSON(t, env.router, http.MethodPost, "/admin/groups/refresh", nil, adminHeaders())
	require.Equal(t, http.StatusOK, refresh.Code)

	rec := doJSON(t, env.router, http.MethodPost, "/send",
		SendTextRequestDTO{To: "project", Message: "hello"}, apiHeaders())

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["ok"])
	matches, ok := body["matches"].([]any)
	require.True(t, ok)
	assert.Len(t, matches, 2)
}

func TestSendImageByURL(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/send/image",
		SendImageRequestDTO{To: "0821234567", Caption: "look", ImageURL: "https://example.com/pic.jpg"},
		apiHeaders())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.queue.Depth())
}

func TestSendImageUpload(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("to", "0821234567"))
	require.NoError(t, mw.WriteField("caption", "holiday"))

	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="image"; filename="pic.jpg"`}
	hdr["Content-Type"] = []string{"image/jpeg"}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-jpeg-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/send/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Key", testAPIKey)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	media, ok := body["media"].(map[string]any)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(media["fileName"].(string), "pic.jpg"))
	assert.Contains(t, media["localUrl"].(string), "/media/")
	assert.Equal(t, 1, env.queue.Depth())
}

func TestSendDocumentByURL(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/send/document",
		SendDocumentRequestDTO{To: "0821234567", DocumentURL: "https://example.com/report.pdf", FileName: "report.pdf"},
		apiHeaders())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.queue.Depth())
}

func TestAdminSendTextRequiresAdminKey(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/admin/send/text",
		SendTextRequestDTO{To: "0821234567", Message: "hello"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, env.router, http.MethodPost, "/admin/send/text",
		SendTextRequestDTO{To: "0821234567", Message: "hello"}, adminHeaders())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSendRecordsQueuedMessage(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.router, http.MethodPost, "/send",
		SendTextRequestDTO{To: "0821234567", Message: "hello"}, apiHeaders())
	require.Equal(t, http.StatusOK, rec.Code)

	list := doJSON(t, env.router, http.MethodGet,
		"/admin/messages/chat/27821234567@s.whatsapp.net", nil, adminHeaders())
	require.Equal(t, http.StatusOK, list.Code)
	body := decodeBody(t, list)
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	first := msgs[0].(map[string]any)
	assert.Equal(t, string(domain.MessageStatusQueued), first["status"])
	assert.Equal(t, "out", first["direction"])
}
