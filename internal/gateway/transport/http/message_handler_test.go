package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListChatsNewestFirst(t *testing.T) {
	env := newTestEnv(t)

	for _, to := range []string{"0821234560", "0821234561", "0821234562"} {
		rec := doJSON(t, env.router, http.MethodPost, "/send",
			SendTextRequestDTO{To: to, Message: "hi " + to}, apiHeaders())
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, env.router, http.MethodGet, "/admin/messages/chats", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	chats := body["chats"].([]any)
	require.Len(t, chats, 3)
}

func TestChatMessagesSinceFilter(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, env.router, http.MethodPost, "/send",
			SendTextRequestDTO{To: "0821234567", Message: fmt.Sprintf("msg %d", i)}, apiHeaders())
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, env.router, http.MethodGet,
		"/admin/messages/chat/27821234567@s.whatsapp.net", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, float64(3), body["count"])
	latest := int64(body["latestTs"].(float64))
	require.Greater(t, latest, int64(0))

	rec = doJSON(t, env.router, http.MethodGet,
		fmt.Sprintf("/admin/messages/chat/27821234567@s.whatsapp.net?since=%d", latest), nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(0), body["count"])
	// The cursor holds its position when nothing new arrived.
	assert.Equal(t, float64(latest), body["latestTs"])
}

func TestChatMessagesLimitClamped(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.router, http.MethodGet,
		"/admin/messages/chat/27821234567@s.whatsapp.net?limit=5000", nil, adminHeaders())
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(0), body["count"])
}
