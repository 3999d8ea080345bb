package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Naude555/watson/internal/gateway/app"
)

// MessageHandler serves the chat history endpoints from the in-memory
// message cache.
type MessageHandler struct {
	messages *app.MessageService
	logger   *slog.Logger
}

func NewMessageHandler(messages *app.MessageService, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, logger: logger}
}

func (h *MessageHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/messages/chats", h.ListChats)
	r.Get("/messages/chat/{jid}", h.ChatMessages)
}

func (h *MessageHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	chats := h.messages.Chats(r.Context())
	if len(chats) > 500 {
		chats = chats[:500]
	}
	respondOK(w, map[string]interface{}{"count": len(chats), "chats": chats})
}

// ChatMessages supports incremental polling: since filters on the later
// of ts and statusTs, and latestTs in the response is the next cursor.
func (h *MessageHandler) ChatMessages(w http.ResponseWriter, r *http.Request) {
	jid := chi.URLParam(r, "jid")

	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 1000 {
		limit = 1000
	}
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		since, _ = strconv.ParseInt(v, 10, 64)
	}

	msgs := h.messages.ChatMessages(r.Context(), jid, since, limit)

	latest := since
	if len(msgs) > 0 {
		latest = msgs[len(msgs)-1].LastActivity()
	}
	respondOK(w, map[string]interface{}{
		"chatJid":  jid,
		"count":    len(msgs),
		"latestTs": latest,
		"messages": msgs,
	})
}
