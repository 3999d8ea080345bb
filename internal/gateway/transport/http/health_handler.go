package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Naude555/watson/internal/gateway/adapters/chatclient"
	"github.com/Naude555/watson/internal/gateway/app"
)

// HealthInfo carries the static settings echoed by /healthz.
type HealthInfo struct {
	AutoReplyEnabled bool
	AutoReplyScope   string
	MessagesFile     string
	MessagesMax      int
	MessagesMemLimit int
}

// HealthHandler reports connectivity, queue depth and cache freshness.
type HealthHandler struct {
	client chatclient.Client
	queue  *app.DeliveryQueue
	groups *app.GroupDirectory
	info   HealthInfo
}

func NewHealthHandler(client chatclient.Client, queue *app.DeliveryQueue, groups *app.GroupDirectory, info HealthInfo) *HealthHandler {
	return &HealthHandler{client: client, queue: queue, groups: groups, info: info}
}

func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Health)
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	groups, updatedAt := h.groups.All()
	respondOK(w, map[string]interface{}{
		"wa": map[string]interface{}{
			"status": h.client.Status(),
		},
		"groupCache": map[string]interface{}{
			"updatedAt": updatedAt,
			"count":     len(groups),
		},
		"queue": map[string]interface{}{
			"pending": h.queue.Depth(),
		},
		"autoReply": map[string]interface{}{
			"enabled": h.info.AutoReplyEnabled,
			"scope":   h.info.AutoReplyScope,
		},
		"messages": map[string]interface{}{
			"storeFile": h.info.MessagesFile,
			"max":       h.info.MessagesMax,
			"memLimit":  h.info.MessagesMemLimit,
		},
	})
}
