package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Naude555/watson/internal/gateway/app"
)

// AutomationHandler exposes the automation configuration. The shared
// secret is always masked on the way out.
type AutomationHandler struct {
	automations *app.AutomationService
	logger      *slog.Logger
}

func NewAutomationHandler(automations *app.AutomationService, logger *slog.Logger) *AutomationHandler {
	return &AutomationHandler{automations: automations, logger: logger}
}

func (h *AutomationHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/automations", h.GetConfig)
	r.Post("/automations", h.UpdateConfig)
	r.Post("/automations/chat/{jid}", h.SetChatOverride)
	r.Delete("/automations/chat/{jid}", h.DeleteChatOverride)
}

func (h *AutomationHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]interface{}{"automations": h.automations.Config().Masked()})
}

func (h *AutomationHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	next, err := h.automations.Replace(r.Context(), patch)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, map[string]interface{}{"automations": next.Masked()})
}

func (h *AutomationHandler) SetChatOverride(w http.ResponseWriter, r *http.Request) {
	jid := strings.TrimSpace(chi.URLParam(r, "jid"))
	if jid == "" {
		respondWithError(w, http.StatusBadRequest, "jid required")
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	rule, err := h.automations.SetChatOverride(r.Context(), jid, patch)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, map[string]interface{}{"jid": jid, "rule": rule})
}

func (h *AutomationHandler) DeleteChatOverride(w http.ResponseWriter, r *http.Request) {
	jid := strings.TrimSpace(chi.URLParam(r, "jid"))
	if jid == "" {
		respondWithError(w, http.StatusBadRequest, "jid required")
		return
	}

	removed, err := h.automations.DeleteChatOverride(r.Context(), jid)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(w, map[string]interface{}{"jid": jid, "removed": removed})
}
