package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Naude555/watson/internal/gateway/app"
	"github.com/Naude555/watson/internal/gateway/domain"
	"github.com/Naude555/watson/internal/gateway/repository"
)

// ContactHandler manages the admin address book: contacts, group aliases,
// the live group cache and the combined targets view.
type ContactHandler struct {
	contacts repository.ContactRepository
	groups   *app.GroupDirectory
	logger   *slog.Logger
	validate *validator.Validate
}

func NewContactHandler(contacts repository.ContactRepository, groups *app.GroupDirectory, logger *slog.Logger, validate *validator.Validate) *ContactHandler {
	return &ContactHandler{
		contacts: contacts,
		groups:   groups,
		logger:   logger,
		validate: validate,
	}
}

func (h *ContactHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/contacts", h.ListContacts)
	r.Post("/contacts", h.UpsertContact)
	r.Delete("/contacts/{name}", h.DeleteContact)
	r.Post("/groups", h.UpsertGroupAlias)
	r.Delete("/groups/{name}", h.DeleteGroupAlias)
	r.Post("/groups/refresh", h.RefreshGroups)
	r.Get("/targets", h.ListTargets)
}

func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	book, err := h.contacts.Book(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(w, map[string]interface{}{
		"updatedAt": book.UpdatedAt,
		"contacts":  book.Contacts,
		"groups":    book.Groups,
	})
}

func (h *ContactHandler) UpsertContact(w http.ResponseWriter, r *http.Request) {
	var reqDTO ContactRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.Struct(reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "name and a msisdn or jid are required")
		return
	}

	contact := domain.Contact{
		Name:   strings.TrimSpace(reqDTO.Name),
		MSISDN: strings.TrimSpace(reqDTO.MSISDN),
		JID:    strings.TrimSpace(reqDTO.JID),
		Tags:   reqDTO.Tags,
	}
	if contact.JID == "" && contact.MSISDN != "" {
		jid, err := app.ToUserJID(contact.MSISDN)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		contact.JID = jid
	}

	book, err := h.contacts.UpsertContact(r.Context(), contact)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, map[string]interface{}{"updatedAt": book.UpdatedAt, "contact": contact})
}

func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	removed, err := h.contacts.DeleteContact(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(w, map[string]interface{}{"removed": removed})
}

func (h *ContactHandler) UpsertGroupAlias(w http.ResponseWriter, r *http.Request) {
	var reqDTO GroupAliasRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.Struct(reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "name and a group jid are required")
		return
	}

	alias := domain.GroupAlias{
		Name: strings.TrimSpace(reqDTO.Name),
		JID:  strings.TrimSpace(reqDTO.JID),
	}
	book, err := h.contacts.UpsertGroupAlias(r.Context(), alias)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, map[string]interface{}{"updatedAt": book.UpdatedAt})
}

func (h *ContactHandler) DeleteGroupAlias(w http.ResponseWriter, r *http.Request) {
	removed, err := h.contacts.DeleteGroupAlias(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondOK(w, map[string]interface{}{"removed": removed})
}

func (h *ContactHandler) RefreshGroups(w http.ResponseWriter, r *http.Request) {
	count, err := h.groups.Refresh(r.Context())
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	groups, updatedAt := h.groups.All()
	sort.Slice(groups, func(i, j int) bool { return groups[i].Subject < groups[j].Subject })
	respondOK(w, map[string]interface{}{"count": count, "updatedAt": updatedAt, "groups": groups})
}

// targetDTO is one sendable destination in the combined targets view.
type targetDTO struct {
	Type string `json:"type"`
	Name string `json:"name"`
	To   string `json:"to"`
	JID  string `json:"jid,omitempty"`
}

// ListTargets flattens contacts, group aliases and the live group cache
// into one picker-friendly list.
func (h *ContactHandler) ListTargets(w http.ResponseWriter, r *http.Request) {
	book, err := h.contacts.Book(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	contacts := make([]targetDTO, 0, len(book.Contacts))
	for _, c := range book.Contacts {
		to := c.JID
		if to == "" {
			to = c.MSISDN
		}
		contacts = append(contacts, targetDTO{Type: "contact", Name: c.Name, To: to, JID: c.JID})
	}

	aliases := make([]targetDTO, 0, len(book.Groups))
	for _, g := range book.Groups {
		aliases = append(aliases, targetDTO{Type: "group-alias", Name: g.Name, To: g.JID, JID: g.JID})
	}

	cached, updatedAt := h.groups.All()
	waGroups := make([]targetDTO, 0, len(cached))
	for _, g := range cached {
		waGroups = append(waGroups, targetDTO{Type: "wa-group", Name: g.Subject, To: g.JID, JID: g.JID})
	}
	sort.Slice(waGroups, func(i, j int) bool { return waGroups[i].Name < waGroups[j].Name })

	respondOK(w, map[string]interface{}{
		"contacts":            contacts,
		"groupAliases":        aliases,
		"waGroups":            waGroups,
		"groupCacheUpdatedAt": updatedAt,
	})
}
