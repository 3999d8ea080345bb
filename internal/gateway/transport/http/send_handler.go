package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Naude555/watson/internal/gateway/app"
	"github.com/Naude555/watson/internal/gateway/domain"
)

const maxUploadBytes = 32 << 20

// SendHandler exposes the outbound send endpoints. The same handlers
// back the public and admin routes.
type SendHandler struct {
	sender    *app.SendService
	signer    *app.MediaSigner
	uploadDir string
	logger    *slog.Logger
	validate  *validator.Validate
}

func NewSendHandler(sender *app.SendService, signer *app.MediaSigner, uploadDir string, logger *slog.Logger, validate *validator.Validate) *SendHandler {
	return &SendHandler{
		sender:    sender,
		signer:    signer,
		uploadDir: uploadDir,
		logger:    logger,
		validate:  validate,
	}
}

// RegisterRoutes sets up the public send endpoints.
func (h *SendHandler) RegisterRoutes(r chi.Router) {
	r.Post("/send", h.SendText)
	r.Post("/send/image", h.SendImage)
	r.Post("/send/document", h.SendDocument)
}

// RegisterAdminRoutes sets up the admin variants.
func (h *SendHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/send/text", h.SendText)
	r.Post("/send/image", h.SendImage)
	r.Post("/send/document", h.SendDocument)
}

func (h *SendHandler) requireConnected(w http.ResponseWriter) bool {
	if !h.sender.Connected() {
		respondWithError(w, http.StatusServiceUnavailable, "Chat network not connected")
		return false
	}
	return true
}

// respondSendError maps the resolver and queue errors onto statuses. An
// ambiguous group is a 409 carrying the candidate set.
func (h *SendHandler) respondSendError(w http.ResponseWriter, err error) {
	var ambiguous *domain.AmbiguousGroupError
	if errors.As(err, &ambiguous) {
		respondWithJSON(w, http.StatusConflict, map[string]interface{}{
			"ok":      false,
			"error":   ambiguous.Error(),
			"matches": ambiguous.Matches,
		})
		return
	}
	if errors.Is(err, app.ErrQueueFull) {
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondWithError(w, http.StatusBadRequest, err.Error())
}

func (h *SendHandler) SendText(w http.ResponseWriter, r *http.Request) {
	if !h.requireConnected(w) {
		return
	}

	var reqDTO SendTextRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.Struct(reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing to/message")
		return
	}

	res, err := h.sender.Queue(r.Context(), reqDTO.To, domain.Payload{Text: reqDTO.Message}, nil, "txt")
	if err != nil {
		h.respondSendError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{
		"to": res.To, "jid": res.JID, "queued": true, "jobId": res.JobID, "msgId": res.MsgID,
	})
}

func (h *SendHandler) SendImage(w http.ResponseWriter, r *http.Request) {
	if !h.requireConnected(w) {
		return
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.sendUploadedImage(w, r)
		return
	}

	var reqDTO SendImageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.Struct(reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing to or imageUrl")
		return
	}

	payload := domain.Payload{Image: &domain.ImageRef{URL: reqDTO.ImageURL, Caption: reqDTO.Caption}}
	res, err := h.sender.Queue(r.Context(), reqDTO.To, payload, nil, "img")
	if err != nil {
		h.respondSendError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{
		"to": res.To, "jid": res.JID, "queued": true, "jobId": res.JobID, "msgId": res.MsgID,
	})
}

func (h *SendHandler) sendUploadedImage(w http.ResponseWriter, r *http.Request) {
	to, file, header, ok := h.parseUpload(w, r, "image")
	if !ok {
		return
	}
	defer file.Close()

	mimetype := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimetype, "image/") {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type: %s", mimetype))
		return
	}

	localPath, fileName, err := h.saveUpload(file, header.Filename)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to store upload: "+err.Error())
		return
	}

	caption := r.FormValue("caption")
	payload := domain.Payload{Image: &domain.ImageRef{URL: localPath, Caption: caption}}
	media := &domain.Media{
		LocalPath: localPath,
		LocalURL:  h.signer.SignedPath(fileName),
		Mimetype:  mimetype,
		FileName:  fileName,
	}

	res, err := h.sender.Queue(r.Context(), to, payload, media, "img")
	if err != nil {
		h.respondSendError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{
		"to": res.To, "jid": res.JID, "queued": true, "jobId": res.JobID, "msgId": res.MsgID,
		"media": media,
	})
}

var docMimetypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/plain":               true,
	"application/octet-stream": true,
}

func (h *SendHandler) SendDocument(w http.ResponseWriter, r *http.Request) {
	if !h.requireConnected(w) {
		return
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.sendUploadedDocument(w, r)
		return
	}

	var reqDTO SendDocumentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()
	if err := h.validate.Struct(reqDTO); err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing to or documentUrl")
		return
	}

	payload := domain.Payload{Document: &domain.DocumentRef{
		URL:      reqDTO.DocumentURL,
		Mimetype: reqDTO.Mimetype,
		FileName: reqDTO.FileName,
	}}
	res, err := h.sender.Queue(r.Context(), reqDTO.To, payload, nil, "doc")
	if err != nil {
		h.respondSendError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{
		"to": res.To, "jid": res.JID, "queued": true, "jobId": res.JobID, "msgId": res.MsgID,
	})
}

func (h *SendHandler) sendUploadedDocument(w http.ResponseWriter, r *http.Request) {
	to, file, header, ok := h.parseUpload(w, r, "document")
	if !ok {
		return
	}
	defer file.Close()

	mimetype := strings.ToLower(header.Header.Get("Content-Type"))
	if !docMimetypes[mimetype] {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file type: %s", mimetype))
		return
	}

	localPath, fileName, err := h.saveUpload(file, header.Filename)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to store upload: "+err.Error())
		return
	}

	payload := domain.Payload{Document: &domain.DocumentRef{
		URL:      localPath,
		Mimetype: mimetype,
		FileName: fileName,
	}}
	media := &domain.Media{
		LocalPath: localPath,
		LocalURL:  h.signer.SignedPath(fileName),
		Mimetype:  mimetype,
		FileName:  fileName,
	}

	res, err := h.sender.Queue(r.Context(), to, payload, media, "doc")
	if err != nil {
		h.respondSendError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{
		"to": res.To, "jid": res.JID, "queued": true, "jobId": res.JobID, "msgId": res.MsgID,
		"media": media,
	})
}

func (h *SendHandler) parseUpload(w http.ResponseWriter, r *http.Request, field string) (string, multipart.File, *multipart.FileHeader, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return "", nil, nil, false
	}
	to := r.FormValue("to")
	if to == "" {
		respondWithError(w, http.StatusBadRequest, "Missing to")
		return "", nil, nil, false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Missing %s file", field))
		return "", nil, nil, false
	}
	return to, file, header, true
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// saveUpload writes the upload into the media directory under a
// timestamped, sanitized name. Returns the full path and the bare name.
func (h *SendHandler) saveUpload(file multipart.File, originalName string) (string, string, error) {
	safe := unsafeFileChars.ReplaceAllString(filepath.Base(originalName), "_")
	if len(safe) > 120 {
		safe = safe[:120]
	}
	if safe == "" || safe == "." {
		safe = "file"
	}
	fileName := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), safe)

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", "", err
	}
	fullPath := filepath.Join(h.uploadDir, fileName)
	out, err := os.Create(fullPath)
	if err != nil {
		return "", "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		os.Remove(fullPath)
		return "", "", err
	}
	return fullPath, fileName, nil
}
