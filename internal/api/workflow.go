package api

import (
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/kidcreatives/kidcreatives/internal/prompt"
	"github.com/kidcreatives/kidcreatives/internal/workflow"
)

// workflowHandler exposes the five-phase creative session over JSON.
type workflowHandler struct {
	service *workflow.Service
	logger  *slog.Logger
}

// imagePayload carries artwork to the browser as base64, mirroring the
// inline-data shape of the generation API.
type imagePayload struct {
	Image    string `json:"image"`
	MIMEType string `json:"mimeType"`
}

func toImagePayload(img *workflow.Image) imagePayload {
	return imagePayload{
		Image:    base64.StdEncoding.EncodeToString(img.Data),
		MIMEType: img.MIMEType,
	}
}

// handshake accepts the drawing upload (multipart: image file + intent
// field), runs vision analysis and opens the prompt builder.
func (h *workflowHandler) handshake(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "owner_required", "visitor identity missing", h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, workflow.MaxUploadBytes+64*1024)
	if err := r.ParseMultipartForm(workflow.MaxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload_too_large", "image exceeds the 5 MB limit", h.logger)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image_required", "image file is required", h.logger)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "image_unreadable", "could not read uploaded image", h.logger)
		return
	}

	status, err := h.service.Handshake(r.Context(), owner, image, r.FormValue("intent"))
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// status reports the current phase snapshot with guard evaluation
// applied.
func (h *workflowHandler) status(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "owner_required", "visitor identity missing", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, h.service.CurrentStatus(owner))
}

func (h *workflowHandler) questions(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "owner_required", "visitor identity missing", h.logger)
		return
	}

	views, err := h.service.Questions(r.Context(), owner)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": views})
}

type answerRequest struct {
	Variable      prompt.Variable      `json:"variable"`
	Question      string               `json:"question"`
	Answer        string               `json:"answer"`
	ColorCategory prompt.ColorCategory `json:"colorCategory"`
}

func (h *workflowHandler) answer(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "owner_required", "visitor identity missing", h.logger)
		return
	}

	var req answerRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	status, err := h.service.Answer(r.Context(), owner, req.Variable, req.Question, req.Answer, req.ColorCategory)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *workflowHandler) generate(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "owner_required", "visitor identity missing", h.logger)
		return
	}

	img, err := h.service.Generate(r.Context(), owner)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toImagePayload(img))
}

type editRequest struct {
	Instruction string `json:"instruction"`
}

func (h *workflowHandler) edit(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "owner_required", "visitor identity missing", h.logger)
		return
	}

	var req editRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	res, err := h.service.Edit(r.Context(), owner, req.Instruction)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"image":   toImagePayload(&res.Image),
		"history": res.History,
	})
}

type finalizeRequest struct {
	SkipRefinement bool `json:"skipRefinement"`
}

func (h *workflowHandler) finalize(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "owner_required", "visitor identity missing", h.logger)
		return
	}

	var req finalizeRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	stats, err := h.service.Finalize(r.Context(), owner, req.SkipRefinement)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (h *workflowHandler) back(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "owner_required", "visitor identity missing", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Back(owner))
}

func (h *workflowHandler) reset(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "owner_required", "visitor identity missing", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Reset(owner))
}

// writeWorkflowError maps service errors onto HTTP status codes. Client
// mistakes are 4xx; anything left is an upstream model failure.
func (h *workflowHandler) writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrEmptyIntent),
		errors.Is(err, workflow.ErrEmptyAnswer),
		errors.Is(err, workflow.ErrAnswerTooLong),
		errors.Is(err, workflow.ErrUnsupportedImage):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), h.logger)
	case errors.Is(err, workflow.ErrUploadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "upload_too_large", err.Error(), h.logger)
	case errors.Is(err, workflow.ErrWrongPhase),
		errors.Is(err, workflow.ErrNoGeneratedImage):
		writeError(w, http.StatusConflict, "wrong_phase", err.Error(), h.logger)
	default:
		h.logger.Error("workflow operation failed", "error", err)
		writeError(w, http.StatusBadGateway, "generation_failed", "the image service could not complete the request", h.logger)
	}
}

// decodeJSON reads a bounded JSON body, reporting a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, logger *slog.Logger) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := decodeBody(r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", logger)
		return false
	}
	return true
}
