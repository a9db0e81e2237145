package api

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kidcreatives/kidcreatives/internal/gallery"
	"github.com/kidcreatives/kidcreatives/internal/storage"
	"github.com/kidcreatives/kidcreatives/internal/workflow"
)

// defaultChildName signs certificates when no name is provided.
const defaultChildName = "Young Creator"

// galleryHandler persists finished creations and serves them back.
type galleryHandler struct {
	service *workflow.Service
	store   *gallery.Store
	blobs   *storage.Blobs
	logger  *slog.Logger
}

type saveRequest struct {
	ChildName string `json:"childName"`
	// PromptCard is an optional browser-rendered card image (base64 PNG)
	// stored alongside the creation.
	PromptCard string `json:"promptCard,omitempty"`
}

// save snapshots the current trophy-phase session into the gallery:
// certificate and thumbnail rendering, blob uploads and the database
// record all happen here.
func (h *galleryHandler) save(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "owner_required", "visitor identity missing", h.logger)
		return
	}

	var req saveRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.ChildName == "" {
		req.ChildName = defaultChildName
	}

	var promptCard []byte
	if req.PromptCard != "" {
		card, err := base64.StdEncoding.DecodeString(req.PromptCard)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_input", "promptCard must be base64", h.logger)
			return
		}
		promptCard = card
	}

	data, stats, err := h.service.TrophyData(owner)
	if err != nil {
		if errors.Is(err, workflow.ErrWrongPhase) {
			writeError(w, http.StatusConflict, "wrong_phase", err.Error(), h.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "save_failed", "failed to save creation", h.logger)
		return
	}

	item, err := h.store.SaveCreation(r.Context(), owner, gallery.SaveInput{
		OriginalImage: data.OriginalImage,
		RefinedImage:  data.RefinedImage,
		PromptCard:    promptCard,
		ChildName:     req.ChildName,
		PromptState:   data.PromptState,
		Stats:         *stats,
	})
	if err != nil {
		h.logger.Error("save creation failed", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, "save_failed", "failed to save creation", h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *galleryHandler) list(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "owner_required", "visitor identity missing", h.logger)
		return
	}

	items, err := h.store.ListCreations(r.Context(), owner)
	if err != nil {
		h.logger.Error("list creations failed", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "failed to load gallery", h.logger)
		return
	}
	if items == nil {
		items = []gallery.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *galleryHandler) get(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	item, err := h.store.GetCreation(r.Context(), owner, id)
	if err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "creation not found", h.logger)
			return
		}
		h.logger.Error("get creation failed", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, "get_failed", "failed to load creation", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *galleryHandler) delete(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteCreation(r.Context(), owner, id); err != nil {
		if errors.Is(err, gallery.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "creation not found", h.logger)
			return
		}
		h.logger.Error("delete creation failed", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, "delete_failed", "failed to delete creation", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// blobContentTypes maps the stored artifact names to their MIME types.
var blobContentTypes = map[string]string{
	storage.BlobOriginal:    "image/png",
	storage.BlobRefined:     "image/png",
	storage.BlobThumbnail:   "image/jpeg",
	storage.BlobCertificate: "application/pdf",
	storage.BlobPromptCard:  "image/png",
}

// file streams one stored artifact (image, thumbnail or certificate).
func (h *galleryHandler) file(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	name := r.PathValue("name")
	contentType, known := blobContentTypes[name]
	if !known {
		writeError(w, http.StatusNotFound, "not_found", "unknown file", h.logger)
		return
	}

	data, err := h.blobs.Get(owner, id, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "file not found", h.logger)
			return
		}
		h.logger.Error("read blob failed", "owner", owner, "name", name, "error", err)
		writeError(w, http.StatusInternalServerError, "read_failed", "failed to read file", h.logger)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	_, _ = w.Write(data)
}

func (h *galleryHandler) ownerAndID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	owner, ok := ownerIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "owner_required", "visitor identity missing", h.logger)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid creation ID", h.logger)
		return uuid.Nil, uuid.Nil, false
	}
	return owner, id, true
}
