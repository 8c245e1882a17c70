package faq

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/thepaulgroup/lead-assistant/internal/http/middleware"
	"github.com/thepaulgroup/lead-assistant/pkg/logging"
)

const maxDatasetBytes = 20 << 20

// Handler exposes dataset management on the admin API.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("faq: handler requires a service")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Upload accepts a multipart form with a "file" part plus "label" and "description" fields.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDatasetBytes)
	if err := r.ParseMultipartForm(maxDatasetBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	createdBy := "admin"
	if claims, ok := middleware.AdminClaimsFromContext(r.Context()); ok && claims.Subject != "" {
		createdBy = claims.Subject
	}

	v, err := h.service.Upload(r.Context(), UploadRequest{
		Label:       r.FormValue("label"),
		Description: r.FormValue("description"),
		CreatedBy:   createdBy,
		Data:        data,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, v)
	case errors.Is(err, ErrInvalidLabel), errors.Is(err, ErrEmptyDataset), errors.Is(err, ErrInvalidDataset):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrVersionExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("dataset upload failed", "error", err)
		http.Error(w, "failed to upload dataset", http.StatusInternalServerError)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	versions, err := h.service.Versions(r.Context())
	if err != nil {
		h.logger.Error("list datasets failed", "error", err)
		http.Error(w, "failed to list datasets", http.StatusInternalServerError)
		return
	}
	if versions == nil {
		versions = []DatasetVersion{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")
	if err := h.service.Activate(r.Context(), label); err != nil {
		if errors.Is(err, ErrVersionNotFound) {
			http.Error(w, "dataset not found", http.StatusNotFound)
			return
		}
		h.logger.Error("activate dataset failed", "error", err, "version", label)
		http.Error(w, "failed to activate dataset", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": label})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
