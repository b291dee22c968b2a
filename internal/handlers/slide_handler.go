package handlers

import (
	"context"
	"net/http"
	"os"
	"path"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uyho/backend/internal/models"
)

// SlideService is the interface that wraps methods for slide asset operations
type SlideService interface {
	// Info reports the page or slide count of a slide asset
	//
	// "ctx" is the context for the request.
	// "file" is the asset path relative to the media directory.
	//
	// Returns the slide info and an error if any.
	Info(ctx context.Context, file string) (*models.SlideInfo, error)
	// Open opens a slide asset for download
	//
	// "file" is the asset path relative to the media directory.
	//
	// Returns the open file, which the caller closes, and an error if any.
	Open(file string) (*os.File, error)
}

// SlideHandler handles HTTP requests for slide assets
type SlideHandler struct {
	BaseHandler
	service SlideService
}

// NewSlideHandler creates a new slide handler
func NewSlideHandler(svc SlideService, logger *zap.Logger) *SlideHandler {
	return &SlideHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all slide handler routes
func (h *SlideHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/slides/info", h.Info)
		r.Get("/slides/file", h.Download)
	})
}

// Info handles GET /slides/info
// @Summary Get slide count
// @Description Count the pages of a PDF or the slides of a presentation package
// @Tags slides
// @Produce json
// @Security ApiKeyAuth
// @Param file query string true "Slide asset path"
// @Success 200 {object} models.SlideInfo
// @Failure 400 {object} map[string]string "Invalid slide file"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Slide file not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /slides/info [get]
func (h *SlideHandler) Info(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		h.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}

	info, err := h.service.Info(r.Context(), file)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get slide info")
		return
	}

	h.RespondJSON(w, http.StatusOK, info)
}

// Download handles GET /slides/file
// @Summary Download a slide asset
// @Description Download a slide asset. Range requests are supported.
// @Tags slides
// @Produce application/octet-stream
// @Security ApiKeyAuth
// @Param file query string true "Slide asset path"
// @Param Range header string false "Range"
// @Success 200 "File content"
// @Success 206 "Partial file content"
// @Failure 400 {object} map[string]string "Invalid slide file"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Slide file not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /slides/file [get]
func (h *SlideHandler) Download(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		h.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}

	f, err := h.service.Open(file)
	if err != nil {
		h.RespondServiceError(w, err, "failed to open slide file")
		return
	}
	defer f.Close()

	fileInfo, err := f.Stat()
	if err != nil {
		h.Logger.Error("failed to get file info", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to get file info")
		return
	}

	http.ServeContent(w, r, path.Base(file), fileInfo.ModTime(), f)
}
