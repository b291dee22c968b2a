package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uyho/backend/internal/models"
)

// RatingService is the interface that wraps methods for course rating operations
type RatingService interface {
	// Submit creates or updates the learner's rating of a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "userID" is the ID of the learner.
	// "req" is the rating.
	//
	// Returns an error if any.
	Submit(ctx context.Context, courseID, userID int, req *models.RatingRequest) error
	// List retrieves the ratings and the server computed summary of a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "userID" is the ID of the learner whose own rating is returned separately.
	//
	// Returns the ratings and an error if any.
	List(ctx context.Context, courseID, userID int) (*models.RatingsResponse, error)
}

// RatingHandler handles HTTP requests for course ratings
type RatingHandler struct {
	BaseHandler
	service RatingService
}

// NewRatingHandler creates a new rating handler
func NewRatingHandler(svc RatingService, logger *zap.Logger) *RatingHandler {
	return &RatingHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all rating handler routes
func (h *RatingHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/courses/{id}/ratings", h.Submit)
		r.Get("/courses/{id}/ratings", h.List)
	})
}

// Submit handles POST /courses/{id}/ratings
// @Summary Rate a course
// @Description Create or update the caller's 1-5 rating of a course. Enrolled learners only.
// @Tags ratings
// @Accept json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body models.RatingRequest true "Rating"
// @Success 204 "Rating saved"
// @Failure 400 {object} map[string]string "Invalid rating"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Not enrolled"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{id}/ratings [post]
func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}
	courseID, ok := h.courseID(w, r)
	if !ok {
		return
	}

	var req models.RatingRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.sameLearner(w, req.LearnerID, userID) {
		return
	}

	if err := h.service.Submit(r.Context(), courseID, userID, &req); err != nil {
		h.RespondServiceError(w, err, "failed to submit rating")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /courses/{id}/ratings
// @Summary List course ratings
// @Description Get the ratings of a course, the caller's own rating and the average
// @Tags ratings
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param userId query int false "Learner ID; must match the authenticated user"
// @Success 200 {object} models.RatingsResponse
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{id}/ratings [get]
func (h *RatingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}
	courseID, ok := h.courseID(w, r)
	if !ok {
		return
	}

	if raw := r.URL.Query().Get("userId"); raw != "" {
		learnerID, err := strconv.Atoi(raw)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid userId")
			return
		}
		if !h.sameLearner(w, learnerID, userID) {
			return
		}
	}

	resp, err := h.service.List(r.Context(), courseID, userID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to list ratings")
		return
	}

	h.RespondJSON(w, http.StatusOK, resp)
}
