package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uyho/backend/internal/middleware"
	"github.com/uyho/backend/internal/models"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps a service error to its HTTP status. Unknown errors are logged and hidden.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, err error, msg string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error(msg, zap.Error(err))
		h.RespondError(w, status, "internal server error")
		return
	}
	h.Logger.Debug(msg, zap.Error(err))
	h.RespondError(w, status, err.Error())
}

// StatusFor returns the HTTP status of a service error
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrCourseNotFound),
		errors.Is(err, models.ErrCertificateNotFound),
		errors.Is(err, models.ErrSlideFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotEnrolled),
		errors.Is(err, models.ErrCourseNotCompleted),
		errors.Is(err, models.ErrWrongMode):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidScore),
		errors.Is(err, models.ErrScoreBelowThreshold),
		errors.Is(err, models.ErrInvalidCertificateCode),
		errors.Is(err, models.ErrInvalidRating),
		errors.Is(err, models.ErrReviewTooLong),
		errors.Is(err, models.ErrInvalidProgress),
		errors.Is(err, models.ErrInvalidSlideFile):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// authenticatedUser extracts the user ID placed in the context by the auth middleware
func (h *BaseHandler) authenticatedUser(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.Logger.Error("user ID not found in context")
		h.RespondError(w, http.StatusUnauthorized, "user ID not found in context")
		return 0, false
	}
	return userID, true
}

// courseID parses the {id} URL parameter
func (h *BaseHandler) courseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.RespondError(w, http.StatusBadRequest, "invalid course id")
		return 0, false
	}
	return id, true
}

// sameLearner rejects requests that name another learner; zero means the caller
func (h *BaseHandler) sameLearner(w http.ResponseWriter, learnerID, userID int) bool {
	if learnerID != 0 && learnerID != userID {
		h.Logger.Warn("learner does not match token", zap.Int("learner_id", learnerID), zap.Int("user_id", userID))
		h.RespondError(w, http.StatusForbidden, models.ErrForbidden.Error())
		return false
	}
	return true
}

// decode reads a JSON request body
func (h *BaseHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.Logger.Debug("invalid request body", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
