package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uyho/backend/internal/models"
)

// CourseService is the interface that wraps methods for learner course operations
type CourseService interface {
	// GetCourseForLearner retrieves a course with lessons, questions and the learner's enrollment flags
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "userID" is the ID of the learner.
	//
	// Returns the learner view of the course and an error if any.
	GetCourseForLearner(ctx context.Context, courseID, userID int) (*models.LearnerCourseView, error)
	// Enroll enrolls a learner in a course; enrolling twice returns the existing enrollment
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "userID" is the ID of the learner.
	//
	// Returns the enrollment and an error if any.
	Enroll(ctx context.Context, courseID, userID int) (*models.Enrollment, error)
	// SaveLessonProgress stores a full lesson progress snapshot
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "userID" is the ID of the learner.
	// "req" is the snapshot.
	//
	// Returns the updated enrollment and an error if any.
	SaveLessonProgress(ctx context.Context, courseID, userID int, req *models.LessonProgressRequest) (*models.Enrollment, error)
	// SaveSlideProgress stores a full slide progress snapshot
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "userID" is the ID of the learner.
	// "req" is the snapshot.
	//
	// Returns the updated enrollment and an error if any.
	SaveSlideProgress(ctx context.Context, courseID, userID int, req *models.SlideProgressRequest) (*models.Enrollment, error)
}

// CourseHandler handles HTTP requests for course enrollment and progress
type CourseHandler struct {
	BaseHandler
	service CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(svc CourseService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all course handler routes
func (h *CourseHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/courses/{id}", h.GetCourse)
		r.Post("/courses/{id}/enroll", h.Enroll)
		r.Put("/courses/{id}/progress", h.SaveLessonProgress)
		r.Put("/courses/{id}/slide-progress", h.SaveSlideProgress)
	})
}

// GetCourse handles GET /courses/{id}
// @Summary Get a course for the learner
// @Description Get a course with lessons, quiz questions and the caller's enrollment flags in one read
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param userId query int false "Learner ID; must match the authenticated user"
// @Success 200 {object} models.LearnerCourseView
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.service.GetCourseForLearner(r.Context(), courseID, userID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to get course")
		return
	}

	h.RespondJSON(w, http.StatusOK, view)
}

// Enroll handles POST /courses/{id}/enroll
// @Summary Enroll in a course
// @Description Enroll the caller in a course. Enrolling twice returns the existing enrollment.
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body models.EnrollRequest false "Enrollment request"
// @Success 200 {object} models.Enrollment
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{id}/enroll [post]
func (h *CourseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}
	courseID, ok := h.courseID(w, r)
	if !ok {
		return
	}

	// the body is optional
	var req models.EnrollRequest
	if err := decodeOptional(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !h.sameLearner(w, req.LearnerID, userID) {
		return
	}

	enrollment, err := h.service.Enroll(r.Context(), courseID, userID)
	if err != nil {
		h.RespondServiceError(w, err, "failed to enroll")
		return
	}

	h.RespondJSON(w, http.StatusOK, enrollment)
}

// SaveLessonProgress handles PUT /courses/{id}/progress
// @Summary Save lesson progress
// @Description Replace the caller's completed lesson set. Progress is recomputed from the set.
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body models.LessonProgressRequest true "Progress snapshot"
// @Success 200 {object} models.Enrollment
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 409 {object} map[string]string "Not enrolled or slide based course"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{id}/progress [put]
func (h *CourseHandler) SaveLessonProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}
	courseID, ok := h.courseID(w, r)
	if !ok {
		return
	}

	var req models.LessonProgressRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.sameLearner(w, req.LearnerID, userID) {
		return
	}

	enrollment, err := h.service.SaveLessonProgress(r.Context(), courseID, userID, &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to save lesson progress")
		return
	}

	h.RespondJSON(w, http.StatusOK, enrollment)
}

// SaveSlideProgress handles PUT /courses/{id}/slide-progress
// @Summary Save slide progress
// @Description Replace the caller's slide cursor. Stored progress never decreases and completion is sticky.
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body models.SlideProgressRequest true "Progress snapshot"
// @Success 200 {object} models.Enrollment
// @Failure 400 {object} map[string]string "Bad request"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 409 {object} map[string]string "Not enrolled or lesson based course"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{id}/slide-progress [put]
func (h *CourseHandler) SaveSlideProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}
	courseID, ok := h.courseID(w, r)
	if !ok {
		return
	}

	var req models.SlideProgressRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.sameLearner(w, req.LearnerID, userID) {
		return
	}

	enrollment, err := h.service.SaveSlideProgress(r.Context(), courseID, userID, &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to save slide progress")
		return
	}

	h.RespondJSON(w, http.StatusOK, enrollment)
}

// decodeOptional decodes a JSON body that may be empty
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
