package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uyho/backend/internal/middleware"
	"github.com/uyho/backend/internal/models"
)

// CertificateService is the interface that wraps methods for certificate operations
type CertificateService interface {
	// Issue persists a certificate award for a passing score
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	// "userID" is the ID of the learner.
	// "email" is the learner's e-mail for the notification; may be empty.
	// "req" is the award request.
	//
	// Returns the stored certificate code, which may differ from the proposed one, and an error if any.
	Issue(ctx context.Context, courseID, userID int, email string, req *models.IssueCertificateRequest) (string, error)
	// Verify looks up a certificate code
	//
	// "ctx" is the context for the request.
	// "code" is the certificate code.
	//
	// Returns the verification result and an error if any.
	Verify(ctx context.Context, code string) (*models.CertificateVerification, error)
}

// CertificateHandler handles HTTP requests for certificates
type CertificateHandler struct {
	BaseHandler
	service CertificateService
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(svc CertificateService, logger *zap.Logger) *CertificateHandler {
	return &CertificateHandler{
		service:     svc,
		BaseHandler: BaseHandler{Logger: logger},
	}
}

// RegisterRoutes registers all certificate handler routes
func (h *CertificateHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/certificates/verify", h.Verify)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/courses/{id}/certificate", h.Issue)
	})
}

// Issue handles POST /courses/{id}/certificate
// @Summary Issue a course certificate
// @Description Persist a certificate for a passing quiz score. Repeated calls return the stored code.
// @Tags certificates
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body models.IssueCertificateRequest true "Award request"
// @Success 200 {object} models.IssueCertificateResponse
// @Failure 400 {object} map[string]string "Invalid score or code"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 409 {object} map[string]string "Not enrolled or course not completed"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /courses/{id}/certificate [post]
func (h *CertificateHandler) Issue(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}
	courseID, ok := h.courseID(w, r)
	if !ok {
		return
	}

	var req models.IssueCertificateRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !h.sameLearner(w, req.LearnerID, userID) {
		return
	}

	code, err := h.service.Issue(r.Context(), courseID, userID, middleware.GetUserEmail(r.Context()), &req)
	if err != nil {
		h.RespondServiceError(w, err, "failed to issue certificate")
		return
	}

	h.RespondJSON(w, http.StatusOK, models.IssueCertificateResponse{CertificateCode: code})
}

// Verify handles GET /certificates/verify
// @Summary Verify a certificate
// @Description Public lookup of a certificate code
// @Tags certificates
// @Produce json
// @Param code query string true "Certificate code, e.g. UYHO/COA/2024/123"
// @Success 200 {object} models.CertificateVerification
// @Failure 400 {object} map[string]string "Malformed code"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /certificates/verify [get]
func (h *CertificateHandler) Verify(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		h.RespondError(w, http.StatusBadRequest, "code is required")
		return
	}

	result, err := h.service.Verify(r.Context(), code)
	if err != nil {
		h.RespondServiceError(w, err, "failed to verify certificate")
		return
	}

	h.RespondJSON(w, http.StatusOK, result)
}
