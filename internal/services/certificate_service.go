package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uyho/backend/internal/certcode"
	"github.com/uyho/backend/internal/models"
	"github.com/uyho/backend/internal/repositories"
)

// maxCodeAttempts bounds re-minting when a code is already held by another learner
const maxCodeAttempts = 5

// CertificateRepository defines methods for certificate data access
type CertificateRepository interface {
	// GetByEnrollment retrieves the certificate of an enrollment
	//
	// "ctx" is the context for the request.
	// "enrollmentID" is the ID of the enrollment.
	//
	// Returns nil without an error if no certificate was issued.
	GetByEnrollment(ctx context.Context, enrollmentID int) (*models.Certificate, error)
	// GetByCode retrieves a certificate by its code
	//
	// "ctx" is the context for the request.
	// "code" is the certificate code.
	//
	// Returns nil without an error if the code is unknown.
	GetByCode(ctx context.Context, code string) (*models.Certificate, error)
	// Create stores a certificate and marks its enrollment passed in one transaction
	//
	// "ctx" is the context for the request.
	// "cert" is the certificate to store; its ID is set on success.
	//
	// Returns repositories.ErrDuplicateCode if the code is taken by another certificate
	// and repositories.ErrAlreadyIssued if the enrollment already holds one.
	Create(ctx context.Context, cert *models.Certificate) error
}

// CertificateNotifier defines how certificate notifications are queued
type CertificateNotifier interface {
	// NotifyCertificateIssued queues the certificate e-mail
	//
	// "ctx" is the context for the request.
	// "payload" is the task payload.
	//
	// Returns an error if the task could not be queued.
	NotifyCertificateIssued(ctx context.Context, payload models.CertificateIssuedPayload) error
}

// certificateService implements certificate issuance and verification
type certificateService struct {
	courseRepo      CourseRepository
	enrollmentRepo  EnrollmentRepository
	certificateRepo CertificateRepository
	notifier        CertificateNotifier
	logger          *zap.Logger
	now             func() time.Time
}

// NewCertificateService creates a new certificate service
func NewCertificateService(
	courseRepo CourseRepository,
	enrollmentRepo EnrollmentRepository,
	certificateRepo CertificateRepository,
	notifier CertificateNotifier,
	logger *zap.Logger,
) *certificateService {
	return &certificateService{
		courseRepo:      courseRepo,
		enrollmentRepo:  enrollmentRepo,
		certificateRepo: certificateRepo,
		notifier:        notifier,
		logger:          logger,
		now:             time.Now,
	}
}

// Issue awards a certificate for a passing score. It is idempotent per enrollment:
// once a certificate exists its code is returned unchanged.
//
// "email" is the learner's address from the access token; the notification is skipped when it is empty.
func (s *certificateService) Issue(ctx context.Context, courseID, userID int, email string, req *models.IssueCertificateRequest) (string, error) {
	if req.Score < 0 || req.Score > 100 {
		return "", models.ErrInvalidScore
	}
	if req.Score < models.PassThreshold {
		return "", models.ErrScoreBelowThreshold
	}
	if req.CertificateCode != "" && !certcode.Valid(req.CertificateCode) {
		return "", models.ErrInvalidCertificateCode
	}

	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return "", err
	}
	if enrollment == nil {
		return "", models.ErrNotEnrolled
	}
	if !models.IsComplete(enrollment.Status()) {
		return "", models.ErrCourseNotCompleted
	}

	existing, err := s.certificateRepo.GetByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.Code, nil
	}

	issuedAt := s.now()
	cert := &models.Certificate{
		EnrollmentID: enrollment.ID,
		UserID:       userID,
		CourseID:     courseID,
		Code:         req.CertificateCode,
		Score:        req.Score,
		IssuedAt:     issuedAt,
	}
	if cert.Code == "" {
		cert.Code = certcode.Generate(issuedAt.Year(), nil)
	}

	for attempt := 1; ; attempt++ {
		err = s.certificateRepo.Create(ctx, cert)
		if err == nil {
			break
		}
		if errors.Is(err, repositories.ErrAlreadyIssued) {
			// a concurrent request won; return its code
			existing, err := s.certificateRepo.GetByEnrollment(ctx, enrollment.ID)
			if err != nil {
				return "", err
			}
			if existing == nil {
				return "", fmt.Errorf("certificate of enrollment %d vanished", enrollment.ID)
			}
			return existing.Code, nil
		}
		if !errors.Is(err, repositories.ErrDuplicateCode) {
			return "", err
		}
		if attempt == maxCodeAttempts {
			s.logger.Error("no free certificate code, the yearly code range may be nearly exhausted",
				zap.Int("year", issuedAt.Year()),
				zap.Int("attempts", attempt),
			)
			return "", fmt.Errorf("no free certificate code for %d after %d attempts: %w", issuedAt.Year(), attempt, err)
		}
		s.logger.Warn("certificate code collision, minting a new one",
			zap.String("code", cert.Code),
			zap.Int("enrollment_id", enrollment.ID),
		)
		cert.Code = certcode.Generate(issuedAt.Year(), nil)
	}

	s.logger.Info("certificate issued",
		zap.String("code", cert.Code),
		zap.Int("user_id", userID),
		zap.Int("course_id", courseID),
		zap.Int("score", cert.Score),
	)
	s.notify(ctx, courseID, email, cert)

	return cert.Code, nil
}

// notify queues the certificate e-mail; failures are logged and never fail issuance
func (s *certificateService) notify(ctx context.Context, courseID int, email string, cert *models.Certificate) {
	if email == "" || s.notifier == nil {
		return
	}
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		s.logger.Warn("failed to load course for certificate notification", zap.Error(err))
		return
	}
	payload := models.CertificateIssuedPayload{
		Code:        cert.Code,
		CourseTitle: course.Title,
		Recipient:   email,
		Score:       cert.Score,
	}
	if err := s.notifier.NotifyCertificateIssued(ctx, payload); err != nil {
		s.logger.Error("failed to queue certificate notification", zap.Error(err), zap.String("code", cert.Code))
	}
}

// Verify looks up a certificate code for the public verification page
func (s *certificateService) Verify(ctx context.Context, code string) (*models.CertificateVerification, error) {
	if !certcode.Valid(code) {
		return nil, models.ErrInvalidCertificateCode
	}

	cert, err := s.certificateRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return &models.CertificateVerification{Valid: false, Code: code}, nil
	}

	course, err := s.courseRepo.GetByID(ctx, cert.CourseID)
	if err != nil {
		return nil, err
	}

	issuedAt := cert.IssuedAt
	return &models.CertificateVerification{
		Valid:       true,
		Code:        cert.Code,
		HolderID:    cert.UserID,
		CourseID:    cert.CourseID,
		CourseTitle: course.Title,
		Template:    course.CertificateTemplate,
		Score:       cert.Score,
		IssuedAt:    &issuedAt,
	}, nil
}
