package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uyho/backend/internal/models"
)

// enrollmentRepository implements EnrollmentRepository
type enrollmentRepository struct {
	db *sql.DB
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *sql.DB) *enrollmentRepository {
	return &enrollmentRepository{
		db: db,
	}
}

// GetByUserAndCourse retrieves the enrollment of a user in a course
//
// "userId" parameter is used to identify the user.
// "courseId" parameter is used to identify the course.
// If the user is not enrolled, nil is returned without an error.
func (r *enrollmentRepository) GetByUserAndCourse(ctx context.Context, userId, courseId int) (*models.Enrollment, error) {
	query := `
		SELECT id, user_id, course_id, enrolled_at, completed_lessons, progress, current_slide,
			total_slides, is_completed, has_passed, certificate_code, updated_at
		FROM enrollments
		WHERE user_id = ? AND course_id = ?
	`

	var e models.Enrollment
	var completed []byte
	var code sql.NullString
	err := r.db.QueryRowContext(ctx, query, userId, courseId).Scan(
		&e.ID,
		&e.UserID,
		&e.CourseID,
		&e.EnrolledAt,
		&completed,
		&e.Progress,
		&e.CurrentSlide,
		&e.TotalSlides,
		&e.IsCompleted,
		&e.HasPassed,
		&code,
		&e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}

	e.CompletedLessons = []string{}
	if len(completed) > 0 {
		if err := json.Unmarshal(completed, &e.CompletedLessons); err != nil {
			return nil, fmt.Errorf("failed to decode completed lessons: %w", err)
		}
	}
	if code.Valid {
		e.CertificateCode = &code.String
	}

	return &e, nil
}

// Create enrolls a user in a course. Enrolling twice is a no-op.
func (r *enrollmentRepository) Create(ctx context.Context, userId, courseId int) error {
	query := `
		INSERT INTO enrollments (user_id, course_id, completed_lessons, progress, current_slide)
		VALUES (?, ?, '[]', 0, 1)
		ON DUPLICATE KEY UPDATE id = id
	`

	if _, err := r.db.ExecContext(ctx, query, userId, courseId); err != nil {
		return fmt.Errorf("failed to create enrollment: %w", err)
	}

	return nil
}

// UpdateLessonProgress replaces the lesson progress snapshot of an enrollment
func (r *enrollmentRepository) UpdateLessonProgress(ctx context.Context, enrollmentId, progress int, completedLessons []string, isCompleted bool) error {
	if completedLessons == nil {
		completedLessons = []string{}
	}
	completed, err := json.Marshal(completedLessons)
	if err != nil {
		return fmt.Errorf("failed to encode completed lessons: %w", err)
	}

	query := `
		UPDATE enrollments
		SET completed_lessons = ?, progress = ?, is_completed = ?, updated_at = NOW()
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, completed, progress, isCompleted, enrollmentId); err != nil {
		return fmt.Errorf("failed to update lesson progress: %w", err)
	}

	return nil
}

// UpdateSlideProgress replaces the slide cursor of an enrollment.
// Slide progress never decreases and completion is sticky.
func (r *enrollmentRepository) UpdateSlideProgress(ctx context.Context, enrollmentId, currentSlide, totalSlides, progress int, isCompleted bool) error {
	query := `
		UPDATE enrollments
		SET current_slide = ?, total_slides = ?, progress = GREATEST(progress, ?),
			is_completed = (is_completed OR ?), updated_at = NOW()
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, currentSlide, totalSlides, progress, isCompleted, enrollmentId); err != nil {
		return fmt.Errorf("failed to update slide progress: %w", err)
	}

	return nil
}
