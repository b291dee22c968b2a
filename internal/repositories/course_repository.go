package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uyho/backend/internal/models"
)

// courseRepository implements CourseRepository
type courseRepository struct {
	db *sql.DB
}

// NewCourseRepository creates a new course repository
func NewCourseRepository(db *sql.DB) *courseRepository {
	return &courseRepository{
		db: db,
	}
}

// GetByID retrieves a course without its lessons and questions
//
// "id" parameter is used to identify the course.
// If the course does not exist, models.ErrCourseNotFound is returned.
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	query := `
		SELECT id, title, description, slide_file, slide_count, certificate_template, rating_avg, rating_count
		FROM courses
		WHERE id = ?
	`

	var course models.Course
	var slideFile sql.NullString
	var template string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&slideFile,
		&course.SlideCount,
		&template,
		&course.RatingAvg,
		&course.RatingCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if slideFile.Valid {
		course.SlideFile = &slideFile.String
	}
	course.CertificateTemplate = models.CertificateTemplate(template)

	return &course, nil
}

// GetLessons retrieves the lessons of a course ordered by position
func (r *courseRepository) GetLessons(ctx context.Context, courseID int) ([]models.Lesson, error) {
	query := `
		SELECT id, course_id, title, content, duration_minutes, position
		FROM lessons
		WHERE course_id = ?
		ORDER BY position ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	lessons := []models.Lesson{}
	for rows.Next() {
		var l models.Lesson
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.Content, &l.DurationMinutes, &l.Position); err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lessons, nil
}

// GetQuestions retrieves the quiz questions of a course ordered by position.
// Options are stored as a JSON array.
func (r *courseRepository) GetQuestions(ctx context.Context, courseID int) ([]models.QuizQuestion, error) {
	query := `
		SELECT id, course_id, question, options, correct_index, position
		FROM quiz_questions
		WHERE course_id = ?
		ORDER BY position ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quiz questions: %w", err)
	}
	defer rows.Close()

	questions := []models.QuizQuestion{}
	for rows.Next() {
		var q models.QuizQuestion
		var options []byte
		if err := rows.Scan(&q.ID, &q.CourseID, &q.Question, &options, &q.CorrectIndex, &q.Position); err != nil {
			return nil, fmt.Errorf("failed to scan quiz question: %w", err)
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options of question %d: %w", q.ID, err)
		}
		questions = append(questions, q)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return questions, nil
}

// GetSlideFile returns the slide asset of a course, or "" when none is configured
func (r *courseRepository) GetSlideFile(ctx context.Context, courseID int) (string, error) {
	var slideFile sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT slide_file FROM courses WHERE id = ?", courseID).Scan(&slideFile)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrCourseNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get slide file: %w", err)
	}
	return slideFile.String, nil
}
