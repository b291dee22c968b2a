package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uyho/backend/internal/models"
)

// ratingRepository implements RatingRepository
type ratingRepository struct {
	db *sql.DB
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(db *sql.DB) *ratingRepository {
	return &ratingRepository{
		db: db,
	}
}

const recomputeAggregateQuery = `
	UPDATE courses
	SET rating_avg = (SELECT COALESCE(AVG(rating), 0) FROM course_ratings WHERE course_id = ?),
		rating_count = (SELECT COUNT(*) FROM course_ratings WHERE course_id = ?)
	WHERE id = ?
`

// Upsert creates or updates the rating of a user for a course and recomputes
// the course aggregate in the same transaction
func (r *ratingRepository) Upsert(ctx context.Context, userId, courseId, rating int, review string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsertQuery := `
		INSERT INTO course_ratings (user_id, course_id, rating, review)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE rating = VALUES(rating), review = VALUES(review), updated_at = NOW()
	`
	if _, err := tx.ExecContext(ctx, upsertQuery, userId, courseId, rating, review); err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}

	if _, err := tx.ExecContext(ctx, recomputeAggregateQuery, courseId, courseId, courseId); err != nil {
		return fmt.Errorf("failed to recompute rating aggregate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListByCourse retrieves the ratings of a course, newest first
func (r *ratingRepository) ListByCourse(ctx context.Context, courseId int) ([]models.Rating, error) {
	query := `
		SELECT id, user_id, course_id, rating, COALESCE(review, ''), created_at, updated_at
		FROM course_ratings
		WHERE course_id = ?
		ORDER BY updated_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, courseId)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	ratings := []models.Rating{}
	for rows.Next() {
		var rt models.Rating
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.CourseID, &rt.Rating, &rt.Review, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rt)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ratings, nil
}

// GetSummary reads the stored aggregate of a course
func (r *ratingRepository) GetSummary(ctx context.Context, courseId int) (*models.RatingSummary, error) {
	var s models.RatingSummary
	err := r.db.QueryRowContext(ctx, "SELECT rating_avg, rating_count FROM courses WHERE id = ?", courseId).Scan(&s.Average, &s.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating summary: %w", err)
	}
	return &s, nil
}

// RefreshAggregates recomputes the rating aggregate of every course and
// returns the IDs of the courses whose stored aggregate changed
func (r *ratingRepository) RefreshAggregates(ctx context.Context) ([]int, error) {
	driftQuery := `
		SELECT c.id
		FROM courses c
		LEFT JOIN (
			SELECT course_id, AVG(rating) AS avg_rating, COUNT(*) AS cnt
			FROM course_ratings
			GROUP BY course_id
		) r ON r.course_id = c.id
		WHERE c.rating_count <> COALESCE(r.cnt, 0)
			OR ABS(c.rating_avg - COALESCE(r.avg_rating, 0)) > 0.001
	`

	rows, err := r.db.QueryContext(ctx, driftQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query drifted courses: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan course ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	for _, id := range ids {
		if _, err := r.db.ExecContext(ctx, recomputeAggregateQuery, id, id, id); err != nil {
			return nil, fmt.Errorf("failed to recompute aggregate of course %d: %w", id, err)
		}
	}

	return ids, nil
}
