package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/uyho/backend/internal/models"
)

// maxReviewLength is the longest review accepted, in characters
const maxReviewLength = 2000

// RatingRepository defines methods for rating data access
type RatingRepository interface {
	// Upsert creates or updates a user's rating and recomputes the course aggregate
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	// "courseID" is the ID of the course.
	// "rating" is the 1-5 score.
	// "review" is the optional review text.
	//
	// Returns an error if any.
	Upsert(ctx context.Context, userID, courseID, rating int, review string) error
	// ListByCourse retrieves the ratings of a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns a list of ratings and an error if any.
	ListByCourse(ctx context.Context, courseID int) ([]models.Rating, error)
	// GetSummary reads the stored aggregate of a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns models.ErrCourseNotFound if the course does not exist.
	GetSummary(ctx context.Context, courseID int) (*models.RatingSummary, error)
	// RefreshAggregates recomputes drifted aggregates
	//
	// "ctx" is the context for the request.
	//
	// Returns the IDs of the updated courses and an error if any.
	RefreshAggregates(ctx context.Context) ([]int, error)
}

// RatingCache defines the rating summary cache. Every invalidation bumps a
// per-course generation; a fill is only stored under the generation it was read at.
type RatingCache interface {
	// Get returns the cached summary, nil on a miss, and the course's generation
	Get(ctx context.Context, courseID int) (*models.RatingSummary, int64, error)
	// Fill caches a summary unless the generation changed; it reports whether it was stored
	Fill(ctx context.Context, courseID int, generation int64, summary *models.RatingSummary) (bool, error)
	// Invalidate drops the cached summaries of the given courses and bumps their generations
	Invalidate(ctx context.Context, courseIDs ...int) error
}

// ratingService implements course ratings
type ratingService struct {
	ratingRepo     RatingRepository
	enrollmentRepo EnrollmentRepository
	cache          RatingCache
	logger         *zap.Logger
}

// NewRatingService creates a new rating service
func NewRatingService(ratingRepo RatingRepository, enrollmentRepo EnrollmentRepository, cache RatingCache, logger *zap.Logger) *ratingService {
	return &ratingService{
		ratingRepo:     ratingRepo,
		enrollmentRepo: enrollmentRepo,
		cache:          cache,
		logger:         logger,
	}
}

// Submit creates or updates the user's rating of a course. Only enrolled learners may rate.
func (s *ratingService) Submit(ctx context.Context, courseID, userID int, req *models.RatingRequest) error {
	if !models.ValidRating(req.Rating) {
		return models.ErrInvalidRating
	}
	review := strings.TrimSpace(req.Review)
	if utf8.RuneCountInString(review) > maxReviewLength {
		return models.ErrReviewTooLong
	}

	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if enrollment == nil {
		return models.ErrNotEnrolled
	}

	if err := s.ratingRepo.Upsert(ctx, userID, courseID, req.Rating, review); err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx, courseID); err != nil {
		s.logger.Warn("failed to invalidate rating summary", zap.Error(err), zap.Int("course_id", courseID))
	}
	return nil
}

// List returns the ratings of a course, the caller's own rating and the server computed summary
func (s *ratingService) List(ctx context.Context, courseID, userID int) (*models.RatingsResponse, error) {
	summary, err := s.summary(ctx, courseID)
	if err != nil {
		return nil, err
	}

	ratings, err := s.ratingRepo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	resp := &models.RatingsResponse{
		Ratings: ratings,
		Summary: *summary,
	}
	for i := range ratings {
		if ratings[i].UserID == userID {
			resp.UserRating = &ratings[i]
			break
		}
	}
	return resp, nil
}

// summary reads the aggregate through the cache; cache errors fall through to the database.
// A summary loaded while a rating was submitted is returned but not cached.
func (s *ratingService) summary(ctx context.Context, courseID int) (*models.RatingSummary, error) {
	cached, generation, cacheErr := s.cache.Get(ctx, courseID)
	if cacheErr != nil {
		s.logger.Warn("rating summary cache unavailable", zap.Error(cacheErr))
	}
	if cached != nil {
		return cached, nil
	}

	summary, err := s.ratingRepo.GetSummary(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if cacheErr != nil {
		return summary, nil
	}

	stored, err := s.cache.Fill(ctx, courseID, generation, summary)
	if err != nil {
		s.logger.Warn("failed to cache rating summary", zap.Error(err))
	} else if !stored {
		s.logger.Debug("rating summary changed while loading, not cached", zap.Int("course_id", courseID))
	}
	return summary, nil
}

// RefreshAggregates reconciles stored aggregates with the ratings table
func (s *ratingService) RefreshAggregates(ctx context.Context) (int, error) {
	ids, err := s.ratingRepo.RefreshAggregates(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("failed to invalidate refreshed rating summaries", zap.Error(err))
	}
	return len(ids), nil
}
