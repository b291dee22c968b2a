// Package rating submits a learner's course rating. The average is always
// taken from the server.
package rating

import (
	"context"

	"github.com/uyho/backend/internal/models"
	"github.com/uyho/backend/internal/session"
)

// API is the rating part of the course API
type API interface {
	SubmitRating(ctx context.Context, courseID, rating int, review string) error
	ListRatings(ctx context.Context, courseID int) (*models.RatingsResponse, error)
}

// Enrollment reports the learner's enrollment status
type Enrollment interface {
	CourseID() int
	Status() models.Status
}

// Aggregator rates one course on behalf of one learner
type Aggregator struct {
	sess       session.Session
	enrollment Enrollment
	api        API
}

// NewAggregator creates an aggregator
func NewAggregator(sess session.Session, enrollment Enrollment, api API) *Aggregator {
	return &Aggregator{
		sess:       sess,
		enrollment: enrollment,
		api:        api,
	}
}

// Submit stores the learner's rating and returns the refreshed server summary
func (a *Aggregator) Submit(ctx context.Context, score int, review string) (*models.RatingsResponse, error) {
	if !models.ValidRating(score) {
		return nil, models.ErrInvalidRating
	}
	if err := a.sess.Require(); err != nil {
		return nil, err
	}
	if !models.IsEnrolled(a.enrollment.Status()) {
		return nil, models.ErrNotEnrolled
	}

	if err := a.api.SubmitRating(ctx, a.enrollment.CourseID(), score, review); err != nil {
		return nil, err
	}
	return a.api.ListRatings(ctx, a.enrollment.CourseID())
}

// Ratings returns the ratings and summary of the course
func (a *Aggregator) Ratings(ctx context.Context) (*models.RatingsResponse, error) {
	return a.api.ListRatings(ctx, a.enrollment.CourseID())
}
