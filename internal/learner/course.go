// Package learner wires the progress, slide, quiz, certification and rating
// components for one learner taking one course.
package learner

import (
	"context"

	"go.uber.org/zap"

	"github.com/uyho/backend/internal/certification"
	"github.com/uyho/backend/internal/models"
	"github.com/uyho/backend/internal/progress"
	"github.com/uyho/backend/internal/quiz"
	"github.com/uyho/backend/internal/rating"
	"github.com/uyho/backend/internal/session"
	"github.com/uyho/backend/internal/slides"
)

// API is the course API as seen by a learner. *client.Client implements it.
type API interface {
	progress.Persister
	certification.Awarder
	rating.API
	slides.Source
	GetCourse(ctx context.Context, courseID int) (*models.LearnerCourseView, error)
}

// Course is a learner's open course
type Course struct {
	View         *models.LearnerCourseView
	Progress     *progress.Store
	Deck         *slides.Deck
	Certificates *certification.Issuer
	Ratings      *rating.Aggregator

	sess   session.Session
	logger *zap.Logger
}

// Open reads a course and prepares its components. For slide courses the
// deck is loaded and its step count replaces the configured one; deck
// problems degrade to placeholders and never fail Open.
func Open(ctx context.Context, sess session.Session, api API, courseID int, logger *zap.Logger, opts ...progress.Option) (*Course, error) {
	view, err := api.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	c := &Course{
		View:     view,
		Progress: progress.New(sess, view, api, logger, opts...),
		sess:     sess,
		logger:   logger,
	}
	if view.HasSlides() {
		deck := slides.NewLoader(api, logger).Load(ctx, *view.SlideFile, view.FallbackSlideSteps())
		c.Deck = &deck
		c.Progress.SetTotalSlides(deck.TotalSteps)
	}
	c.Certificates = certification.NewIssuer(sess, c.Progress, api, logger)
	c.Ratings = rating.NewAggregator(sess, c.Progress, api)
	return c, nil
}

// StartQuiz starts a quiz attempt. The quiz unlocks once the course is complete;
// a passing attempt issues the certificate and certificate errors go to onErr.
func (c *Course) StartQuiz(ctx context.Context, onErr func(error), opts ...quiz.Option) (*quiz.Engine, error) {
	if !models.IsComplete(c.Progress.Status()) {
		return nil, models.ErrCourseNotCompleted
	}
	opts = append(opts, c.Certificates.OnQuizPassed(ctx, onErr))
	return quiz.NewEngine(c.sess, c.View.Questions, opts...)
}

// Close stops background progress writes
func (c *Course) Close() {
	c.Progress.Close()
}
