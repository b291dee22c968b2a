// Package client is the learner-side HTTP client of the course API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/uyho/backend/internal/models"
	"github.com/uyho/backend/internal/session"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultRetryCount = 2
)

// sentinels are matched against the error message of API responses
var sentinels = []error{
	models.ErrCourseNotFound,
	models.ErrCertificateNotFound,
	models.ErrNotEnrolled,
	models.ErrCourseNotCompleted,
	models.ErrScoreBelowThreshold,
	models.ErrInvalidScore,
	models.ErrInvalidCertificateCode,
	models.ErrInvalidRating,
	models.ErrReviewTooLong,
	models.ErrWrongMode,
	models.ErrInvalidProgress,
	models.ErrInvalidSlideFile,
	models.ErrSlideFileNotFound,
	models.ErrForbidden,
}

// APIError is a non-2xx response of the API
type APIError struct {
	StatusCode int
	Message    string
	err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api responded %d: %s", e.StatusCode, e.Message)
}

// Unwrap returns the matching models sentinel, if any
func (e *APIError) Unwrap() error {
	return e.err
}

type errorBody struct {
	Error string `json:"error"`
}

// Client calls the course API on behalf of the session's learner
type Client struct {
	http   *resty.Client
	sess   session.Session
	logger *zap.Logger
}

// Option configures a Client
type Option func(*resty.Client)

// WithTimeout sets the per request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) { c.SetTimeout(d) }
}

// WithRetry sets how many times transport failures are retried
func WithRetry(count int, wait time.Duration) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(count).SetRetryWaitTime(wait)
	}
}

// New creates a client for the API at baseURL (including the /api/v1 prefix)
func New(baseURL string, sess session.Session, logger *zap.Logger, opts ...Option) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(defaultTimeout).
		SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Accept", "application/json").
		SetError(&errorBody{})
	if sess.Token != "" {
		rc.SetAuthToken(sess.Token)
	}
	for _, opt := range opts {
		opt(rc)
	}
	return &Client{
		http:   rc,
		sess:   sess,
		logger: logger,
	}
}

// Session returns the learner the client acts for
func (c *Client) Session() session.Session {
	return c.sess
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

// check turns transport errors and non-2xx responses into errors
func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	for _, s := range sentinels {
		if strings.HasPrefix(apiErr.Message, s.Error()) {
			apiErr.err = s
			break
		}
	}
	if apiErr.err == nil && resp.StatusCode() == http.StatusUnauthorized {
		apiErr.err = models.ErrUnauthorized
	}

	c.logger.Debug("api request failed",
		zap.String("op", op),
		zap.Int("status", apiErr.StatusCode),
		zap.String("message", apiErr.Message),
	)
	return fmt.Errorf("failed to %s: %w", op, apiErr)
}

// GetCourse reads a course with the learner's enrollment flags
func (c *Client) GetCourse(ctx context.Context, courseID int) (*models.LearnerCourseView, error) {
	var view models.LearnerCourseView
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.Itoa(courseID)).
		SetQueryParam("userId", strconv.Itoa(c.sess.LearnerID)).
		SetResult(&view).
		Get("/courses/{id}")
	if err := c.check("get course", resp, err); err != nil {
		return nil, err
	}
	return &view, nil
}

// Enroll enrolls the learner; enrolling twice returns the existing enrollment
func (c *Client) Enroll(ctx context.Context, courseID int) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.Itoa(courseID)).
		SetBody(models.EnrollRequest{LearnerID: c.sess.LearnerID}).
		SetResult(&enrollment).
		Post("/courses/{id}/enroll")
	if err := c.check("enroll", resp, err); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// SaveLessonProgress sends a full lesson progress snapshot
func (c *Client) SaveLessonProgress(ctx context.Context, courseID, progress int, completedLessons []string) error {
	if completedLessons == nil {
		completedLessons = []string{}
	}
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.Itoa(courseID)).
		SetBody(models.LessonProgressRequest{
			LearnerID:        c.sess.LearnerID,
			Progress:         progress,
			CompletedLessons: completedLessons,
		}).
		Put("/courses/{id}/progress")
	return c.check("save lesson progress", resp, err)
}

// SaveSlideProgress sends a full slide progress snapshot
func (c *Client) SaveSlideProgress(ctx context.Context, courseID, currentSlide, totalSlides int, isCompleted bool) error {
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.Itoa(courseID)).
		SetBody(models.SlideProgressRequest{
			LearnerID:    c.sess.LearnerID,
			CurrentSlide: currentSlide,
			TotalSlides:  totalSlides,
			IsCompleted:  isCompleted,
		}).
		Put("/courses/{id}/slide-progress")
	return c.check("save slide progress", resp, err)
}

// IssueCertificate persists a certificate award and returns the code the server stored
func (c *Client) IssueCertificate(ctx context.Context, courseID, score int, code string) (string, error) {
	var out models.IssueCertificateResponse
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.Itoa(courseID)).
		SetBody(models.IssueCertificateRequest{
			LearnerID:       c.sess.LearnerID,
			Score:           score,
			CertificateCode: code,
		}).
		SetResult(&out).
		Post("/courses/{id}/certificate")
	if err := c.check("issue certificate", resp, err); err != nil {
		return "", err
	}
	return out.CertificateCode, nil
}

// VerifyCertificate looks up a certificate code
func (c *Client) VerifyCertificate(ctx context.Context, code string) (*models.CertificateVerification, error) {
	var out models.CertificateVerification
	resp, err := c.request(ctx).
		SetQueryParam("code", code).
		SetResult(&out).
		Get("/certificates/verify")
	if err := c.check("verify certificate", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitRating creates or updates the learner's rating
func (c *Client) SubmitRating(ctx context.Context, courseID, rating int, review string) error {
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.Itoa(courseID)).
		SetBody(models.RatingRequest{
			LearnerID: c.sess.LearnerID,
			Rating:    rating,
			Review:    review,
		}).
		Post("/courses/{id}/ratings")
	return c.check("submit rating", resp, err)
}

// ListRatings reads a course's ratings and summary
func (c *Client) ListRatings(ctx context.Context, courseID int) (*models.RatingsResponse, error) {
	var out models.RatingsResponse
	resp, err := c.request(ctx).
		SetPathParam("id", strconv.Itoa(courseID)).
		SetQueryParam("userId", strconv.Itoa(c.sess.LearnerID)).
		SetResult(&out).
		Get("/courses/{id}/ratings")
	if err := c.check("list ratings", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// SlideCount asks the server for the step count of a slide asset
func (c *Client) SlideCount(ctx context.Context, file string) (int, error) {
	var info models.SlideInfo
	resp, err := c.request(ctx).
		SetQueryParam("file", file).
		SetResult(&info).
		Get("/slides/info")
	if err := c.check("get slide info", resp, err); err != nil {
		return 0, err
	}
	return info.SlideCount, nil
}

// Download fetches a slide asset
func (c *Client) Download(ctx context.Context, file string) ([]byte, error) {
	resp, err := c.request(ctx).
		SetQueryParam("file", file).
		SetHeader("Accept", "*/*").
		Get("/slides/file")
	if err := c.check("download slide file", resp, err); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}
