package models

import "errors"

// Sentinel errors shared by services, handlers and the learner-side client.
var (
	ErrCourseNotFound         = errors.New("course not found")
	ErrCertificateNotFound    = errors.New("certificate not found")
	ErrNotEnrolled            = errors.New("learner is not enrolled in this course")
	ErrCourseNotCompleted     = errors.New("course is not completed")
	ErrScoreBelowThreshold    = errors.New("score is below the pass threshold")
	ErrInvalidScore           = errors.New("score must be between 0 and 100")
	ErrInvalidCertificateCode = errors.New("invalid certificate code")
	ErrInvalidRating          = errors.New("rating must be between 1 and 5")
	ErrReviewTooLong          = errors.New("review is too long")
	ErrWrongMode              = errors.New("course does not track progress this way")
	ErrInvalidProgress        = errors.New("invalid progress")
	ErrInvalidSlideFile       = errors.New("invalid slide file")
	ErrSlideFileNotFound      = errors.New("slide file not found")
	ErrUnauthorized           = errors.New("authentication required")
	ErrForbidden              = errors.New("learner does not match the authenticated user")
)
