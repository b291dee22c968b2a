package models

import "time"

// Rating is one learner's rating of a course
type Rating struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	CourseID  int       `json:"courseId"`
	Rating    int       `json:"rating"`
	Review    string    `json:"review,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RatingRequest represents a request to create or update the caller's rating
type RatingRequest struct {
	LearnerID int    `json:"learnerId"`
	Rating    int    `json:"rating"`
	Review    string `json:"review"`
}

// RatingSummary is the server computed aggregate of a course's ratings
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// RatingsResponse lists a course's ratings and the caller's own rating if any
type RatingsResponse struct {
	Ratings    []Rating      `json:"ratings"`
	UserRating *Rating       `json:"userRating,omitempty"`
	Summary    RatingSummary `json:"summary"`
}

// ValidRating reports whether score is within 1..5
func ValidRating(score int) bool {
	return score >= 1 && score <= 5
}
