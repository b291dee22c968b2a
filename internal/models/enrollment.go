package models

import (
	"time"
)

// Enrollment binds one learner to one course's progress
type Enrollment struct {
	ID               int       `json:"id"`
	UserID           int       `json:"userId"`
	CourseID         int       `json:"courseId"`
	EnrolledAt       time.Time `json:"enrolledAt"`
	CompletedLessons []string  `json:"completedLessons"`
	Progress         int       `json:"progress"`
	CurrentSlide     int       `json:"currentSlide"`
	TotalSlides      int       `json:"totalSlides"`
	IsCompleted      bool      `json:"isCompleted"`
	HasPassed        bool      `json:"hasPassed"`
	CertificateCode  *string   `json:"certificateCode,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Status returns the enrollment's lifecycle status
func (e *Enrollment) Status() Status {
	if e == nil {
		return NotEnrolled{}
	}
	code := ""
	if e.CertificateCode != nil {
		code = *e.CertificateCode
	}
	return StatusFromFlags(true, e.Progress, e.IsCompleted, e.HasPassed, code)
}

// EnrollRequest represents a request to enroll in a course
type EnrollRequest struct {
	LearnerID int `json:"learnerId"`
}

// LessonProgressRequest is a full snapshot of lesson based progress
type LessonProgressRequest struct {
	LearnerID        int      `json:"learnerId"`
	Progress         int      `json:"progress"`
	CompletedLessons []string `json:"completedLessons"`
}

// SlideProgressRequest is a full snapshot of slide based progress
type SlideProgressRequest struct {
	LearnerID    int  `json:"learnerId"`
	CurrentSlide int  `json:"currentSlide"`
	TotalSlides  int  `json:"totalSlides"`
	IsCompleted  bool `json:"isCompleted"`
}
