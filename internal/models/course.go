package models

import "strconv"

// CertificateTemplate is one of the fixed certificate designs a course can use
type CertificateTemplate string

const (
	TemplateClassic CertificateTemplate = "classic"
	TemplateModern  CertificateTemplate = "modern"
	TemplateElegant CertificateTemplate = "elegant"
	TemplateMinimal CertificateTemplate = "minimal"
)

// Valid reports whether t is a known template
func (t CertificateTemplate) Valid() bool {
	switch t {
	case TemplateClassic, TemplateModern, TemplateElegant, TemplateMinimal:
		return true
	}
	return false
}

// Course represents a course with its lessons and quiz
type Course struct {
	ID                  int                 `json:"id"`
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	SlideFile           *string             `json:"slideFile,omitempty"`
	SlideCount          int                 `json:"slideCount"`
	CertificateTemplate CertificateTemplate `json:"certificateTemplate"`
	RatingAvg           float64             `json:"ratingAvg"`
	RatingCount         int                 `json:"ratingCount"`
	Lessons             []Lesson            `json:"lessons"`
	Questions           []QuizQuestion      `json:"questions"`
}

// HasSlides reports whether the course is completed through a slide deck instead of lessons
func (c *Course) HasSlides() bool {
	return c.SlideFile != nil && *c.SlideFile != ""
}

// FallbackSlideSteps is the step count used when the slide asset cannot be
// resolved: the configured slide count, else the lesson count, never below one
func (c *Course) FallbackSlideSteps() int {
	if c.SlideCount > 0 {
		return c.SlideCount
	}
	return max(len(c.Lessons), 1)
}

// Lesson represents a lesson in a course
type Lesson struct {
	ID              int    `json:"id,omitempty"`
	CourseID        int    `json:"courseId,omitempty"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	DurationMinutes int    `json:"durationMinutes"`
	Position        int    `json:"position"`
}

// LessonKey returns the identifier stored in an enrollment's completed set.
// Lessons without an issued ID fall back to their 1-based position in the course.
func LessonKey(l Lesson, index int) string {
	if l.ID > 0 {
		return strconv.Itoa(l.ID)
	}
	return strconv.Itoa(index + 1)
}

// QuizQuestion represents a multiple choice question of a course quiz
type QuizQuestion struct {
	ID           int      `json:"id,omitempty"`
	CourseID     int      `json:"courseId,omitempty"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Position     int      `json:"position"`
}

// LearnerCourseView is the combined learner read of a course and the caller's enrollment
type LearnerCourseView struct {
	Course
	IsEnrolled       bool     `json:"is_enrolled"`
	UserProgress     int      `json:"user_progress"`
	IsCompleted      bool     `json:"is_completed"`
	HasPassed        bool     `json:"has_passed"`
	CertificateCode  *string  `json:"certificate_code"`
	SlidePosition    int      `json:"slide_position"`
	CompletedLessons []string `json:"completed_lessons"`
}

// SlideInfo is the response of the slide count lookup
type SlideInfo struct {
	SlideCount int `json:"slideCount"`
}
