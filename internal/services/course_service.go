package services

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uyho/backend/internal/models"
)

// CourseRepository defines methods for course data access
type CourseRepository interface {
	// GetByID retrieves a course without lessons and questions
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the course.
	//
	// Returns models.ErrCourseNotFound if the course does not exist.
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// GetLessons retrieves the lessons of a course ordered by position
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns a list of lessons and an error if any.
	GetLessons(ctx context.Context, courseID int) ([]models.Lesson, error)
	// GetQuestions retrieves the quiz questions of a course ordered by position
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns a list of questions and an error if any.
	GetQuestions(ctx context.Context, courseID int) ([]models.QuizQuestion, error)
}

// EnrollmentRepository defines methods for enrollment data access
type EnrollmentRepository interface {
	// GetByUserAndCourse retrieves the enrollment of a user in a course
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	// "courseID" is the ID of the course.
	//
	// Returns nil without an error if the user is not enrolled.
	GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error)
	// Create enrolls a user in a course; enrolling twice is a no-op
	//
	// "ctx" is the context for the request.
	// "userID" is the ID of the user.
	// "courseID" is the ID of the course.
	//
	// Returns an error if any.
	Create(ctx context.Context, userID, courseID int) error
	// UpdateLessonProgress replaces the lesson progress snapshot of an enrollment
	//
	// "ctx" is the context for the request.
	// "enrollmentID" is the ID of the enrollment.
	// "progress" is the recomputed progress percentage.
	// "completedLessons" is the full completed lesson set.
	// "isCompleted" is the completion flag.
	//
	// Returns an error if any.
	UpdateLessonProgress(ctx context.Context, enrollmentID, progress int, completedLessons []string, isCompleted bool) error
	// UpdateSlideProgress replaces the slide cursor of an enrollment
	//
	// "ctx" is the context for the request.
	// "enrollmentID" is the ID of the enrollment.
	// "currentSlide" is the 1-based slide cursor.
	// "totalSlides" is the number of slide steps.
	// "progress" is the progress percentage; stored progress never decreases.
	// "isCompleted" is the completion flag; stored completion is sticky.
	//
	// Returns an error if any.
	UpdateSlideProgress(ctx context.Context, enrollmentID, currentSlide, totalSlides, progress int, isCompleted bool) error
}

// SlideCounter resolves the slide count of a slide asset
type SlideCounter interface {
	// Info reports the page or slide count of a slide asset
	Info(ctx context.Context, file string) (*models.SlideInfo, error)
}

// courseService implements the enrollment and learner course operations
type courseService struct {
	courseRepo     CourseRepository
	enrollmentRepo EnrollmentRepository
	slides         SlideCounter
	logger         *zap.Logger
}

// NewCourseService creates a new course service
func NewCourseService(courseRepo CourseRepository, enrollmentRepo EnrollmentRepository, slides SlideCounter, logger *zap.Logger) *courseService {
	return &courseService{
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		slides:         slides,
		logger:         logger,
	}
}

// GetCourseForLearner returns a course with its lessons, questions and the learner's enrollment flags
func (s *courseService) GetCourseForLearner(ctx context.Context, courseID, userID int) (*models.LearnerCourseView, error) {
	var (
		course     *models.Course
		lessons    []models.Lesson
		questions  []models.QuizQuestion
		enrollment *models.Enrollment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		course, err = s.courseRepo.GetByID(gctx, courseID)
		return err
	})
	g.Go(func() (err error) {
		lessons, err = s.courseRepo.GetLessons(gctx, courseID)
		return err
	})
	g.Go(func() (err error) {
		questions, err = s.courseRepo.GetQuestions(gctx, courseID)
		return err
	})
	g.Go(func() (err error) {
		enrollment, err = s.enrollmentRepo.GetByUserAndCourse(gctx, userID, courseID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	course.Lessons = lessons
	course.Questions = questions
	view := &models.LearnerCourseView{
		Course:           *course,
		CompletedLessons: []string{},
	}
	if enrollment != nil {
		view.IsEnrolled = true
		view.UserProgress = enrollment.Progress
		view.IsCompleted = enrollment.IsCompleted
		view.HasPassed = enrollment.HasPassed
		view.CertificateCode = enrollment.CertificateCode
		view.SlidePosition = enrollment.CurrentSlide
		if enrollment.CompletedLessons != nil {
			view.CompletedLessons = enrollment.CompletedLessons
		}
	}

	return view, nil
}

// Enroll enrolls the user in a course and returns the enrollment; enrolling twice returns the existing one
func (s *courseService) Enroll(ctx context.Context, courseID, userID int) (*models.Enrollment, error) {
	if _, err := s.courseRepo.GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	if err := s.enrollmentRepo.Create(ctx, userID, courseID); err != nil {
		return nil, err
	}

	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, fmt.Errorf("enrollment of user %d in course %d not found after create", userID, courseID)
	}

	s.logger.Info("learner enrolled", zap.Int("user_id", userID), zap.Int("course_id", courseID))
	return enrollment, nil
}

// SaveLessonProgress stores a full snapshot of the completed lesson set.
// Progress is recomputed from the set; the last write wins.
func (s *courseService) SaveLessonProgress(ctx context.Context, courseID, userID int, req *models.LessonProgressRequest) (*models.Enrollment, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.HasSlides() {
		return nil, fmt.Errorf("%w: course %d is slide based", models.ErrWrongMode, courseID)
	}

	enrollment, err := s.requireEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	lessons, err := s.courseRepo.GetLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(lessons))
	for i, l := range lessons {
		known[models.LessonKey(l, i)] = true
	}

	completed := make([]string, 0, len(req.CompletedLessons))
	for _, key := range req.CompletedLessons {
		if !known[key] {
			return nil, fmt.Errorf("%w: unknown lesson %q", models.ErrInvalidProgress, key)
		}
		if !slices.Contains(completed, key) {
			completed = append(completed, key)
		}
	}

	progress := models.LessonProgress(len(completed), len(lessons))
	if req.Progress != progress {
		s.logger.Warn("client progress differs from completed set",
			zap.Int("user_id", userID),
			zap.Int("course_id", courseID),
			zap.Int("client_progress", req.Progress),
			zap.Int("progress", progress),
		)
	}

	// a passed enrollment stays complete even if lessons are unticked afterwards
	isCompleted := progress >= 100 || enrollment.HasPassed
	if err := s.enrollmentRepo.UpdateLessonProgress(ctx, enrollment.ID, progress, completed, isCompleted); err != nil {
		return nil, err
	}

	enrollment.CompletedLessons = completed
	enrollment.Progress = progress
	enrollment.IsCompleted = isCompleted
	return enrollment, nil
}

// SaveSlideProgress stores a full snapshot of the slide cursor
func (s *courseService) SaveSlideProgress(ctx context.Context, courseID, userID int, req *models.SlideProgressRequest) (*models.Enrollment, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.HasSlides() {
		return nil, fmt.Errorf("%w: course %d is lesson based", models.ErrWrongMode, courseID)
	}

	if req.TotalSlides < 1 || req.CurrentSlide < 1 || req.CurrentSlide > req.TotalSlides {
		return nil, fmt.Errorf("%w: slide %d of %d", models.ErrInvalidProgress, req.CurrentSlide, req.TotalSlides)
	}
	if req.IsCompleted && req.CurrentSlide != req.TotalSlides {
		return nil, fmt.Errorf("%w: completion requires the last slide", models.ErrInvalidProgress)
	}

	enrollment, err := s.requireEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	total, err := s.slideSteps(ctx, course)
	if err != nil {
		return nil, err
	}
	if req.TotalSlides != total {
		return nil, fmt.Errorf("%w: deck has %d slides, got %d", models.ErrInvalidProgress, total, req.TotalSlides)
	}

	progress := models.SlideProgress(req.CurrentSlide, req.TotalSlides, req.IsCompleted)
	if err := s.enrollmentRepo.UpdateSlideProgress(ctx, enrollment.ID, req.CurrentSlide, req.TotalSlides, progress, req.IsCompleted); err != nil {
		return nil, err
	}

	enrollment.CurrentSlide = req.CurrentSlide
	enrollment.TotalSlides = req.TotalSlides
	enrollment.Progress = max(enrollment.Progress, progress)
	enrollment.IsCompleted = enrollment.IsCompleted || req.IsCompleted
	return enrollment, nil
}

// slideSteps resolves the step count of a slide course the same way learners do:
// the asset's own count, else the configured count, else the lesson count, never below one
func (s *courseService) slideSteps(ctx context.Context, course *models.Course) (int, error) {
	if s.slides != nil {
		info, err := s.slides.Info(ctx, *course.SlideFile)
		if err == nil && info.SlideCount > 0 {
			return info.SlideCount, nil
		}
		if err != nil {
			s.logger.Debug("slide count unavailable, using course fallback",
				zap.Int("course_id", course.ID), zap.Error(err))
		}
	}
	if course.SlideCount > 0 {
		return course.SlideCount, nil
	}

	lessons, err := s.courseRepo.GetLessons(ctx, course.ID)
	if err != nil {
		return 0, err
	}
	course.Lessons = lessons
	return course.FallbackSlideSteps(), nil
}

func (s *courseService) requireEnrollment(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, models.ErrNotEnrolled
	}
	return enrollment, nil
}
