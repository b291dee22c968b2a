// Package progress tracks a learner's progress through one course and writes
// it through to the API. Local state is updated optimistically and never rolled
// back; failed writes are reported as notices.
package progress

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/uyho/backend/internal/certcode"
	"github.com/uyho/backend/internal/models"
	"github.com/uyho/backend/internal/session"
)

// ErrUnknownLesson is returned when toggling a lesson that is not part of the course
var ErrUnknownLesson = errors.New("lesson is not part of the course")

// Mode is how a course measures progress
type Mode int

const (
	ModeLessons Mode = iota
	ModeSlides
)

func (m Mode) String() string {
	if m == ModeSlides {
		return "slides"
	}
	return "lessons"
}

// Persister writes progress to the API
type Persister interface {
	// Enroll enrolls the learner and returns the stored enrollment
	Enroll(ctx context.Context, courseID int) (*models.Enrollment, error)
	// SaveLessonProgress sends a full lesson snapshot
	SaveLessonProgress(ctx context.Context, courseID, progress int, completedLessons []string) error
	// SaveSlideProgress sends a full slide snapshot
	SaveSlideProgress(ctx context.Context, courseID, currentSlide, totalSlides int, isCompleted bool) error
}

// Notice reports a failed background write. The local state is kept.
type Notice struct {
	Op  string
	Err error
}

// Option configures a Store
type Option func(*Store)

// OnNotice registers a callback for failed writes. It runs on the writer goroutine.
func OnNotice(fn func(Notice)) Option {
	return func(s *Store) { s.onNotice = fn }
}

// Store holds one learner's progress in one course
type Store struct {
	mu        sync.Mutex
	sess      session.Session
	courseID  int
	mode      Mode
	lessons   []string
	persister Persister
	logger    *zap.Logger
	onNotice  func(Notice)

	enrolled    bool
	progress    int
	completed   []string
	cursor      int
	total       int
	isCompleted bool
	hasPassed   bool
	code        string

	writer *writer
	cancel context.CancelFunc
}

// New creates a store from the learner's view of a course.
// The mode is fixed by whether the course has a slide asset.
func New(sess session.Session, view *models.LearnerCourseView, persister Persister, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		sess:        sess,
		courseID:    view.ID,
		persister:   persister,
		logger:      logger,
		enrolled:    view.IsEnrolled,
		progress:    models.ClampProgress(view.UserProgress),
		completed:   slices.Clone(view.CompletedLessons),
		cursor:      max(view.SlidePosition, 1),
		total:       view.FallbackSlideSteps(),
		isCompleted: view.IsCompleted,
	}
	if view.HasSlides() {
		s.mode = ModeSlides
	}
	for i, l := range view.Lessons {
		s.lessons = append(s.lessons, models.LessonKey(l, i))
	}
	if view.HasPassed && view.CertificateCode != nil {
		s.hasPassed = true
		s.code = *view.CertificateCode
	}
	if s.completed == nil {
		s.completed = []string{}
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.writer = newWriter(ctx, s.save, s.notice)
	return s
}

// Enroll enrolls the learner. Enrolling twice is a no-op.
func (s *Store) Enroll(ctx context.Context) error {
	if err := s.sess.Require(); err != nil {
		return err
	}
	s.mu.Lock()
	enrolled := s.enrolled
	s.mu.Unlock()
	if enrolled {
		return nil
	}

	enrollment, err := s.persister.Enroll(ctx, s.courseID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrolled = true
	s.progress = models.ClampProgress(enrollment.Progress)
	s.cursor = max(enrollment.CurrentSlide, 1)
	if enrollment.CompletedLessons != nil {
		s.completed = slices.Clone(enrollment.CompletedLessons)
	}
	s.isCompleted = enrollment.IsCompleted
	return nil
}

// ToggleLessonComplete marks a lesson complete, or incomplete if it already was
func (s *Store) ToggleLessonComplete(ctx context.Context, lessonKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(ModeLessons); err != nil {
		return err
	}
	if !slices.Contains(s.lessons, lessonKey) {
		return fmt.Errorf("%w: %q", ErrUnknownLesson, lessonKey)
	}

	if i := slices.Index(s.completed, lessonKey); i >= 0 {
		s.completed = slices.Delete(s.completed, i, i+1)
	} else {
		s.completed = append(s.completed, lessonKey)
	}
	s.progress = models.LessonProgress(len(s.completed), len(s.lessons))
	// a passed course stays complete
	s.isCompleted = s.progress >= 100 || s.hasPassed

	s.writer.submit(snapshot{
		mode:      ModeLessons,
		progress:  s.progress,
		completed: slices.Clone(s.completed),
	})
	return nil
}

// AdvanceSlide moves the slide cursor. markComplete finishes the deck and is
// only accepted on the last slide. Progress never decreases when navigating back.
func (s *Store) AdvanceSlide(ctx context.Context, cursor int, markComplete bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(ModeSlides); err != nil {
		return err
	}
	if s.total < 1 || cursor < 1 || cursor > s.total {
		return fmt.Errorf("%w: slide %d of %d", models.ErrInvalidProgress, cursor, s.total)
	}
	if markComplete && cursor != s.total {
		return fmt.Errorf("%w: completion requires the last slide", models.ErrInvalidProgress)
	}

	s.cursor = cursor
	if markComplete {
		s.isCompleted = true
	}
	s.progress = max(s.progress, models.SlideProgress(cursor, s.total, s.isCompleted))

	s.writer.submit(snapshot{
		mode:        ModeSlides,
		cursor:      cursor,
		total:       s.total,
		isCompleted: s.isCompleted,
	})
	return nil
}

// SetTotalSlides replaces the configured slide count with the resolved deck size
func (s *Store) SetTotalSlides(total int) {
	if total < 1 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = total
	s.cursor = min(s.cursor, total)
}

// MarkPassed records a certificate. The course must be complete and the code well formed.
func (s *Store) MarkPassed(code string) error {
	if !certcode.Valid(code) {
		return fmt.Errorf("%w: %q", models.ErrInvalidCertificateCode, code)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !models.IsComplete(s.statusLocked()) {
		return models.ErrCourseNotCompleted
	}
	s.hasPassed = true
	s.isCompleted = true
	s.progress = 100
	s.code = code
	return nil
}

// Flush waits until all pending writes have been sent
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// Close cancels in-flight writes
func (s *Store) Close() {
	s.cancel()
}

// CourseID returns the course the store tracks
func (s *Store) CourseID() int {
	return s.courseID
}

// Mode returns how the course measures progress
func (s *Store) Mode() Mode {
	return s.mode
}

// Progress returns the progress percentage
func (s *Store) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Status returns the enrollment status
func (s *Store) Status() models.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Cursor returns the 1-based slide cursor and the slide count
func (s *Store) Cursor() (current, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, s.total
}

// CompletedLessons returns a copy of the completed lesson set
func (s *Store) CompletedLessons() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.completed)
}

// CertificateCode returns the stored certificate code, empty before a pass
func (s *Store) CertificateCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

func (s *Store) statusLocked() models.Status {
	return models.StatusFromFlags(s.enrolled, s.progress, s.isCompleted, s.hasPassed, s.code)
}

func (s *Store) requireLocked(mode Mode) error {
	if err := s.sess.Require(); err != nil {
		return err
	}
	if s.mode != mode {
		return fmt.Errorf("%w: course uses %s", models.ErrWrongMode, s.mode)
	}
	if !s.enrolled {
		return models.ErrNotEnrolled
	}
	return nil
}

func (s *Store) save(ctx context.Context, snap snapshot) error {
	if snap.mode == ModeSlides {
		return s.persister.SaveSlideProgress(ctx, s.courseID, snap.cursor, snap.total, snap.isCompleted)
	}
	return s.persister.SaveLessonProgress(ctx, s.courseID, snap.progress, snap.completed)
}

func (s *Store) notice(err error) {
	s.logger.Warn("progress write failed", zap.Int("course_id", s.courseID), zap.Error(err))
	if s.onNotice != nil {
		s.onNotice(Notice{Op: "save progress", Err: err})
	}
}
