package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uyho/backend/internal/models"
	"github.com/uyho/backend/internal/session"
)

var learner = session.Session{LearnerID: 1, Token: "t"}

type lessonWrite struct {
	progress  int
	completed []string
}

type slideWrite struct {
	cursor, total int
	isCompleted   bool
}

// mockPersister records writes; gate, when set, blocks each write until it receives
type mockPersister struct {
	mu           sync.Mutex
	enrollment   *models.Enrollment
	enrollErr    error
	saveErr      error
	gate         chan struct{}
	lessonWrites []lessonWrite
	slideWrites  []slideWrite
	enrollCalls  int
}

func (m *mockPersister) Enroll(ctx context.Context, courseID int) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enrollCalls++
	if m.enrollErr != nil {
		return nil, m.enrollErr
	}
	if m.enrollment != nil {
		return m.enrollment, nil
	}
	return &models.Enrollment{CurrentSlide: 1, CompletedLessons: []string{}}, nil
}

func (m *mockPersister) SaveLessonProgress(ctx context.Context, courseID, progress int, completed []string) error {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lessonWrites = append(m.lessonWrites, lessonWrite{progress, completed})
	return m.saveErr
}

func (m *mockPersister) SaveSlideProgress(ctx context.Context, courseID, cursor, total int, isCompleted bool) error {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slideWrites = append(m.slideWrites, slideWrite{cursor, total, isCompleted})
	return m.saveErr
}

func (m *mockPersister) lessons() []lessonWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]lessonWrite(nil), m.lessonWrites...)
}

func (m *mockPersister) slides() []slideWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]slideWrite(nil), m.slideWrites...)
}

func lessonView(enrolled bool) *models.LearnerCourseView {
	return &models.LearnerCourseView{
		Course: models.Course{
			ID: 2,
			Lessons: []models.Lesson{
				{ID: 10}, {ID: 11}, {ID: 12}, {ID: 13},
			},
		},
		IsEnrolled:       enrolled,
		CompletedLessons: []string{},
	}
}

func slideView(enrolled bool, total int) *models.LearnerCourseView {
	file := "safety.pdf"
	return &models.LearnerCourseView{
		Course:        models.Course{ID: 3, SlideFile: &file, SlideCount: total},
		IsEnrolled:    enrolled,
		SlidePosition: 1,
	}
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func TestStore_Mode(t *testing.T) {
	assert.Equal(t, ModeLessons, New(learner, lessonView(true), &mockPersister{}, zap.NewNop()).Mode())
	assert.Equal(t, ModeSlides, New(learner, slideView(true, 10), &mockPersister{}, zap.NewNop()).Mode())
}

func TestStore_Enroll(t *testing.T) {
	t.Run("fresh enrollment", func(t *testing.T) {
		p := &mockPersister{}
		s := New(learner, lessonView(false), p, zap.NewNop())
		assert.Equal(t, models.NotEnrolled{}, s.Status())

		require.NoError(t, s.Enroll(context.Background()))

		assert.Equal(t, models.InProgress{Progress: 0}, s.Status())
		assert.Equal(t, 0, s.Progress())
	})

	t.Run("already enrolled is a no-op", func(t *testing.T) {
		p := &mockPersister{}
		s := New(learner, lessonView(true), p, zap.NewNop())

		require.NoError(t, s.Enroll(context.Background()))

		assert.Equal(t, 0, p.enrollCalls)
	})

	t.Run("anonymous", func(t *testing.T) {
		s := New(session.Session{}, lessonView(false), &mockPersister{}, zap.NewNop())

		assert.ErrorIs(t, s.Enroll(context.Background()), session.ErrAnonymous)
	})

	t.Run("failure leaves learner unenrolled", func(t *testing.T) {
		s := New(learner, lessonView(false), &mockPersister{enrollErr: errors.New("offline")}, zap.NewNop())

		assert.Error(t, s.Enroll(context.Background()))
		assert.False(t, models.IsEnrolled(s.Status()))
	})
}

func TestStore_ToggleLessonComplete(t *testing.T) {
	p := &mockPersister{}
	s := New(learner, lessonView(true), p, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.ToggleLessonComplete(ctx, "10"))
	flush(t, s)
	require.NoError(t, s.ToggleLessonComplete(ctx, "12"))
	flush(t, s)
	assert.Equal(t, 50, s.Progress())

	// un-completing lowers progress
	require.NoError(t, s.ToggleLessonComplete(ctx, "12"))
	flush(t, s)
	assert.Equal(t, 25, s.Progress())
	assert.Equal(t, []string{"10"}, s.CompletedLessons())

	writes := p.lessons()
	require.Len(t, writes, 3)
	assert.Equal(t, lessonWrite{25, []string{"10"}}, writes[2])
	assert.Equal(t, 50, writes[1].progress)

	for _, key := range []string{"11", "12", "13"} {
		require.NoError(t, s.ToggleLessonComplete(ctx, key))
	}
	flush(t, s)
	assert.Equal(t, 100, s.Progress())
	assert.Equal(t, models.Completed{}, s.Status())
}

func TestStore_ToggleLessonComplete_Errors(t *testing.T) {
	ctx := context.Background()

	s := New(learner, lessonView(false), &mockPersister{}, zap.NewNop())
	assert.ErrorIs(t, s.ToggleLessonComplete(ctx, "10"), models.ErrNotEnrolled)

	s = New(learner, lessonView(true), &mockPersister{}, zap.NewNop())
	assert.ErrorIs(t, s.ToggleLessonComplete(ctx, "99"), ErrUnknownLesson)

	s = New(learner, slideView(true, 5), &mockPersister{}, zap.NewNop())
	assert.ErrorIs(t, s.ToggleLessonComplete(ctx, "1"), models.ErrWrongMode)
}

func TestStore_LessonKeysFallBackToPosition(t *testing.T) {
	view := lessonView(true)
	view.Lessons = []models.Lesson{{Title: "a"}, {Title: "b"}}
	s := New(learner, view, &mockPersister{}, zap.NewNop())

	require.NoError(t, s.ToggleLessonComplete(context.Background(), "2"))
	flush(t, s)

	assert.Equal(t, 50, s.Progress())
}

func TestStore_AdvanceSlide(t *testing.T) {
	p := &mockPersister{}
	s := New(learner, slideView(true, 10), p, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.AdvanceSlide(ctx, 5, false))
	assert.Equal(t, 40, s.Progress())

	// navigating back keeps progress
	require.NoError(t, s.AdvanceSlide(ctx, 2, false))
	assert.Equal(t, 40, s.Progress())
	cur, total := s.Cursor()
	assert.Equal(t, 2, cur)
	assert.Equal(t, 10, total)

	assert.ErrorIs(t, s.AdvanceSlide(ctx, 9, true), models.ErrInvalidProgress)
	assert.ErrorIs(t, s.AdvanceSlide(ctx, 11, false), models.ErrInvalidProgress)
	assert.ErrorIs(t, s.AdvanceSlide(ctx, 0, false), models.ErrInvalidProgress)

	require.NoError(t, s.AdvanceSlide(ctx, 10, true))
	assert.Equal(t, 100, s.Progress())
	assert.Equal(t, models.Completed{}, s.Status())

	// completion is sticky
	require.NoError(t, s.AdvanceSlide(ctx, 3, false))
	assert.Equal(t, 100, s.Progress())
	flush(t, s)

	writes := p.slides()
	require.NotEmpty(t, writes)
	assert.Equal(t, slideWrite{3, 10, true}, writes[len(writes)-1])
}

func TestStore_AdvanceSlide_WrongMode(t *testing.T) {
	s := New(learner, lessonView(true), &mockPersister{}, zap.NewNop())
	assert.ErrorIs(t, s.AdvanceSlide(context.Background(), 1, false), models.ErrWrongMode)
}

func TestStore_SetTotalSlides(t *testing.T) {
	view := slideView(true, 10)
	view.SlidePosition = 9
	s := New(learner, view, &mockPersister{}, zap.NewNop())

	s.SetTotalSlides(6)
	cur, total := s.Cursor()
	assert.Equal(t, 6, cur)
	assert.Equal(t, 6, total)

	s.SetTotalSlides(0)
	_, total = s.Cursor()
	assert.Equal(t, 6, total)
}

func TestStore_WritesCoalesce(t *testing.T) {
	p := &mockPersister{gate: make(chan struct{})}
	s := New(learner, lessonView(true), p, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.ToggleLessonComplete(ctx, "10"))
	// the first write is in flight; the next three collapse into the last
	require.NoError(t, s.ToggleLessonComplete(ctx, "11"))
	require.NoError(t, s.ToggleLessonComplete(ctx, "12"))
	require.NoError(t, s.ToggleLessonComplete(ctx, "11"))

	go func() {
		for i := 0; i < 2; i++ {
			p.gate <- struct{}{}
		}
	}()
	flush(t, s)

	writes := p.lessons()
	require.Len(t, writes, 2)
	assert.Equal(t, lessonWrite{25, []string{"10"}}, writes[0])
	assert.Equal(t, lessonWrite{50, []string{"10", "12"}}, writes[1])
}

func TestStore_FailedWriteKeepsLocalState(t *testing.T) {
	var (
		mu      sync.Mutex
		notices []Notice
	)
	p := &mockPersister{saveErr: errors.New("offline")}
	s := New(learner, lessonView(true), p, zap.NewNop(), OnNotice(func(n Notice) {
		mu.Lock()
		defer mu.Unlock()
		notices = append(notices, n)
	}))

	require.NoError(t, s.ToggleLessonComplete(context.Background(), "10"))
	flush(t, s)

	assert.Equal(t, 25, s.Progress())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, notices, 1)
	assert.EqualError(t, notices[0].Err, "offline")
}

func TestStore_FlushHonoursContext(t *testing.T) {
	p := &mockPersister{gate: make(chan struct{})}
	s := New(learner, lessonView(true), p, zap.NewNop())
	require.NoError(t, s.ToggleLessonComplete(context.Background(), "10"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)

	p.gate <- struct{}{}
	flush(t, s)
}

func TestStore_MarkPassed(t *testing.T) {
	t.Run("requires completion", func(t *testing.T) {
		s := New(learner, lessonView(true), &mockPersister{}, zap.NewNop())

		assert.ErrorIs(t, s.MarkPassed("UYHO/COA/2024/001"), models.ErrCourseNotCompleted)
	})

	t.Run("rejects malformed code", func(t *testing.T) {
		view := lessonView(true)
		view.IsCompleted = true
		view.UserProgress = 100
		s := New(learner, view, &mockPersister{}, zap.NewNop())

		assert.ErrorIs(t, s.MarkPassed("bad"), models.ErrInvalidCertificateCode)
	})

	t.Run("completed to passed", func(t *testing.T) {
		view := lessonView(true)
		view.IsCompleted = true
		view.UserProgress = 100
		s := New(learner, view, &mockPersister{}, zap.NewNop())

		require.NoError(t, s.MarkPassed("UYHO/COA/2024/001"))

		assert.Equal(t, models.Passed{CertificateCode: "UYHO/COA/2024/001"}, s.Status())
		assert.Equal(t, "UYHO/COA/2024/001", s.CertificateCode())
	})

	t.Run("passed course stays complete after untick", func(t *testing.T) {
		code := "UYHO/COA/2024/001"
		view := lessonView(true)
		view.IsCompleted = true
		view.HasPassed = true
		view.CertificateCode = &code
		view.UserProgress = 100
		view.CompletedLessons = []string{"10", "11", "12", "13"}
		s := New(learner, view, &mockPersister{}, zap.NewNop())

		require.NoError(t, s.ToggleLessonComplete(context.Background(), "13"))
		flush(t, s)

		assert.Equal(t, 75, s.Progress())
		assert.Equal(t, models.Passed{CertificateCode: code}, s.Status())
	})
}
