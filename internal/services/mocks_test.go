package services

import (
	"context"
	"os"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/uyho/backend/internal/models"
)

// mockCourseRepository is a mock implementation of CourseRepository
type mockCourseRepository struct {
	course       *models.Course
	lessons      []models.Lesson
	questions    []models.QuizQuestion
	err          error
	lessonsErr   error
	questionsErr error
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.course == nil {
		return nil, models.ErrCourseNotFound
	}
	c := *m.course
	return &c, nil
}

func (m *mockCourseRepository) GetLessons(ctx context.Context, courseID int) ([]models.Lesson, error) {
	if m.lessonsErr != nil {
		return nil, m.lessonsErr
	}
	return m.lessons, nil
}

func (m *mockCourseRepository) GetQuestions(ctx context.Context, courseID int) ([]models.QuizQuestion, error) {
	if m.questionsErr != nil {
		return nil, m.questionsErr
	}
	return m.questions, nil
}

// mockEnrollmentRepository is a mock implementation of EnrollmentRepository
type mockEnrollmentRepository struct {
	mu          sync.Mutex
	enrollment  *models.Enrollment
	err         error
	createErr   error
	updateErr   error
	created     bool
	lessonSave  *lessonSave
	slideSave   *slideSave
	createCalls int
}

type lessonSave struct {
	progress    int
	completed   []string
	isCompleted bool
}

type slideSave struct {
	current, total, progress int
	isCompleted              bool
}

func (m *mockEnrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID int) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.enrollment == nil {
		return nil, nil
	}
	e := *m.enrollment
	return &e, nil
}

func (m *mockEnrollmentRepository) Create(ctx context.Context, userID, courseID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	if m.enrollment == nil {
		m.enrollment = &models.Enrollment{ID: 1, UserID: userID, CourseID: courseID, CurrentSlide: 1, CompletedLessons: []string{}}
		m.created = true
	}
	return nil
}

func (m *mockEnrollmentRepository) UpdateLessonProgress(ctx context.Context, enrollmentID, progress int, completedLessons []string, isCompleted bool) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.lessonSave = &lessonSave{progress: progress, completed: completedLessons, isCompleted: isCompleted}
	return nil
}

func (m *mockEnrollmentRepository) UpdateSlideProgress(ctx context.Context, enrollmentID, currentSlide, totalSlides, progress int, isCompleted bool) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.slideSave = &slideSave{current: currentSlide, total: totalSlides, progress: progress, isCompleted: isCompleted}
	return nil
}

// mockCertificateRepository is a mock implementation of CertificateRepository
type mockCertificateRepository struct {
	byEnrollment *models.Certificate
	byCode       *models.Certificate
	err          error
	// createErrs are returned by successive Create calls
	createErrs []error
	created    []models.Certificate
	// afterConflict is stored as the enrollment's certificate on ErrAlreadyIssued
	afterConflict *models.Certificate
}

func (m *mockCertificateRepository) GetByEnrollment(ctx context.Context, enrollmentID int) (*models.Certificate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byEnrollment, nil
}

func (m *mockCertificateRepository) GetByCode(ctx context.Context, code string) (*models.Certificate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byCode, nil
}

func (m *mockCertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			if m.afterConflict != nil {
				m.byEnrollment = m.afterConflict
			}
			return err
		}
	}
	cert.ID = len(m.created) + 1
	m.created = append(m.created, *cert)
	m.byEnrollment = cert
	return nil
}

// mockNotifier is a mock implementation of CertificateNotifier
type mockNotifier struct {
	payloads []models.CertificateIssuedPayload
	err      error
}

func (m *mockNotifier) NotifyCertificateIssued(ctx context.Context, payload models.CertificateIssuedPayload) error {
	m.payloads = append(m.payloads, payload)
	return m.err
}

// mockRatingRepository is a mock implementation of RatingRepository
type mockRatingRepository struct {
	ratings      map[int]models.Rating
	summary      *models.RatingSummary
	err          error
	summaryCalls int
	refreshed    []int
	// afterSummary runs once GetSummary has read its result
	afterSummary func()
}

func (m *mockRatingRepository) Upsert(ctx context.Context, userID, courseID, rating int, review string) error {
	if m.err != nil {
		return m.err
	}
	if m.ratings == nil {
		m.ratings = map[int]models.Rating{}
	}
	m.ratings[userID] = models.Rating{UserID: userID, CourseID: courseID, Rating: rating, Review: review}
	return nil
}

func (m *mockRatingRepository) ListByCourse(ctx context.Context, courseID int) ([]models.Rating, error) {
	if m.err != nil {
		return nil, m.err
	}
	list := []models.Rating{}
	for _, r := range m.ratings {
		list = append(list, r)
	}
	return list, nil
}

func (m *mockRatingRepository) GetSummary(ctx context.Context, courseID int) (*models.RatingSummary, error) {
	m.summaryCalls++
	if m.afterSummary != nil {
		defer m.afterSummary()
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.summary == nil {
		return nil, models.ErrCourseNotFound
	}
	return m.summary, nil
}

func (m *mockRatingRepository) RefreshAggregates(ctx context.Context) ([]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.refreshed, nil
}

// mockRatingCache is an in-memory RatingCache
type mockRatingCache struct {
	entries     map[int]*models.RatingSummary
	generations map[int]int64
	err         error
	invalidated []int
	fillSkipped int
}

func (m *mockRatingCache) Get(ctx context.Context, courseID int) (*models.RatingSummary, int64, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.entries[courseID], m.generations[courseID], nil
}

func (m *mockRatingCache) Fill(ctx context.Context, courseID int, generation int64, summary *models.RatingSummary) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.generations[courseID] != generation {
		m.fillSkipped++
		return false, nil
	}
	if m.entries == nil {
		m.entries = map[int]*models.RatingSummary{}
	}
	m.entries[courseID] = summary
	return true, nil
}

func (m *mockRatingCache) Invalidate(ctx context.Context, courseIDs ...int) error {
	m.invalidated = append(m.invalidated, courseIDs...)
	if m.err != nil {
		return m.err
	}
	if m.generations == nil {
		m.generations = map[int]int64{}
	}
	for _, id := range courseIDs {
		m.generations[id]++
		delete(m.entries, id)
	}
	return nil
}

// mockMediaStorage is a mock implementation of MediaStorage
type mockMediaStorage struct {
	data map[string][]byte
	err  error
}

func (m *mockMediaStorage) ReadFile(name string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.data[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return d, nil
}

func (m *mockMediaStorage) OpenFile(name string) (*os.File, error) {
	if m.err != nil {
		return nil, m.err
	}
	return nil, os.ErrNotExist
}

// mockSlideCounter is a mock implementation of SlideCounter
type mockSlideCounter struct {
	count int
	err   error
}

func (m *mockSlideCounter) Info(ctx context.Context, file string) (*models.SlideInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.SlideInfo{SlideCount: m.count}, nil
}

// mockEnqueuer is a mock implementation of TaskEnqueuer
type mockEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.tasks = append(m.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type()}, nil
}

func strPtr(s string) *string { return &s }
