package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uyho/backend/internal/models"
)

func TestCourseHandler_GetCourse(t *testing.T) {
	view := &models.LearnerCourseView{
		Course:           models.Course{ID: 2, Title: "First aid"},
		IsEnrolled:       true,
		UserProgress:     50,
		CompletedLessons: []string{"10"},
	}

	tests := []struct {
		name           string
		target         string
		token          string
		service        *mockCourseService
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "success",
			target:         "/courses/2?userId=1",
			service:        &mockCourseService{view: view},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "userId omitted",
			target:         "/courses/2",
			service:        &mockCourseService{view: view},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "other learner",
			target:         "/courses/2?userId=7",
			service:        &mockCourseService{view: view},
			expectedStatus: http.StatusForbidden,
			expectedError:  models.ErrForbidden.Error(),
		},
		{
			name:           "bad userId",
			target:         "/courses/2?userId=abc",
			service:        &mockCourseService{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad course id",
			target:         "/courses/abc",
			service:        &mockCourseService{},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid course id",
		},
		{
			name:           "not found",
			target:         "/courses/2",
			service:        &mockCourseService{err: models.ErrCourseNotFound},
			expectedStatus: http.StatusNotFound,
			expectedError:  models.ErrCourseNotFound.Error(),
		},
		{
			name:           "internal error hidden",
			target:         "/courses/2",
			service:        &mockCourseService{err: fmt.Errorf("failed to get course: %w", assert.AnError)},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "internal server error",
		},
		{
			name:           "anonymous",
			target:         "/courses/2",
			token:          "-",
			service:        &mockCourseService{},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(NewCourseHandler(tt.service, newLogger()))

			w := doRequest(t, router, http.MethodGet, tt.target, nil, tt.token)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorBody(t, w))
			}
			if w.Code == http.StatusOK {
				var got map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, true, got["is_enrolled"])
				assert.Equal(t, float64(50), got["user_progress"])
				assert.Equal(t, "First aid", got["title"])
				assert.Equal(t, 1, tt.service.gotUserID)
				assert.Equal(t, 2, tt.service.gotCourseID)
			}
		})
	}
}

func TestCourseHandler_Enroll(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		service        *mockCourseService
		expectedStatus int
	}{
		{
			name:           "with body",
			body:           models.EnrollRequest{LearnerID: 1},
			service:        &mockCourseService{enrollment: &models.Enrollment{ID: 3, CurrentSlide: 1}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty body",
			service:        &mockCourseService{enrollment: &models.Enrollment{ID: 3, CurrentSlide: 1}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "other learner",
			body:           models.EnrollRequest{LearnerID: 2},
			service:        &mockCourseService{},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "malformed body",
			body:           "{",
			service:        &mockCourseService{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown course",
			service:        &mockCourseService{err: models.ErrCourseNotFound},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(NewCourseHandler(tt.service, newLogger()))

			w := doRequest(t, router, http.MethodPost, "/courses/2/enroll", tt.body, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if w.Code == http.StatusOK {
				var e models.Enrollment
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
				assert.Equal(t, 3, e.ID)
			}
		})
	}
}

func TestCourseHandler_SaveLessonProgress(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		service        *mockCourseService
		expectedStatus int
	}{
		{
			name:           "success",
			body:           models.LessonProgressRequest{LearnerID: 1, Progress: 50, CompletedLessons: []string{"1", "3"}},
			service:        &mockCourseService{enrollment: &models.Enrollment{Progress: 50}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "other learner",
			body:           models.LessonProgressRequest{LearnerID: 9},
			service:        &mockCourseService{},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "not enrolled",
			body:           models.LessonProgressRequest{LearnerID: 1},
			service:        &mockCourseService{err: models.ErrNotEnrolled},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "wrong mode",
			body:           models.LessonProgressRequest{LearnerID: 1},
			service:        &mockCourseService{err: fmt.Errorf("%w: course 2 is slide based", models.ErrWrongMode)},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "missing body",
			service:        &mockCourseService{},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(NewCourseHandler(tt.service, newLogger()))

			w := doRequest(t, router, http.MethodPut, "/courses/2/progress", tt.body, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if w.Code == http.StatusOK {
				assert.Equal(t, []string{"1", "3"}, tt.service.lessonReq.CompletedLessons)
			}
		})
	}
}

func TestCourseHandler_SaveSlideProgress(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		service        *mockCourseService
		expectedStatus int
	}{
		{
			name:           "success",
			body:           models.SlideProgressRequest{LearnerID: 1, CurrentSlide: 3, TotalSlides: 10},
			service:        &mockCourseService{enrollment: &models.Enrollment{CurrentSlide: 3, TotalSlides: 10, Progress: 20}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid cursor",
			body:           models.SlideProgressRequest{LearnerID: 1, CurrentSlide: 12, TotalSlides: 10},
			service:        &mockCourseService{err: models.ErrInvalidProgress},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "other learner",
			body:           models.SlideProgressRequest{LearnerID: 4},
			service:        &mockCourseService{},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(NewCourseHandler(tt.service, newLogger()))

			w := doRequest(t, router, http.MethodPut, "/courses/2/slide-progress", tt.body, "")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if w.Code == http.StatusOK {
				assert.Equal(t, 3, tt.service.slideReq.CurrentSlide)
			}
		})
	}
}
