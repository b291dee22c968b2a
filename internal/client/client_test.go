package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uyho/backend/internal/models"
	"github.com/uyho/backend/internal/session"
)

var testSession = session.Session{LearnerID: 7, Token: "token-7"}

// newTestClient starts a server answering with handler and returns a client pointed at it
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1", testSession, zap.NewNop(), WithRetry(0, 0))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_GetCourse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/courses/3", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("userId"))
		assert.Equal(t, "Bearer token-7", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"id":                3,
			"title":             "Safety",
			"slideFile":         "safety.pdf",
			"is_enrolled":       true,
			"user_progress":     40,
			"slide_position":    5,
			"completed_lessons": []string{},
		})
	})

	view, err := c.GetCourse(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, "Safety", view.Title)
	assert.True(t, view.HasSlides())
	assert.True(t, view.IsEnrolled)
	assert.Equal(t, 40, view.UserProgress)
	assert.Equal(t, 5, view.SlidePosition)
}

func TestClient_Enroll(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/courses/3/enroll", r.URL.Path)
		var req models.EnrollRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 7, req.LearnerID)
		writeJSON(w, http.StatusOK, models.Enrollment{ID: 11, CurrentSlide: 1})
	})

	e, err := c.Enroll(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, 11, e.ID)
}

func TestClient_SaveLessonProgress(t *testing.T) {
	var got models.LessonProgressRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/courses/2/progress", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, models.Enrollment{})
	})

	require.NoError(t, c.SaveLessonProgress(context.Background(), 2, 0, nil))

	assert.Equal(t, 7, got.LearnerID)
	assert.NotNil(t, got.CompletedLessons)
	assert.Empty(t, got.CompletedLessons)
}

func TestClient_SaveSlideProgress(t *testing.T) {
	var got models.SlideProgressRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/courses/3/slide-progress", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, models.Enrollment{})
	})

	require.NoError(t, c.SaveSlideProgress(context.Background(), 3, 10, 10, true))

	assert.Equal(t, models.SlideProgressRequest{LearnerID: 7, CurrentSlide: 10, TotalSlides: 10, IsCompleted: true}, got)
}

func TestClient_IssueCertificate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.IssueCertificateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "UYHO/COA/2024/123", req.CertificateCode)
		assert.Equal(t, 100, req.Score)
		writeJSON(w, http.StatusOK, models.IssueCertificateResponse{CertificateCode: "UYHO/COA/2023/007"})
	})

	code, err := c.IssueCertificate(context.Background(), 2, 100, "UYHO/COA/2024/123")

	require.NoError(t, err)
	assert.Equal(t, "UYHO/COA/2023/007", code)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           any
		expectedError  error
		expectedStatus int
	}{
		{
			name:           "not enrolled",
			status:         http.StatusConflict,
			body:           map[string]string{"error": models.ErrNotEnrolled.Error()},
			expectedError:  models.ErrNotEnrolled,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "wrapped sentinel message",
			status:         http.StatusConflict,
			body:           map[string]string{"error": models.ErrWrongMode.Error() + ": course 3 is slide based"},
			expectedError:  models.ErrWrongMode,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "unauthorized",
			status:         http.StatusUnauthorized,
			body:           map[string]string{"error": "invalid or expired token"},
			expectedError:  models.ErrUnauthorized,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "server error",
			status:         http.StatusInternalServerError,
			body:           map[string]string{"error": "internal server error"},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			err := c.SubmitRating(context.Background(), 2, 4, "")

			require.Error(t, err)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.expectedStatus, apiErr.StatusCode)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.Nil(t, apiErr.Unwrap())
			}
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, testSession, zap.NewNop(), WithRetry(0, 0))

	_, err := c.GetCourse(context.Background(), 1)

	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_Ratings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req models.RatingRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 5, req.Rating)
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			writeJSON(w, http.StatusOK, models.RatingsResponse{Summary: models.RatingSummary{Average: 4.5, Count: 2}})
		}
	})

	require.NoError(t, c.SubmitRating(context.Background(), 2, 5, "great"))
	resp, err := c.ListRatings(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, 4.5, resp.Summary.Average)
}

func TestClient_Slides(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "decks/safety.pdf", r.URL.Query().Get("file"))
		switch r.URL.Path {
		case "/api/v1/slides/info":
			writeJSON(w, http.StatusOK, models.SlideInfo{SlideCount: 12})
		case "/api/v1/slides/file":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4"))
		default:
			http.NotFound(w, r)
		}
	})

	n, err := c.SlideCount(context.Background(), "decks/safety.pdf")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	data, err := c.Download(context.Background(), "decks/safety.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)
}

func TestClient_VerifyCertificate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "UYHO/COA/2024/001", r.URL.Query().Get("code"))
		writeJSON(w, http.StatusOK, models.CertificateVerification{Valid: true, Code: "UYHO/COA/2024/001"})
	})

	v, err := c.VerifyCertificate(context.Background(), "UYHO/COA/2024/001")

	require.NoError(t, err)
	assert.True(t, v.Valid)
}
