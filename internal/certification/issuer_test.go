package certification

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uyho/backend/internal/certcode"
	"github.com/uyho/backend/internal/models"
	"github.com/uyho/backend/internal/session"
)

var learner = session.Session{LearnerID: 1, Token: "t"}

// mockEnrollment is a minimal in-memory Enrollment
type mockEnrollment struct {
	mu     sync.Mutex
	status models.Status
	code   string
}

func (m *mockEnrollment) CourseID() int { return 2 }

func (m *mockEnrollment) Status() models.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *mockEnrollment) CertificateCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.code
}

func (m *mockEnrollment) MarkPassed(code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !models.IsComplete(m.status) {
		return models.ErrCourseNotCompleted
	}
	m.status = models.Passed{CertificateCode: code}
	m.code = code
	return nil
}

// mockAwarder records calls; errs are returned by successive calls
type mockAwarder struct {
	mu    sync.Mutex
	calls []award
	errs  []error
	// echo, when set, replaces the proposed code in the response
	echo string
}

func (m *mockAwarder) IssueCertificate(ctx context.Context, courseID, score int, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, award{score: score, code: code})
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if m.echo != "" {
		return m.echo, nil
	}
	return code, nil
}

func fixedClock() Option {
	return WithClock(func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) })
}

func TestIssuer_FirstPassMintsCode(t *testing.T) {
	enrollment := &mockEnrollment{status: models.Completed{}}
	awarder := &mockAwarder{}
	issuer := NewIssuer(learner, enrollment, awarder, zap.NewNop(), fixedClock(), WithRand(rand.New(rand.NewPCG(1, 2))))

	code, err := issuer.Issue(context.Background(), 100)

	require.NoError(t, err)
	assert.True(t, certcode.Valid(code))
	assert.Regexp(t, `^UYHO/COA/2024/`, code)
	assert.Equal(t, models.Passed{CertificateCode: code}, enrollment.Status())
	assert.False(t, issuer.Pending())
	require.Len(t, awarder.calls, 1)
	assert.Equal(t, 100, awarder.calls[0].score)
}

func TestIssuer_RepeatPassReusesCode(t *testing.T) {
	enrollment := &mockEnrollment{status: models.Passed{CertificateCode: "UYHO/COA/2023/007"}, code: "UYHO/COA/2023/007"}
	awarder := &mockAwarder{}
	issuer := NewIssuer(learner, enrollment, awarder, zap.NewNop(), fixedClock())

	code, err := issuer.Issue(context.Background(), 90)

	require.NoError(t, err)
	assert.Equal(t, "UYHO/COA/2023/007", code)
	assert.Equal(t, "UYHO/COA/2023/007", awarder.calls[0].code)
}

func TestIssuer_AdoptsServerCode(t *testing.T) {
	enrollment := &mockEnrollment{status: models.Completed{}}
	issuer := NewIssuer(learner, enrollment, &mockAwarder{echo: "UYHO/COA/2024/555"}, zap.NewNop(), fixedClock())

	code, err := issuer.Issue(context.Background(), 80)

	require.NoError(t, err)
	assert.Equal(t, "UYHO/COA/2024/555", code)
	assert.Equal(t, "UYHO/COA/2024/555", enrollment.CertificateCode())
}

func TestIssuer_FailedSaveIsRetried(t *testing.T) {
	enrollment := &mockEnrollment{status: models.Completed{}}
	awarder := &mockAwarder{errs: []error{errors.New("offline")}}
	issuer := NewIssuer(learner, enrollment, awarder, zap.NewNop(), fixedClock())

	_, err := issuer.Issue(context.Background(), 100)
	require.Error(t, err)
	assert.True(t, issuer.Pending())
	assert.Equal(t, models.Completed{}, enrollment.Status())

	code, err := issuer.Retry(context.Background())

	require.NoError(t, err)
	assert.Equal(t, models.Passed{CertificateCode: code}, enrollment.Status())
	require.Len(t, awarder.calls, 2)
	assert.Equal(t, awarder.calls[0], awarder.calls[1])
	assert.False(t, issuer.Pending())
}

func TestIssuer_RepeatAfterFailureKeepsPendingCode(t *testing.T) {
	enrollment := &mockEnrollment{status: models.Completed{}}
	awarder := &mockAwarder{errs: []error{errors.New("offline")}}
	issuer := NewIssuer(learner, enrollment, awarder, zap.NewNop(), fixedClock())

	_, err := issuer.Issue(context.Background(), 100)
	require.Error(t, err)
	_, err = issuer.Issue(context.Background(), 80)
	require.NoError(t, err)

	require.Len(t, awarder.calls, 2)
	assert.Equal(t, awarder.calls[0].code, awarder.calls[1].code)
	assert.Equal(t, 80, awarder.calls[1].score)
}

func TestIssuer_Refusals(t *testing.T) {
	tests := []struct {
		name          string
		sess          session.Session
		status        models.Status
		score         int
		expectedError error
	}{
		{name: "below threshold", sess: learner, status: models.Completed{}, score: 69, expectedError: models.ErrScoreBelowThreshold},
		{name: "anonymous", sess: session.Session{}, status: models.Completed{}, score: 90, expectedError: session.ErrAnonymous},
		{name: "not completed", sess: learner, status: models.InProgress{Progress: 50}, score: 90, expectedError: models.ErrCourseNotCompleted},
		{name: "not enrolled", sess: learner, status: models.NotEnrolled{}, score: 90, expectedError: models.ErrCourseNotCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			awarder := &mockAwarder{}
			issuer := NewIssuer(tt.sess, &mockEnrollment{status: tt.status}, awarder, zap.NewNop())

			_, err := issuer.Issue(context.Background(), tt.score)

			assert.ErrorIs(t, err, tt.expectedError)
			assert.Empty(t, awarder.calls)
			assert.False(t, issuer.Pending())
		})
	}
}

func TestIssuer_RetryWithoutPending(t *testing.T) {
	issuer := NewIssuer(learner, &mockEnrollment{status: models.Completed{}}, &mockAwarder{}, zap.NewNop())

	_, err := issuer.Retry(context.Background())

	assert.ErrorIs(t, err, ErrNothingPending)
}
