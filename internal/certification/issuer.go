// Package certification awards certificates for passed quizzes.
package certification

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/uyho/backend/internal/certcode"
	"github.com/uyho/backend/internal/models"
	"github.com/uyho/backend/internal/quiz"
	"github.com/uyho/backend/internal/session"
)

// ErrNothingPending is returned by Retry when no award is waiting to be saved
var ErrNothingPending = errors.New("no pending certificate award")

// Awarder persists certificate awards
type Awarder interface {
	// IssueCertificate stores the award and returns the code the server kept
	IssueCertificate(ctx context.Context, courseID, score int, code string) (string, error)
}

// Enrollment is the progress state the issuer reads and updates
type Enrollment interface {
	CourseID() int
	Status() models.Status
	CertificateCode() string
	MarkPassed(code string) error
}

type award struct {
	score int
	code  string
}

// Option configures an Issuer
type Option func(*Issuer)

// WithClock overrides the clock used for the certificate year
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// WithRand overrides the random source used to mint codes
func WithRand(rng *rand.Rand) Option {
	return func(i *Issuer) { i.rng = rng }
}

// Issuer turns a passing score into a stored certificate
type Issuer struct {
	mu         sync.Mutex
	sess       session.Session
	enrollment Enrollment
	awarder    Awarder
	logger     *zap.Logger
	now        func() time.Time
	rng        *rand.Rand
	pending    *award
}

// NewIssuer creates an issuer for one enrollment
func NewIssuer(sess session.Session, enrollment Enrollment, awarder Awarder, logger *zap.Logger, opts ...Option) *Issuer {
	i := &Issuer{
		sess:       sess,
		enrollment: enrollment,
		awarder:    awarder,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue awards a certificate for score. A learner who already holds a code
// keeps it; a new code is minted only on the first pass. The enrollment is
// marked passed only after the server stored the award, and a failed save is
// kept for Retry.
func (i *Issuer) Issue(ctx context.Context, score int) (string, error) {
	if score < models.PassThreshold {
		return "", models.ErrScoreBelowThreshold
	}
	if err := i.sess.Require(); err != nil {
		return "", err
	}
	if !models.IsComplete(i.enrollment.Status()) {
		return "", models.ErrCourseNotCompleted
	}

	i.mu.Lock()
	code := i.enrollment.CertificateCode()
	if code == "" && i.pending != nil {
		code = i.pending.code
	}
	if code == "" {
		code = certcode.Generate(i.now().Year(), i.rng)
	}
	i.pending = &award{score: score, code: code}
	i.mu.Unlock()

	return i.send(ctx)
}

// Retry re-sends a pending award without repeating the quiz
func (i *Issuer) Retry(ctx context.Context) (string, error) {
	i.mu.Lock()
	pending := i.pending != nil
	i.mu.Unlock()
	if !pending {
		return "", ErrNothingPending
	}
	return i.send(ctx)
}

// Pending reports whether an award is waiting to be saved
func (i *Issuer) Pending() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.pending != nil
}

// OnQuizPassed returns a quiz hook that issues the certificate in the background.
// Failures are passed to onErr and stay pending for Retry.
func (i *Issuer) OnQuizPassed(ctx context.Context, onErr func(error)) quiz.Option {
	return quiz.OnPassed(func(r quiz.Result) {
		go func() {
			if _, err := i.Issue(ctx, r.Score); err != nil && onErr != nil {
				onErr(err)
			}
		}()
	})
}

func (i *Issuer) send(ctx context.Context) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.pending == nil {
		return "", ErrNothingPending
	}
	p := *i.pending

	stored, err := i.awarder.IssueCertificate(ctx, i.enrollment.CourseID(), p.score, p.code)
	if err != nil {
		i.logger.Warn("failed to save certificate", zap.String("code", p.code), zap.Error(err))
		return "", err
	}
	if stored == "" {
		stored = p.code
	}
	if stored != p.code {
		i.logger.Info("server kept a different certificate code", zap.String("proposed", p.code), zap.String("stored", stored))
	}

	if err := i.enrollment.MarkPassed(stored); err != nil {
		return "", err
	}
	i.pending = nil
	return stored, nil
}
