// Package quiz runs a one-question-at-a-time quiz with instant feedback.
// A wrong answer is retried on the same question; a correct one advances.
package quiz

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/uyho/backend/internal/models"
	"github.com/uyho/backend/internal/session"
)

// DefaultFeedbackDelay is how long feedback is shown before the quiz moves on
const DefaultFeedbackDelay = 1500 * time.Millisecond

var (
	ErrNoQuestions   = errors.New("quiz has no questions")
	ErrNoAnswer      = errors.New("no answer selected")
	ErrNotAccepting  = errors.New("quiz is not accepting answers")
	ErrInvalidOption = errors.New("answer option out of range")
	ErrClosed        = errors.New("quiz session is closed")
)

// Phase is the state of the quiz state machine
type Phase int

const (
	AwaitingAnswer Phase = iota
	Feedback
	Complete
)

func (p Phase) String() string {
	switch p {
	case AwaitingAnswer:
		return "awaiting_answer"
	case Feedback:
		return "feedback"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Verdict is the feedback shown for the last submitted answer
type Verdict int

const (
	NoVerdict Verdict = iota
	Correct
	Wrong
)

// State is a snapshot of a quiz session
type State struct {
	Phase         Phase
	QuestionIndex int
	Verdict       Verdict
	CorrectCount  int
	// Selected is the chosen option of the current question, -1 when none
	Selected int
	// Score is set once Phase is Complete
	Score int
	Total int
}

// Passed reports whether the quiz is complete with a passing score
func (s State) Passed() bool {
	return s.Phase == Complete && s.Score >= models.PassThreshold
}

// Result is emitted when an attempt completes with a passing score
type Result struct {
	LearnerID int
	Score     int
}

// Option configures an Engine
type Option func(*Engine)

// WithFeedbackDelay overrides DefaultFeedbackDelay
func WithFeedbackDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// WithScheduler overrides the timer used for feedback transitions
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.scheduler = s }
}

// OnPassed registers a hook called once per passing attempt
func OnPassed(fn func(Result)) Option {
	return func(e *Engine) { e.onPassed = fn }
}

// OnChange registers a hook called with every new state
func OnChange(fn func(State)) Option {
	return func(e *Engine) { e.onChange = fn }
}

// Engine is one quiz session. It is safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	sess      session.Session
	questions []models.QuizQuestion
	delay     time.Duration
	scheduler Scheduler
	onPassed  func(Result)
	onChange  func(State)

	phase    Phase
	index    int
	correct  int
	selected int
	verdict  Verdict
	score    int

	// generation invalidates scheduled transitions on Restart and Close
	generation uint64
	cancel     func()
	closed     bool
}

// NewEngine starts a quiz over questions for the session's learner
func NewEngine(sess session.Session, questions []models.QuizQuestion, opts ...Option) (*Engine, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	e := &Engine{
		sess:      sess,
		questions: questions,
		delay:     DefaultFeedbackDelay,
		scheduler: TimerScheduler{},
		selected:  -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State returns the current state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// Question returns the question currently shown
func (e *Engine) Question() models.QuizQuestion {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.questions[e.index]
}

// Select chooses an option of the current question without submitting it
func (e *Engine) Select(option int) error {
	e.mu.Lock()
	if err := e.acceptingLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	if option < 0 || option >= len(e.questions[e.index].Options) {
		e.mu.Unlock()
		return ErrInvalidOption
	}
	e.selected = option
	st := e.snapshot()
	e.mu.Unlock()

	e.notify(st)
	return nil
}

// Submit grades the selected option and schedules the feedback transition
func (e *Engine) Submit() error {
	e.mu.Lock()
	if err := e.acceptingLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	if e.selected < 0 {
		e.mu.Unlock()
		return ErrNoAnswer
	}

	e.phase = Feedback
	if e.selected == e.questions[e.index].CorrectIndex {
		e.verdict = Correct
		e.correct++
	} else {
		e.verdict = Wrong
	}

	gen := e.generation
	e.cancel = e.scheduler.After(e.delay, func() { e.resolve(gen) })
	st := e.snapshot()
	e.mu.Unlock()

	e.notify(st)
	return nil
}

// Answer selects option and submits it
func (e *Engine) Answer(option int) error {
	if err := e.Select(option); err != nil {
		return err
	}
	return e.Submit()
}

// Restart discards the current attempt and starts over from the first question.
// Persisted pass state of earlier attempts is not touched.
func (e *Engine) Restart() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.stopPendingLocked()
	e.phase = AwaitingAnswer
	e.index = 0
	e.correct = 0
	e.selected = -1
	e.verdict = NoVerdict
	e.score = 0
	st := e.snapshot()
	e.mu.Unlock()

	e.notify(st)
	return nil
}

// Close disposes the session. Pending transitions are discarded and later calls fail.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopPendingLocked()
	e.closed = true
}

// resolve ends the feedback phase started in generation gen
func (e *Engine) resolve(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.generation || e.phase != Feedback {
		e.mu.Unlock()
		return
	}
	e.cancel = nil

	var passed *Result
	if e.verdict == Correct {
		if e.index == len(e.questions)-1 {
			e.phase = Complete
			e.score = score(e.correct, len(e.questions))
			if e.score >= models.PassThreshold {
				passed = &Result{LearnerID: e.sess.LearnerID, Score: e.score}
			}
		} else {
			e.index++
			e.phase = AwaitingAnswer
		}
	} else {
		e.phase = AwaitingAnswer
	}
	e.selected = -1
	e.verdict = NoVerdict
	st := e.snapshot()
	e.mu.Unlock()

	e.notify(st)
	if passed != nil && e.onPassed != nil {
		e.onPassed(*passed)
	}
}

func (e *Engine) acceptingLocked() error {
	if e.closed {
		return ErrClosed
	}
	if e.phase != AwaitingAnswer {
		return ErrNotAccepting
	}
	return nil
}

func (e *Engine) stopPendingLocked() {
	e.generation++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Engine) snapshot() State {
	return State{
		Phase:         e.phase,
		QuestionIndex: e.index,
		Verdict:       e.verdict,
		CorrectCount:  e.correct,
		Selected:      e.selected,
		Score:         e.score,
		Total:         len(e.questions),
	}
}

func (e *Engine) notify(st State) {
	if e.onChange != nil {
		e.onChange(st)
	}
}

func score(correct, total int) int {
	return int(math.Round(float64(correct) / float64(total) * 100))
}
