// Package session carries the identity of the learner the engine acts for.
package session

import "errors"

// ErrAnonymous is returned when an operation needs an authenticated learner
var ErrAnonymous = errors.New("no authenticated learner")

// Session is the current learner, injected into the learner-side components
type Session struct {
	LearnerID int
	// Token is the access token sent as a bearer token to the API
	Token string
}

// Authenticated reports whether the session belongs to a signed in learner
func (s Session) Authenticated() bool {
	return s.LearnerID > 0 && s.Token != ""
}

// Require returns ErrAnonymous for sessions without a learner
func (s Session) Require() error {
	if !s.Authenticated() {
		return ErrAnonymous
	}
	return nil
}
