package models

// Status is the lifecycle of an enrollment. It is a closed set:
// NotEnrolled, InProgress, Completed and Passed are its only implementations.
type Status interface {
	status()
}

// NotEnrolled means the learner has no enrollment for the course
type NotEnrolled struct{}

// InProgress means the learner is enrolled and has not finished the material
type InProgress struct {
	Progress int
}

// Completed means all material is done but no certificate has been awarded
type Completed struct{}

// Passed means the quiz was passed and a certificate was issued
type Passed struct {
	CertificateCode string
}

func (NotEnrolled) status() {}
func (InProgress) status()  {}
func (Completed) status()   {}
func (Passed) status()      {}

// StatusFromFlags converts the wire flags into a Status.
// A passed flag without a certificate code, or without completion, is not trusted.
func StatusFromFlags(isEnrolled bool, progress int, isCompleted, hasPassed bool, certificateCode string) Status {
	if !isEnrolled {
		return NotEnrolled{}
	}
	if !isCompleted && progress < 100 {
		return InProgress{Progress: ClampProgress(progress)}
	}
	if hasPassed && certificateCode != "" {
		return Passed{CertificateCode: certificateCode}
	}
	return Completed{}
}

// IsEnrolled reports whether s is any enrolled status
func IsEnrolled(s Status) bool {
	_, ok := s.(NotEnrolled)
	return s != nil && !ok
}

// IsComplete reports whether the course material is finished
func IsComplete(s Status) bool {
	switch s.(type) {
	case Completed, Passed:
		return true
	}
	return false
}

// ProgressOf returns the percentage implied by s
func ProgressOf(s Status) int {
	switch v := s.(type) {
	case InProgress:
		return v.Progress
	case Completed, Passed:
		return 100
	}
	return 0
}

// ClampProgress limits p to [0, 100]
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
