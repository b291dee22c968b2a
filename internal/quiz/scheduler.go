package quiz

import "time"

// Scheduler runs fn once after d, never synchronously from After.
// The returned cancel function stops a pending run.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler schedules with time.AfterFunc
type TimerScheduler struct{}

// After implements Scheduler
func (TimerScheduler) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
