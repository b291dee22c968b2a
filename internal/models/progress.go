package models

import "math"

// LessonProgress returns round(completed/total*100) clamped to [0, 100]
func LessonProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return ClampProgress(int(math.Round(float64(completed) / float64(total) * 100)))
}

// SlideProgress returns the progress of a slide cursor. A completed deck is
// always 100; otherwise the slides before the cursor count as viewed.
func SlideProgress(cursor, total int, completed bool) int {
	if completed {
		return 100
	}
	if total <= 0 || cursor <= 1 {
		return 0
	}
	return ClampProgress(int(math.Round(float64(cursor-1) / float64(total) * 100)))
}
