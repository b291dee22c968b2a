// Package certcode mints and validates certificate codes of the form UYHO/COA/<year>/<NNN>.
package certcode

import (
	"fmt"
	"math/rand/v2"
	"regexp"
)

// Prefix is the fixed part of every certificate code
const Prefix = "UYHO/COA"

var pattern = regexp.MustCompile(`^UYHO/COA/\d{4}/\d{3}$`)

// Format builds the code for year and serial n (0..999)
func Format(year, n int) string {
	return fmt.Sprintf("%s/%04d/%03d", Prefix, year, n%1000)
}

// Generate draws a fresh code for year. rng may be nil to use the global source.
func Generate(year int, rng *rand.Rand) string {
	var n int
	if rng != nil {
		n = rng.IntN(1000)
	} else {
		n = rand.IntN(1000)
	}
	return Format(year, n)
}

// Valid reports whether code is a well formed certificate code
func Valid(code string) bool {
	return pattern.MatchString(code)
}
