package slides

// Step is one unit of advancement through a deck
type Step struct {
	Number int
	// Image is an illustrative image, nil for a numbered placeholder
	Image *Image
}

// Placeholder reports whether the step has no image to show
func (s Step) Placeholder() bool {
	return s.Image == nil
}

// Deck is an ordered sequence of steps
type Deck struct {
	TotalSteps int
	Steps      []Step
	// Mapped is true only when Steps[i].Image is known to belong to step i+1.
	// Package media is collected by folder enumeration, so it is never mapped.
	Mapped bool
	// Notice describes a degraded load, empty when the asset loaded fully
	Notice string
}

// Illustrated returns how many steps carry an image
func (d Deck) Illustrated() int {
	n := 0
	for _, s := range d.Steps {
		if !s.Placeholder() {
			n++
		}
	}
	return n
}

// BuildDeck returns total steps. The first min(len(images), total) steps carry
// an image in the order given; the rest are numbered placeholders.
func BuildDeck(total int, images []Image) Deck {
	if total < 0 {
		total = 0
	}
	steps := make([]Step, total)
	for i := range steps {
		steps[i] = Step{Number: i + 1}
		if i < len(images) {
			img := images[i]
			steps[i].Image = &img
		}
	}
	return Deck{TotalSteps: total, Steps: steps}
}
