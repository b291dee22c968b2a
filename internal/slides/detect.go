// Package slides turns a course slide asset (a PDF or a presentation package)
// into an ordered deck of navigable steps.
package slides

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// Kind classifies a slide asset
type Kind int

const (
	KindUnknown Kind = iota
	KindPDF
	KindPackage
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindPackage:
		return "package"
	}
	return "unknown"
}

// ErrUnsupportedAsset is returned for assets that are neither PDF nor presentation packages
var ErrUnsupportedAsset = errors.New("unsupported slide asset")

// Detect sniffs data and reports its kind. Any zip based format counts as a package.
func Detect(data []byte) Kind {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		switch {
		case m.Is("application/pdf"):
			return KindPDF
		case m.Is("application/zip"):
			return KindPackage
		}
	}
	return KindUnknown
}

// CountPDFPages returns the number of pages of a PDF document
func CountPDFPages(data []byte) (int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("pdf reader: %w", err)
	}
	n := r.NumPage()
	if n <= 0 {
		return 0, fmt.Errorf("pdf has no pages")
	}
	return n, nil
}

// Count returns the number of steps of an asset of any supported kind
func Count(data []byte) (int, error) {
	switch Detect(data) {
	case KindPDF:
		return CountPDFPages(data)
	case KindPackage:
		pkg, err := ReadPackage(data)
		if err != nil {
			return 0, err
		}
		return pkg.SlideCount, nil
	}
	return 0, ErrUnsupportedAsset
}
