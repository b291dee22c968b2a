package slides

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	slideRelsPattern = regexp.MustCompile(`^ppt/slides/_rels/slide\d+\.xml\.rels$`)
	slidePattern     = regexp.MustCompile(`^ppt/slides/slide\d+\.xml$`)
)

const mediaDir = "ppt/media/"

// rasterTypes are the embedded media kinds that can be shown as slide illustrations
var rasterTypes = []string{"image/png", "image/jpeg", "image/gif", "image/bmp", "image/webp", "image/tiff"}

// Image is a raster image extracted from a presentation package
type Image struct {
	Name string
	MIME string
	Data []byte
}

// Package is the decoded content of a presentation package
type Package struct {
	SlideCount int
	// Images are in archive enumeration order, which is not slide order.
	Images []Image
	// MediaErr is set when a media entry could not be read. Images is then
	// empty while SlideCount stays valid.
	MediaErr error
}

// ReadPackage opens a presentation package. The slide count comes from the
// per-slide relationship descriptors; images are collected from the media folder.
// An unreadable media entry does not fail the package, see Package.MediaErr.
func ReadPackage(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}

	pkg := &Package{}
	slideParts := 0
	for _, f := range zr.File {
		name := strings.TrimSpace(f.Name)
		switch {
		case slideRelsPattern.MatchString(name):
			pkg.SlideCount++
		case slidePattern.MatchString(name):
			slideParts++
		case strings.HasPrefix(name, mediaDir) && !f.FileInfo().IsDir():
			if pkg.MediaErr != nil {
				continue
			}
			img, ok, err := readImage(f)
			if err != nil {
				pkg.MediaErr = fmt.Errorf("read %s: %w", name, err)
				continue
			}
			if ok {
				pkg.Images = append(pkg.Images, img)
			}
		}
	}

	// Packages written without relationship parts still carry the slide parts
	if pkg.SlideCount == 0 {
		pkg.SlideCount = slideParts
	}
	if pkg.SlideCount == 0 {
		return nil, fmt.Errorf("package contains no slides")
	}
	if pkg.MediaErr != nil {
		pkg.Images = nil
	}
	return pkg, nil
}

func readImage(f *zip.File) (Image, bool, error) {
	rc, err := f.Open()
	if err != nil {
		return Image{}, false, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return Image{}, false, err
	}

	m := mimetype.Detect(data)
	for _, t := range rasterTypes {
		if m.Is(t) {
			return Image{Name: f.Name, MIME: m.String(), Data: data}, true, nil
		}
	}
	return Image{}, false, nil
}
