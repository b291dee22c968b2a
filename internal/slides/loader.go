package slides

import (
	"context"
	"path"
	"strings"

	"go.uber.org/zap"
)

// Source fetches slide assets and their server reported step count
type Source interface {
	// SlideCount asks the server for the page or slide count of file
	SlideCount(ctx context.Context, file string) (int, error)
	// Download fetches the raw asset
	Download(ctx context.Context, file string) ([]byte, error)
}

// Loader resolves a course slide asset into a Deck
type Loader struct {
	source Source
	logger *zap.Logger
}

// NewLoader creates a new slide loader
func NewLoader(source Source, logger *zap.Logger) *Loader {
	return &Loader{
		source: source,
		logger: logger,
	}
}

// Load resolves asset into a deck. It never fails: on any error the deck has
// the best known step count (fallback when nothing better is known),
// placeholder steps and a Notice.
func (l *Loader) Load(ctx context.Context, asset string, fallback int) Deck {
	if strings.EqualFold(path.Ext(asset), ".pdf") {
		return l.loadPDF(ctx, asset, fallback)
	}

	data, err := l.source.Download(ctx, asset)
	if err != nil {
		return l.degraded(l.serverSteps(ctx, asset, fallback), "slides could not be downloaded", asset, err)
	}

	switch Detect(data) {
	case KindPDF:
		n, err := CountPDFPages(data)
		if err != nil {
			return l.loadPDF(ctx, asset, fallback)
		}
		return BuildDeck(n, nil)
	case KindPackage:
		pkg, err := ReadPackage(data)
		if err != nil {
			return l.degraded(fallback, "slides could not be read", asset, err)
		}
		if pkg.MediaErr != nil {
			return l.degraded(pkg.SlideCount, "slide images could not be read", asset, pkg.MediaErr)
		}
		deck := BuildDeck(pkg.SlideCount, pkg.Images)
		if len(pkg.Images) < pkg.SlideCount {
			deck.Notice = "some slides are shown as placeholders"
		}
		return deck
	}
	return l.degraded(fallback, "unsupported slide format", asset, ErrUnsupportedAsset)
}

// loadPDF takes the authoritative page count from the server
func (l *Loader) loadPDF(ctx context.Context, asset string, fallback int) Deck {
	n, err := l.source.SlideCount(ctx, asset)
	if err != nil || n <= 0 {
		return l.degraded(fallback, "slide count unavailable", asset, err)
	}
	return BuildDeck(n, nil)
}

// serverSteps is the server reported count, or fallback when the server has none
func (l *Loader) serverSteps(ctx context.Context, asset string, fallback int) int {
	n, err := l.source.SlideCount(ctx, asset)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func (l *Loader) degraded(total int, notice, asset string, err error) Deck {
	l.logger.Warn("slide asset degraded",
		zap.String("asset", asset),
		zap.String("notice", notice),
		zap.Error(err),
	)
	deck := BuildDeck(total, nil)
	deck.Notice = notice
	return deck
}
