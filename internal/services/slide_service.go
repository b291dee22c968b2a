package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/uyho/backend/internal/models"
	"github.com/uyho/backend/internal/slides"
	"github.com/uyho/backend/internal/storage"
)

// MediaStorage defines read access to course media files
type MediaStorage interface {
	// ReadFile reads a whole media file by its slash separated name
	ReadFile(name string) ([]byte, error)
	// OpenFile opens a media file by its slash separated name
	OpenFile(name string) (*os.File, error)
}

// slideService resolves slide assets
type slideService struct {
	storage MediaStorage
	logger  *zap.Logger
}

// NewSlideService creates a new slide service
func NewSlideService(storage MediaStorage, logger *zap.Logger) *slideService {
	return &slideService{
		storage: storage,
		logger:  logger,
	}
}

// Info reports the page or slide count of a slide asset
func (s *slideService) Info(ctx context.Context, file string) (*models.SlideInfo, error) {
	data, err := s.storage.ReadFile(file)
	if err != nil {
		return nil, mapStorageError(file, err)
	}

	count, err := slides.Count(data)
	if err != nil {
		s.logger.Warn("failed to count slides", zap.String("file", file), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidSlideFile, err)
	}

	return &models.SlideInfo{SlideCount: count}, nil
}

// Open opens a slide asset for download
func (s *slideService) Open(file string) (*os.File, error) {
	f, err := s.storage.OpenFile(file)
	if err != nil {
		return nil, mapStorageError(file, err)
	}
	return f, nil
}

func mapStorageError(file string, err error) error {
	switch {
	case errors.Is(err, storage.ErrInvalidPath):
		return fmt.Errorf("%w: %q", models.ErrInvalidSlideFile, file)
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %q", models.ErrSlideFileNotFound, file)
	}
	return fmt.Errorf("failed to read slide file: %w", err)
}
