package storage

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/randaug/internal/entity"
)

// FileStorage keeps originals, augmented outputs and job metadata under one
// base directory.
type FileStorage interface {
	Save(path string, data io.Reader) error
	Get(path string) (io.ReadCloser, error)
	Delete(path string) error
	Exists(path string) bool
	SaveImage(path string, img image.Image, format string) error
	LoadImage(path string) (image.Image, error)
}

type fileStorage struct {
	basePath string
}

func NewFileStorage(basePath string) FileStorage {
	return &fileStorage{basePath: basePath}
}

func (s *fileStorage) Save(path string, data io.Reader) error {
	fullPath := filepath.Join(s.basePath, path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, data)
	return err
}

func (s *fileStorage) Get(path string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.basePath, path)
	return os.Open(fullPath)
}

// Delete removes a file or a whole directory.
func (s *fileStorage) Delete(path string) error {
	fullPath := filepath.Join(s.basePath, path)
	if _, err := os.Stat(fullPath); err != nil {
		return err
	}
	return os.RemoveAll(fullPath)
}

func (s *fileStorage) Exists(path string) bool {
	fullPath := filepath.Join(s.basePath, path)
	_, err := os.Stat(fullPath)
	return !os.IsNotExist(err)
}

// SaveImage encodes img in format ("jpeg", "png" or "gif"). GIF outputs are
// written as PNG since augmentation drops the palette.
func (s *fileStorage) SaveImage(path string, img image.Image, format string) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	if f == imaging.GIF {
		f = imaging.PNG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(90)); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return s.Save(path, &buf)
}

// LoadImage decodes the first frame of a stored image.
func (s *fileStorage) LoadImage(path string) (image.Image, error) {
	reader, err := s.Get(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	img, err := imaging.Decode(reader, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// ParseFormat maps a format name or file extension to an imaging format.
func ParseFormat(name string) (imaging.Format, error) {
	switch name {
	case "jpeg", "jpg", ".jpeg", ".jpg":
		return imaging.JPEG, nil
	case "png", ".png":
		return imaging.PNG, nil
	case "gif", ".gif":
		return imaging.GIF, nil
	default:
		return 0, fmt.Errorf("%w: %q", entity.ErrUnsupportedFormat, name)
	}
}

// Extension is the file extension outputs of format are stored with.
func Extension(format string) string {
	if f, err := ParseFormat(format); err == nil && f == imaging.JPEG {
		return ".jpg"
	}
	return ".png"
}
