package database

import (
	"image"
	"io"

	"github.com/ds124wfegd/randaug/internal/entity"
	"github.com/ds124wfegd/randaug/internal/pkg/storage"
)

// ImageRepository stores augmentation jobs: their metadata, the uploaded
// original and the augmented outputs.
type ImageRepository interface {
	Save(image *entity.Image) error
	FindByID(id string) (*entity.Image, error)
	Delete(id string) error
	SaveOriginal(id string, file io.Reader) error
	LoadOriginal(id string) (image.Image, error)
	SaveOutput(id string, index int, img image.Image, format string) (string, error)
}

type fileImageRepository struct {
	storage storage.FileStorage
}
