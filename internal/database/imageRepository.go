package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/ds124wfegd/randaug/internal/entity"
	"github.com/ds124wfegd/randaug/internal/pkg/storage"
)

func NewImageRepository(storage storage.FileStorage) ImageRepository {
	return &fileImageRepository{storage: storage}
}

func (r *fileImageRepository) Save(image *entity.Image) error {
	data, err := json.Marshal(image)
	if err != nil {
		return err
	}

	return r.storage.Save(r.getImageMetadataPath(image.ID), bytes.NewReader(data))
}

// FindByID returns entity.ErrImageNotFound for unknown ids.
func (r *fileImageRepository) FindByID(id string) (*entity.Image, error) {
	reader, err := r.storage.Get(r.getImageMetadataPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, entity.ErrImageNotFound
		}
		return nil, err
	}
	defer reader.Close()

	var image entity.Image
	if err := json.NewDecoder(reader).Decode(&image); err != nil {
		return nil, err
	}

	return &image, nil
}

func (r *fileImageRepository) Delete(id string) error {
	if !r.storage.Exists(r.getImageMetadataPath(id)) {
		return entity.ErrImageNotFound
	}

	for _, path := range []string{
		r.getImageMetadataPath(id),
		filepath.Join("augmented", id),
		filepath.Join("original", id),
	} {
		if err := r.storage.Delete(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (r *fileImageRepository) SaveOriginal(id string, file io.Reader) error {
	return r.storage.Save(filepath.Join("original", id), file)
}

func (r *fileImageRepository) LoadOriginal(id string) (image.Image, error) {
	img, err := r.storage.LoadImage(filepath.Join("original", id))
	if os.IsNotExist(err) {
		return nil, entity.ErrImageNotFound
	}
	return img, err
}

// SaveOutput stores the index-th augmented copy and returns its path.
func (r *fileImageRepository) SaveOutput(id string, index int, img image.Image, format string) (string, error) {
	path := filepath.Join("augmented", id, fmt.Sprintf("%03d%s", index, storage.Extension(format)))
	if err := r.storage.SaveImage(path, img, format); err != nil {
		return "", err
	}
	return path, nil
}

func (r *fileImageRepository) getImageMetadataPath(id string) string {
	return filepath.Join("metadata", id+".json")
}
