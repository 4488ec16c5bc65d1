package service

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/randaug/internal/augment"
	"github.com/ds124wfegd/randaug/internal/entity"
	"github.com/ds124wfegd/randaug/internal/pkg/processor"
	"github.com/sirupsen/logrus"
)

func (s *augmentService) DefaultParams() entity.Params {
	return s.defaults
}

func (s *augmentService) checkN(n int) error {
	if n > s.limits.MaxN {
		return fmt.Errorf("%w: n %d exceeds the limit of %d", entity.ErrInvalidParams, n, s.limits.MaxN)
	}
	return nil
}

// validate builds the engine once so a bad job is refused at upload time
// instead of failing in the worker.
func (s *augmentService) validate(params entity.Params) error {
	if params.Copies < 1 {
		return fmt.Errorf("%w: copies must be positive", entity.ErrInvalidParams)
	}
	if params.Copies > s.limits.MaxCopies {
		return fmt.Errorf("%w: copies %d exceeds the limit of %d", entity.ErrInvalidParams, params.Copies, s.limits.MaxCopies)
	}
	if err := s.checkN(params.N); err != nil {
		return err
	}
	_, err := processor.NewEngine(params, s.lib, s.table, nil)
	return err
}

func (s *augmentService) Submit(ctx context.Context, id, format string, src io.Reader, params entity.Params) (string, error) {
	if err := s.validate(params); err != nil {
		return "", err
	}

	job := &entity.Image{
		ID:     id,
		Status: entity.StatusProcessing,
		Format: format,
		Params: params,
	}
	if err := s.repo.Save(job); err != nil {
		return "", err
	}
	if err := s.repo.SaveOriginal(id, src); err != nil {
		s.markFailed(job, err)
		return "", fmt.Errorf("failed to store original %s: %w", id, err)
	}

	task := entity.AugmentationTask{ImageID: id, Format: format, Params: params}
	if err := s.producer.Publish(ctx, task); err != nil {
		s.markFailed(job, err)
		return "", fmt.Errorf("failed to queue job %s: %w", id, err)
	}

	logrus.WithFields(logrus.Fields{"image_id": id, "variant": params.Variant, "n": params.N, "m": params.M}).Info("augmentation job queued")
	return id, nil
}

// markFailed records that a job never reached the worker.
func (s *augmentService) markFailed(job *entity.Image, cause error) {
	job.Status = entity.StatusFailed
	job.ErrorMsg = cause.Error()
	if err := s.repo.Save(job); err != nil {
		logrus.WithError(err).WithField("image_id", job.ID).Error("failed to mark job as failed")
	}
}

func (s *augmentService) GetImage(id string) (*entity.Image, error) {
	return s.repo.FindByID(id)
}

func (s *augmentService) DeleteImage(id string) error {
	return s.repo.Delete(id)
}

// Preview applies the engine once to src and returns the result as PNG.
func (s *augmentService) Preview(src io.Reader, params entity.Params) ([]byte, error) {
	if err := s.checkN(params.N); err != nil {
		return nil, err
	}

	var obs augment.Observer
	if s.metrics != nil {
		obs = s.metrics
	}
	eng, err := processor.NewEngine(params, s.lib, s.table, obs)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrUnsupportedFormat, err)
	}

	out, err := eng.Apply(img)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Policy lists the table jobs of variant run with.
func (s *augmentService) Policy(variant string) (entity.PolicyResponse, error) {
	v, err := augment.ParseVariant(variant)
	if err != nil {
		return entity.PolicyResponse{}, fmt.Errorf("%w: %w", entity.ErrInvalidParams, err)
	}

	table := augment.DefaultTable()
	switch {
	case s.table != nil:
		table = *s.table
	case v == augment.UDA:
		table = augment.UDATable()
	}

	return entity.PolicyResponse{
		Variant:       v.String(),
		QuantizeLevel: augment.QuantizeLevel,
		Entries:       table.Entries(),
	}, nil
}
