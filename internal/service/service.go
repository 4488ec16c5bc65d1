package service

import (
	"context"
	"image"
	"io"

	"github.com/ds124wfegd/randaug/internal/augment"
	"github.com/ds124wfegd/randaug/internal/database"
	"github.com/ds124wfegd/randaug/internal/entity"
	"github.com/ds124wfegd/randaug/internal/pkg/kafka"
	"github.com/ds124wfegd/randaug/internal/pkg/metrics"
)

type AugmentService interface {
	Submit(ctx context.Context, id, format string, src io.Reader, params entity.Params) (string, error)
	GetImage(id string) (*entity.Image, error)
	DeleteImage(id string) error
	Preview(src io.Reader, params entity.Params) ([]byte, error)
	Policy(variant string) (entity.PolicyResponse, error)
	DefaultParams() entity.Params
}

type augmentService struct {
	repo     database.ImageRepository
	producer kafka.Producer
	lib      augment.Library[image.Image]
	table    *augment.Table
	defaults entity.Params
	limits   entity.Limits
	metrics  *metrics.AugmentMetrics
}

// NewAugmentService wires the job store, the task producer and the transform
// library. table overrides the built-in tables when non-nil; m may be nil.
// Requests above limits are refused with entity.ErrInvalidParams.
func NewAugmentService(repo database.ImageRepository, producer kafka.Producer, lib augment.Library[image.Image], table *augment.Table, defaults entity.Params, limits entity.Limits, m *metrics.AugmentMetrics) AugmentService {
	return &augmentService{
		repo:     repo,
		producer: producer,
		lib:      lib,
		table:    table,
		defaults: defaults,
		limits:   limits,
		metrics:  m,
	}
}
