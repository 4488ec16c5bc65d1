package processor

import (
	"fmt"
	"image"

	"github.com/ds124wfegd/randaug/internal/augment"
	"github.com/ds124wfegd/randaug/internal/entity"
)

// NewEngine builds the engine a job's parameters describe. A non-nil table
// replaces the variant's built-in one; a non-nil observer receives every slot.
func NewEngine(p entity.Params, lib augment.Library[image.Image], table *augment.Table, obs augment.Observer) (*augment.Engine[image.Image], error) {
	variant, err := augment.ParseVariant(p.Variant)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInvalidParams, err)
	}
	fill, err := augment.ParseFillColor(p.FillColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInvalidParams, err)
	}

	opts := []augment.Option{augment.WithFillColor(fill)}
	if table != nil {
		opts = append(opts, augment.WithTable(*table))
	}
	if p.Seed != nil {
		opts = append(opts, augment.WithSeed(*p.Seed))
	}
	if obs != nil {
		opts = append(opts, augment.WithObserver(obs))
	}

	eng, err := augment.New(variant, p.N, p.M, lib, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInvalidParams, err)
	}
	return eng, nil
}
