package processor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/ds124wfegd/randaug/internal/augment"
	"github.com/ds124wfegd/randaug/internal/database"
	"github.com/ds124wfegd/randaug/internal/entity"
	"github.com/ds124wfegd/randaug/internal/pkg/kafka"
	"github.com/ds124wfegd/randaug/internal/pkg/metrics"
	"github.com/sirupsen/logrus"
)

type AugmentProcessor interface {
	Process(ctx context.Context, task entity.AugmentationTask) error
}

type augmentProcessor struct {
	repo    database.ImageRepository
	lib     augment.Library[image.Image]
	table   *augment.Table
	metrics *metrics.AugmentMetrics
}

// NewAugmentProcessor returns a processor that runs jobs against lib. table
// may be nil to use each variant's built-in table; m may be nil.
func NewAugmentProcessor(repo database.ImageRepository, lib augment.Library[image.Image], table *augment.Table, m *metrics.AugmentMetrics) AugmentProcessor {
	return &augmentProcessor{repo: repo, lib: lib, table: table, metrics: m}
}

func (p *augmentProcessor) observer() augment.Observer {
	if p.metrics == nil {
		return nil
	}
	return p.metrics
}

// Process writes task.Params.Copies augmented versions of the original and
// marks the job completed, or failed with the error that stopped it.
func (p *augmentProcessor) Process(ctx context.Context, task entity.AugmentationTask) error {
	log := logrus.WithFields(logrus.Fields{"image_id": task.ImageID, "variant": task.Params.Variant})
	log.Info("processing image")

	job, err := p.repo.FindByID(task.ImageID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}

	outputs, err := p.augment(ctx, task)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		log.WithError(err).Warn("stopped before completion, job left in processing")
		return err
	}
	if err != nil {
		job.Status = entity.StatusFailed
		job.ErrorMsg = err.Error()
	} else {
		job.Status = entity.StatusCompleted
		job.Outputs = outputs
	}

	if saveErr := p.repo.Save(job); saveErr != nil {
		return fmt.Errorf("failed to update status: %w", saveErr)
	}
	if p.metrics != nil {
		p.metrics.JobFinished(job.Status)
	}
	if err != nil {
		return err
	}

	log.WithField("outputs", len(outputs)).Info("completed processing image")
	return nil
}

func (p *augmentProcessor) augment(ctx context.Context, task entity.AugmentationTask) ([]string, error) {
	original, err := p.repo.LoadOriginal(task.ImageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	eng, err := NewEngine(task.Params, p.lib, p.table, p.observer())
	if err != nil {
		return nil, err
	}

	copies := max(task.Params.Copies, 1)
	outputs := make([]string, 0, copies)
	for i := range copies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := eng.Apply(original)
		if err != nil {
			return nil, err
		}
		path, err := p.repo.SaveOutput(task.ImageID, i, out, task.Format)
		if err != nil {
			return nil, fmt.Errorf("failed to save copy %d: %w", i, err)
		}
		outputs = append(outputs, path)
	}
	return outputs, nil
}

// Run feeds tasks from c to a pool of workers until ctx is cancelled or the
// consumer is exhausted (io.EOF). It returns after every worker has exited.
// Jobs already handed to a worker run to completion after ctx is cancelled,
// since their offsets are already committed.
func Run(ctx context.Context, c kafka.Consumer, p AugmentProcessor, workers int) error {
	tasks := make(chan entity.AugmentationTask)
	jobCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup

	for range max(workers, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				if err := p.Process(jobCtx, t); err != nil {
					logrus.WithError(err).WithField("image_id", t.ImageID).Error("processing failed")
				}
			}
		}()
	}

	var runErr error
	for {
		task, err := c.Next(ctx)
		if err != nil {
			var decodeErr *kafka.DecodeError
			switch {
			case errors.Is(err, io.EOF):
			case ctx.Err() != nil:
				runErr = ctx.Err()
			case errors.As(err, &decodeErr):
				logrus.WithError(err).Warn("skipping message")
				continue
			default:
				logrus.WithError(err).Error("error reading message from kafka")
				continue
			}
			break
		}

		select {
		case tasks <- task:
		case <-ctx.Done():
			runErr = ctx.Err()
		}
		if runErr != nil {
			break
		}
	}

	close(tasks)
	wg.Wait()
	return runErr
}
