package processor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/randaug/internal/augment"
	"github.com/ds124wfegd/randaug/internal/database"
	"github.com/ds124wfegd/randaug/internal/entity"
	"github.com/ds124wfegd/randaug/internal/pkg/kafka"
	"github.com/ds124wfegd/randaug/internal/pkg/metrics"
	"github.com/ds124wfegd/randaug/internal/pkg/storage"
	"github.com/ds124wfegd/randaug/internal/pkg/transforms"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func seed(v uint64) *uint64 { return &v }

// newJob stores an original image and its metadata record
func newJob(t *testing.T, repo database.ImageRepository, id string, params entity.Params) entity.AugmentationTask {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	fillImageWithColor(img, color.RGBA{R: 100, G: 150, B: 200, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, repo.SaveOriginal(id, &buf))
	require.NoError(t, repo.Save(&entity.Image{ID: id, Status: entity.StatusProcessing, Format: "png", Params: params}))
	return entity.AugmentationTask{ImageID: id, Format: "png", Params: params}
}

func TestProcessWritesCopies(t *testing.T) {
	tests := []struct {
		name   string
		params entity.Params
	}{
		{name: "randaugment", params: entity.Params{Variant: "randaugment", N: 2, M: 9, Copies: 3, Seed: seed(1)}},
		{name: "uda with tuple fill", params: entity.Params{Variant: "uda", N: 4, M: 0, Copies: 2, FillColor: []any{10, 20, 30}}},
		{name: "identity", params: entity.Params{Variant: "randaugment", N: 0, M: 5, Copies: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := database.NewImageRepository(storage.NewFileStorage(t.TempDir()))
			m := metrics.New("test")
			p := NewAugmentProcessor(repo, transforms.Library(), nil, m)
			task := newJob(t, repo, "job", tt.params)

			require.NoError(t, p.Process(context.Background(), task))

			job, err := repo.FindByID("job")
			require.NoError(t, err)
			assert.Equal(t, entity.StatusCompleted, job.Status)
			assert.Len(t, job.Outputs, tt.params.Copies)
			series, err := testutil.GatherAndCount(m.Registry(), "test_jobs_total")
			require.NoError(t, err)
			assert.Equal(t, 1, series)
		})
	}
}

func TestProcessMarksFailure(t *testing.T) {
	repo := database.NewImageRepository(storage.NewFileStorage(t.TempDir()))
	p := NewAugmentProcessor(repo, transforms.Library(), nil, nil)
	task := newJob(t, repo, "job", entity.Params{Variant: "autoaugment", N: 1, Copies: 1})

	err := p.Process(context.Background(), task)
	assert.ErrorIs(t, err, entity.ErrInvalidParams)

	job, err := repo.FindByID("job")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, job.Status)
	assert.NotEmpty(t, job.ErrorMsg)
}

func TestProcessUnknownJob(t *testing.T) {
	repo := database.NewImageRepository(storage.NewFileStorage(t.TempDir()))
	p := NewAugmentProcessor(repo, transforms.Library(), nil, nil)

	err := p.Process(context.Background(), entity.AugmentationTask{ImageID: "nope"})
	assert.ErrorIs(t, err, entity.ErrImageNotFound)
}

func TestNewEngine(t *testing.T) {
	table := augment.NewTable(augment.Entry{Op: augment.Rotate, Min: 0, Max: 30})

	eng, err := NewEngine(entity.Params{Variant: "uda", N: 3, M: 4, FillColor: 7.0}, transforms.Library(), &table, nil)
	require.NoError(t, err)
	assert.Equal(t, augment.UDA, eng.Variant())
	assert.Equal(t, 3, eng.N())
	assert.Equal(t, table.Entries(), eng.Table().Entries())
	assert.True(t, eng.FillColor().Equal(augment.Gray(7)))

	_, err = NewEngine(entity.Params{Variant: "randaugment", N: -2}, transforms.Library(), nil, nil)
	assert.ErrorIs(t, err, entity.ErrInvalidParams)
	assert.ErrorIs(t, err, augment.ErrInvalidPolicy)
}

// sliceConsumer hands out tasks and then reports io.EOF
type sliceConsumer struct {
	mu    sync.Mutex
	items []any
}

func (c *sliceConsumer) Next(ctx context.Context) (entity.AugmentationTask, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return entity.AugmentationTask{}, io.EOF
	}
	item := c.items[0]
	c.items = c.items[1:]
	if err, ok := item.(error); ok {
		return entity.AugmentationTask{}, err
	}
	return item.(entity.AugmentationTask), nil
}

func (c *sliceConsumer) Close() error { return nil }

type recordingProcessor struct {
	mu  sync.Mutex
	ids []string
}

func (p *recordingProcessor) Process(_ context.Context, task entity.AugmentationTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, task.ImageID)
	return nil
}

func TestRunDrainsConsumer(t *testing.T) {
	c := &sliceConsumer{items: []any{
		entity.AugmentationTask{ImageID: "a"},
		&kafka.DecodeError{Err: errors.New("bad json")},
		entity.AugmentationTask{ImageID: "b"},
		errors.New("broker hiccup"),
		entity.AugmentationTask{ImageID: "c"},
	}}
	p := &recordingProcessor{}

	require.NoError(t, Run(context.Background(), c, p, 3))
	assert.ElementsMatch(t, []string{"a", "b", "c"}, p.ids)
}

// blockingConsumer waits for cancellation
type blockingConsumer struct{}

func (blockingConsumer) Next(ctx context.Context) (entity.AugmentationTask, error) {
	<-ctx.Done()
	return entity.AugmentationTask{}, ctx.Err()
}

func (blockingConsumer) Close() error { return nil }

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := Run(ctx, blockingConsumer{}, &recordingProcessor{}, 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// queueConsumer hands out tasks and then waits for cancellation
type queueConsumer struct {
	tasks chan entity.AugmentationTask
}

func (c *queueConsumer) Next(ctx context.Context) (entity.AugmentationTask, error) {
	select {
	case t := <-c.tasks:
		return t, nil
	case <-ctx.Done():
		return entity.AugmentationTask{}, ctx.Err()
	}
}

func (c *queueConsumer) Close() error { return nil }

// gatedProcessor holds each job until released and records its context state
type gatedProcessor struct {
	started chan struct{}
	release chan struct{}
	ctxErr  error
}

func (p *gatedProcessor) Process(ctx context.Context, _ entity.AugmentationTask) error {
	close(p.started)
	<-p.release
	p.ctxErr = ctx.Err()
	return nil
}

func TestRunFinishesInFlightJobsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &queueConsumer{tasks: make(chan entity.AugmentationTask, 1)}
	c.tasks <- entity.AugmentationTask{ImageID: "in-flight"}
	p := &gatedProcessor{started: make(chan struct{}), release: make(chan struct{})}

	done := make(chan error, 1)
	go func() { done <- Run(ctx, c, p, 1) }()

	<-p.started
	cancel()
	close(p.release)

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.NoError(t, p.ctxErr)
}

func TestProcessLeavesJobProcessingWhenCancelled(t *testing.T) {
	repo := database.NewImageRepository(storage.NewFileStorage(t.TempDir()))
	p := NewAugmentProcessor(repo, transforms.Library(), nil, nil)
	task := newJob(t, repo, "job", entity.Params{Variant: "randaugment", N: 2, M: 5, Copies: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Process(ctx, task)
	assert.ErrorIs(t, err, context.Canceled)

	job, err := repo.FindByID("job")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessing, job.Status)
	assert.Empty(t, job.ErrorMsg)
}

func TestRunEndToEnd(t *testing.T) {
	repo := database.NewImageRepository(storage.NewFileStorage(t.TempDir()))
	p := NewAugmentProcessor(repo, transforms.Library(), nil, nil)
	params := entity.Params{Variant: "uda", N: 2, M: 0, Copies: 2}
	c := &sliceConsumer{items: []any{newJob(t, repo, "one", params), newJob(t, repo, "two", params)}}

	require.NoError(t, Run(context.Background(), c, p, 2))

	for _, id := range []string{"one", "two"} {
		job, err := repo.FindByID(id)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, job.Status)
		assert.Len(t, job.Outputs, 2)
	}
}

// fillImageWithColor fills the image with one color
func fillImageWithColor(img *image.RGBA, c color.RGBA) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}
