package entity

import "github.com/ds124wfegd/randaug/internal/augment"

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Image is the metadata record of one augmentation job.
type Image struct {
	ID       string   `json:"id"`
	Status   string   `json:"status"`
	Format   string   `json:"format"`
	Params   Params   `json:"params"`
	Outputs  []string `json:"outputs,omitempty"`
	ErrorMsg string   `json:"error,omitempty"`
}

// Params are the engine parameters a job runs with.
type Params struct {
	Variant   string  `json:"variant"`
	N         int     `json:"n"`
	M         int     `json:"m"`
	FillColor any     `json:"fill_color,omitempty"`
	Seed      *uint64 `json:"seed,omitempty"`
	Copies    int     `json:"copies"`
}

// Limits caps the work a single request may ask for.
type Limits struct {
	MaxN      int `json:"max_n"`
	MaxCopies int `json:"max_copies"`
}

// AugmentationTask is the message published for the augmenter worker.
type AugmentationTask struct {
	ImageID string `json:"image_id"`
	Format  string `json:"format"`
	Params  Params `json:"params"`
}

type UploadResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ImageResponse struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Params  Params   `json:"params"`
	Outputs []string `json:"outputs,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type PolicyResponse struct {
	Variant       string          `json:"variant"`
	QuantizeLevel int             `json:"quantize_level"`
	Entries       []augment.Entry `json:"entries"`
}
