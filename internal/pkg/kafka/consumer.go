package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ds124wfegd/randaug/internal/entity"
	"github.com/segmentio/kafka-go"
)

// Consumer reads augmentation tasks.
type Consumer interface {
	Next(ctx context.Context) (entity.AugmentationTask, error)
	Close() error
}

type kafkaConsumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) Consumer {
	return &kafkaConsumer{reader: kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})}
}

// Next blocks for the next message. A message that is not a valid task is
// returned as a *DecodeError so the caller can skip it.
func (c *kafkaConsumer) Next(ctx context.Context) (entity.AugmentationTask, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return entity.AugmentationTask{}, err
	}
	return DecodeTask(msg.Value)
}

func (c *kafkaConsumer) Close() error {
	return c.reader.Close()
}

type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("failed to parse task: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

func DecodeTask(value []byte) (entity.AugmentationTask, error) {
	var task entity.AugmentationTask
	if err := json.Unmarshal(value, &task); err != nil {
		return entity.AugmentationTask{}, &DecodeError{Err: err}
	}
	if task.ImageID == "" {
		return entity.AugmentationTask{}, &DecodeError{Err: fmt.Errorf("missing image_id")}
	}
	return task, nil
}
