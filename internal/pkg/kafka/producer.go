package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ds124wfegd/randaug/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Producer publishes augmentation tasks for the augmenter worker.
type Producer interface {
	Publish(ctx context.Context, task entity.AugmentationTask) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer connects to the first reachable broker and makes sure the
// topic exists. Without a broker it falls back to a producer that only logs.
func NewProducer(brokers []string, topic string) Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	log := logrus.WithFields(logrus.Fields{"brokers": brokers, "topic": topic})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if len(brokers) == 0 {
		log.Warn("no kafka brokers configured, using mock producer")
		return &mockProducer{}
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		log.WithError(err).Warn("kafka connection failed, using mock producer")
		return &mockProducer{}
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		log.WithError(err).Info("could not create topic (might already exist)")
	}

	log.Info("connected to kafka")
	return &kafkaProducer{writer: writer, topic: topic}
}

func (p *kafkaProducer) Publish(ctx context.Context, task entity.AugmentationTask) error {
	value, err := json.Marshal(task)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.ImageID),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		logrus.WithError(err).WithField("image_id", task.ImageID).Error("failed to write task to kafka")
		return err
	}

	logrus.WithFields(logrus.Fields{"image_id": task.ImageID, "topic": p.topic}).Debug("task published")
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// mockProducer lets the HTTP side run without Kafka.
type mockProducer struct{}

func (m *mockProducer) Publish(_ context.Context, task entity.AugmentationTask) error {
	logrus.WithField("image_id", task.ImageID).Info("MOCK: task not published")
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}
