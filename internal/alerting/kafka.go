package alerting

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/config"
)

// KafkaSink publishes alerts keyed by VIN so that alerts for one vehicle
// stay ordered within a partition.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaSink(cfg config.KafkaConfig) (*KafkaSink, error) {
	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5
	sc.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	logger.Infof("Kafka alert sink ready: brokers=%v topic=%s", cfg.Brokers, cfg.Topic)
	return NewKafkaSinkWithProducer(producer, cfg.Topic), nil
}

func NewKafkaSinkWithProducer(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (k *KafkaSink) Send(ctx context.Context, a Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := a.encode()
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(a.VIN),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("level"), Value: []byte(a.Level)},
		},
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}

	logger.WithVehicle(a.VIN).Debugf("Alert sent to kafka partition=%d offset=%d", partition, offset)
	return nil
}

func (k *KafkaSink) Close() error {
	return k.producer.Close()
}
