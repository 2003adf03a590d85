package audit

import (
	"errors"
	"time"

	"github.com/Shopify/sarama"
	"go.uber.org/zap"
)

// KafkaConfig holds the audit topic and broker addresses.
type KafkaConfig struct {
	Addr  []string `json:"addr"`
	Topic string   `json:"topic"`
}

type kafkaSink struct {
	config   KafkaConfig
	producer sarama.AsyncProducer
}

// NewKafkaSink connects an async producer publishing audit events to the
// configured topic.
func NewKafkaSink(config KafkaConfig) (Sink, error) {
	if len(config.Addr) == 0 || config.Topic == "" {
		return nil, errors.New("kafka audit sink needs addr and topic")
	}
	conf := sarama.NewConfig()
	conf.Version = sarama.V1_1_1_0
	producer, err := sarama.NewAsyncProducer(config.Addr, conf)
	if err != nil {
		return nil, err
	}

	go func() {
		for err := range producer.Errors() {
			log.Error("send audit event to kafka failed: ", zap.Error(err))
		}
	}()

	return &kafkaSink{config: config, producer: producer}, nil
}

func (k *kafkaSink) Publish(e *Event) error {
	payload, err := e.Encode()
	if err != nil {
		return err
	}

	select {
	case k.producer.Input() <- &sarama.ProducerMessage{
		Topic: k.config.Topic,
		Key:   sarama.ByteEncoder(e.ClientID),
		Value: sarama.ByteEncoder(payload),
	}:
		return nil
	case <-time.After(5 * time.Second):
		return errors.New("write kafka timeout")
	}
}

func (k *kafkaSink) Close() error {
	return k.producer.Close()
}
