// README: Kafka producer used by the order event outbox relay.
package infra

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

type SaramaProducer struct {
	producer sarama.SyncProducer
	log      *logrus.Entry
}

func NewSaramaProducer(brokers []string, log *logrus.Entry) (*SaramaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Timeout = 5 * time.Second
	prod, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return &SaramaProducer{producer: prod, log: log}, nil
}

func (p *SaramaProducer) Publish(_ context.Context, topic string, key, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}
	p.log.WithFields(logrus.Fields{"topic": topic, "partition": partition, "offset": offset}).Debug("message stored")
	return nil
}

func (p *SaramaProducer) Close() error {
	return p.producer.Close()
}
