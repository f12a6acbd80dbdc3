package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// Kafka publishes each event as one message keyed by the summary key, so
// all changes to a page land on the same partition in order.
type Kafka struct {
	producer sarama.SyncProducer
	topic    string
}

// DialKafka connects a synchronous producer to brokers.
func DialKafka(brokers []string, topic string) (*Kafka, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 5 * time.Second
	cfg.Net.DialTimeout = 5 * time.Second
	cfg.Net.WriteTimeout = 5 * time.Second
	cfg.Net.ReadTimeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: create producer: %w", err)
	}
	return NewKafka(producer, topic), nil
}

// NewKafka wraps an existing producer.
func NewKafka(producer sarama.SyncProducer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic}
}

// Notify sends ev and waits for the broker's ack or for ctx to end,
// whichever comes first. A send abandoned by ctx may still complete later.
func (k *Kafka) Notify(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(ev.Key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(ev.Type)},
		},
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("kafka: send %s for %s: %w", ev.Type, ev.Key, err)
	}

	result := make(chan error, 1)
	go func() {
		_, _, err := k.producer.SendMessage(msg)
		result <- err
	}()
	select {
	case err := <-result:
		if err != nil {
			return fmt.Errorf("kafka: send %s for %s: %w", ev.Type, ev.Key, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("kafka: send %s for %s: %w", ev.Type, ev.Key, ctx.Err())
	}
}

func (k *Kafka) Close() error {
	return k.producer.Close()
}
