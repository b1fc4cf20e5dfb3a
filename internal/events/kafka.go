package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
	Close() error
}

// DefaultPublishTimeout bounds a single publish on the request path.
const DefaultPublishTimeout = 2 * time.Second

// KafkaPublisher writes events as JSON records to a single topic. Each
// record is flushed on its own and attempted once.
type KafkaPublisher struct {
	topic   string
	timeout time.Duration
	mu      sync.Mutex
	writer  messageWriter
	dial    func() messageWriter
}

// NewKafkaPublisher creates a KafkaPublisher. The underlying writer is
// created on first use.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		topic:   topic,
		timeout: DefaultPublishTimeout,
		dial: func() messageWriter {
			return &kafka.Writer{
				Addr:         kafka.TCP(brokers...),
				Topic:        topic,
				Balancer:     &kafka.Hash{},
				RequiredAcks: kafka.RequireAll,
				Compression:  kafka.Snappy,
				Async:        false,
				BatchSize:    1,
				BatchTimeout: 10 * time.Millisecond,
				MaxAttempts:  1,
				WriteTimeout: DefaultPublishTimeout,
			}
		},
	}
}

// Publish encodes the payload and writes it synchronously, giving up after
// the publish timeout.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event.Payload)
	if err != nil {
		return errors.Wrapf(err, "encode %s", event.Type)
	}

	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: body,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(uuid.NewString())},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writerFor().WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "write %s to %s", event.Type, p.topic)
	}
	return nil
}

func (p *KafkaPublisher) writerFor() messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		p.writer = p.dial()
	}
	return p.writer
}

// Close releases the writer if one was created.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	p.writer = nil
	return err
}
