package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisherWritesKeyedRecordWithHeaders(t *testing.T) {
	writer := &stubWriter{}
	publisher := newStubbedPublisher(writer)

	duration := 30
	date := time.Date(2024, time.August, 18, 0, 0, 0, 0, time.UTC)
	err := publisher.Publish(context.Background(), Event{
		Type: TypeExerciseLogged,
		Key:  "65f1c0ffee0000000000abcd",
		Payload: ExerciseLogged{
			ExerciseID:  "65f1c0ffee0000000000beef",
			UserID:      "65f1c0ffee0000000000abcd",
			Username:    "cioana",
			Description: "run",
			Duration:    &duration,
			Date:        &date,
		},
	})
	require.NoError(t, err)

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	require.Equal(t, "65f1c0ffee0000000000abcd", string(msg.Key))
	require.Equal(t, TypeExerciseLogged, header(msg, "event_type"))
	require.Len(t, header(msg, "event_id"), 36)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, "run", decoded["description"])
	require.EqualValues(t, 30, decoded["duration"])
}

func TestKafkaPublisherEncodesSentinelsAsNull(t *testing.T) {
	writer := &stubWriter{}
	publisher := newStubbedPublisher(writer)

	require.NoError(t, publisher.Publish(context.Background(), Event{
		Type:    TypeExerciseLogged,
		Key:     "u1",
		Payload: ExerciseLogged{UserID: "u1", Description: "swim"},
	}))

	require.JSONEq(t,
		`{"exercise_id":"","user_id":"u1","username":"","description":"swim","duration":null,"date":null,"occurred_at":"0001-01-01T00:00:00Z"}`,
		string(writer.messages[0].Value))
}

func TestKafkaPublisherWrapsWriteErrors(t *testing.T) {
	writer := &stubWriter{err: errors.New("broker unavailable")}
	publisher := newStubbedPublisher(writer)

	err := publisher.Publish(context.Background(), Event{Type: TypeUserCreated, Key: "u1", Payload: UserCreated{UserID: "u1"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "broker unavailable")
	require.Contains(t, err.Error(), "tracker_test_events")
}

func TestKafkaPublisherCloseReleasesWriter(t *testing.T) {
	writer := &stubWriter{}
	publisher := newStubbedPublisher(writer)

	require.NoError(t, publisher.Close())
	require.False(t, writer.closed, "writer is created lazily")

	require.NoError(t, publisher.Publish(context.Background(), Event{Type: TypeUserCreated, Payload: UserCreated{}}))
	require.NoError(t, publisher.Close())
	require.True(t, writer.closed)
}

func TestKafkaWriterFlushesEachRecordOnce(t *testing.T) {
	publisher := NewKafkaPublisher([]string{"localhost:9092"}, "tracker_test_events")
	writer, ok := publisher.dial().(*kafka.Writer)
	require.True(t, ok)
	defer writer.Close()

	require.Equal(t, 1, writer.BatchSize)
	require.LessOrEqual(t, writer.BatchTimeout, 10*time.Millisecond)
	require.Equal(t, 1, writer.MaxAttempts)
	require.False(t, writer.Async)
	require.Equal(t, DefaultPublishTimeout, writer.WriteTimeout)
}

func TestKafkaPublisherBoundsSlowWrites(t *testing.T) {
	writer := &stubWriter{block: true}
	publisher := newStubbedPublisher(writer)
	publisher.timeout = 50 * time.Millisecond

	start := time.Now()
	err := publisher.Publish(context.Background(), Event{Type: TypeUserCreated, Key: "u1", Payload: UserCreated{UserID: "u1"}})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func newStubbedPublisher(w *stubWriter) *KafkaPublisher {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "tracker_test_events")
	p.dial = func() messageWriter { return w }
	return p
}

type stubWriter struct {
	messages []kafka.Message
	err      error
	block    bool
	closed   bool
}

func (w *stubWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *stubWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
