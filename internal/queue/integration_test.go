//go:build integration

package queue_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/felixgeelhaar/codequest/internal/queue"
)

// setupRabbitMQ creates a RabbitMQ container for testing
func setupRabbitMQ(t *testing.T) (string, func()) {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("failed to get AMQP URL: %v", err)
	}

	cleanup := func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return amqpURL, cleanup
}

// waitForMessages polls the event queue until it holds n messages
func waitForMessages(t *testing.T, ch *amqp.Channel, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		q, err := ch.QueueInspect(queue.EventQueueName)
		if err != nil {
			t.Fatalf("failed to inspect queue: %v", err)
		}
		if q.Messages >= n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d messages in queue, got %d", n, q.Messages)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestIntegration_Connection_ConnectAndClose(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}

	if !conn.IsConnected() {
		t.Error("expected connection to be active")
	}

	if err := conn.Close(); err != nil {
		t.Errorf("failed to close connection: %v", err)
	}
}

func TestIntegration_Connection_InvalidURL(t *testing.T) {
	_, err := queue.NewConnection("amqp://invalid:5672")
	if err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestIntegration_Publisher_LevelUp(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	publisher := queue.NewPublisher(conn, slog.Default())
	userID := uuid.New()

	publisher.LevelUp(context.Background(), userID, 3)

	// Publishing is fire-and-forget; wait briefly for the message to land
	ch := conn.Channel()
	waitForMessages(t, ch, 1)

	msg, ok, err := ch.Get(queue.EventQueueName, true)
	if err != nil || !ok {
		t.Fatalf("failed to get message: ok=%v err=%v", ok, err)
	}

	var event queue.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if event.Kind != queue.EventLevelUp {
		t.Errorf("kind = %q, want %q", event.Kind, queue.EventLevelUp)
	}
	if event.UserID != userID {
		t.Errorf("user = %s, want %s", event.UserID, userID)
	}
	if event.Level != 3 {
		t.Errorf("level = %d, want 3", event.Level)
	}
	if event.OccurredAt.IsZero() {
		t.Error("expected OccurredAt to be set")
	}
}

func TestIntegration_Publisher_ExercisesGenerated(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	publisher := queue.NewPublisher(conn, slog.Default())
	lessonID := uuid.New()

	publisher.ExercisesGenerated(context.Background(), lessonID, 4)

	ch := conn.Channel()
	waitForMessages(t, ch, 1)

	msg, ok, err := ch.Get(queue.EventQueueName, true)
	if err != nil || !ok {
		t.Fatalf("failed to get message: ok=%v err=%v", ok, err)
	}

	var event queue.Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	if event.Kind != queue.EventExercisesGenerated {
		t.Errorf("kind = %q, want %q", event.Kind, queue.EventExercisesGenerated)
	}
	if event.LessonID != lessonID {
		t.Errorf("lesson = %s, want %s", event.LessonID, lessonID)
	}
	if event.Count != 4 {
		t.Errorf("count = %d, want 4", event.Count)
	}
}

func TestIntegration_Publisher_NilConnection(t *testing.T) {
	// Eventing is optional: a publisher without a connection drops events
	publisher := queue.NewPublisher(nil, slog.Default())
	publisher.LevelUp(context.Background(), uuid.New(), 2)
	publisher.StreakMilestone(context.Background(), uuid.New(), 7)
}

func TestIntegration_Connection_PublishJSON(t *testing.T) {
	amqpURL, cleanup := setupRabbitMQ(t)
	defer cleanup()

	conn, err := queue.NewConnection(amqpURL)
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	event := queue.Event{
		Kind:       queue.EventStreakMilestone,
		UserID:     uuid.New(),
		Streak:     30,
		OccurredAt: time.Now(),
	}

	if err := conn.PublishJSON(context.Background(), queue.EventQueueName, event); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	ch := conn.Channel()
	q, err := ch.QueueInspect(queue.EventQueueName)
	if err != nil {
		t.Fatalf("failed to inspect queue: %v", err)
	}

	if q.Messages != 1 {
		t.Errorf("expected 1 message, got %d", q.Messages)
	}
}
