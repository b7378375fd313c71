package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher emits domain events best effort: a failed or absent broker never
// fails the request that triggered the event.
type Publisher struct {
	conn   *Connection // nil disables publishing
	logger *slog.Logger
}

// NewPublisher creates an event publisher. conn may be nil to disable
// publishing entirely (e.g. local development without a broker).
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger}
}

func (p *Publisher) publish(ctx context.Context, event Event) {
	if p.conn == nil {
		return
	}
	event.OccurredAt = time.Now()
	if err := p.conn.PublishJSON(ctx, EventQueueName, event); err != nil {
		p.logger.Warn("event publish failed", "kind", event.Kind, "error", err)
	}
}

// LevelUp announces that a user reached a new level.
func (p *Publisher) LevelUp(ctx context.Context, userID uuid.UUID, level int) {
	p.publish(ctx, Event{Kind: EventLevelUp, UserID: userID, Level: level})
}

// StreakMilestone announces a notable streak length (7, 30, 100 days).
func (p *Publisher) StreakMilestone(ctx context.Context, userID uuid.UUID, streak int) {
	p.publish(ctx, Event{Kind: EventStreakMilestone, UserID: userID, Streak: streak})
}

// ExercisesGenerated announces that new exercises landed in a lesson.
func (p *Publisher) ExercisesGenerated(ctx context.Context, lessonID uuid.UUID, count int) {
	p.publish(ctx, Event{Kind: EventExercisesGenerated, LessonID: lessonID, Count: count})
}
