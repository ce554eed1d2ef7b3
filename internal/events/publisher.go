// Package events delivers change events to downstream consumers over a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/loi-watcher/internal/logger"
	"github.com/jonathan/loi-watcher/internal/types"
)

// Stream entry field names.
const (
	FieldID         = "id"
	FieldChangeType = "changeType"
	FieldGroup      = "group"
	FieldPayload    = "payload"
)

// Publisher hands one change event to a delivery channel. A nil error means
// the event was durably accepted.
type Publisher interface {
	Publish(ctx context.Context, event types.ChangeEvent) error
}

// StreamPublisher appends change events to a Redis stream.
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamPublisher creates a publisher for stream. A positive maxLen caps
// the stream length (approximate trimming).
func NewStreamPublisher(client *redis.Client, stream string, maxLen int64) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Publish XADDs the event. The entry carries a message id, the change type and
// group for filtering, and the full event JSON as payload.
func (p *StreamPublisher) Publish(ctx context.Context, event types.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			FieldID:         uuid.NewString(),
			FieldChangeType: string(event.ChangeType),
			FieldGroup:      event.Group,
			FieldPayload:    string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to append to stream %s: %w", p.stream, err)
	}
	return nil
}

// LogPublisher logs events instead of delivering them.
type LogPublisher struct {
	Logger logger.Logger
}

// Publish logs the event at info level.
func (p *LogPublisher) Publish(_ context.Context, event types.ChangeEvent) error {
	p.Logger.Info("change event",
		logger.String("change_type", string(event.ChangeType)),
		logger.String("group", event.Group),
		logger.String("location", event.Location.Location),
		logger.String("day", event.Location.Day),
		logger.String("times", event.Location.Times),
	)
	return nil
}

// PublishAll publishes every event with at most limit publishes in flight and
// waits for all of them. A failure does not cancel the remaining publishes;
// all failures are returned together as a *PublishError.
func PublishAll(ctx context.Context, p Publisher, events []types.ChangeEvent, limit int) error {
	if len(events) == 0 {
		return nil
	}
	if limit < 1 {
		limit = 1
	}

	errs := make([]error, len(events))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, event := range events {
		i, event := i, event
		g.Go(func() error {
			if err := p.Publish(ctx, event); err != nil {
				errs[i] = fmt.Errorf("%s %q/%q: %w", event.ChangeType, event.Group, event.Location.Location, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return &PublishError{Failed: len(failed), Total: len(events), Errs: failed}
	}
	return nil
}
