package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/loi-watcher/internal/logger"
	"github.com/jonathan/loi-watcher/internal/schemas"
	"github.com/jonathan/loi-watcher/internal/types"
)

// Cursor values accepted by NewStreamConsumer.
const (
	// CursorStart reads the stream from its first entry.
	CursorStart = "0"
	// CursorLatest skips entries that exist when the consumer first polls.
	CursorLatest = "$"
)

const defaultReadCount = 100

// Handler processes one decoded change event. Returning an error stops the
// consumer before the entry is acknowledged, so it is read again next time.
type Handler func(ctx context.Context, entryID string, event types.ChangeEvent) error

// StreamConsumer reads change events appended by StreamPublisher.
type StreamConsumer struct {
	client *redis.Client
	stream string
	cursor string
	count  int64
	log    logger.Logger
}

// NewStreamConsumer creates a consumer starting after cursor. An empty cursor
// is CursorStart.
func NewStreamConsumer(client *redis.Client, stream, cursor string, log logger.Logger) *StreamConsumer {
	if cursor == "" {
		cursor = CursorStart
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &StreamConsumer{
		client: client,
		stream: stream,
		cursor: cursor,
		count:  defaultReadCount,
		log:    log,
	}
}

// Cursor returns the id of the last entry handled.
func (c *StreamConsumer) Cursor() string {
	return c.cursor
}

// Poll performs one non-blocking read and hands every valid event to handle.
// Entries whose payload does not match the change event schema are logged
// and skipped. It returns the number of events handled.
func (c *StreamConsumer) Poll(ctx context.Context, handle Handler) (int, error) {
	if c.cursor == CursorLatest {
		if err := c.resolveLatest(ctx); err != nil {
			return 0, err
		}
	}

	streams, err := c.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{c.stream, c.cursor},
		Count:   c.count,
		Block:   -1,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read stream %s: %w", c.stream, err)
	}

	handled := 0
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			event, err := decodeEntry(msg)
			if err != nil {
				c.log.Warn("skipping malformed change entry",
					logger.String("stream", c.stream),
					logger.String("entry_id", msg.ID),
					logger.Error(err),
				)
				c.cursor = msg.ID
				continue
			}
			if err := handle(ctx, msg.ID, event); err != nil {
				return handled, fmt.Errorf("handler failed for entry %s: %w", msg.ID, err)
			}
			c.cursor = msg.ID
			handled++
		}
	}
	return handled, nil
}

// Run polls every interval until ctx is cancelled or the handler fails.
func (c *StreamConsumer) Run(ctx context.Context, interval time.Duration, handle Handler) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := c.Poll(ctx, handle)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if n > 0 {
			c.log.Debug("handled change events", logger.Int("count", n), logger.String("cursor", c.cursor))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (c *StreamConsumer) resolveLatest(ctx context.Context) error {
	last, err := c.client.XRevRangeN(ctx, c.stream, "+", "-", 1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read stream tail %s: %w", c.stream, err)
	}
	if len(last) == 0 {
		c.cursor = CursorStart
		return nil
	}
	c.cursor = last[0].ID
	return nil
}

func decodeEntry(msg redis.XMessage) (types.ChangeEvent, error) {
	var event types.ChangeEvent

	raw, ok := msg.Values[FieldPayload].(string)
	if !ok {
		return event, fmt.Errorf("entry has no %s field", FieldPayload)
	}
	if err := schemas.ValidateChangeEvent([]byte(raw)); err != nil {
		return event, err
	}
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return event, fmt.Errorf("failed to decode change event: %w", err)
	}
	return event, nil
}
