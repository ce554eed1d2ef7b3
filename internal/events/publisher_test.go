package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/loi-watcher/internal/logger"
	"github.com/jonathan/loi-watcher/internal/types"
)

const testStream = "loi:changes"

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testEvent(changeType types.ChangeType, group, location string) types.ChangeEvent {
	return types.ChangeEvent{
		ChangeType: changeType,
		Group:      group,
		Location: types.LocationRecord{
			Location:     location,
			Address:      "1 Main St",
			Day:          "Monday",
			Times:        "9am-5pm",
			Instructions: types.StringPtr("Self-monitor"),
		},
	}
}

func TestStreamPublisher_Publish(t *testing.T) {
	_, client := newTestClient(t)
	pub := NewStreamPublisher(client, testStream, 0)
	ctx := context.Background()

	event := testEvent(types.ChangeAdded, "Testing Sites", "Test Site")
	require.NoError(t, pub.Publish(ctx, event))

	entries, err := client.XRange(ctx, testStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	values := entries[0].Values
	assert.Equal(t, "added", values[FieldChangeType])
	assert.Equal(t, "Testing Sites", values[FieldGroup])
	assert.NotEmpty(t, values[FieldID])

	var decoded types.ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(values[FieldPayload].(string)), &decoded))
	assert.Equal(t, event, decoded)
}

func TestStreamPublisher_UnavailableBroker(t *testing.T) {
	mr, client := newTestClient(t)
	mr.Close()

	err := NewStreamPublisher(client, testStream, 0).Publish(context.Background(), testEvent(types.ChangeAdded, "G", "L"))
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	pub := &LogPublisher{Logger: logger.FromZap(zap.New(core))}

	require.NoError(t, pub.Publish(context.Background(), testEvent(types.ChangeRemoved, "G", "Old Site")))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "removed", fields["change_type"])
	assert.Equal(t, "Old Site", fields["location"])
}

type recordingPublisher struct {
	mu       sync.Mutex
	events   []types.ChangeEvent
	failFor  map[string]bool
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (p *recordingPublisher) Publish(_ context.Context, event types.ChangeEvent) error {
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		seen := p.maxSeen.Load()
		if n <= seen || p.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if p.failFor[event.Location.Location] {
		return errors.New("broker rejected")
	}
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return nil
}

func TestPublishAll_Empty(t *testing.T) {
	pub := &recordingPublisher{}
	assert.NoError(t, PublishAll(context.Background(), pub, nil, 4))
	assert.Empty(t, pub.events)
}

func TestPublishAll_PublishesEverything(t *testing.T) {
	pub := &recordingPublisher{}
	events := []types.ChangeEvent{
		testEvent(types.ChangeAdded, "G", "A"),
		testEvent(types.ChangeUpdated, "G", "B"),
		testEvent(types.ChangeRemoved, "G", "C"),
		testEvent(types.ChangeAdded, "H", "D"),
	}

	require.NoError(t, PublishAll(context.Background(), pub, events, 2))
	assert.ElementsMatch(t, events, pub.events)
	assert.LessOrEqual(t, pub.maxSeen.Load(), int32(2))
}

func TestPublishAll_CollectsEveryFailure(t *testing.T) {
	pub := &recordingPublisher{failFor: map[string]bool{"B": true, "D": true}}
	events := []types.ChangeEvent{
		testEvent(types.ChangeAdded, "G", "A"),
		testEvent(types.ChangeUpdated, "G", "B"),
		testEvent(types.ChangeRemoved, "G", "C"),
		testEvent(types.ChangeAdded, "H", "D"),
	}

	err := PublishAll(context.Background(), pub, events, 0)
	require.Error(t, err)

	var publishErr *PublishError
	require.ErrorAs(t, err, &publishErr)
	assert.Equal(t, 2, publishErr.Failed)
	assert.Equal(t, 4, publishErr.Total)
	assert.Len(t, publishErr.Errs, 2)
	assert.Contains(t, publishErr.Errs[0].Error(), `"B"`)
	assert.Contains(t, publishErr.Errs[1].Error(), `"D"`)
	assert.Contains(t, err.Error(), "2 of 4")

	// Failures do not stop the remaining publishes.
	assert.Len(t, pub.events, 2)
}

func TestPublishAll_ToStream(t *testing.T) {
	_, client := newTestClient(t)
	pub := NewStreamPublisher(client, testStream, 1000)
	ctx := context.Background()

	events := []types.ChangeEvent{
		testEvent(types.ChangeAdded, "G", "A"),
		testEvent(types.ChangeRemoved, "G", "B"),
		testEvent(types.ChangeUpdated, "H", "C"),
	}
	require.NoError(t, PublishAll(ctx, pub, events, 8))

	n, err := client.XLen(ctx, testStream).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
