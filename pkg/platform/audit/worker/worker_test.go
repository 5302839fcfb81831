package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "batchledger/pkg/platform/audit"
	kafkastore "batchledger/pkg/platform/audit/store/kafka"
	"batchledger/pkg/platform/audit/store/memory"
)

// scriptedConsumer returns one prepared fetch per poll, then blocks until
// the context ends.
type scriptedConsumer struct {
	polls     []kgo.Fetches
	committed []*kgo.Record
}

func (c *scriptedConsumer) PollFetches(ctx context.Context) kgo.Fetches {
	if len(c.polls) == 0 {
		<-ctx.Done()
		return nil
	}
	next := c.polls[0]
	c.polls = c.polls[1:]
	return next
}

func (c *scriptedConsumer) CommitRecords(_ context.Context, rs ...*kgo.Record) error {
	c.committed = append(c.committed, rs...)
	return nil
}

func fetchOf(records ...*kgo.Record) kgo.Fetches {
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      "audit",
		Partitions: []kgo.FetchPartition{{Partition: 0, Records: records}},
	}}}}
}

func record(t *testing.T, offset int64, subject string) *kgo.Record {
	t.Helper()
	payload, err := kafkastore.Encode(audit.Event{
		ID:        "evt-" + subject,
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Action:    string(audit.EventBatchMinted),
		Subject:   subject,
	})
	require.NoError(t, err)
	return &kgo.Record{Topic: "audit", Offset: offset, Key: []byte(subject), Value: payload}
}

// flakyStore fails the first failures appends, then delegates.
type flakyStore struct {
	audit.Store
	failures int
	attempts int
}

func (f *flakyStore) Append(ctx context.Context, event audit.Event) error {
	f.attempts++
	if f.attempts <= f.failures {
		return errors.New("db down")
	}
	return f.Store.Append(ctx, event)
}

func quickRetry() backoff.BackOff {
	return backoff.NewConstantBackOff(time.Millisecond)
}

func TestWorkerMaterializesAndCommits(t *testing.T) {
	store := memory.NewInMemoryStore()
	poison := &kgo.Record{Topic: "audit", Offset: 2, Value: []byte("{not json")}
	consumer := &scriptedConsumer{polls: []kgo.Fetches{fetchOf(record(t, 0, "1"), record(t, 1, "2"), poison)}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := NewWorker(consumer, store, logger).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	events, err := store.ListBySubject(context.Background(), "2")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-2", events[0].ID)
	assert.Len(t, consumer.committed, 3, "poison records are committed past")
}

func TestWorkerRetriesThroughStoreOutage(t *testing.T) {
	store := &flakyStore{Store: memory.NewInMemoryStore(), failures: 3}
	consumer := &scriptedConsumer{polls: []kgo.Fetches{fetchOf(record(t, 0, "1"))}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := NewWorker(consumer, store, logger, WithBackOff(quickRetry)).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "the worker keeps running after the outage")

	assert.Equal(t, 4, store.attempts)
	events, err := store.ListBySubject(context.Background(), "1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Len(t, consumer.committed, 1)
}

func TestWorkerDoesNotCommitWhileStoreIsDown(t *testing.T) {
	store := &flakyStore{Store: memory.NewInMemoryStore(), failures: 1 << 30}
	consumer := &scriptedConsumer{polls: []kgo.Fetches{fetchOf(record(t, 0, "1"))}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := NewWorker(consumer, store, logger, WithBackOff(quickRetry)).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, store.attempts, 1)
	assert.Empty(t, consumer.committed)
}
