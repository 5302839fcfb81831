package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "batchledger/pkg/platform/audit"
	kafkastore "batchledger/pkg/platform/audit/store/kafka"
)

// Consumer is the subset of *kgo.Client the worker uses.
type Consumer interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
}

// Worker materializes the audit topic into a queryable store. Offsets are
// committed only after the batch of records is persisted, so a crash
// replays rather than loses events; stores must be idempotent on event id.
//
// A store outage does not stop the worker: each append is retried with
// exponential backoff until it lands or the context ends.
type Worker struct {
	consumer   Consumer
	store      audit.Store
	logger     *slog.Logger
	newBackOff func() backoff.BackOff
}

type Option func(*Worker)

// WithBackOff replaces the retry schedule used while the store is failing.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(w *Worker) {
		w.newBackOff = newBackOff
	}
}

func NewWorker(consumer Consumer, store audit.Store, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		consumer:   consumer,
		store:      store,
		logger:     logger,
		newBackOff: defaultBackOff,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Run returns ctx.Err() once ctx ends and nil when the client is closed.
func (w *Worker) Run(ctx context.Context) error {
	for {
		fetches := w.consumer.PollFetches(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if fetches.IsClientClosed() {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			w.logger.ErrorContext(ctx, "audit fetch failed",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var done []*kgo.Record
		var stopErr error
		fetches.EachRecord(func(rec *kgo.Record) {
			if stopErr != nil {
				return
			}
			event, err := kafkastore.Decode(rec.Value)
			if err != nil {
				// Poison message: log and skip so the partition keeps moving.
				w.logger.WarnContext(ctx, "skipping undecodable audit record",
					"offset", rec.Offset,
					"error", err,
				)
				done = append(done, rec)
				return
			}
			if err := w.persist(ctx, rec, event); err != nil {
				stopErr = err
				return
			}
			done = append(done, rec)
		})

		if len(done) > 0 {
			if err := w.consumer.CommitRecords(ctx, done...); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.ErrorContext(ctx, "audit offset commit failed", "error", err)
			}
		}
		if stopErr != nil {
			return stopErr
		}
	}
}

// persist appends event, retrying while the store fails. It only gives up
// when ctx ends.
func (w *Worker) persist(ctx context.Context, rec *kgo.Record, event audit.Event) error {
	op := func() error {
		return w.store.Append(ctx, event)
	}
	notify := func(err error, wait time.Duration) {
		w.logger.WarnContext(ctx, "audit store append failed, retrying",
			"offset", rec.Offset,
			"event_id", event.ID,
			"retry_in", wait,
			"error", err,
		)
	}
	return backoff.RetryNotify(op, backoff.WithContext(w.newBackOff(), ctx), notify)
}
