package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "batchledger/pkg/platform/audit"
)

type recordingProducer struct {
	records []*kgo.Record
	err     error
}

func (p *recordingProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var results kgo.ProduceResults
	for _, r := range rs {
		p.records = append(p.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func sampleEvent() audit.Event {
	return audit.Event{
		ID:        "evt-1",
		Category:  audit.CategoryCompliance,
		Timestamp: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Action:    string(audit.EventBatchMinted),
		Subject:   "12",
		ActorID:   "SP1",
		Height:    44,
	}
}

func TestAppendKeysBySubject(t *testing.T) {
	producer := &recordingProducer{}
	store := New(producer, "batchledger.audit")

	require.NoError(t, store.Append(context.Background(), sampleEvent()))
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "batchledger.audit", rec.Topic)
	assert.Equal(t, "12", string(rec.Key))

	decoded, err := Decode(rec.Value)
	require.NoError(t, err)
	assert.Equal(t, sampleEvent(), decoded)
}

func TestAppendSurfacesProduceError(t *testing.T) {
	store := New(&recordingProducer{err: errors.New("broker down")}, "t")
	err := store.Append(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestListBySubjectIsUnsupported(t *testing.T) {
	_, err := New(&recordingProducer{}, "t").ListBySubject(context.Background(), "12")
	assert.ErrorIs(t, err, ErrNotQueryable)
}
