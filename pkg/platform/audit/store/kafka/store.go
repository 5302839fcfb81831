// Package kafka streams audit events to a Kafka topic, keyed by subject so
// every event for one batch lands on one partition in order.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "batchledger/pkg/platform/audit"
)

// ErrNotQueryable is returned by ListBySubject: a topic is append-only here.
// Query the materialized store fed by the worker instead.
var ErrNotQueryable = errors.New("kafka audit store does not support queries")

// Producer is the subset of *kgo.Client the store uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Store struct {
	producer Producer
	topic    string
}

func New(producer Producer, topic string) *Store {
	return &Store{producer: producer, topic: topic}
}

// Message is the wire form of an audit event.
type Message struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Timestamp  string `json:"timestamp"`
	Action     string `json:"action"`
	Subject    string `json:"subject"`
	ActorID    string `json:"actor_id,omitempty"`
	Height     uint64 `json:"height"`
	Reason     string `json:"reason,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	ClientIP   string `json:"client_ip,omitempty"`
	ClientKind string `json:"client_kind,omitempty"`
}

func Encode(event audit.Event) ([]byte, error) {
	return json.Marshal(Message{
		ID:         event.ID,
		Category:   string(event.Category),
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:     event.Action,
		Subject:    event.Subject,
		ActorID:    event.ActorID,
		Height:     event.Height,
		Reason:     event.Reason,
		RequestID:  event.RequestID,
		ClientIP:   event.ClientIP,
		ClientKind: event.ClientKind,
	})
}

func Decode(payload []byte) (audit.Event, error) {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return audit.Event{}, fmt.Errorf("decode audit message: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("decode audit timestamp: %w", err)
	}
	return audit.Event{
		ID:         m.ID,
		Category:   audit.EventCategory(m.Category),
		Timestamp:  ts,
		Action:     m.Action,
		Subject:    m.Subject,
		ActorID:    m.ActorID,
		Height:     m.Height,
		Reason:     m.Reason,
		RequestID:  m.RequestID,
		ClientIP:   m.ClientIP,
		ClientKind: m.ClientKind,
	}, nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := Encode(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "category", Value: []byte(event.Category)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (s *Store) ListBySubject(context.Context, string) ([]audit.Event, error) {
	return nil, ErrNotQueryable
}
