package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by purpose so sinks can apply
// different retention.
type EventCategory string

const (
	// CategoryCompliance covers chain-of-custody facts: mints, amendments,
	// custody transfers. These are the regulatory record of a batch.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers configuration changes and rejected attempts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine reads worth tracing, such as
	// verification checks.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It is
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// Subject is the batch the event is about (its id), or the setting name
	// for administrative events.
	Subject string
	// ActorID is the principal that performed the action.
	ActorID string
	Height  uint64
	// Reason is the error kind for rejections, or a short detail otherwise.
	Reason     string
	RequestID  string
	ClientIP   string
	ClientKind string
}

type AuditEvent string

const (
	EventBatchMinted         AuditEvent = "batch_minted"
	EventBatchUpdated        AuditEvent = "batch_updated"
	EventBatchTransferred    AuditEvent = "batch_transferred"
	EventBatchVerified       AuditEvent = "batch_verified"
	EventAuthorityConfigured AuditEvent = "authority_configured"
	EventMintFeeChanged      AuditEvent = "mint_fee_changed"
	EventMintRejected        AuditEvent = "mint_rejected"
	EventUpdateRejected      AuditEvent = "update_rejected"
	EventTransferRejected    AuditEvent = "transfer_rejected"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventBatchMinted:      CategoryCompliance,
	EventBatchUpdated:     CategoryCompliance,
	EventBatchTransferred: CategoryCompliance,

	EventAuthorityConfigured: CategorySecurity,
	EventMintFeeChanged:      CategorySecurity,
	EventMintRejected:        CategorySecurity,
	EventUpdateRejected:      CategorySecurity,
	EventTransferRejected:    CategorySecurity,

	EventBatchVerified: CategoryOperations,
}

// Category returns the EventCategory for this audit event. Unknown events
// default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}
