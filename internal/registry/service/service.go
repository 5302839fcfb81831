// Package service hosts the registry ledger behind a mutex so every
// operation is atomic with respect to every other. It resolves the caller
// and block height for each call and carries the ambient concerns: audit,
// metrics and tracing.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"batchledger/internal/registry/ledger"
	"batchledger/internal/registry/metrics"
	"batchledger/internal/registry/models"
	"batchledger/pkg/attrs"
	dErrors "batchledger/pkg/domain-errors"
	audit "batchledger/pkg/platform/audit"
	"batchledger/pkg/requestcontext"
)

const tracerName = "batchledger/internal/registry/service"

// HeightSource reports the current block height.
type HeightSource interface {
	Current(ctx context.Context) (models.Height, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service serializes access to the registry ledger.
type Service struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	height HeightSource

	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer overrides the global otel tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service around l.
func New(l *ledger.Ledger, height HeightSource, opts ...Option) *Service {
	s := &Service{ledger: l, height: height}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// SetAuthorityGateway configures the fee recipient. First call wins.
func (s *Service) SetAuthorityGateway(ctx context.Context, address models.Principal) (err error) {
	ctx, span, start := s.begin(ctx, "SetAuthorityGateway", attribute.String("registry.authority", address.String()))
	defer func() { s.finish(span, "set_authority_gateway", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.SetAuthorityGateway(address); err != nil {
		return err
	}
	s.logAudit(ctx, string(audit.EventAuthorityConfigured),
		"setting", "authority_gateway",
		"authority", address,
	)
	return nil
}

// SetMintFee changes the fee charged per mint.
func (s *Service) SetMintFee(ctx context.Context, amount decimal.Decimal) (err error) {
	ctx, span, start := s.begin(ctx, "SetMintFee", attribute.String("registry.mint_fee", amount.String()))
	defer func() { s.finish(span, "set_mint_fee", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.ledger.MintFee()
	if err := s.ledger.SetMintFee(amount); err != nil {
		return err
	}
	s.logAudit(ctx, string(audit.EventMintFeeChanged),
		"setting", "mint_fee",
		"reason", previous.String()+" -> "+amount.String(),
	)
	return nil
}

// MintBatch records a new batch owned by the caller and returns its id.
func (s *Service) MintBatch(ctx context.Context, in models.MintInput) (id models.BatchID, err error) {
	ctx, span, start := s.begin(ctx, "MintBatch", attribute.String("batch.external_code", in.ExternalCode))
	defer func() { s.finish(span, "mint", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	call, err := s.call(ctx)
	if err != nil {
		return 0, err
	}
	id, err = s.ledger.Mint(ctx, call, in)
	if err != nil {
		s.logAudit(ctx, string(audit.EventMintRejected),
			"external_code", in.ExternalCode,
			"caller", call.Caller,
			"height", call.Height,
			"reason", errorKind(err),
		)
		return 0, err
	}

	span.SetAttributes(attribute.String("batch.id", id.String()))
	s.metrics.IncrementMinted(s.ledger.Count())
	s.logAudit(ctx, string(audit.EventBatchMinted),
		"batch_id", id,
		"caller", call.Caller,
		"height", call.Height,
	)
	return id, nil
}

// UpdateBatch amends expiration and composition.
func (s *Service) UpdateBatch(ctx context.Context, id models.BatchID, expiration models.Height, composition string) (err error) {
	ctx, span, start := s.begin(ctx, "UpdateBatch", attribute.String("batch.id", id.String()))
	defer func() { s.finish(span, "update", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	call, err := s.call(ctx)
	if err != nil {
		return err
	}
	if err := s.ledger.Update(call, id, expiration, composition); err != nil {
		s.logAudit(ctx, string(audit.EventUpdateRejected),
			"batch_id", id,
			"caller", call.Caller,
			"height", call.Height,
			"reason", errorKind(err),
		)
		return err
	}
	s.metrics.IncrementUpdated()
	s.logAudit(ctx, string(audit.EventBatchUpdated),
		"batch_id", id,
		"caller", call.Caller,
		"height", call.Height,
	)
	return nil
}

// TransferBatch hands custody of the batch to newHolder.
func (s *Service) TransferBatch(ctx context.Context, id models.BatchID, newHolder models.Principal) (err error) {
	ctx, span, start := s.begin(ctx, "TransferBatch",
		attribute.String("batch.id", id.String()),
		attribute.String("batch.new_holder", newHolder.String()),
	)
	defer func() { s.finish(span, "transfer", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	call, err := s.call(ctx)
	if err != nil {
		return err
	}
	if err := s.ledger.Transfer(call, id, newHolder); err != nil {
		s.logAudit(ctx, string(audit.EventTransferRejected),
			"batch_id", id,
			"caller", call.Caller,
			"height", call.Height,
			"reason", errorKind(err),
		)
		return err
	}
	s.metrics.IncrementTransferred()
	s.logAudit(ctx, string(audit.EventBatchTransferred),
		"batch_id", id,
		"caller", call.Caller,
		"height", call.Height,
		"reason", "to "+newHolder.String(),
	)
	return nil
}

// VerifyBatch returns nil when the batch is currently valid.
func (s *Service) VerifyBatch(ctx context.Context, id models.BatchID) (err error) {
	ctx, span, start := s.begin(ctx, "VerifyBatch", attribute.String("batch.id", id.String()))
	defer func() { s.finish(span, "verify", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.currentHeight(ctx)
	if err != nil {
		return err
	}
	err = s.ledger.Verify(h, id)

	outcome := "valid"
	switch {
	case models.IsKind(err, models.ErrNotFound):
		outcome = "not_found"
	case models.IsKind(err, models.ErrExpired):
		outcome = "expired"
	}
	s.metrics.IncrementVerification(outcome)
	s.logAudit(ctx, string(audit.EventBatchVerified),
		"batch_id", id,
		"caller", models.Principal(requestcontext.Caller(ctx)),
		"height", h,
		"reason", outcome,
	)
	return err
}

func (s *Service) GetBatch(_ context.Context, id models.BatchID) (models.Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Batch(id)
}

// GetAmendment returns the latest amendment of a batch, if it was ever
// amended.
func (s *Service) GetAmendment(_ context.Context, id models.BatchID) (models.Amendment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Amendment(id)
}

func (s *Service) GetBatchCount(context.Context) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Count()
}

func (s *Service) BatchExistsByCode(_ context.Context, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ExistsByCode(code)
}

func (s *Service) call(ctx context.Context) (models.Call, error) {
	h, err := s.currentHeight(ctx)
	if err != nil {
		return models.Call{}, err
	}
	return models.Call{
		Caller: models.Principal(requestcontext.Caller(ctx)),
		Height: h,
	}, nil
}

func (s *Service) currentHeight(ctx context.Context) (models.Height, error) {
	h, err := s.height.Current(ctx)
	if err != nil {
		if dErrors.CodeOf(err) != dErrors.CodeInternal {
			return 0, err
		}
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "block height unavailable")
	}
	return h, nil
}

func (s *Service) begin(ctx context.Context, op string, attributes ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	ctx, span := s.tracer.Start(ctx, "registry."+op, trace.WithAttributes(attributes...))
	return ctx, span, time.Now()
}

func (s *Service) finish(span trace.Span, op string, start time.Time, err error) {
	s.metrics.ObserveLatency(op, time.Since(start))
	if err != nil {
		kind := errorKind(err)
		s.metrics.IncrementRejection(op, kind)
		span.SetAttributes(attribute.String("registry.error_kind", kind))
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
	}
	span.End()
}

// errorKind names the failure for metrics and audit: the registry kind when
// there is one, the domain code otherwise.
func errorKind(err error) string {
	if kind, ok := models.KindOf(err); ok {
		return kind.String()
	}
	return string(dErrors.CodeOf(err))
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:  event,
		Subject: attrs.FirstString(attributes, "batch_id", "external_code", "setting"),
		ActorID: attrs.ExtractString(attributes, "caller"),
		Height:  extractHeight(attributes),
		Reason:  attrs.ExtractString(attributes, "reason"),
	})
}

func extractHeight(attributes []any) uint64 {
	for i := 0; i < len(attributes)-1; i += 2 {
		if k, ok := attributes[i].(string); ok && k == "height" {
			if h, ok := attributes[i+1].(models.Height); ok {
				return uint64(h)
			}
		}
	}
	return 0
}
