package authority

import (
	"context"
	"log/slog"

	"batchledger/internal/registry/models"
	"batchledger/internal/registry/ports"
	"batchledger/pkg/platform/circuit"
)

// Resilient consults a remote gateway and answers from a fallback while the
// breaker is open. The primary is always tried so it can close the breaker
// again once it recovers.
type Resilient struct {
	primary  ports.AuthorityGateway
	fallback ports.AuthorityGateway
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewResilient(primary, fallback ports.AuthorityGateway, breaker *circuit.Breaker, logger *slog.Logger) *Resilient {
	return &Resilient{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (r *Resilient) IsAuthorized(ctx context.Context, caller models.Principal) (bool, error) {
	ok, err := r.primary.IsAuthorized(ctx, caller)
	if err != nil {
		useFallback, change := r.breaker.RecordFailure()
		if change.Opened {
			r.log(ctx, "authority gateway circuit opened", "error", err)
		}
		if useFallback {
			return r.fallback.IsAuthorized(ctx, caller)
		}
		return false, err
	}

	usePrimary, change := r.breaker.RecordSuccess()
	if change.Closed {
		r.log(ctx, "authority gateway circuit closed")
	}
	if !usePrimary {
		return r.fallback.IsAuthorized(ctx, caller)
	}
	return ok, nil
}

func (r *Resilient) log(ctx context.Context, msg string, args ...any) {
	if r.logger != nil {
		r.logger.WarnContext(ctx, msg, append(args, "breaker", r.breaker.Name())...)
	}
}
