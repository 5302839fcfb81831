package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/shopspring/decimal"

	"batchledger/internal/registry/models"
)

// AuthorityGateway decides whether a caller is a recognized minting
// authority. Implementations must not have side effects visible to the
// registry.
type AuthorityGateway interface {
	IsAuthorized(ctx context.Context, caller models.Principal) (bool, error)
}

// FeeTransfer moves a fixed-point amount between principals. A returned error
// means nothing moved.
type FeeTransfer interface {
	Transfer(ctx context.Context, amount decimal.Decimal, from, to models.Principal) error
}
