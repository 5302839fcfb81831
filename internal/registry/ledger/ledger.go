// Package ledger is the batch registry state machine. Every exported method
// is one atomic transition: it either applies all of its effects or returns
// an error and leaves the state untouched.
//
// A Ledger is not safe for concurrent use. The hosting environment must
// serialize calls (see the service package).
package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"batchledger/internal/registry/models"
	"batchledger/internal/registry/ports"
	dErrors "batchledger/pkg/domain-errors"
	"batchledger/pkg/platform/sentinel"
)

// DefaultCapacity is the batch cap a fresh registry starts with.
const DefaultCapacity uint64 = 100000

// DefaultMintFee is charged per mint until an authority changes it.
var DefaultMintFee = decimal.NewFromInt(500)

// Ledger owns the registry state. The batches map and the code index are
// only ever written together.
type Ledger struct {
	nextID     models.BatchID
	capacity   uint64
	mintFee    decimal.Decimal
	authority  models.Principal
	batches    map[models.BatchID]models.Batch
	amendments map[models.BatchID]models.Amendment
	codeIndex  map[string]models.BatchID

	gateway ports.AuthorityGateway
	fees    ports.FeeTransfer
}

type Option func(l *Ledger)

// WithCapacity overrides DefaultCapacity.
func WithCapacity(capacity uint64) Option {
	return func(l *Ledger) {
		l.capacity = capacity
	}
}

// WithMintFee overrides DefaultMintFee.
func WithMintFee(fee decimal.Decimal) Option {
	return func(l *Ledger) {
		l.mintFee = fee
	}
}

// New creates an empty registry.
func New(gateway ports.AuthorityGateway, fees ports.FeeTransfer, opts ...Option) *Ledger {
	l := &Ledger{
		capacity:   DefaultCapacity,
		mintFee:    DefaultMintFee,
		batches:    make(map[models.BatchID]models.Batch),
		amendments: make(map[models.BatchID]models.Amendment),
		codeIndex:  make(map[string]models.BatchID),
		gateway:    gateway,
		fees:       fees,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetAuthorityGateway configures the fee recipient. It can succeed only once.
func (l *Ledger) SetAuthorityGateway(address models.Principal) error {
	if address.IsZero() || address == models.NullPrincipal {
		return models.NewError(models.ErrInvalidAuthority)
	}
	if !l.authority.IsZero() {
		return models.NewError(models.ErrAuthorityAlreadyConfigured)
	}
	l.authority = address
	return nil
}

// SetMintFee replaces the mint fee. The amount is not bounded.
func (l *Ledger) SetMintFee(amount decimal.Decimal) error {
	if l.authority.IsZero() {
		return models.NewError(models.ErrAuthorityNotConfigured)
	}
	l.mintFee = amount
	return nil
}

// Mint validates the request, charges the mint fee and records a new batch.
// Validation, including the authority and duplicate checks, completes before
// the fee transfer is attempted.
func (l *Ledger) Mint(ctx context.Context, call models.Call, in models.MintInput) (models.BatchID, error) {
	env := &models.MintEnv{
		Input:               in,
		Caller:              call.Caller,
		Height:              call.Height,
		NextID:              l.nextID,
		Capacity:            l.capacity,
		CodeTaken:           l.ExistsByCode,
		AuthorityConfigured: !l.authority.IsZero(),
		Authorize:           l.gateway.IsAuthorized,
	}
	if err := models.ValidateMint(ctx, env); err != nil {
		return 0, err
	}

	if err := l.fees.Transfer(ctx, l.mintFee, call.Caller, l.authority); err != nil {
		return 0, feeError(err)
	}

	var digest models.CertificateDigest
	copy(digest[:], in.CertificateDigest)

	id := l.nextID
	l.batches[id] = models.NewBatch(id, in, digest, call.Caller, call.Height)
	l.codeIndex[in.ExternalCode] = id
	l.nextID++
	return id, nil
}

// Update amends expiration and composition. Only the original minter may
// amend, even after custody has moved.
func (l *Ledger) Update(call models.Call, id models.BatchID, expiration models.Height, composition string) error {
	batch, ok := l.batches[id]
	if !ok {
		return models.NewError(models.ErrNotFound)
	}
	if err := batch.CanAmend(call.Caller, call.Height, expiration, composition); err != nil {
		return err
	}
	amendment := batch.ApplyAmendment(call.Caller, call.Height, expiration, composition)
	l.batches[id] = batch
	l.amendments[id] = amendment
	return nil
}

// Transfer hands custody to newHolder. Only the current holder may transfer
// and only while the batch is unexpired.
func (l *Ledger) Transfer(call models.Call, id models.BatchID, newHolder models.Principal) error {
	batch, ok := l.batches[id]
	if !ok {
		return models.NewError(models.ErrNotFound)
	}
	if err := batch.CanTransfer(call.Caller, call.Height, newHolder); err != nil {
		return err
	}
	batch.ApplyTransfer(newHolder)
	l.batches[id] = batch
	return nil
}

// Verify returns nil when the batch is active and unexpired at height.
func (l *Ledger) Verify(height models.Height, id models.BatchID) error {
	batch, ok := l.batches[id]
	if !ok {
		return models.NewError(models.ErrNotFound)
	}
	if !batch.IsValidAt(height) {
		return models.NewError(models.ErrExpired)
	}
	return nil
}

// Batch returns a copy of the batch with id.
func (l *Ledger) Batch(id models.BatchID) (models.Batch, bool) {
	batch, ok := l.batches[id]
	return batch, ok
}

// Amendment returns the latest amendment recorded for id.
func (l *Ledger) Amendment(id models.BatchID) (models.Amendment, bool) {
	amendment, ok := l.amendments[id]
	return amendment, ok
}

// Count is the number of batches ever minted, not the number still valid.
func (l *Ledger) Count() uint64 {
	return uint64(l.nextID)
}

func (l *Ledger) ExistsByCode(code string) bool {
	_, ok := l.codeIndex[code]
	return ok
}

func (l *Ledger) MintFee() decimal.Decimal {
	return l.mintFee
}

func (l *Ledger) Capacity() uint64 {
	return l.capacity
}

// AuthorityGateway returns the configured fee recipient, if any.
func (l *Ledger) AuthorityGateway() (models.Principal, bool) {
	return l.authority, !l.authority.IsZero()
}

func feeError(err error) error {
	if errors.Is(err, sentinel.ErrInsufficientFunds) {
		return dErrors.Wrap(err, dErrors.CodePrecondition, "caller cannot cover the mint fee")
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "mint fee transfer failed")
}
