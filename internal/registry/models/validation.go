package models

import (
	"context"
	"unicode/utf8"

	dErrors "batchledger/pkg/domain-errors"
)

// Field bounds, in characters.
const (
	MaxExternalCodeLen = 50
	MaxCompositionLen  = 200
	MaxDrugTypeLen     = 50
	MaxDosageLen       = 100
	MaxStorageLen      = 100
	MaxPackagingLen    = 100
	MaxLocationLen     = 100
)

// MintInput is the caller-supplied part of a new batch. Signed integers and
// raw digest bytes are kept so out-of-range values reach the mint checks.
type MintInput struct {
	ExternalCode      string
	ExpirationHeight  Height
	Composition       string
	CertificateDigest []byte
	DrugType          string
	Quantity          int64
	Dosage            string
	StorageConditions string
	Packaging         string
	Location          string
	Currency          string
	BatchNumber       int64
}

// AuthorizeFunc asks the authority gateway whether caller may mint.
type AuthorizeFunc func(ctx context.Context, caller Principal) (bool, error)

// MintEnv is the registry view a mint request is checked against. It is
// read-only; checks never mutate it.
type MintEnv struct {
	Input               MintInput
	Caller              Principal
	Height              Height
	NextID              BatchID
	Capacity            uint64
	CodeTaken           func(code string) bool
	AuthorityConfigured bool
	Authorize           AuthorizeFunc
}

// MintCheck is one guard of the mint pipeline.
type MintCheck struct {
	Name string
	Kind ErrorKind
	Pass func(ctx context.Context, env *MintEnv) (bool, error)
}

// MintChecks run in this exact order. When several inputs are invalid the
// first failing check decides the reported kind, so do not reorder.
var MintChecks = []MintCheck{
	{"capacity", ErrCapacityExceeded, pure(func(e *MintEnv) bool { return uint64(e.NextID) < e.Capacity })},
	{"external_code", ErrInvalidCode, pure(func(e *MintEnv) bool { return boundedText(e.Input.ExternalCode, MaxExternalCodeLen) })},
	{"expiration", ErrInvalidExpiration, pure(func(e *MintEnv) bool { return e.Input.ExpirationHeight > e.Height })},
	{"composition", ErrInvalidComposition, pure(func(e *MintEnv) bool { return boundedText(e.Input.Composition, MaxCompositionLen) })},
	{"certificate_digest", ErrInvalidDigest, pure(func(e *MintEnv) bool { return len(e.Input.CertificateDigest) == DigestSize })},
	{"drug_type", ErrInvalidDrugType, pure(func(e *MintEnv) bool { return boundedText(e.Input.DrugType, MaxDrugTypeLen) })},
	{"quantity", ErrInvalidQuantity, pure(func(e *MintEnv) bool { return e.Input.Quantity > 0 })},
	{"dosage", ErrInvalidDosage, pure(func(e *MintEnv) bool { return boundedText(e.Input.Dosage, MaxDosageLen) })},
	{"storage_conditions", ErrInvalidStorageConditions, pure(func(e *MintEnv) bool { return boundedText(e.Input.StorageConditions, MaxStorageLen) })},
	{"packaging", ErrInvalidPackaging, pure(func(e *MintEnv) bool { return boundedText(e.Input.Packaging, MaxPackagingLen) })},
	{"location", ErrInvalidLocation, pure(func(e *MintEnv) bool { return boundedText(e.Input.Location, MaxLocationLen) })},
	{"currency", ErrInvalidCurrency, pure(func(e *MintEnv) bool { return Currency(e.Input.Currency).IsValid() })},
	{"batch_number", ErrInvalidBatchNumber, pure(func(e *MintEnv) bool { return e.Input.BatchNumber > 0 })},
	{"authorization", ErrNotAuthorized, checkAuthorized},
	{"unique_code", ErrAlreadyExists, pure(func(e *MintEnv) bool { return !e.CodeTaken(e.Input.ExternalCode) })},
	{"authority_configured", ErrAuthorityNotConfigured, pure(func(e *MintEnv) bool { return e.AuthorityConfigured })},
}

// ValidateMint runs MintChecks in order and stops at the first failure.
// A non-registry error means the authority gateway itself failed.
func ValidateMint(ctx context.Context, env *MintEnv) error {
	for _, check := range MintChecks {
		ok, err := check.Pass(ctx, env)
		if err != nil {
			return err
		}
		if !ok {
			return NewError(check.Kind)
		}
	}
	return nil
}

func checkAuthorized(ctx context.Context, e *MintEnv) (bool, error) {
	if e.Authorize == nil {
		return false, nil
	}
	ok, err := e.Authorize(ctx, e.Caller)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "authority gateway lookup failed")
	}
	return ok, nil
}

func pure(pred func(e *MintEnv) bool) func(context.Context, *MintEnv) (bool, error) {
	return func(_ context.Context, e *MintEnv) (bool, error) {
		return pred(e), nil
	}
}

// boundedText is the shared rule for free-text fields: non-empty and at most
// limit characters.
func boundedText(s string, limit int) bool {
	return s != "" && utf8.RuneCountInString(s) <= limit
}
