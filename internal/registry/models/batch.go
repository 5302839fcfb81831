package models

import (
	"encoding/hex"
	"strconv"

	dErrors "batchledger/pkg/domain-errors"
)

// BatchID is the internal, monotonically assigned batch identifier.
type BatchID uint64

func (id BatchID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseBatchID parses a decimal batch identifier.
func ParseBatchID(s string) (BatchID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "batch id must be an unsigned integer")
	}
	return BatchID(v), nil
}

// Height is the externally advanced logical clock used for expiration.
type Height uint64

// Principal identifies a caller, minter, holder, or the authority gateway.
type Principal string

// NullPrincipal is the reserved burn/sentinel identity. It can never be the
// authority gateway.
const NullPrincipal Principal = "SP000000000000000000002Q6VF78"

func (p Principal) String() string {
	return string(p)
}

func (p Principal) IsZero() bool {
	return p == ""
}

// DigestSize is the exact length of a certificate digest.
const DigestSize = 32

// CertificateDigest is an opaque integrity hash attached at mint time.
type CertificateDigest [DigestSize]byte

func (d CertificateDigest) String() string {
	return hex.EncodeToString(d[:])
}

func (d CertificateDigest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *CertificateDigest) UnmarshalText(text []byte) error {
	raw, err := hex.DecodeString(string(text))
	if err != nil || len(raw) != DigestSize {
		return NewError(ErrInvalidDigest)
	}
	copy(d[:], raw)
	return nil
}

// ParseCertificateDigest decodes a hex digest. Length is not checked here;
// the mint checks reject anything that is not DigestSize bytes.
func ParseCertificateDigest(s string) ([]byte, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, NewError(ErrInvalidDigest)
	}
	return raw, nil
}

// Batch is the aggregate root for one minted drug lot.
//
// Invariants:
//   - ID, ExternalCode, CertificateDigest, Manufacturer, Minter and
//     CreatedAtHeight never change after construction
//   - ExternalCode is unique across the registry
//   - Composition and ExpirationHeight change only through an amendment
//   - CurrentHolder changes only through a transfer
//   - Active is set at creation; nothing clears it today, but verification
//     still requires it
type Batch struct {
	ID                 BatchID           `json:"id"`
	ExternalCode       string            `json:"external_code"`
	ExpirationHeight   Height            `json:"expiration_height"`
	Composition        string            `json:"composition"`
	CertificateDigest  CertificateDigest `json:"certificate_digest"`
	Manufacturer       Principal         `json:"manufacturer"`
	CreatedAtHeight    Height            `json:"created_at_height"`
	LastModifiedHeight Height            `json:"last_modified_height"`
	Minter             Principal         `json:"minter"`
	DrugType           string            `json:"drug_type"`
	Quantity           uint64            `json:"quantity"`
	Dosage             string            `json:"dosage"`
	StorageConditions  string            `json:"storage_conditions"`
	Packaging          string            `json:"packaging"`
	Location           string            `json:"location"`
	Currency           Currency          `json:"currency"`
	Active             bool              `json:"active"`
	CurrentHolder      Principal         `json:"current_holder"`
	BatchNumber        uint64            `json:"batch_number"`
}

// NewBatch builds a freshly minted batch. The caller becomes manufacturer,
// minter and first holder. Inputs must already have passed the mint checks.
func NewBatch(id BatchID, in MintInput, digest CertificateDigest, caller Principal, height Height) Batch {
	return Batch{
		ID:                 id,
		ExternalCode:       in.ExternalCode,
		ExpirationHeight:   in.ExpirationHeight,
		Composition:        in.Composition,
		CertificateDigest:  digest,
		Manufacturer:       caller,
		CreatedAtHeight:    height,
		LastModifiedHeight: height,
		Minter:             caller,
		DrugType:           in.DrugType,
		Quantity:           uint64(in.Quantity),
		Dosage:             in.Dosage,
		StorageConditions:  in.StorageConditions,
		Packaging:          in.Packaging,
		Location:           in.Location,
		Currency:           Currency(in.Currency),
		Active:             true,
		CurrentHolder:      caller,
		BatchNumber:        uint64(in.BatchNumber),
	}
}

// IsExpiredAt reports whether the batch is no longer valid at height.
func (b *Batch) IsExpiredAt(height Height) bool {
	return b.ExpirationHeight <= height
}

// IsValidAt is the verification rule: active and not expired.
func (b *Batch) IsValidAt(height Height) bool {
	return b.Active && !b.IsExpiredAt(height)
}

// CanAmend checks the caller and the new values of an amendment.
func (b *Batch) CanAmend(caller Principal, height Height, expiration Height, composition string) error {
	if b.Minter != caller {
		return NewError(ErrNotAuthorized)
	}
	if expiration <= height {
		return NewError(ErrInvalidExpiration)
	}
	if !boundedText(composition, MaxCompositionLen) {
		return NewError(ErrInvalidComposition)
	}
	return nil
}

// ApplyAmendment overwrites the mutable fields and returns the audit record.
// Call CanAmend first.
func (b *Batch) ApplyAmendment(caller Principal, height Height, expiration Height, composition string) Amendment {
	b.ExpirationHeight = expiration
	b.Composition = composition
	b.LastModifiedHeight = height
	return Amendment{
		UpdatedExpirationHeight: expiration,
		UpdatedComposition:      composition,
		AmendmentHeight:         height,
		Amender:                 caller,
	}
}

// CanTransfer checks a custody handover. Order matters: holder, expiry, target.
// An empty target would strand the batch, since no caller can be empty.
func (b *Batch) CanTransfer(caller Principal, height Height, newHolder Principal) error {
	if b.CurrentHolder != caller {
		return NewError(ErrNotAuthorized)
	}
	if b.IsExpiredAt(height) {
		return NewError(ErrExpired)
	}
	if newHolder == caller || newHolder.IsZero() {
		return NewError(ErrInvalidTargetHolder)
	}
	return nil
}

// ApplyTransfer hands custody to newHolder. Call CanTransfer first.
func (b *Batch) ApplyTransfer(newHolder Principal) {
	b.CurrentHolder = newHolder
}

// Amendment is the latest audit record for a batch. Only one is retained per
// batch; a later amendment overwrites it.
type Amendment struct {
	UpdatedExpirationHeight Height    `json:"updated_expiration_height"`
	UpdatedComposition      string    `json:"updated_composition"`
	AmendmentHeight         Height    `json:"amendment_height"`
	Amender                 Principal `json:"amender"`
}
