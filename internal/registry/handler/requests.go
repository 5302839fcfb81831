package handler

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"batchledger/internal/registry/models"
)

// MintBatchRequest is the body of POST /batches. Field checks run in the
// registry's own order; the handler only converts types.
type MintBatchRequest struct {
	ExternalCode      string          `json:"external_code"`
	ExpirationHeight  json.RawMessage `json:"expiration_height"`
	Composition       string          `json:"composition"`
	CertificateDigest string          `json:"certificate_digest"`
	DrugType          string          `json:"drug_type"`
	Quantity          json.RawMessage `json:"quantity"`
	Dosage            string          `json:"dosage"`
	StorageConditions string          `json:"storage_conditions"`
	Packaging         string          `json:"packaging"`
	Location          string          `json:"location"`
	Currency          string          `json:"currency"`
	BatchNumber       json.RawMessage `json:"batch_number"`

	digest      []byte
	expiration  uint64
	quantity    int64
	batchNumber int64
}

// Validate decodes the digest and the numeric fields. A malformed value is
// left zero so the mint checks report its own kind at its usual position.
func (r *MintBatchRequest) Validate() error {
	if raw, err := models.ParseCertificateDigest(r.CertificateDigest); err == nil {
		r.digest = raw
	}
	r.expiration = unsignedOrZero(r.ExpirationHeight)
	r.quantity = signedOrZero(r.Quantity)
	r.batchNumber = signedOrZero(r.BatchNumber)
	return nil
}

func unsignedOrZero(raw json.RawMessage) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func signedOrZero(raw json.RawMessage) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func (r *MintBatchRequest) toInput() models.MintInput {
	return models.MintInput{
		ExternalCode:      r.ExternalCode,
		ExpirationHeight:  models.Height(r.expiration),
		Composition:       r.Composition,
		CertificateDigest: r.digest,
		DrugType:          r.DrugType,
		Quantity:          r.quantity,
		Dosage:            r.Dosage,
		StorageConditions: r.StorageConditions,
		Packaging:         r.Packaging,
		Location:          r.Location,
		Currency:          r.Currency,
		BatchNumber:       r.batchNumber,
	}
}

// UpdateBatchRequest is the body of PUT /batches/{id}. Both fields are kept
// raw so a value of the wrong shape is reported as a registry error rather
// than a JSON error.
type UpdateBatchRequest struct {
	ExpirationHeight json.RawMessage `json:"expiration_height"`
	Composition      json.RawMessage `json:"composition"`

	expiration  models.Height
	composition string
}

func (r *UpdateBatchRequest) Validate() error {
	exp, err := strconv.ParseUint(string(r.ExpirationHeight), 10, 64)
	if err != nil {
		return models.NewError(models.ErrInvalidUpdateParameter)
	}
	if len(r.Composition) == 0 || string(r.Composition) == "null" || json.Unmarshal(r.Composition, &r.composition) != nil {
		return models.NewError(models.ErrInvalidUpdateParameter)
	}
	r.expiration = models.Height(exp)
	return nil
}

// TransferBatchRequest is the body of POST /batches/{id}/transfer.
type TransferBatchRequest struct {
	NewHolder string `json:"new_holder"`
}

func (r *TransferBatchRequest) Validate() error {
	r.NewHolder = strings.TrimSpace(r.NewHolder)
	return nil
}

// SetAuthorityRequest is the body of POST /admin/authority.
type SetAuthorityRequest struct {
	Address string `json:"address"`
}

func (r *SetAuthorityRequest) Validate() error {
	r.Address = strings.TrimSpace(r.Address)
	return nil
}

// SetMintFeeRequest is the body of PUT /admin/mint-fee. The amount may be a
// JSON number or a decimal string; any parseable amount is accepted.
type SetMintFeeRequest struct {
	Amount json.RawMessage `json:"amount"`

	amount decimal.Decimal
}

func (r *SetMintFeeRequest) Validate() error {
	raw := string(r.Amount)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return models.NewError(models.ErrInvalidFee)
	}
	r.amount = amount
	return nil
}
