package models

import (
	"errors"
	"fmt"

	dErrors "batchledger/pkg/domain-errors"
)

// ErrorKind is the stable registry error code. Numeric values match the
// codes published by the original contract and must not be renumbered.
type ErrorKind uint32

const (
	ErrNotAuthorized              ErrorKind = 100
	ErrInvalidCode                ErrorKind = 101
	ErrInvalidExpiration          ErrorKind = 102
	ErrInvalidComposition         ErrorKind = 103
	ErrInvalidDigest              ErrorKind = 104
	ErrAlreadyExists              ErrorKind = 106
	ErrNotFound                   ErrorKind = 107
	ErrAuthorityNotConfigured     ErrorKind = 109
	ErrInvalidQuantity            ErrorKind = 110
	ErrInvalidDosage              ErrorKind = 111
	ErrInvalidUpdateParameter     ErrorKind = 113
	ErrCapacityExceeded           ErrorKind = 114
	ErrInvalidDrugType            ErrorKind = 115
	ErrInvalidStorageConditions   ErrorKind = 116
	ErrInvalidPackaging           ErrorKind = 117
	ErrInvalidLocation            ErrorKind = 118
	ErrInvalidCurrency            ErrorKind = 119
	ErrInvalidTargetHolder        ErrorKind = 121
	ErrExpired                    ErrorKind = 123
	ErrInvalidFee                 ErrorKind = 124
	ErrInvalidBatchNumber         ErrorKind = 125
	ErrAuthorityAlreadyConfigured ErrorKind = 126
	ErrInvalidAuthority           ErrorKind = 127
)

// Category groups kinds for callers that only care about the class of failure.
type Category string

const (
	CategoryAuthorization Category = "authorization"
	CategoryValidation    Category = "validation"
	CategoryResourceLimit Category = "resource_limit"
	CategoryConflict      Category = "conflict"
	CategoryNotFound      Category = "not_found"
	CategoryExpiration    Category = "expiration"
	CategoryConfiguration Category = "configuration"
)

type kindInfo struct {
	name     string
	message  string
	category Category
}

var kinds = map[ErrorKind]kindInfo{
	ErrNotAuthorized:              {"not_authorized", "caller is not authorized", CategoryAuthorization},
	ErrInvalidCode:                {"invalid_code", "external code must be 1-50 characters", CategoryValidation},
	ErrInvalidExpiration:          {"invalid_expiration", "expiration height must be above the current height", CategoryValidation},
	ErrInvalidComposition:         {"invalid_composition", "composition must be 1-200 characters", CategoryValidation},
	ErrInvalidDigest:              {"invalid_digest", "certificate digest must be exactly 32 bytes", CategoryValidation},
	ErrAlreadyExists:              {"already_exists", "a batch with this external code already exists", CategoryConflict},
	ErrNotFound:                   {"not_found", "batch not found", CategoryNotFound},
	ErrAuthorityNotConfigured:     {"authority_not_configured", "authority gateway is not configured", CategoryConfiguration},
	ErrInvalidQuantity:            {"invalid_quantity", "quantity must be positive", CategoryValidation},
	ErrInvalidDosage:              {"invalid_dosage", "dosage must be 1-100 characters", CategoryValidation},
	ErrInvalidUpdateParameter:     {"invalid_update_parameter", "update parameters are malformed", CategoryValidation},
	ErrCapacityExceeded:           {"capacity_exceeded", "batch capacity reached", CategoryResourceLimit},
	ErrInvalidDrugType:            {"invalid_drug_type", "drug type must be 1-50 characters", CategoryValidation},
	ErrInvalidStorageConditions:   {"invalid_storage_conditions", "storage conditions must be 1-100 characters", CategoryValidation},
	ErrInvalidPackaging:           {"invalid_packaging", "packaging must be 1-100 characters", CategoryValidation},
	ErrInvalidLocation:            {"invalid_location", "location must be 1-100 characters", CategoryValidation},
	ErrInvalidCurrency:            {"invalid_currency", "currency must be one of STX, USD, BTC", CategoryValidation},
	ErrInvalidTargetHolder:        {"invalid_target_holder", "new holder must differ from the current holder", CategoryValidation},
	ErrExpired:                    {"expired", "batch is expired or inactive", CategoryExpiration},
	ErrInvalidFee:                 {"invalid_fee", "mint fee must be a fixed-point amount", CategoryValidation},
	ErrInvalidBatchNumber:         {"invalid_batch_number", "batch number must be positive", CategoryValidation},
	ErrAuthorityAlreadyConfigured: {"authority_already_configured", "authority gateway is already configured", CategoryConfiguration},
	ErrInvalidAuthority:           {"invalid_authority", "authority gateway address is reserved or empty", CategoryValidation},
}

func (k ErrorKind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return fmt.Sprintf("unknown_%d", uint32(k))
}

func (k ErrorKind) Category() Category {
	return kinds[k].category
}

// Code maps the kind onto the shared domain error codes used by transports.
func (k ErrorKind) Code() dErrors.Code {
	switch k.Category() {
	case CategoryAuthorization:
		return dErrors.CodeForbidden
	case CategoryValidation:
		return dErrors.CodeValidation
	case CategoryResourceLimit:
		return dErrors.CodeResourceExhausted
	case CategoryConflict:
		return dErrors.CodeConflict
	case CategoryNotFound:
		return dErrors.CodeNotFound
	case CategoryExpiration:
		return dErrors.CodeExpired
	case CategoryConfiguration:
		return dErrors.CodePrecondition
	default:
		return dErrors.CodeInternal
	}
}

// Error is a registry failure of a single kind. It unwraps to a domain error
// so dErrors.HasCode works on it.
type Error struct {
	Kind ErrorKind
	err  error
}

// NewError builds the error for kind.
func NewError(kind ErrorKind) error {
	return &Error{Kind: kind, err: dErrors.New(kind.Code(), kinds[kind].message)}
}

func (e *Error) Error() string {
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) KindName() string {
	return e.Kind.String()
}

func (e *Error) KindCode() uint32 {
	return uint32(e.Kind)
}

// KindOf extracts the registry kind from err. ok is false for errors that did
// not originate in the registry (infrastructure failures).
func KindOf(err error) (ErrorKind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is a registry error of kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
