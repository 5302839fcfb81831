package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
//   - ErrInsufficientFunds: payer balance cannot cover a transfer
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
)
