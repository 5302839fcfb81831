// Package fee moves mint fees from the minter to the authority gateway.
// Balances are fixed-point decimals; a transfer either moves the whole
// amount or nothing.
package fee

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"batchledger/internal/registry/models"
	dErrors "batchledger/pkg/domain-errors"
	"batchledger/pkg/platform/sentinel"
)

// Record is one completed fee transfer.
type Record struct {
	From   models.Principal
	To     models.Principal
	Amount decimal.Decimal
}

// Memory is an in-process fee ledger. Accounts that have never been seen
// start with the opening balance.
type Memory struct {
	mu        sync.Mutex
	opening   decimal.Decimal
	balances  map[models.Principal]decimal.Decimal
	transfers []Record
}

func NewMemory(opening decimal.Decimal) *Memory {
	return &Memory{
		opening:  opening,
		balances: make(map[models.Principal]decimal.Decimal),
	}
}

func (m *Memory) Transfer(_ context.Context, amount decimal.Decimal, from, to models.Principal) error {
	if amount.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "fee amount must not be negative")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	payer := m.balanceLocked(from)
	if payer.LessThan(amount) {
		return sentinel.ErrInsufficientFunds
	}
	m.balances[from] = payer.Sub(amount)
	m.balances[to] = m.balanceLocked(to).Add(amount)
	m.transfers = append(m.transfers, Record{From: from, To: to, Amount: amount})
	return nil
}

// Balance returns the current balance of p.
func (m *Memory) Balance(p models.Principal) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(p)
}

// Credit adds amount to p, for funding accounts in development and tests.
func (m *Memory) Credit(p models.Principal, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[p] = m.balanceLocked(p).Add(amount)
}

func (m *Memory) Transfers() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.transfers...)
}

func (m *Memory) balanceLocked(p models.Principal) decimal.Decimal {
	if b, ok := m.balances[p]; ok {
		return b
	}
	return m.opening
}
