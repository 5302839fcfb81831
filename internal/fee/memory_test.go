package fee

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "batchledger/pkg/domain-errors"
	"batchledger/pkg/platform/sentinel"
	"batchledger/pkg/testutil"
)

func TestMemoryTransfer(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(decimal.NewFromInt(1000))

	require.NoError(t, m.Transfer(ctx, decimal.NewFromInt(500), "SP1", "SP-gw"))

	assert.True(t, m.Balance("SP1").Equal(decimal.NewFromInt(500)))
	assert.True(t, m.Balance("SP-gw").Equal(decimal.NewFromInt(1500)))
	require.Len(t, m.Transfers(), 1)
	assert.Equal(t, "SP1", m.Transfers()[0].From.String())
}

func TestMemoryInsufficientFunds(t *testing.T) {
	testutil.Given(t, "a payer holding exactly the opening balance", func(t *testing.T) {
		ctx := context.Background()
		m := NewMemory(decimal.NewFromInt(100))

		testutil.When(t, "a transfer exceeds the balance by a fraction", func(t *testing.T) {
			err := m.Transfer(ctx, decimal.RequireFromString("100.01"), "SP1", "SP-gw")

			testutil.Then(t, "it fails with insufficient funds", func(t *testing.T) {
				require.ErrorIs(t, err, sentinel.ErrInsufficientFunds)
			})
			testutil.And(t, "no balance moves and nothing is journaled", func(t *testing.T) {
				assert.True(t, m.Balance("SP1").Equal(decimal.NewFromInt(100)))
				assert.True(t, m.Balance("SP-gw").Equal(decimal.NewFromInt(100)))
				assert.Empty(t, m.Transfers())
			})
		})

		testutil.When(t, "a transfer takes the whole balance", func(t *testing.T) {
			err := m.Transfer(ctx, decimal.NewFromInt(100), "SP1", "SP-gw")

			testutil.Then(t, "it succeeds and leaves zero", func(t *testing.T) {
				require.NoError(t, err)
				assert.True(t, m.Balance("SP1").IsZero())
			})
		})
	})
}

func TestMemoryZeroFeeAndNegativeFee(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(decimal.Zero)

	require.NoError(t, m.Transfer(ctx, decimal.Zero, "SP1", "SP-gw"))

	err := m.Transfer(ctx, decimal.NewFromInt(-1), "SP1", "SP-gw")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestMemoryCredit(t *testing.T) {
	m := NewMemory(decimal.Zero)
	m.Credit("SP1", decimal.NewFromInt(7))
	require.NoError(t, m.Transfer(context.Background(), decimal.NewFromInt(7), "SP1", "SP2"))
	assert.True(t, m.Balance("SP1").IsZero())
}

func TestMemoryConcurrentTransfersConserveTotal(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(decimal.NewFromInt(10))

	var wg sync.WaitGroup
	for range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Transfer(ctx, decimal.NewFromInt(1), "SP1", "SP2")
		}()
	}
	wg.Wait()

	assert.True(t, m.Balance("SP1").IsZero())
	assert.True(t, m.Balance("SP2").Equal(decimal.NewFromInt(20)))
	assert.Len(t, m.Transfers(), 10)
}
