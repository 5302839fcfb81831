package fee

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"batchledger/internal/registry/models"
	dErrors "batchledger/pkg/domain-errors"
	"batchledger/pkg/platform/sentinel"
)

// Postgres keeps fee balances in fee_accounts and journals every transfer
// in fee_transfers. Debit, credit and journal entry commit together.
type Postgres struct {
	pool    *pgxpool.Pool
	opening decimal.Decimal
}

func NewPostgres(pool *pgxpool.Pool, opening decimal.Decimal) *Postgres {
	return &Postgres{pool: pool, opening: opening}
}

func (p *Postgres) Transfer(ctx context.Context, amount decimal.Decimal, from, to models.Principal) error {
	if amount.IsNegative() {
		return dErrors.New(dErrors.CodeInvalidInput, "fee amount must not be negative")
	}
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if err := p.ensureAccounts(ctx, tx, from, to); err != nil {
			return err
		}

		// Lock both rows in a stable order so concurrent transfers in
		// opposite directions cannot deadlock.
		rows, err := tx.Query(ctx,
			`SELECT principal FROM fee_accounts WHERE principal = ANY($1) ORDER BY principal FOR UPDATE`,
			[]string{from.String(), to.String()},
		)
		if err != nil {
			return fmt.Errorf("lock fee accounts: %w", err)
		}
		rows.Close()

		tag, err := tx.Exec(ctx,
			`UPDATE fee_accounts SET balance = balance - $1::text::numeric, updated_at = now()
			 WHERE principal = $2 AND balance >= $1::text::numeric`,
			amount.String(), from.String(),
		)
		if err != nil {
			return fmt.Errorf("debit fee account: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return sentinel.ErrInsufficientFunds
		}

		if _, err := tx.Exec(ctx,
			`UPDATE fee_accounts SET balance = balance + $1::text::numeric, updated_at = now() WHERE principal = $2`,
			amount.String(), to.String(),
		); err != nil {
			return fmt.Errorf("credit fee account: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO fee_transfers (id, payer, payee, amount) VALUES ($1, $2, $3, $4::text::numeric)`,
			uuid.New(), from.String(), to.String(), amount.String(),
		); err != nil {
			return fmt.Errorf("journal fee transfer: %w", err)
		}
		return nil
	})
}

// Balance returns the stored balance of principal, or the opening balance if
// the account has not been touched yet.
func (p *Postgres) Balance(ctx context.Context, principal models.Principal) (decimal.Decimal, error) {
	var raw string
	err := p.pool.QueryRow(ctx,
		`SELECT balance::text FROM fee_accounts WHERE principal = $1`,
		principal.String(),
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return p.opening, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read fee balance: %w", err)
	}
	return decimal.NewFromString(raw)
}

func (p *Postgres) ensureAccounts(ctx context.Context, tx pgx.Tx, principals ...models.Principal) error {
	slices.Sort(principals)
	for _, principal := range principals {
		if _, err := tx.Exec(ctx,
			`INSERT INTO fee_accounts (principal, balance) VALUES ($1, $2::text::numeric) ON CONFLICT (principal) DO NOTHING`,
			principal.String(), p.opening.String(),
		); err != nil {
			return fmt.Errorf("open fee account: %w", err)
		}
	}
	return nil
}
