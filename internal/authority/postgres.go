package authority

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"batchledger/internal/registry/models"
)

// Postgres reads the authorized_minters table. Revoked rows stay for the
// record and are treated as not authorized.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) IsAuthorized(ctx context.Context, caller models.Principal) (bool, error) {
	var revoked bool
	err := p.db.QueryRowContext(ctx,
		`SELECT revoked FROM authorized_minters WHERE principal = $1`,
		caller.String(),
	).Scan(&revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check authorized minter: %w", err)
	}
	return !revoked, nil
}

// Grant inserts principals in one statement, re-enabling revoked rows.
func (p *Postgres) Grant(ctx context.Context, principals ...string) error {
	if len(principals) == 0 {
		return nil
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO authorized_minters (principal)
		SELECT unnest($1::text[])
		ON CONFLICT (principal) DO UPDATE SET revoked = FALSE
	`, pq.Array(principals))
	if err != nil {
		return fmt.Errorf("grant minters: %w", err)
	}
	return nil
}

func (p *Postgres) Revoke(ctx context.Context, principal string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE authorized_minters SET revoked = TRUE WHERE principal = $1`,
		principal,
	)
	if err != nil {
		return fmt.Errorf("revoke minter: %w", err)
	}
	return nil
}
