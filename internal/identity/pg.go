package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solterra-club/backoffice/internal/shared"
)

// PGDirectory implements Directory against the identities table. Used when a
// deployment keeps the catalog in Postgres instead of the static seed.
type PGDirectory struct {
	pool *pgxpool.Pool
}

// NewPGDirectory constructs a Postgres-backed directory.
func NewPGDirectory(pool *pgxpool.Pool) *PGDirectory {
	return &PGDirectory{pool: pool}
}

const identityColumns = `id, name, email, role, created_at, COALESCE(last_login, 'epoch'::timestamptz)`

// FindByEmail fetches an identity by email, case-insensitively.
func (d *PGDirectory) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE lower(email) = lower($1)`, email)
	return scanIdentity(row)
}

// FindByID fetches an identity by its ID.
func (d *PGDirectory) FindByID(ctx context.Context, id string) (*Identity, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
	return scanIdentity(row)
}

// TouchLogin stamps last_login on a successful sign-in.
func (d *PGDirectory) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := d.pool.Exec(ctx, `UPDATE identities SET last_login = $2 WHERE id = $1`, id, at.UTC())
	return err
}

func scanIdentity(row pgx.Row) (*Identity, error) {
	var record Identity
	var role string
	if err := row.Scan(&record.ID, &record.Name, &record.Email, &role, &record.CreatedAt, &record.LastLogin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			return nil, fmt.Errorf("identity: query failed (%s): %w", pgErr.Code, err)
		}
		return nil, err
	}
	record.Role = Role(role)
	return &record, nil
}

var _ Directory = (*PGDirectory)(nil)
