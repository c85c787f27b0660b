package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// Notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are quoted through pgx.Identifier.
// - Update and Delete are single statements, so no explicit locking is needed.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

// DefaultSchema is the schema created by the embedded migrations.
const DefaultSchema = "usersvc"

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the store (default "usersvc").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentIsValid(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: DefaultSchema,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

// Close is a no-op: the pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }

const userColumns = `id, name, email, password_hash, created_at, updated_at`

// List returns all users ordered by ID.
func (s *PostgresStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM `+pgIdent(s.schema, "users")+` ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID returns the user with the given ID.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (User, error) {
	const op = "identity.FindByID"

	if id <= 0 {
		return User{}, notFoundUser(op)
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+pgIdent(s.schema, "users")+` WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return User{}, mapNoRows(op, err)
	}
	return u, nil
}

// FindByEmail returns the lowest-ID user with a matching normalized email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (User, error) {
	const op = "identity.FindByEmail"

	norm := NormalizeEmail(email)
	if norm == "" {
		return User{}, notFoundUser(op)
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+pgIdent(s.schema, "users")+`
		  WHERE email_norm = $1
		  ORDER BY id ASC
		  LIMIT 1`, norm)
	u, err := scanUser(row)
	if err != nil {
		return User{}, mapNoRows(op, err)
	}
	return u, nil
}

// Insert creates a user; the ID comes from the table's identity sequence.
func (s *PostgresStore) Insert(ctx context.Context, in InsertUserInput) (User, error) {
	const op = "identity.Insert"

	if strings.TrimSpace(in.PasswordHash) == "" {
		return User{}, invalid(op, "password hash is required")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO `+pgIdent(s.schema, "users")+` (
		     name, email, email_norm, password_hash, created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, $5, $5)
		   RETURNING `+userColumns,
		in.Name,
		in.Email,
		NormalizeEmail(in.Email),
		in.PasswordHash,
		now,
	)
	return scanUser(row)
}

// Update applies patch in a single statement; untouched columns keep their value.
func (s *PostgresStore) Update(ctx context.Context, id int64, patch UserPatch) (User, error) {
	const op = "identity.Update"

	if patch.PasswordHash != nil && strings.TrimSpace(*patch.PasswordHash) == "" {
		return User{}, invalid(op, "password hash must not be empty")
	}
	if patch.Empty() {
		return s.FindByID(ctx, id)
	}

	now := patch.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var emailNorm *string
	if patch.Email != nil {
		n := NormalizeEmail(*patch.Email)
		emailNorm = &n
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE `+pgIdent(s.schema, "users")+`
		    SET name          = COALESCE($2, name),
		        email         = COALESCE($3, email),
		        email_norm    = COALESCE($4, email_norm),
		        password_hash = COALESCE($5, password_hash),
		        updated_at    = $6
		  WHERE id = $1
		  RETURNING `+userColumns,
		id,
		patch.Name,
		patch.Email,
		emailNorm,
		patch.PasswordHash,
		now,
	)
	u, err := scanUser(row)
	if err != nil {
		return User{}, mapNoRows(op, err)
	}
	return u, nil
}

// Delete removes the user with the given ID.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	const op = "identity.Delete"

	tag, err := s.pool.Exec(ctx, `DELETE FROM `+pgIdent(s.schema, "users")+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFoundUser(op)
	}
	return nil
}

// ---- helpers ----

func scanUser(row pgx.Row) (User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}

func mapNoRows(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFoundUser(op)
	}
	return err
}

// pgIdentIsValid checks if a string is a safe Postgres identifier.
func pgIdentIsValid(s string) bool {
	return pgIdentRe.MatchString(s)
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}
