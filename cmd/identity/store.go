package identity

import (
	"context"
	"time"
)

// User is a registered account. PasswordHash is an encoded Argon2id hash, never plaintext.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InsertUserInput describes a new user. IDs are assigned by the store.
type InsertUserInput struct {
	Name         string
	Email        string
	PasswordHash string
	Now          time.Time
}

// UserPatch is a partial update; nil fields are left untouched.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Now          time.Time
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil
}

// Store is the user persistence boundary.
//
// Requirements:
//   - IDs are positive, unique and assigned in increasing order; deleted IDs are not reused.
//   - Email is a lookup key but not unique; FindByEmail returns the lowest matching ID.
//   - Update and Delete are atomic with respect to concurrent callers.
type Store interface {
	List(ctx context.Context) ([]User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Insert(ctx context.Context, in InsertUserInput) (User, error)
	Update(ctx context.Context, id int64, patch UserPatch) (User, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}
