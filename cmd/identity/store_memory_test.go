package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_InsertAssignsSequentialIDs(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	a, err := s.Insert(ctx, InsertUserInput{Name: "a", Email: "a@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	b, err := s.Insert(ctx, InsertUserInput{Name: "b", Email: "b@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)
}

func TestMemoryStore_InsertRequiresHash(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	_, err := s.Insert(context.Background(), InsertUserInput{Name: "a", Email: "a@example.com"})
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err), "err=%v", err)

	var opErr OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "identity.Insert", opErr.Op)
}

func TestMemoryStore_FindByID(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	u, err := s.Insert(ctx, InsertUserInput{Name: "a", Email: "a@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	got, err := s.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	for _, id := range []int64{0, -1, 99} {
		_, err := s.FindByID(ctx, id)
		assert.True(t, IsNotFound(err), "id=%d err=%v", id, err)
	}
}

func TestMemoryStore_FindByEmail_CaseInsensitiveLowestID(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.Insert(ctx, InsertUserInput{Name: "one", Email: "Dup@Example.com", PasswordHash: "h1"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, InsertUserInput{Name: "two", Email: "dup@example.com", PasswordHash: "h2"})
	require.NoError(t, err)

	got, err := s.FindByEmail(ctx, "  DUP@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "Dup@Example.com", got.Email)

	_, err = s.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, IsNotFound(err))

	_, err = s.FindByEmail(ctx, "   ")
	assert.True(t, IsNotFound(err))
}

func TestMemoryStore_ListReturnsSnapshot(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = s.Insert(ctx, InsertUserInput{Name: "a", Email: "a@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list[0].Name = "mutated"
	again, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Name)
}

func TestMemoryStore_UpdateMerges(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	u, err := s.Insert(ctx, InsertUserInput{Name: "a", Email: "a@example.com", PasswordHash: "h1", Now: created})
	require.NoError(t, err)

	name := "renamed"
	later := created.Add(time.Hour)
	updated, err := s.Update(ctx, u.ID, UserPatch{Name: &name, Now: later})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "a@example.com", updated.Email)
	assert.Equal(t, "h1", updated.PasswordHash)
	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)

	// Empty patch leaves the record untouched.
	same, err := s.Update(ctx, u.ID, UserPatch{Now: later.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, updated, same)

	empty := " "
	_, err = s.Update(ctx, u.ID, UserPatch{PasswordHash: &empty})
	assert.True(t, IsInvalidInput(err))

	_, err = s.Update(ctx, 99, UserPatch{Name: &name})
	assert.True(t, IsNotFound(err))
}

func TestMemoryStore_DeleteDoesNotReuseIDs(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	a, err := s.Insert(ctx, InsertUserInput{Name: "a", Email: "a@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	b, err := s.Insert(ctx, InsertUserInput{Name: "b", Email: "b@example.com", PasswordHash: "h"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, b.ID))
	assert.True(t, IsNotFound(s.Delete(ctx, b.ID)))

	c, err := s.Insert(ctx, InsertUserInput{Name: "c", Email: "c@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, c.ID, list[1].ID)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.Insert(ctx, InsertUserInput{PasswordHash: "h"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Delete(ctx, 1), context.Canceled)
}

func TestMemoryStore_ConcurrentUpdatesAndDeletes(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := context.Background()

	const n = 50
	for i := 0; i < n; i++ {
		_, err := s.Insert(ctx, InsertUserInput{Name: "u", Email: "u@example.com", PasswordHash: "h"})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := int64(1); i <= n; i++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			name := "x"
			_, _ = s.Update(ctx, id, UserPatch{Name: &name})
		}(i)
		go func(id int64) {
			defer wg.Done()
			if id%2 == 0 {
				_ = s.Delete(ctx, id)
			}
		}(i)
	}
	wg.Wait()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, n/2)
	for _, u := range list {
		assert.Equal(t, int64(1), u.ID%2)
	}
}
