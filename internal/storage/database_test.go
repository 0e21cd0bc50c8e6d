package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/review-forge/internal/config"
	"github.com/sevigo/review-forge/internal/core"
	"github.com/sevigo/review-forge/internal/db"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	database, cleanup, err := db.NewDatabase(&config.DBConfig{
		Driver: db.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "forge.db"),
	})
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return NewStore(database)
}

func TestStore_GetReviewMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetReview(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStore_PutAndGetReview(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	alice, err := store.ResolveOwner(ctx, "alice")
	require.NoError(t, err)

	err = store.PutReview(ctx, &core.ReviewRecord{
		ID:         "42",
		OwnerIDs:   []core.OwnerID{alice},
		Prompt:     "Effects of X on Y",
		ReviewText: "generated text",
	})
	require.NoError(t, err)

	got, err := store.GetReview(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, core.ReviewID("42"), got.ID)
	assert.Equal(t, "Effects of X on Y", got.Prompt)
	assert.Equal(t, "generated text", got.ReviewText)
	assert.True(t, got.HasOwner(alice))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_PutReviewIsUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	alice, err := store.ResolveOwner(ctx, "alice")
	require.NoError(t, err)
	bob, err := store.ResolveOwner(ctx, "bob")
	require.NoError(t, err)

	require.NoError(t, store.PutReview(ctx, &core.ReviewRecord{ID: "r1", OwnerIDs: []core.OwnerID{alice}, Prompt: "p", ReviewText: "first"}))
	require.NoError(t, store.PutReview(ctx, &core.ReviewRecord{ID: "r1", OwnerIDs: []core.OwnerID{alice, bob}, Prompt: "p", ReviewText: "second"}))

	got, err := store.GetReview(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.ReviewText)
	assert.ElementsMatch(t, []core.OwnerID{alice, bob}, got.OwnerIDs)
}

func TestStore_PutReviewRejectsInvalidID(t *testing.T) {
	store := newTestStore(t)

	err := store.PutReview(context.Background(), &core.ReviewRecord{ID: "../etc", Prompt: "p", ReviewText: "t"})
	assert.ErrorIs(t, err, core.ErrInvalidIdentifier)
}

func TestStore_DeleteReview(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	alice, err := store.ResolveOwner(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, store.PutReview(ctx, &core.ReviewRecord{ID: "r1", OwnerIDs: []core.OwnerID{alice}, Prompt: "p", ReviewText: "t"}))

	require.NoError(t, store.DeleteReview(ctx, "r1"))

	_, err = store.GetReview(ctx, "r1")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, store.DeleteReview(ctx, "r1"), core.ErrNotFound)

	history, err := store.ListReviewsByOwner(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStore_ListReviewsByOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	alice, err := store.ResolveOwner(ctx, "alice")
	require.NoError(t, err)
	bob, err := store.ResolveOwner(ctx, "bob")
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.PutReview(ctx, &core.ReviewRecord{ID: "old", OwnerIDs: []core.OwnerID{alice}, Prompt: "old prompt", ReviewText: "t", CreatedAt: base}))
	require.NoError(t, store.PutReview(ctx, &core.ReviewRecord{ID: "new", OwnerIDs: []core.OwnerID{alice}, Prompt: "new prompt", ReviewText: "t", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, store.PutReview(ctx, &core.ReviewRecord{ID: "other", OwnerIDs: []core.OwnerID{bob}, Prompt: "bob prompt", ReviewText: "t", CreatedAt: base}))

	history, err := store.ListReviewsByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, core.ReviewID("new"), history[0].ID)
	assert.Equal(t, "new prompt", history[0].Prompt)
	assert.Equal(t, core.ReviewID("old"), history[1].ID)
}

func TestStore_ResolveOwnerIsStable(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.ResolveOwner(ctx, "alice")
	require.NoError(t, err)
	again, err := store.ResolveOwner(ctx, "alice")
	require.NoError(t, err)
	other, err := store.ResolveOwner(ctx, "bob")
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.NotEqual(t, first, other)

	_, err = store.ResolveOwner(ctx, "")
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}
