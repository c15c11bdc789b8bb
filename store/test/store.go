// Package test provides a real sqlite-backed store for driver-level tests.
package test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kataforge/kataforge/internal/profile"
	"github.com/kataforge/kataforge/store"
	"github.com/kataforge/kataforge/store/db"
)

// NewTestingStore creates a store over a fresh sqlite database in a temp
// directory and applies the latest schema.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	testProfile := &profile.Profile{
		Mode:   "dev",
		Data:   dir,
		Driver: "sqlite",
		DSN:    filepath.Join(dir, "kataforge_test.db"),
	}

	driver, err := db.NewDBDriver(testProfile)
	require.NoError(t, err)

	ts := store.New(driver, testProfile)
	require.NoError(t, ts.Migrate(ctx))
	t.Cleanup(func() {
		require.NoError(t, ts.Close())
	})
	return ts
}

var uidSeq int

// nextUID returns a unique identifier for test fixtures.
func nextUID(prefix string) string {
	uidSeq++
	return fmt.Sprintf("%s-%d", prefix, uidSeq)
}

func createTestingUser(ctx context.Context, t *testing.T, ts *store.Store) *store.User {
	t.Helper()
	uid := nextUID("user")
	user, err := ts.CreateUser(ctx, &store.User{UID: uid, Username: uid})
	require.NoError(t, err)
	return user
}

func createTestingProblem(ctx context.Context, t *testing.T, ts *store.Store, difficulty store.ProblemDifficulty) *store.Problem {
	t.Helper()
	uid := nextUID("problem")
	problem, err := ts.CreateProblem(ctx, &store.Problem{
		UID:        uid,
		Title:      "problem " + uid,
		Difficulty: difficulty,
	})
	require.NoError(t, err)
	return problem
}
