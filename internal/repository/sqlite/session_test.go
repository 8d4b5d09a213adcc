package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"carcamalbot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepo(t *testing.T) *SessionRepo {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSessionRepo_LoadMissing(t *testing.T) {
	repo := openTestRepo(t)

	_, err := repo.Load(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionRepo_SaveAndLoad(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	s := domain.NewSession(42)
	s.State = domain.StateAdding
	s.Add("milk")
	s.Add("eggs")
	s.Remove("eggs")
	s.UpdatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Load(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAdding, got.State)
	assert.Equal(t, map[string]bool{"milk": true, "eggs": false}, got.Items)
	assert.True(t, s.UpdatedAt.Equal(got.UpdatedAt))
}

func TestSessionRepo_SaveOverwrites(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	s := domain.NewSession(7)
	s.Add("bread")
	require.NoError(t, repo.Save(ctx, s))

	s.State = domain.StateEnd
	s.Remove("bread")
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StateEnd, got.State)
	assert.Equal(t, []string{"bread"}, got.Absent())
	assert.Empty(t, got.Present())
}

func TestSessionRepo_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	repo, err := Open(path)
	require.NoError(t, err)
	s := domain.NewSession(1)
	s.Add("apples")
	require.NoError(t, repo.Save(ctx, s))
	require.NoError(t, repo.Close())

	repo, err = Open(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"apples"}, got.Present())
}
