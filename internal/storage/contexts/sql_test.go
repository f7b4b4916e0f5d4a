package contexts

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"submissions/internal/defaults"
	"submissions/internal/locale"
	"submissions/internal/storage"
	"submissions/internal/storage/genres"
	"submissions/internal/storage/schema"
	"submissions/internal/types"
)

func setupTestRepo(t *testing.T, registry fstest.MapFS) (*storage.DB, Repository, genres.Repository) {
	t.Helper()

	db, err := storage.Open(context.Background(), storage.DriverSQLite, ":memory:", nil)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, schema.Apply(context.Background(), db), "failed to apply schema")

	translator := locale.TranslatorFunc(func(key, loc string) string { return key })

	opts := genres.Options{
		Defaults: genres.NewDefaultsLoader(defaults.Registry(), translator),
		Locales:  []string{"en"},
	}
	if registry != nil {
		opts.Defaults = genres.NewDefaultsLoader(registry, translator)
	}

	gr := genres.NewSQLRepository(db, nil, opts)
	return db, NewSQLRepository(db, nil, gr), gr
}

func count(t *testing.T, db *storage.DB, query string, args ...any) int {
	t.Helper()

	var n int
	require.NoError(t, db.SQL.QueryRow(query, args...).Scan(&n))

	return n
}

func newContext(path string) *types.Context {
	return &types.Context{
		Path:          path,
		PrimaryLocale: "en_US",
		Name:          types.LocalizedString{"en": "Journal " + path},
		Description:   types.LocalizedString{"en": "About", "fr": "À propos"},
	}
}

func TestInsertInstallsDefaultGenres(t *testing.T) {
	ctx := context.Background()
	db, repo, gr := setupTestRepo(t, nil)

	c := newContext("demo")
	id, installed, err := repo.Insert(ctx, c)
	require.NoError(t, err)
	assert.True(t, installed)
	assert.Equal(t, id, c.Id)
	assert.Equal(t, "en-US", c.PrimaryLocale)

	got, err := repo.GetByPath(ctx, "demo")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c, got)

	rs, err := gr.GetEnabledByContext(ctx, id, nil)
	require.NoError(t, err)
	assert.Equal(t, 13, rs.Len())
	assert.Equal(t, 13, count(t, db, "SELECT count(*) FROM genres WHERE context_id = ?", id))
}

func TestInsertWithoutRegistry(t *testing.T) {
	ctx := context.Background()
	db, repo, _ := setupTestRepo(t, fstest.MapFS{})

	id, installed, err := repo.Insert(ctx, newContext("bare"))
	require.NoError(t, err)
	assert.False(t, installed)
	assert.Positive(t, id)
	assert.Equal(t, 0, count(t, db, "SELECT count(*) FROM genres"))
}

func TestInsertValidationAndConflicts(t *testing.T) {
	ctx := context.Background()
	db, repo, _ := setupTestRepo(t, nil)

	_, _, err := repo.Insert(ctx, &types.Context{PrimaryLocale: "en"})
	assert.True(t, errors.Is(err, storage.ErrValidation))

	_, _, err = repo.Insert(ctx, &types.Context{Path: "x", PrimaryLocale: "not a locale"})
	assert.True(t, errors.Is(err, storage.ErrValidation))

	_, _, err = repo.Insert(ctx, newContext("dup"))
	require.NoError(t, err)

	_, _, err = repo.Insert(ctx, newContext("dup"))
	require.Error(t, err)
	var se *storage.StorageError
	assert.True(t, errors.As(err, &se))

	assert.Equal(t, 1, count(t, db, "SELECT count(*) FROM contexts"))
	assert.Equal(t, 13, count(t, db, "SELECT count(*) FROM genres"), "the failed insert installed nothing")
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	_, repo, _ := setupTestRepo(t, nil)

	c := newContext("before")
	_, _, err := repo.Insert(ctx, c)
	require.NoError(t, err)

	c.Path = "after"
	c.Enabled = false
	c.Name = types.LocalizedString{"fr": "Revue"}
	require.NoError(t, repo.Update(ctx, c))

	got, err := repo.GetById(ctx, c.Id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "after", got.Path)
	assert.False(t, got.Enabled)
	assert.Equal(t, types.LocalizedString{"fr": "Revue"}, got.Name)

	got, err = repo.GetByPath(ctx, "before")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteTearsDownGenres(t *testing.T) {
	ctx := context.Background()
	db, repo, gr := setupTestRepo(t, nil)

	a := newContext("a")
	b := newContext("b")
	for _, c := range []*types.Context{a, b} {
		_, _, err := repo.Insert(ctx, c)
		require.NoError(t, err)
	}

	g, err := gr.GetByEntryKey(ctx, "IMAGE", a.Id)
	require.NoError(t, err)
	require.NoError(t, gr.SoftDelete(ctx, g.Id))

	require.NoError(t, repo.Delete(ctx, a.Id))
	require.NoError(t, repo.Delete(ctx, a.Id), "deleting twice is fine")

	got, err := repo.GetById(ctx, a.Id)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, 0, count(t, db, "SELECT count(*) FROM genres WHERE context_id = ?", a.Id))
	assert.Equal(t, 0, count(t, db, "SELECT count(*) FROM genre_settings WHERE genre_id = ?", g.Id))
	assert.Equal(t, 0, count(t, db, "SELECT count(*) FROM context_settings WHERE context_id = ?", a.Id))
	assert.Equal(t, 13, count(t, db, "SELECT count(*) FROM genres WHERE context_id = ?", b.Id))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].Path)
}
