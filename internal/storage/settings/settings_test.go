package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"submissions/internal/storage"
	"submissions/internal/storage/schema"
	"submissions/internal/types"
)

var (
	genreTable  = Table{Name: "genre_settings", OwnerColumn: "genre_id"}
	genreFields = Fields{Localized: []string{"name"}, Additional: []string{"designation"}}
)

// setupTestStore creates an in-memory SQLite database with the schema applied.
func setupTestStore(t *testing.T) (*storage.DB, *Store[int64]) {
	t.Helper()

	db, err := storage.Open(context.Background(), storage.DriverSQLite, ":memory:", nil)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, schema.Apply(context.Background(), db), "failed to apply schema")

	return db, New[int64](db.SQL, db.Dialect.Builder(), genreTable, genreFields)
}

func countRows(t *testing.T, db *storage.DB, ownerId int64) int {
	t.Helper()

	var n int
	err := db.SQL.QueryRow("SELECT count(*) FROM genre_settings WHERE genre_id = ?", ownerId).Scan(&n)
	require.NoError(t, err)

	return n
}

func TestReplaceAndGetSettings(t *testing.T) {
	ctx := context.Background()
	db, s := setupTestStore(t)

	v := NewValues()
	v.Localized["name"] = types.LocalizedString{"fr": "Texte", "en": "Text"}
	v.Plain["designation"] = "A"

	require.NoError(t, s.ReplaceSettingsFor(ctx, 1, v))
	assert.Equal(t, 3, countRows(t, db, 1))

	got, err := s.GetSettingsFor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, types.LocalizedString{"en": "Text", "fr": "Texte"}, got.Localized["name"])
	assert.Equal(t, "A", got.Plain["designation"])
}

func TestReplaceIsFullReplace(t *testing.T) {
	ctx := context.Background()
	db, s := setupTestStore(t)

	v := NewValues()
	v.Localized["name"] = types.LocalizedString{"en": "Text", "fr": "Texte"}
	require.NoError(t, s.ReplaceSettingsFor(ctx, 1, v))

	v = NewValues()
	v.Localized["name"] = types.LocalizedString{"en": "Body"}
	require.NoError(t, s.ReplaceSettingsFor(ctx, 1, v))

	got, err := s.GetSettingsFor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, types.LocalizedString{"en": "Body"}, got.Localized["name"])
	// the additional name always keeps exactly one row
	assert.Equal(t, "", got.Plain["designation"])
	assert.Equal(t, 2, countRows(t, db, 1))
}

func TestReplaceDoesNotTouchOtherOwners(t *testing.T) {
	ctx := context.Background()
	db, s := setupTestStore(t)

	v := NewValues()
	v.Localized["name"] = types.LocalizedString{"en": "One"}
	require.NoError(t, s.ReplaceSettingsFor(ctx, 1, v))
	require.NoError(t, s.ReplaceSettingsFor(ctx, 2, v))

	require.NoError(t, s.ReplaceSettingsFor(ctx, 1, NewValues()))

	assert.Equal(t, 1, countRows(t, db, 1))
	assert.Equal(t, 2, countRows(t, db, 2))
}

func TestReplaceNormalizesLocales(t *testing.T) {
	ctx := context.Background()
	_, s := setupTestStore(t)

	v := NewValues()
	v.Localized["name"] = types.LocalizedString{"en_US": "Text"}
	require.NoError(t, s.ReplaceSettingsFor(ctx, 1, v))

	got, err := s.GetSettingsFor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, types.LocalizedString{"en-US": "Text"}, got.Localized["name"])
}

func TestReplaceRejectsBadLocales(t *testing.T) {
	ctx := context.Background()
	db, s := setupTestStore(t)

	testCases := []struct {
		name string
		ls   types.LocalizedString
	}{
		{name: "invalid locale", ls: types.LocalizedString{"not a locale": "x"}},
		{name: "same locale twice", ls: types.LocalizedString{"en_US": "x", "en-US": "y"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := NewValues()
			v.Localized["name"] = tc.ls

			err := s.ReplaceSettingsFor(ctx, 1, v)
			require.ErrorIs(t, err, storage.ErrValidation)
			assert.Equal(t, 0, countRows(t, db, 1))
		})
	}
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	_, s := setupTestStore(t)

	testCases := []struct {
		name    string
		setting string
		locale  string
		wantErr bool
	}{
		{name: "localized", setting: "name", locale: "fr"},
		{name: "localized without locale", setting: "name", locale: "", wantErr: true},
		{name: "additional", setting: "designation", locale: ""},
		{name: "additional with locale", setting: "designation", locale: "en", wantErr: true},
		{name: "undeclared", setting: "colour", locale: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Set(ctx, 7, tc.setting, tc.locale, "value")
			if tc.wantErr {
				require.ErrorIs(t, err, storage.ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}

	// overwriting keeps one row per (name, locale)
	require.NoError(t, s.Set(ctx, 7, "name", "fr", "Nouveau"))
	require.NoError(t, s.Set(ctx, 7, "name", "en", "New"))

	got, err := s.GetSettingsFor(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, types.LocalizedString{"en": "New", "fr": "Nouveau"}, got.Localized["name"])
	assert.Equal(t, "value", got.Plain["designation"])
}

func TestDeleteFor(t *testing.T) {
	ctx := context.Background()
	db, s := setupTestStore(t)

	v := NewValues()
	v.Plain["designation"] = "X"
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, s.ReplaceSettingsFor(ctx, id, v))
	}

	require.NoError(t, s.DeleteFor(ctx, 1, 3))
	require.NoError(t, s.DeleteFor(ctx))

	assert.Equal(t, 0, countRows(t, db, 1))
	assert.Equal(t, 1, countRows(t, db, 2))
	assert.Equal(t, 0, countRows(t, db, 3))
}

func TestWithQuerierUsesTransaction(t *testing.T) {
	ctx := context.Background()
	db, s := setupTestStore(t)

	tx, err := db.SQL.BeginTx(ctx, nil)
	require.NoError(t, err)

	v := NewValues()
	v.Plain["designation"] = "X"
	require.NoError(t, s.WithQuerier(tx).ReplaceSettingsFor(ctx, 1, v))
	require.NoError(t, tx.Rollback())

	assert.Equal(t, 0, countRows(t, db, 1))
}

func TestNewPanicsOnOverlappingFields(t *testing.T) {
	assert.Panics(t, func() {
		New[int64](nil, storage.SQLite.Builder(), genreTable, Fields{
			Localized:  []string{"name"},
			Additional: []string{"name"},
		})
	})
}

type smallId uint16

func TestStoreWithNamedOwnerType(t *testing.T) {
	ctx := context.Background()
	db, _ := setupTestStore(t)

	s := New[smallId](db.SQL, db.Dialect.Builder(), genreTable, genreFields)
	require.NoError(t, s.Set(ctx, smallId(9), "designation", "", "Z"))

	got, err := s.GetSettingsFor(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "Z", got.Plain["designation"])
}

func TestNormalizeLocales(t *testing.T) {
	got, err := NormalizeLocales(types.LocalizedString{"en_US": "a", "FR": "b"})
	require.NoError(t, err)
	assert.Equal(t, types.LocalizedString{"en-US": "a", "fr": "b"}, got)

	got, err = NormalizeLocales(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	_, err = NormalizeLocales(types.LocalizedString{"en_US": "a", "en-us": "b"})
	require.ErrorIs(t, err, storage.ErrValidation)

	_, err = NormalizeLocales(types.LocalizedString{"not a locale": "a"})
	require.ErrorIs(t, err, storage.ErrValidation)
}
