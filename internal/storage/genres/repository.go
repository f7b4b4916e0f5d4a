package genres

import (
	"context"
	"database/sql"

	"submissions/internal/storage"
	"submissions/internal/storage/hook"
	"submissions/internal/types"
)

// ResultSet is a forward-only listing of genres read by one query.
type ResultSet = storage.ResultSet[Row, *types.Genre]

// LoadHook runs after a genre has been rebuilt from its row and settings.
type LoadHook = hook.Func[types.Genre, Row]

// Repository gives access to genres and their settings. A zero contextId means
// "any context"; single-record getters return nil, nil when nothing matches.
type Repository interface {
	GetById(ctx context.Context, id int64, contextId int64) (*types.Genre, error)
	// GetByEntryKey only looks at enabled genres.
	GetByEntryKey(ctx context.Context, key string, contextId int64) (*types.Genre, error)

	GetByCategory(ctx context.Context, category types.GenreCategory, contextId int64, rng *storage.Range) (*ResultSet, error)
	GetEnabledByContext(ctx context.Context, contextId int64, rng *storage.Range) (*ResultSet, error)
	GetByDependenceAndContext(ctx context.Context, dependentOnly bool, contextId int64, rng *storage.Range) (*ResultSet, error)
	// GetAllByContext includes soft deleted genres.
	GetAllByContext(ctx context.Context, contextId int64, rng *storage.Range) (*ResultSet, error)

	// Insert assigns the generated id (and Enabled) onto g. EntryKey is not written.
	Insert(ctx context.Context, g *types.Genre) (int64, error)
	// Update writes sequence, sortable, dependent and the settings of the
	// genre matching both g.Id and g.ContextId. Category and entry key never
	// change after creation.
	Update(ctx context.Context, g *types.Genre) error
	// SoftDelete disables the genre; rows and settings stay.
	SoftDelete(ctx context.Context, id int64) error
	// HardDelete removes the genre and its settings for good.
	HardDelete(ctx context.Context, g *types.Genre) error
	// DeleteAllByContext removes every genre of the context, disabled ones
	// included. It must run before the context itself is deleted.
	DeleteAllByContext(ctx context.Context, contextId int64) error

	// InstallDefaults inserts the registry entries into the context in one
	// transaction. It reports false when there is no usable registry.
	InstallDefaults(ctx context.Context, contextId int64) (bool, error)
	// InstallLocale adds the registry names for locale to the context's
	// installed genres.
	InstallLocale(ctx context.Context, contextId int64, locale string) (bool, error)
	// RestoreDefaults replaces every genre of the context with the registry entries.
	RestoreDefaults(ctx context.Context, contextId int64) (bool, error)

	OnLoad(h LoadHook)

	// WithTx returns a repository running every statement in tx.
	WithTx(tx *sql.Tx) Repository
}
