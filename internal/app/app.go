// Package app wires storage, translations and repositories from a Config.
package app

import (
	"context"
	"io/fs"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"submissions/internal/config"
	"submissions/internal/defaults"
	"submissions/internal/locale"
	"submissions/internal/storage"
	"submissions/internal/storage/contexts"
	"submissions/internal/storage/genres"
	"submissions/internal/storage/schema"
)

// FallbackLocale must have a translation file; keys missing elsewhere are taken from it.
const FallbackLocale = "en"

type App struct {
	DB       *storage.DB
	Genres   genres.Repository
	Contexts contexts.Repository
}

func New(ctx context.Context, cfg config.Config, l *slog.Logger) (*App, error) {
	translator, err := catalog(cfg)
	if err != nil {
		return nil, err
	}

	registry, registryPath := defaults.Registry(), genres.RegistryPath
	if cfg.RegistryDir != "" {
		registry, registryPath = os.DirFS(cfg.RegistryDir), "genres.xml"
	}

	db, err := storage.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, l)
	if err != nil {
		return nil, err
	}

	gr := genres.NewSQLRepository(db, l, genres.Options{
		Defaults:     genres.NewDefaultsLoader(registry, translator),
		RegistryPath: registryPath,
		Locales:      cfg.Locales,
	})

	return &App{
		DB:       db,
		Genres:   gr,
		Contexts: contexts.NewSQLRepository(db, l, gr),
	}, nil
}

func catalog(cfg config.Config) (*locale.Catalog, error) {
	var fsys fs.FS = locale.Embedded()
	if cfg.LocaleDir != "" {
		fsys = os.DirFS(cfg.LocaleDir)
	}

	c, err := locale.LoadCatalog(fsys, FallbackLocale)
	if err != nil {
		return nil, errors.Wrap(err, "load translations")
	}

	return c, nil
}

// Migrate creates the tables when they do not exist yet.
func (a *App) Migrate(ctx context.Context) error {
	return schema.Apply(ctx, a.DB)
}

func (a *App) Close() error {
	return a.DB.Close()
}
