package contexts

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/go-playground/validator/v10"

	"submissions/internal/locale"
	"submissions/internal/metrics"
	"submissions/internal/storage"
	"submissions/internal/storage/genres"
	"submissions/internal/storage/settings"
	"submissions/internal/types"
)

const metricsRepo = "contexts"

var (
	SettingsTable  = settings.Table{Name: "context_settings", OwnerColumn: "context_id"}
	SettingsFields = settings.Fields{Localized: []string{"name", "description"}}
)

// NewSQLRepository uses gr to install and tear down the genres of a context.
func NewSQLRepository(db *storage.DB, l *slog.Logger, gr genres.Repository) Repository {
	if l == nil {
		l = slog.Default()
	}

	g := db.Dialect.Builder()

	return &sqlRepo{
		db:       db.SQL,
		g:        g,
		dialect:  db.Dialect,
		l:        l,
		genres:   gr,
		settings: settings.New[int64](db.SQL, g, SettingsTable, SettingsFields),
		validate: validator.New(),
	}
}

type sqlRepo struct {
	db       *sql.DB
	g        goqu.DialectWrapper
	dialect  storage.Dialect
	l        *slog.Logger
	genres   genres.Repository
	settings *settings.Store[int64]
	validate *validator.Validate
}

type sqlContext struct {
	Id            int64   `db:"context_id"`
	Path          string  `db:"path"`
	PrimaryLocale string  `db:"primary_locale"`
	Sequence      float64 `db:"seq"`
	Enabled       bool    `db:"enabled"`
}

func (p *sqlRepo) intoCommon(ctx context.Context, row *sqlContext) (*types.Context, error) {
	vals, err := p.settings.GetSettingsFor(ctx, row.Id)
	if err != nil {
		return nil, err
	}

	c := &types.Context{
		Id:            row.Id,
		Path:          row.Path,
		PrimaryLocale: row.PrimaryLocale,
		Sequence:      row.Sequence,
		Enabled:       row.Enabled,
		Name:          types.LocalizedString{},
		Description:   types.LocalizedString{},
	}
	if name, ok := vals.Localized["name"]; ok {
		c.Name = name
	}
	if desc, ok := vals.Localized["description"]; ok {
		c.Description = desc
	}

	return c, nil
}

func (p *sqlRepo) selectContexts() *goqu.SelectDataset {
	return p.g.From("contexts").
		Select("context_id", "path", "primary_locale", "seq", "enabled").
		Order(goqu.C("seq").Asc(), goqu.C("context_id").Asc())
}

func (p *sqlRepo) getOne(ctx context.Context, ds *goqu.SelectDataset) (*types.Context, error) {
	sql, params, err := ds.Limit(1).ToSQL()
	if err != nil {
		return nil, err
	}

	var row sqlContext

	err = sqlscan.Get(ctx, p.db, &row, sql, params...)
	if err != nil {
		if sqlscan.NotFound(err) {
			return nil, nil
		}
		return nil, storage.Wrap("select context", err)
	}

	return p.intoCommon(ctx, &row)
}

func (p *sqlRepo) GetById(ctx context.Context, id int64) (c *types.Context, err error) {
	defer metrics.ObserveStorage(metricsRepo, "get_by_id", time.Now(), &err)

	return p.getOne(ctx, p.selectContexts().Where(goqu.C("context_id").Eq(id)))
}

func (p *sqlRepo) GetByPath(ctx context.Context, path string) (c *types.Context, err error) {
	defer metrics.ObserveStorage(metricsRepo, "get_by_path", time.Now(), &err)

	return p.getOne(ctx, p.selectContexts().Where(goqu.C("path").Eq(path)))
}

func (p *sqlRepo) GetAll(ctx context.Context) (cs []*types.Context, err error) {
	defer metrics.ObserveStorage(metricsRepo, "get_all", time.Now(), &err)

	sql, params, err := p.selectContexts().ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []sqlContext

	err = sqlscan.Select(ctx, p.db, &rows, sql, params...)
	if err != nil {
		return nil, storage.Wrap("select contexts", err)
	}

	ret := make([]*types.Context, 0, len(rows))
	for ix := range rows {
		c, err := p.intoCommon(ctx, &rows[ix])
		if err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}

	return ret, nil
}

func (p *sqlRepo) check(c *types.Context) error {
	if c == nil {
		return storage.Invalid(errors.New("context is nil"))
	}

	if err := p.validate.Struct(c); err != nil {
		return storage.Invalid(err)
	}

	loc, err := locale.Normalize(c.PrimaryLocale)
	if err != nil {
		return storage.Invalid(err)
	}

	name, err := settings.NormalizeLocales(c.Name)
	if err != nil {
		return err
	}
	desc, err := settings.NormalizeLocales(c.Description)
	if err != nil {
		return err
	}

	c.PrimaryLocale = loc
	c.Name = name
	c.Description = desc

	return nil
}

func (p *sqlRepo) localeFields(c *types.Context) settings.Values {
	v := settings.NewValues()
	v.Localized["name"] = c.Name
	v.Localized["description"] = c.Description
	return v
}

func (p *sqlRepo) Insert(ctx context.Context, c *types.Context) (id int64, installed bool, err error) {
	defer metrics.ObserveStorage(metricsRepo, "insert", time.Now(), &err)

	if err := p.check(c); err != nil {
		return 0, false, err
	}

	err = storage.InTx(ctx, p.db, func(tx *sql.Tx) error {
		newId, err := storage.InsertReturningId(ctx, tx, p.dialect,
			p.g.Insert("contexts").Rows(goqu.Record{
				"path":           c.Path,
				"primary_locale": c.PrimaryLocale,
				"seq":            c.Sequence,
				"enabled":        true,
			}), "context_id")
		if err != nil {
			return storage.Wrap("insert context", err)
		}

		if err := p.settings.WithQuerier(tx).ReplaceSettingsFor(ctx, newId, p.localeFields(c)); err != nil {
			return err
		}

		id = newId
		if p.genres == nil {
			return nil
		}

		installed, err = p.genres.WithTx(tx).InstallDefaults(ctx, newId)
		return err
	})
	if err != nil {
		return 0, false, err
	}

	c.Id = id
	c.Enabled = true

	if !installed {
		p.l.WarnContext(ctx, "Context created without default genres", slog.String("path", c.Path))
	}

	return id, installed, nil
}

func (p *sqlRepo) Update(ctx context.Context, c *types.Context) (err error) {
	defer metrics.ObserveStorage(metricsRepo, "update", time.Now(), &err)

	if err := p.check(c); err != nil {
		return err
	}
	if c.Id <= 0 {
		return storage.Invalid(errors.New("context id is required"))
	}

	query, params, err := p.g.Update("contexts").
		Set(goqu.Record{
			"path":           c.Path,
			"primary_locale": c.PrimaryLocale,
			"seq":            c.Sequence,
			"enabled":        c.Enabled,
		}).
		Where(goqu.C("context_id").Eq(c.Id)).
		ToSQL()
	if err != nil {
		return err
	}

	return storage.InTx(ctx, p.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, params...)
		if err != nil {
			return storage.Wrap("update context", err)
		}

		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil
		}

		return p.settings.WithQuerier(tx).ReplaceSettingsFor(ctx, c.Id, p.localeFields(c))
	})
}

// Delete removes the context with its genres and settings. Missing ids are not an error.
func (p *sqlRepo) Delete(ctx context.Context, id int64) (err error) {
	defer metrics.ObserveStorage(metricsRepo, "delete", time.Now(), &err)

	query, params, err := p.g.Delete("contexts").
		Where(goqu.C("context_id").Eq(id)).
		ToSQL()
	if err != nil {
		return err
	}

	return storage.InTx(ctx, p.db, func(tx *sql.Tx) error {
		if p.genres != nil {
			if err := p.genres.WithTx(tx).DeleteAllByContext(ctx, id); err != nil {
				return err
			}
		}

		if err := p.settings.WithQuerier(tx).DeleteFor(ctx, id); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, query, params...)
		return storage.Wrap("delete context", err)
	})
}
