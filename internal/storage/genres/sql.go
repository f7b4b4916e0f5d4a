package genres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/go-playground/validator/v10"

	"submissions/internal/defaults"
	"submissions/internal/locale"
	"submissions/internal/metrics"
	"submissions/internal/storage"
	"submissions/internal/storage/hook"
	"submissions/internal/storage/settings"
	"submissions/internal/types"
)

const (
	tableGenres   = "genres"
	tableSettings = "genre_settings"
	colId         = "genre_id"

	settingName        = "name"
	settingDesignation = "designation"

	metricsRepo = "genres"
)

var (
	SettingsTable  = settings.Table{Name: tableSettings, OwnerColumn: colId}
	SettingsFields = settings.Fields{
		Localized:  []string{settingName},
		Additional: []string{settingDesignation},
	}

	rowColumns = []any{colId, "context_id", "seq", "category", "sortable", "dependent", "enabled", "entry_key"}
)

type Options struct {
	// Defaults reads the registry; without it nothing can be installed.
	Defaults     *defaults.Loader
	RegistryPath string
	// Locales the default names are installed in. The first one also decides
	// the (non-localized) designation.
	Locales []string
}

func NewSQLRepository(db *storage.DB, l *slog.Logger, opts Options) Repository {
	if opts.RegistryPath == "" {
		opts.RegistryPath = RegistryPath
	}
	if l == nil {
		l = slog.Default()
	}

	g := db.Dialect.Builder()

	return &sqlRepo{
		db:       db.SQL,
		q:        db.SQL,
		g:        g,
		dialect:  db.Dialect,
		l:        l,
		settings: settings.New[int64](db.SQL, g, SettingsTable, SettingsFields),
		hooks:    &hook.List[types.Genre, Row]{},
		validate: validator.New(),
		opts:     opts,
	}
}

type sqlRepo struct {
	db       *sql.DB
	tx       *sql.Tx
	q        storage.Querier
	g        goqu.DialectWrapper
	dialect  storage.Dialect
	l        *slog.Logger
	settings *settings.Store[int64]
	hooks    *hook.List[types.Genre, Row]
	validate *validator.Validate
	opts     Options
}

// Row is a genres table row as handed to load hooks.
type Row struct {
	Id        int64          `db:"genre_id"`
	ContextId int64          `db:"context_id"`
	Sequence  float64        `db:"seq"`
	Category  int            `db:"category"`
	Sortable  bool           `db:"sortable"`
	Dependent bool           `db:"dependent"`
	Enabled   bool           `db:"enabled"`
	EntryKey  sql.NullString `db:"entry_key"`
}

func (r *Row) intoCommon() *types.Genre {
	return &types.Genre{
		Id:        r.Id,
		ContextId: r.ContextId,
		Sequence:  r.Sequence,
		Category:  types.GenreCategory(r.Category),
		Sortable:  r.Sortable,
		Dependent: r.Dependent,
		Enabled:   r.Enabled,
		EntryKey:  r.EntryKey.String,
		Name:      types.LocalizedString{},
	}
}

func (p *sqlRepo) WithTx(tx *sql.Tx) Repository {
	return p.bind(tx)
}

func (p *sqlRepo) bind(tx *sql.Tx) *sqlRepo {
	cp := *p
	cp.tx = tx
	cp.q = tx
	cp.settings = p.settings.WithQuerier(tx)
	return &cp
}

// inTx runs fn in a new transaction unless the repository is already bound to one.
func (p *sqlRepo) inTx(ctx context.Context, fn func(r *sqlRepo) error) error {
	if p.tx != nil {
		return fn(p)
	}

	return storage.InTx(ctx, p.db, func(tx *sql.Tx) error {
		return fn(p.bind(tx))
	})
}

func (p *sqlRepo) OnLoad(h LoadHook) {
	p.hooks.Register(h)
}

func (p *sqlRepo) selectGenres() *goqu.SelectDataset {
	return p.g.From(tableGenres).
		Select(rowColumns...).
		Order(goqu.C("seq").Asc(), goqu.C(colId).Asc())
}

// fromRow merges the settings onto the row's genre, then runs the load hooks.
func (p *sqlRepo) fromRow(ctx context.Context, row *Row) (*types.Genre, error) {
	g := row.intoCommon()

	vals, err := p.settings.GetSettingsFor(ctx, row.Id)
	if err != nil {
		return nil, err
	}

	if name, ok := vals.Localized[settingName]; ok {
		g.Name = name
	}
	g.Designation = vals.Plain[settingDesignation]

	if err := p.hooks.Run(ctx, g, row); err != nil {
		return nil, err
	}

	return g, nil
}

func (p *sqlRepo) getOne(ctx context.Context, ds *goqu.SelectDataset) (*types.Genre, error) {
	sql, params, err := ds.Limit(1).ToSQL()
	if err != nil {
		return nil, err
	}

	var row Row

	err = sqlscan.Get(ctx, p.q, &row, sql, params...)
	if err != nil {
		if sqlscan.NotFound(err) {
			return nil, nil
		}
		return nil, storage.Wrap("select genre", err)
	}

	return p.fromRow(ctx, &row)
}

func (p *sqlRepo) list(ctx context.Context, ds *goqu.SelectDataset, rng *storage.Range) (*ResultSet, error) {
	sql, params, err := rng.Apply(ds).ToSQL()
	if err != nil {
		return nil, err
	}

	var rows []Row

	err = sqlscan.Select(ctx, p.q, &rows, sql, params...)
	if err != nil {
		return nil, storage.Wrap("select genres", err)
	}

	return storage.NewResultSet(rows, p.fromRow), nil
}

func inContext(ds *goqu.SelectDataset, contextId int64) *goqu.SelectDataset {
	if contextId == 0 {
		return ds
	}

	return ds.Where(goqu.C("context_id").Eq(contextId))
}

func (p *sqlRepo) GetById(ctx context.Context, id int64, contextId int64) (g *types.Genre, err error) {
	defer metrics.ObserveStorage(metricsRepo, "get_by_id", time.Now(), &err)

	return p.getOne(ctx, inContext(
		p.selectGenres().Where(goqu.C(colId).Eq(id)),
		contextId))
}

func (p *sqlRepo) GetByEntryKey(ctx context.Context, key string, contextId int64) (g *types.Genre, err error) {
	defer metrics.ObserveStorage(metricsRepo, "get_by_entry_key", time.Now(), &err)

	return p.getOne(ctx, inContext(
		p.selectGenres().Where(goqu.C("entry_key").Eq(key), goqu.C("enabled").IsTrue()),
		contextId))
}

func (p *sqlRepo) GetByCategory(ctx context.Context, category types.GenreCategory, contextId int64,
	rng *storage.Range) (rs *ResultSet, err error) {

	defer metrics.ObserveStorage(metricsRepo, "get_by_category", time.Now(), &err)

	return p.list(ctx, inContext(
		p.selectGenres().Where(goqu.C("category").Eq(int(category)), goqu.C("enabled").IsTrue()),
		contextId), rng)
}

func (p *sqlRepo) GetEnabledByContext(ctx context.Context, contextId int64, rng *storage.Range) (rs *ResultSet, err error) {
	defer metrics.ObserveStorage(metricsRepo, "get_enabled_by_context", time.Now(), &err)

	return p.list(ctx, p.selectGenres().
		Where(goqu.C("enabled").IsTrue(), goqu.C("context_id").Eq(contextId)), rng)
}

func (p *sqlRepo) GetByDependenceAndContext(ctx context.Context, dependentOnly bool, contextId int64,
	rng *storage.Range) (rs *ResultSet, err error) {

	defer metrics.ObserveStorage(metricsRepo, "get_by_dependence_and_context", time.Now(), &err)

	return p.list(ctx, p.selectGenres().Where(
		goqu.C("enabled").IsTrue(),
		goqu.C("context_id").Eq(contextId),
		goqu.C("dependent").Eq(dependentOnly),
	), rng)
}

func (p *sqlRepo) GetAllByContext(ctx context.Context, contextId int64, rng *storage.Range) (rs *ResultSet, err error) {
	defer metrics.ObserveStorage(metricsRepo, "get_all_by_context", time.Now(), &err)

	return p.list(ctx, p.selectGenres().Where(goqu.C("context_id").Eq(contextId)), rng)
}

func (p *sqlRepo) check(g *types.Genre) error {
	if g == nil {
		return storage.Invalid(errors.New("genre is nil"))
	}

	if err := p.validate.Struct(g); err != nil {
		return storage.Invalid(err)
	}

	return nil
}

func (p *sqlRepo) updateLocaleFields(ctx context.Context, id int64, g *types.Genre) error {
	v := settings.NewValues()
	v.Localized[settingName] = g.Name
	v.Plain[settingDesignation] = g.Designation

	return p.settings.ReplaceSettingsFor(ctx, id, v)
}

func (p *sqlRepo) Insert(ctx context.Context, g *types.Genre) (id int64, err error) {
	defer metrics.ObserveStorage(metricsRepo, "insert", time.Now(), &err)

	if err := p.check(g); err != nil {
		return 0, err
	}

	name, err := settings.NormalizeLocales(g.Name)
	if err != nil {
		return 0, err
	}

	err = p.inTx(ctx, func(r *sqlRepo) error {
		newId, err := storage.InsertReturningId(ctx, r.q, r.dialect,
			r.g.Insert(tableGenres).Rows(goqu.Record{
				"seq":        g.Sequence,
				"sortable":   g.Sortable,
				"context_id": g.ContextId,
				"category":   int(g.Category),
				"dependent":  g.Dependent,
				"enabled":    true,
			}), colId)
		if err != nil {
			return storage.Wrap("insert genre", err)
		}

		id = newId
		return r.updateLocaleFields(ctx, id, g)
	})
	if err != nil {
		return 0, err
	}

	g.Id = id
	g.Enabled = true
	g.Name = name

	return id, nil
}

func (p *sqlRepo) Update(ctx context.Context, g *types.Genre) (err error) {
	defer metrics.ObserveStorage(metricsRepo, "update", time.Now(), &err)

	if err := p.check(g); err != nil {
		return err
	}
	if g.Id <= 0 {
		return storage.Invalid(errors.New("genre id is required"))
	}

	name, err := settings.NormalizeLocales(g.Name)
	if err != nil {
		return err
	}

	sql, params, err := p.g.Update(tableGenres).
		Set(goqu.Record{
			"seq":       g.Sequence,
			"sortable":  g.Sortable,
			"dependent": g.Dependent,
		}).
		Where(goqu.C(colId).Eq(g.Id), goqu.C("context_id").Eq(g.ContextId)).
		ToSQL()
	if err != nil {
		return err
	}

	err = p.inTx(ctx, func(r *sqlRepo) error {
		res, err := r.q.ExecContext(ctx, sql, params...)
		if err != nil {
			return storage.Wrap("update genre", err)
		}

		// no settings for a genre that does not exist in g's context
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil
		}

		return r.updateLocaleFields(ctx, g.Id, g)
	})
	if err != nil {
		return err
	}

	g.Name = name
	return nil
}

func (p *sqlRepo) SoftDelete(ctx context.Context, id int64) (err error) {
	defer metrics.ObserveStorage(metricsRepo, "soft_delete", time.Now(), &err)

	sql, params, err := p.g.Update(tableGenres).
		Set(goqu.Record{"enabled": false}).
		Where(goqu.C(colId).Eq(id)).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.q.ExecContext(ctx, sql, params...)
	return storage.Wrap("disable genre", err)
}

func (p *sqlRepo) HardDelete(ctx context.Context, g *types.Genre) (err error) {
	defer metrics.ObserveStorage(metricsRepo, "hard_delete", time.Now(), &err)

	if g == nil {
		return storage.Invalid(errors.New("genre is nil"))
	}

	sql, params, err := p.g.Delete(tableGenres).
		Where(goqu.C(colId).Eq(g.Id)).
		ToSQL()
	if err != nil {
		return err
	}

	return p.inTx(ctx, func(r *sqlRepo) error {
		if err := r.settings.DeleteFor(ctx, g.Id); err != nil {
			return err
		}

		_, err := r.q.ExecContext(ctx, sql, params...)
		return storage.Wrap("delete genre", err)
	})
}

func (p *sqlRepo) DeleteAllByContext(ctx context.Context, contextId int64) (err error) {
	defer metrics.ObserveStorage(metricsRepo, "delete_all_by_context", time.Now(), &err)

	return p.inTx(ctx, func(r *sqlRepo) error {
		return r.deleteAllByContext(ctx, contextId)
	})
}

func (p *sqlRepo) deleteAllByContext(ctx context.Context, contextId int64) error {
	sql, params, err := p.g.From(tableGenres).
		Select(colId).
		Where(goqu.C("context_id").Eq(contextId)).
		ToSQL()
	if err != nil {
		return err
	}

	var ids []int64

	err = sqlscan.Select(ctx, p.q, &ids, sql, params...)
	if err != nil {
		return storage.Wrap("select genre ids", err)
	}

	if err := p.settings.DeleteFor(ctx, ids...); err != nil {
		return err
	}

	sql, params, err = p.g.Delete(tableGenres).
		Where(goqu.C("context_id").Eq(contextId)).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.q.ExecContext(ctx, sql, params...)
	return storage.Wrap("delete genres", err)
}

// loadDefaults reports false when there is no usable registry.
func (p *sqlRepo) loadDefaults(ctx context.Context) ([]defaults.Entry, bool) {
	if p.opts.Defaults == nil {
		return nil, false
	}

	entries, err := p.opts.Defaults.Load(p.opts.RegistryPath)
	if err != nil {
		p.l.WarnContext(ctx, "No default genres to install: "+err.Error())
		return nil, false
	}

	return entries, true
}

func (p *sqlRepo) defaultValues(e defaults.Entry) settings.Values {
	v := settings.NewValues()
	name := types.LocalizedString{}

	if len(p.opts.Locales) == 0 {
		v.Plain[settingDesignation] = p.opts.Defaults.Attributes(e, "").Designation
	}

	for ix, loc := range p.opts.Locales {
		a := p.opts.Defaults.Attributes(e, loc)
		name[loc] = a.Name
		if ix == 0 {
			v.Plain[settingDesignation] = a.Designation
		}
	}

	v.Localized[settingName] = name
	return v
}

func (p *sqlRepo) installEntries(ctx context.Context, contextId int64, entries []defaults.Entry) error {
	for ix, e := range entries {
		id, err := storage.InsertReturningId(ctx, p.q, p.dialect,
			p.g.Insert(tableGenres).Rows(goqu.Record{
				"seq":        float64(ix),
				"entry_key":  e.Key,
				"sortable":   e.Sortable,
				"context_id": contextId,
				"category":   e.Category,
				"dependent":  e.Dependent,
				"enabled":    true,
			}), colId)
		if err != nil {
			return storage.Wrap("insert default genre "+e.Key, err)
		}

		if err := p.settings.ReplaceSettingsFor(ctx, id, p.defaultValues(e)); err != nil {
			return err
		}
	}

	p.l.InfoContext(ctx, "Installed default genres", slog.Int64("context_id", contextId), slog.Int("count", len(entries)))
	return nil
}

func checkContextId(contextId int64) error {
	if contextId <= 0 {
		return storage.Invalid(errors.New("context id is required"))
	}

	return nil
}

func (p *sqlRepo) InstallDefaults(ctx context.Context, contextId int64) (ok bool, err error) {
	defer metrics.ObserveStorage(metricsRepo, "install_defaults", time.Now(), &err)

	if err := checkContextId(contextId); err != nil {
		return false, err
	}

	entries, ok := p.loadDefaults(ctx)
	if !ok {
		return false, nil
	}

	err = p.inTx(ctx, func(r *sqlRepo) error {
		return r.installEntries(ctx, contextId, entries)
	})

	return err == nil, err
}

func (p *sqlRepo) RestoreDefaults(ctx context.Context, contextId int64) (ok bool, err error) {
	defer metrics.ObserveStorage(metricsRepo, "restore_defaults", time.Now(), &err)

	if err := checkContextId(contextId); err != nil {
		return false, err
	}

	// nothing is torn down unless there is something to put back
	entries, ok := p.loadDefaults(ctx)
	if !ok {
		return false, nil
	}

	err = p.inTx(ctx, func(r *sqlRepo) error {
		if err := r.deleteAllByContext(ctx, contextId); err != nil {
			return err
		}

		return r.installEntries(ctx, contextId, entries)
	})

	return err == nil, err
}

func (p *sqlRepo) InstallLocale(ctx context.Context, contextId int64, loc string) (ok bool, err error) {
	defer metrics.ObserveStorage(metricsRepo, "install_locale", time.Now(), &err)

	if err := checkContextId(contextId); err != nil {
		return false, err
	}

	loc, err = locale.Normalize(loc)
	if err != nil {
		return false, storage.Invalid(err)
	}

	entries, ok := p.loadDefaults(ctx)
	if !ok {
		return false, nil
	}

	err = p.inTx(ctx, func(r *sqlRepo) error {
		for _, e := range entries {
			sql, params, err := r.g.From(tableGenres).
				Select(colId).
				Where(
					goqu.C("context_id").Eq(contextId),
					goqu.C("entry_key").Eq(e.Key),
					goqu.C("enabled").IsTrue(),
				).
				ToSQL()
			if err != nil {
				return err
			}

			var ids []int64

			err = sqlscan.Select(ctx, r.q, &ids, sql, params...)
			if err != nil {
				return storage.Wrap("select genre ids", err)
			}

			for _, id := range ids {
				if err := r.settings.Set(ctx, id, settingName, loc, r.opts.Defaults.Attributes(e, loc).Name); err != nil {
					return err
				}
			}
		}

		return nil
	})

	return err == nil, err
}
