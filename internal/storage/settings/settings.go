// Package settings stores named attributes of records in a side table
// (owner id, locale, setting_name, setting_value). Localized names keep one row
// per locale, the others a single row with an empty locale.
package settings

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sort"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/sqlscan"

	"submissions/internal/locale"
	"submissions/internal/storage"
	"submissions/internal/types"
)

type OwnerId interface {
	~int | ~int32 | ~int64 | ~uint16 | ~uint32 | ~uint64
}

// Table names a settings table and the column holding the owner id.
type Table struct {
	Name        string
	OwnerColumn string
}

// Fields declares which setting names a record type stores. The two lists
// must not overlap.
type Fields struct {
	Localized  []string
	Additional []string
}

func (f Fields) IsLocalized(name string) bool {
	return slices.Contains(f.Localized, name)
}

func (f Fields) IsAdditional(name string) bool {
	return slices.Contains(f.Additional, name)
}

// Values are the settings of one owner grouped by name.
type Values struct {
	Localized map[string]types.LocalizedString
	Plain     map[string]string
}

func NewValues() Values {
	return Values{
		Localized: make(map[string]types.LocalizedString),
		Plain:     make(map[string]string),
	}
}

type Store[ID OwnerId] struct {
	q      storage.Querier
	g      goqu.DialectWrapper
	table  Table
	fields Fields
}

// New panics when a name is declared both localized and additional; the
// declaration is static so this is a programming error.
func New[ID OwnerId](q storage.Querier, g goqu.DialectWrapper, table Table, fields Fields) *Store[ID] {
	for _, name := range fields.Localized {
		if fields.IsAdditional(name) {
			panic(fmt.Sprintf("settings: %q declared both localized and additional for %s", name, table.Name))
		}
	}

	return &Store[ID]{q: q, g: g, table: table, fields: fields}
}

// WithQuerier returns a copy of the store running its statements on q.
func (s *Store[ID]) WithQuerier(q storage.Querier) *Store[ID] {
	cp := *s
	cp.q = q
	return &cp
}

func (s *Store[ID]) Fields() Fields {
	return s.fields
}

type settingRow struct {
	Locale string         `db:"locale"`
	Name   string         `db:"setting_name"`
	Value  sql.NullString `db:"setting_value"`
}

// GetSettingsFor loads every setting of the owner.
func (s *Store[ID]) GetSettingsFor(ctx context.Context, id ID) (Values, error) {
	sql, params, err := s.g.From(s.table.Name).
		Select("locale", "setting_name", "setting_value").
		Where(goqu.C(s.table.OwnerColumn).Eq(int64(id))).
		ToSQL()
	if err != nil {
		return Values{}, err
	}

	var rows []settingRow

	err = sqlscan.Select(ctx, s.q, &rows, sql, params...)
	if err != nil {
		return Values{}, storage.Wrap("select "+s.table.Name, err)
	}

	ret := NewValues()
	for _, row := range rows {
		if row.Locale == "" && !s.fields.IsLocalized(row.Name) {
			ret.Plain[row.Name] = row.Value.String
			continue
		}

		ls, ok := ret.Localized[row.Name]
		if !ok {
			ls = make(types.LocalizedString)
			ret.Localized[row.Name] = ls
		}
		ls[row.Locale] = row.Value.String
	}

	return ret, nil
}

// ReplaceSettingsFor deletes the owner's rows and writes the declared fields of v:
// every locale of a localized name, one row for each additional name.
func (s *Store[ID]) ReplaceSettingsFor(ctx context.Context, id ID, v Values) error {
	recs, err := s.records(id, v)
	if err != nil {
		return err
	}

	if err := s.DeleteFor(ctx, id); err != nil {
		return err
	}

	if len(recs) == 0 {
		return nil
	}

	sql, params, err := s.g.Insert(s.table.Name).
		Rows(recs...).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = s.q.ExecContext(ctx, sql, params...)
	return storage.Wrap("insert "+s.table.Name, err)
}

// Set writes a single setting. Localized names need a locale, additional
// names must not have one. Run it in a transaction when atomicity matters.
func (s *Store[ID]) Set(ctx context.Context, id ID, name, loc, value string) error {
	switch {
	case s.fields.IsLocalized(name):
		n, err := locale.Normalize(loc)
		if err != nil {
			return storage.Invalid(err)
		}
		loc = n
	case s.fields.IsAdditional(name):
		if loc != "" {
			return storage.Invalid(fmt.Errorf("setting %q is not localized", name))
		}
	default:
		return storage.Invalid(fmt.Errorf("setting %q is not declared for %s", name, s.table.Name))
	}

	sql, params, err := s.g.Delete(s.table.Name).
		Where(
			goqu.C(s.table.OwnerColumn).Eq(int64(id)),
			goqu.C("setting_name").Eq(name),
			goqu.C("locale").Eq(loc),
		).
		ToSQL()
	if err != nil {
		return err
	}

	if _, err = s.q.ExecContext(ctx, sql, params...); err != nil {
		return storage.Wrap("delete "+s.table.Name, err)
	}

	sql, params, err = s.g.Insert(s.table.Name).
		Rows(s.record(id, name, loc, value)).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = s.q.ExecContext(ctx, sql, params...)
	return storage.Wrap("insert "+s.table.Name, err)
}

// DeleteFor removes every setting of the given owners.
func (s *Store[ID]) DeleteFor(ctx context.Context, ids ...ID) error {
	if len(ids) == 0 {
		return nil
	}

	owners := make([]int64, 0, len(ids))
	for _, id := range ids {
		owners = append(owners, int64(id))
	}

	sql, params, err := s.g.Delete(s.table.Name).
		Where(goqu.C(s.table.OwnerColumn).In(owners)).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = s.q.ExecContext(ctx, sql, params...)
	return storage.Wrap("delete "+s.table.Name, err)
}

func (s *Store[ID]) record(id ID, name, loc, value string) goqu.Record {
	return goqu.Record{
		s.table.OwnerColumn: int64(id),
		"locale":            loc,
		"setting_name":      name,
		"setting_value":     value,
	}
}

// NormalizeLocales returns ls keyed by BCP 47 locales, the form they are stored in.
// Invalid locales and two keys naming the same locale are validation errors.
func NormalizeLocales(ls types.LocalizedString) (types.LocalizedString, error) {
	locales := make([]string, 0, len(ls))
	for loc := range ls {
		locales = append(locales, loc)
	}
	sort.Strings(locales)

	ret := make(types.LocalizedString, len(ls))
	for _, loc := range locales {
		n, err := locale.Normalize(loc)
		if err != nil {
			return nil, storage.Invalid(err)
		}

		if _, ok := ret[n]; ok {
			return nil, storage.Invalid(fmt.Errorf("locale %q given twice", n))
		}
		ret[n] = ls[loc]
	}

	return ret, nil
}

func (s *Store[ID]) records(id ID, v Values) ([]any, error) {
	var recs []any

	for _, name := range s.fields.Localized {
		ls, err := NormalizeLocales(v.Localized[name])
		if err != nil {
			return nil, fmt.Errorf("setting %q: %w", name, err)
		}

		locales := make([]string, 0, len(ls))
		for loc := range ls {
			locales = append(locales, loc)
		}
		sort.Strings(locales)

		for _, loc := range locales {
			recs = append(recs, s.record(id, name, loc, ls[loc]))
		}
	}

	for _, name := range s.fields.Additional {
		recs = append(recs, s.record(id, name, "", v.Plain[name]))
	}

	return recs, nil
}
