package storage

import (
	"context"
	"iter"

	"github.com/doug-martin/goqu/v9"
)

// Range selects one page of a listing. Page is 1-based; a nil Range or a zero
// Count returns everything.
type Range struct {
	Page  uint
	Count uint
}

func (r *Range) Apply(ds *goqu.SelectDataset) *goqu.SelectDataset {
	if r == nil || r.Count == 0 {
		return ds
	}

	page := r.Page
	if page < 1 {
		page = 1
	}

	ds = ds.Limit(r.Count)
	if page > 1 {
		ds = ds.Offset((page - 1) * r.Count)
	}

	return ds
}

// ResultSet holds the rows of a single query execution and turns them into
// records one at a time. It is forward-only: records already handed out are
// not produced again.
//
// Building a record may run further statements (settings lookups, hooks), so
// the querier the set was read from must still be usable while iterating.
type ResultSet[R, T any] struct {
	rows  []R
	next  int
	build func(ctx context.Context, row *R) (T, error)
}

func NewResultSet[R, T any](rows []R, build func(ctx context.Context, row *R) (T, error)) *ResultSet[R, T] {
	return &ResultSet[R, T]{rows: rows, build: build}
}

// Len is the number of rows the query returned.
func (rs *ResultSet[R, T]) Len() int {
	return len(rs.rows)
}

// Next builds the next record. ok is false once the set is exhausted.
func (rs *ResultSet[R, T]) Next(ctx context.Context) (rec T, ok bool, err error) {
	if rs.next >= len(rs.rows) {
		return rec, false, nil
	}

	row := &rs.rows[rs.next]
	rs.next++

	rec, err = rs.build(ctx, row)
	if err != nil {
		return rec, false, err
	}

	return rec, true, nil
}

// All iterates over the remaining records, stopping after the first error.
func (rs *ResultSet[R, T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			rec, ok, err := rs.Next(ctx)
			if err != nil {
				yield(rec, err)
				return
			}
			if !ok || !yield(rec, nil) {
				return
			}
		}
	}
}

// Collect drains the remaining records into a slice.
func (rs *ResultSet[R, T]) Collect(ctx context.Context) ([]T, error) {
	ret := make([]T, 0, len(rs.rows)-rs.next)
	for rec, err := range rs.All(ctx) {
		if err != nil {
			return nil, err
		}
		ret = append(ret, rec)
	}

	return ret, nil
}
