// Package schema creates the tables the repositories work on. Statements are
// idempotent; there is no versioning.
package schema

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"submissions/internal/storage"
)

//go:embed *.sql
var files embed.FS

func Statements(d storage.Dialect) ([]string, error) {
	name := "postgres.sql"
	if d == storage.SQLite {
		name = "sqlite.sql"
	}

	bs, err := files.ReadFile(name)
	if err != nil {
		return nil, err
	}

	var ret []string
	for _, stmt := range strings.Split(string(bs), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			ret = append(ret, stmt)
		}
	}

	return ret, nil
}

// Apply runs every statement for db's dialect, one at a time.
func Apply(ctx context.Context, db *storage.DB) error {
	stmts, err := Statements(db.Dialect)
	if err != nil {
		return err
	}

	for _, stmt := range stmts {
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return nil
}
