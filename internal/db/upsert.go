package db

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertConfig describes an insert-or-update keyed by a natural key.
type UpsertConfig struct {
	Table        string   // target table
	Columns      []string // all columns being inserted, in argument order
	ConflictKeys []string // natural key columns backed by a unique constraint
	UpdateCols   []string // columns overwritten on conflict; nil = all non-key columns
	TouchCol     string   // optional timestamp column set to CURRENT_TIMESTAMP on update
	Returning    string   // optional column returned by the statement
}

// Placeholder renders the bind parameter for the 1-based argument n.
type Placeholder func(n int) string

// Dollar renders Postgres-style $n placeholders.
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// Question renders SQLite-style ? placeholders.
func Question(int) string { return "?" }

// UpsertSQL builds a single-row INSERT ... ON CONFLICT (keys) DO UPDATE
// statement. Conflict key columns are never part of the SET list, so a
// repeated upsert leaves the natural key untouched and overwrites only the
// mutable columns.
func UpsertSQL(cfg UpsertConfig, ph Placeholder) (string, error) {
	if len(cfg.Columns) == 0 {
		return "", eris.New("db: upsert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return "", eris.New("db: upsert: no conflict keys specified")
	}

	cols := make(map[string]bool, len(cfg.Columns))
	for _, c := range cfg.Columns {
		cols[c] = true
	}
	keys := make(map[string]bool, len(cfg.ConflictKeys))
	for _, k := range cfg.ConflictKeys {
		if !cols[k] {
			return "", eris.Errorf("db: upsert: conflict key %q is not an inserted column", k)
		}
		keys[k] = true
	}

	updateCols := cfg.UpdateCols
	if updateCols == nil {
		for _, c := range cfg.Columns {
			if !keys[c] {
				updateCols = append(updateCols, c)
			}
		}
	}

	var set []string
	for _, c := range updateCols {
		if keys[c] {
			return "", eris.Errorf("db: upsert: conflict key %q cannot be updated", c)
		}
		q := quote(c)
		set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
	}
	if cfg.TouchCol != "" {
		set = append(set, fmt.Sprintf("%s = CURRENT_TIMESTAMP", quote(cfg.TouchCol)))
	}

	placeholders := make([]string, len(cfg.Columns))
	for i := range cfg.Columns {
		placeholders[i] = ph(i + 1)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s)",
		sanitizeTable(cfg.Table),
		quoteAndJoin(cfg.Columns),
		strings.Join(placeholders, ", "),
		quoteAndJoin(cfg.ConflictKeys),
	)
	if len(set) == 0 {
		// Nothing mutable: a no-op update still lets RETURNING yield the row.
		k := quote(cfg.ConflictKeys[0])
		set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", k, k))
	}
	fmt.Fprintf(&b, " DO UPDATE SET %s", strings.Join(set, ", "))
	if cfg.Returning != "" {
		fmt.Fprintf(&b, " RETURNING %s", quote(cfg.Returning))
	}

	return b.String(), nil
}

// sanitizeTable handles schema-qualified table names like "public.geography".
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func quote(col string) string {
	return pgx.Identifier{col}.Sanitize()
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	return strings.Join(quoted, ", ")
}
