package opengtap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the pure-Go sqlite driver

	"github.com/devchoca/OpenGTAP/domain/model"
)

// sqlValueColumn is the name of the value column of every array table.
const sqlValueColumn = "value"

// OpenDatabase reads the file at the given path and loads it into an
// in-memory SQLite database: one table per header array, one column per
// defining set plus a value column, one row per logical entry.
func OpenDatabase(ctx context.Context, path string) (*sql.DB, error) {
	file, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadDatabase(ctx, file)
}

// LoadDatabase loads an in-memory HarFile into a fresh in-memory SQLite
// database.
func LoadDatabase(ctx context.Context, file *HarFile) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every pooled connection to ":memory:" is its own database; pin the
	// pool to one connection so the loaded tables stay visible.
	db.SetMaxOpenConns(1)
	for _, arr := range file.Arrays() {
		if err := loadArray(ctx, db, arr); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to load header %q: %w", arr.Header(), err)
		}
	}
	return db, nil
}

// loadArray creates the table for one array and inserts its expanded
// logical entries in a single transaction.
func loadArray(ctx context.Context, db *sql.DB, arr *model.HeaderArray) error {
	table := tableName(arr.Header())
	columns := columnNames(arr.Sets())

	var ddl strings.Builder
	fmt.Fprintf(&ddl, "CREATE TABLE %q (", table)
	for _, column := range columns {
		fmt.Fprintf(&ddl, "%q TEXT, ", column)
	}
	fmt.Fprintf(&ddl, "%q %s)", sqlValueColumn, valueColumnType(arr))
	if _, err := db.ExecContext(ctx, ddl.String()); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)+1), ", ")
	insert := fmt.Sprintf("INSERT INTO %q VALUES (%s)", table, placeholders)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	if err := insertRows(ctx, stmt, arr); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// insertRows inserts one row per expanded logical entry.
func insertRows(ctx context.Context, stmt *sql.Stmt, arr *model.HeaderArray) error {
	strDict, hasStr := arr.Strings()
	realDict, hasReal := arr.Reals()
	intDict, hasInt := arr.Ints()

	var keys func(yield func(model.KeySequence) bool)
	switch {
	case hasStr:
		keys = strDict.ExpandedKeys()
	case hasReal:
		keys = realDict.ExpandedKeys()
	case hasInt:
		keys = intDict.ExpandedKeys()
	default:
		return nil
	}

	for key := range keys {
		args := make([]any, 0, key.Len()+1)
		for _, component := range key.Keys() {
			args = append(args, component)
		}
		switch {
		case hasStr:
			args = append(args, strDict.Get(key))
		case hasReal:
			args = append(args, float64(realDict.Get(key)))
		case hasInt:
			args = append(args, int64(intDict.Get(key)))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %s: %w", key, err)
		}
	}
	return nil
}

// columnNames derives unique SQL-safe column names from the defining
// sets. Anonymous sets and duplicates fall back to positional names.
func columnNames(sets []model.Set) []string {
	out := make([]string, len(sets))
	seen := make(map[string]bool)
	for i, s := range sets {
		name := tableName(s.Name())
		if s.Name() == "" || seen[strings.ToLower(name)] {
			name = fmt.Sprintf("dim%d", i+1)
		}
		seen[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

// valueColumnType picks the SQL type of the value column from the
// payload type.
func valueColumnType(arr *model.HeaderArray) string {
	switch arr.Type() {
	case model.ArrayTypeString:
		return "TEXT"
	case model.ArrayTypeInteger:
		return "INTEGER"
	default:
		return "REAL"
	}
}

// tableName derives a SQL-safe table name from a header.
func tableName(header string) string {
	name := strings.TrimRight(header, " ")
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	out := sb.String()
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		out = "h_" + out
	}
	return out
}
