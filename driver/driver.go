// Package driver provides a database/sql driver for header array files.
//
// The driver loads a .har, .sl4 or .harx file (.har and .sl4 also with a
// gzip, bzip2, xz or zstandard extension; .harx files are read as plain
// ZIP archives) into an in-memory SQLite database: one table per header
// array, one column per defining set plus a value column, one row per
// logical entry.
//
// Usage:
//
//	import _ "github.com/devchoca/OpenGTAP/driver"
//	db, err := sql.Open("opengtap", "basedata.har")
package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"modernc.org/sqlite"

	opengtap "github.com/devchoca/OpenGTAP"
	"github.com/devchoca/OpenGTAP/domain/model"
)

// Driver implements driver.Driver for header array files. The data
// source name is the file path; multiple paths may be joined with
// semicolons.
type Driver struct{}

// Connector implements driver.Connector, holding the validated DSN.
type Connector struct {
	driver *Driver
	dsn    string
}

// Connection wraps the underlying SQLite connection holding the loaded
// arrays.
type Connection struct {
	conn driver.Conn
}

func init() {
	sql.Register("opengtap", NewDriver())
}

// NewDriver creates a new header array driver.
func NewDriver() *Driver {
	return &Driver{}
}

// Open implements driver.Driver.
func (d *Driver) Open(dsn string) (driver.Conn, error) {
	connector, err := d.OpenConnector(dsn)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector implements driver.DriverContext.
func (d *Driver) OpenConnector(dsn string) (driver.Connector, error) {
	if err := validateDSN(dsn); err != nil {
		return nil, err
	}
	return &Connector{driver: d, dsn: dsn}, nil
}

// Connect implements driver.Connector.
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	sqliteDriver := &sqlite.Driver{}
	conn, err := sqliteDriver.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}

	for _, path := range strings.Split(c.dsn, ";") {
		if err := loadPath(ctx, conn, strings.TrimSpace(path)); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	return &Connection{conn: conn}, nil
}

// Driver implements driver.Connector.
func (c *Connector) Driver() driver.Driver {
	return c.driver
}

// loadPath reads one header array file and loads its arrays.
func loadPath(ctx context.Context, conn driver.Conn, path string) error {
	file, err := opengtap.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}
	for _, arr := range file.Arrays() {
		if err := loadArray(ctx, conn, arr); err != nil {
			return fmt.Errorf("failed to load header %q: %w", arr.Header(), err)
		}
	}
	return nil
}

// loadArray creates the table for one array and inserts its expanded
// logical entries through the driver connection.
func loadArray(ctx context.Context, conn driver.Conn, arr *model.HeaderArray) error {
	table := sanitizeName(arr.Header())
	columns := setColumns(arr.Sets())

	var ddl strings.Builder
	fmt.Fprintf(&ddl, "CREATE TABLE %q (", table)
	for _, column := range columns {
		fmt.Fprintf(&ddl, "%q TEXT, ", column)
	}
	fmt.Fprintf(&ddl, "%q %s)", "value", valueType(arr))
	if err := execute(ctx, conn, ddl.String(), nil); err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)+1), ", ")
	insert := fmt.Sprintf("INSERT INTO %q VALUES (%s)", table, placeholders)

	strDict, hasStr := arr.Strings()
	intDict, hasInt := arr.Ints()
	for key := range expandedKeys(arr) {
		args := make([]driver.NamedValue, 0, key.Len()+1)
		for i, component := range key.Keys() {
			args = append(args, driver.NamedValue{Ordinal: i + 1, Value: component})
		}
		var value driver.Value
		switch {
		case hasStr:
			value = strDict.Get(key)
		case hasInt:
			value = int64(intDict.Get(key))
		default:
			value = float64(arr.GetReal(key.Keys()...))
		}
		args = append(args, driver.NamedValue{Ordinal: key.Len() + 1, Value: value})
		if err := execute(ctx, conn, insert, args); err != nil {
			return err
		}
	}
	return nil
}

// execute prepares and runs one statement through the driver connection.
func execute(ctx context.Context, conn driver.Conn, query string, args []driver.NamedValue) error {
	stmt, err := conn.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	execer, ok := stmt.(driver.StmtExecContext)
	if !ok {
		return ErrStmtExecContextNotSupported
	}
	if _, err := execer.ExecContext(ctx, args); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

// expandedKeys enumerates the expanded key tuples of whichever payload
// the array holds.
func expandedKeys(arr *model.HeaderArray) func(yield func(model.KeySequence) bool) {
	if dict, ok := arr.Strings(); ok {
		return dict.ExpandedKeys()
	}
	if dict, ok := arr.Ints(); ok {
		return dict.ExpandedKeys()
	}
	if dict, ok := arr.Reals(); ok {
		return dict.ExpandedKeys()
	}
	return func(func(model.KeySequence) bool) {}
}

// setColumns derives unique column names from the defining sets.
func setColumns(sets []model.Set) []string {
	out := make([]string, len(sets))
	seen := make(map[string]bool)
	for i, s := range sets {
		name := sanitizeName(s.Name())
		if s.Name() == "" || seen[strings.ToLower(name)] {
			name = fmt.Sprintf("dim%d", i+1)
		}
		seen[strings.ToLower(name)] = true
		out[i] = name
	}
	return out
}

// valueType picks the SQL type of the value column.
func valueType(arr *model.HeaderArray) string {
	switch arr.Type() {
	case model.ArrayTypeString:
		return "TEXT"
	case model.ArrayTypeInteger:
		return "INTEGER"
	default:
		return "REAL"
	}
}

// sanitizeName folds a header or set name to a SQL-safe identifier.
func sanitizeName(name string) string {
	name = strings.TrimRight(name, " ")
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

// Prepare implements driver.Conn.
func (conn *Connection) Prepare(query string) (driver.Stmt, error) {
	return conn.conn.Prepare(query)
}

// PrepareContext implements driver.ConnPrepareContext when the underlying
// connection supports it.
func (conn *Connection) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if prepareCtx, ok := conn.conn.(driver.ConnPrepareContext); ok {
		return prepareCtx.PrepareContext(ctx, query)
	}
	return conn.conn.Prepare(query)
}

// Close implements driver.Conn.
func (conn *Connection) Close() error {
	return conn.conn.Close()
}

// Begin implements driver.Conn.
//
// Deprecated: use BeginTx.
func (conn *Connection) Begin() (driver.Tx, error) {
	return conn.conn.Begin() //nolint:staticcheck // driver.Conn still requires Begin
}

// BeginTx implements driver.ConnBeginTx when the underlying connection
// supports it.
func (conn *Connection) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if beginTx, ok := conn.conn.(driver.ConnBeginTx); ok {
		return beginTx.BeginTx(ctx, opts)
	}
	return conn.conn.Begin() //nolint:staticcheck // fallback for legacy connections
}

// QueryContext implements driver.QueryerContext when the underlying
// connection supports it.
func (conn *Connection) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if queryer, ok := conn.conn.(driver.QueryerContext); ok {
		return queryer.QueryContext(ctx, query, args)
	}
	return nil, ErrQueryerContextNotSupported
}

// ExecContext implements driver.ExecerContext when the underlying
// connection supports it.
func (conn *Connection) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if execer, ok := conn.conn.(driver.ExecerContext); ok {
		return execer.ExecContext(ctx, query, args)
	}
	return nil, ErrExecerContextNotSupported
}
