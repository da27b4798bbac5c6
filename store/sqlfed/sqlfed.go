// Package sqlfed implements the SQL federator adapter: ad hoc query
// execution and schema introspection over relational catalogs reachable
// by DSN, generalizing the teacher's pgx-based PostgresDB
// (db/postgres_pgx.go) from a single fixed database into a federator that
// accepts an explicit catalog/schema per call and infers primary/foreign
// keys by naming convention the way db/postgres.go's aggregation helpers
// hand-scan rows rather than relying on an ORM.
package sqlfed

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Column describes one column of an introspected table.
type Column struct {
	Name       string
	DataType   string
	Nullable   bool
	IsPrimary  bool
	ForeignKey string // "" unless the column name matches the <table>_id convention
}

// Table describes one introspected table: its columns, with primary and
// foreign keys inferred by naming convention (a column named "id" is the
// primary key; a column named "{other_table}_id" is treated as a foreign
// key to that table).
type Table struct {
	Name    string
	Columns []Column
}

// Result is what Execute returns for a SELECT: column names in order plus
// the row values.
type Result struct {
	Columns []string
	Rows    [][]interface{}
}

// Adapter is the SQL federator adapter.
type Adapter struct {
	pool *pgxpool.Pool
}

// New creates a SQL federator adapter, verifying connectivity the same
// way NewPostgresDB does.
func New(ctx context.Context, dsn string) (*Adapter, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlfed: failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlfed: failed to ping database: %w", err)
	}

	return &Adapter{pool: pool}, nil
}

// Close closes the connection pool.
func (a *Adapter) Close() {
	a.pool.Close()
}

// CheckConnection verifies the pool can still reach the database.
func (a *Adapter) CheckConnection(ctx context.Context) error {
	return a.pool.Ping(ctx)
}

// ExecuteSQL runs sql (optionally scoped to schema via a session
// search_path) and returns columns + rows for a SELECT, or a nil *Result
// for a statement with no result set. catalog is accepted but not used:
// the query runs against the database the DSN names.
func (a *Adapter) ExecuteSQL(ctx context.Context, sql string, catalog, schema string, args ...interface{}) (*Result, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlfed: acquire connection: %w", err)
	}
	defer conn.Release()

	if schema != "" {
		if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize())); err != nil {
			return nil, fmt.Errorf("sqlfed: set search_path: %w", err)
		}
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlfed: query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	if len(fields) == 0 {
		rows.Close()
		return nil, rows.Err()
	}

	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = string(f.Name)
	}

	var result [][]interface{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("sqlfed: scan row: %w", err)
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlfed: iterate rows: %w", err)
	}

	return &Result{Columns: columns, Rows: result}, nil
}

// IntrospectSchema lists every table in schema (default "public") along
// with its columns, inferring PK/FK by naming convention per the spec's
// "PK/FK inferred by naming convention" contract. catalog is accepted but
// not used.
func (a *Adapter) IntrospectSchema(ctx context.Context, catalog, schema string) ([]Table, error) {
	if schema == "" {
		schema = "public"
	}

	query := `
		SELECT table_name, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1
		ORDER BY table_name, ordinal_position
	`
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlfed: acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("sqlfed: introspect query: %w", err)
	}
	defer rows.Close()

	tablesByName := make(map[string]*Table)
	var order []string
	for rows.Next() {
		var tableName, columnName, dataType, isNullable string
		if err := rows.Scan(&tableName, &columnName, &dataType, &isNullable); err != nil {
			return nil, fmt.Errorf("sqlfed: scan introspection row: %w", err)
		}

		t, ok := tablesByName[tableName]
		if !ok {
			t = &Table{Name: tableName}
			tablesByName[tableName] = t
			order = append(order, tableName)
		}

		t.Columns = append(t.Columns, Column{
			Name:       columnName,
			DataType:   dataType,
			Nullable:   isNullable == "YES",
			IsPrimary:  columnName == "id",
			ForeignKey: inferForeignKeyTarget(columnName),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlfed: iterate introspection rows: %w", err)
	}

	tables := make([]Table, 0, len(order))
	for _, name := range order {
		tables = append(tables, *tablesByName[name])
	}
	return tables, nil
}

// inferForeignKeyTarget applies the "{table}_id" naming convention: a
// column named "customer_id" is inferred to reference table "customers".
func inferForeignKeyTarget(columnName string) string {
	if columnName == "id" || !strings.HasSuffix(columnName, "_id") {
		return ""
	}
	base := strings.TrimSuffix(columnName, "_id")
	if base == "" {
		return ""
	}
	if strings.HasSuffix(base, "s") {
		return base
	}
	return base + "s"
}
