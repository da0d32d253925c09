package database

import "context"

// Source is the read-only contract the migration core needs from the
// database being migrated out of. Layers above this package talk only to
// this interface and never import the h2 package directly.
type Source interface {
	// Ping verifies the source is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close()

	// ListTables returns the table names of the configured schema, in the
	// order the source reports them.
	ListTables(ctx context.Context) ([]string, error)

	// ListColumns returns the column metadata of table in source-reported order.
	ListColumns(ctx context.Context, table string) ([]ColumnMeta, error)

	// CountRows returns the number of rows in table.
	CountRows(ctx context.Context, table string) (int64, error)

	// FetchPage returns the rows of one page. Each row holds its values in
	// the table's column order.
	FetchPage(ctx context.Context, req PageRequest) ([][]any, error)
}

// Target is the read-write contract the migration core needs from the
// database being created and written into.
type Target interface {
	// Ping verifies the target is reachable, reconnecting if the previous
	// connection was dropped.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close()

	// ListDatabases returns every database visible on the target server.
	ListDatabases(ctx context.Context) ([]string, error)

	// CreateDatabase creates name. It fails with a schema error when the
	// database already exists.
	CreateDatabase(ctx context.Context, name string) error

	// DropDatabase drops name if it exists.
	DropDatabase(ctx context.Context, name string) error

	// UseDatabase makes name the default database for every later statement.
	UseDatabase(ctx context.Context, name string) error

	// Exec runs a single DDL statement.
	Exec(ctx context.Context, stmt string) error

	// ExecBatch runs stmts in one transaction and commits it.
	ExecBatch(ctx context.Context, stmts []Statement) error
}

// Rows is the subset of a driver result set needed to collect raw values.
// pgx.Rows satisfies it directly.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Values returns the decoded values of the current row in column order.
	Values() ([]any, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}
