// Package dbtest provides in-memory database.Source and database.Target
// implementations for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/koustreak/dbferry/internal/database"
)

// Source is an in-memory database.Source.
type Source struct {
	mu sync.Mutex

	TableOrder []string
	Columns    map[string][]database.ColumnMeta
	Rows       map[string][][]any

	ListErr   error
	ColumnErr map[string]error
	CountErr  map[string]error
	// Counts, when set for a table, replaces its real row count.
	Counts map[string]int64
	// FetchErr fails the fetch of table at the given offset.
	FetchErr map[string]map[int64]error

	Pages  []database.PageRequest
	Closed bool
}

var _ database.Source = (*Source)(nil)

// NewSource returns an empty Source.
func NewSource() *Source {
	return &Source{
		Columns:   map[string][]database.ColumnMeta{},
		Rows:      map[string][][]any{},
		ColumnErr: map[string]error{},
		CountErr:  map[string]error{},
		Counts:    map[string]int64{},
		FetchErr:  map[string]map[int64]error{},
	}
}

// AddTable registers a table with its columns and rows.
func (s *Source) AddTable(name string, cols []database.ColumnMeta, rows [][]any) *Source {
	s.TableOrder = append(s.TableOrder, name)
	s.Columns[name] = cols
	s.Rows[name] = rows
	return s
}

// FailFetch makes the fetch of table at offset return err.
func (s *Source) FailFetch(table string, offset int64, err error) *Source {
	if s.FetchErr[table] == nil {
		s.FetchErr[table] = map[int64]error{}
	}
	s.FetchErr[table][offset] = err
	return s
}

func (s *Source) Ping(context.Context) error { return nil }

func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
}

func (s *Source) ListTables(context.Context) ([]string, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return append([]string(nil), s.TableOrder...), nil
}

func (s *Source) ListColumns(_ context.Context, table string) ([]database.ColumnMeta, error) {
	if err := s.ColumnErr[table]; err != nil {
		return nil, err
	}
	cols, ok := s.Columns[table]
	if !ok {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return append([]database.ColumnMeta(nil), cols...), nil
}

func (s *Source) CountRows(_ context.Context, table string) (int64, error) {
	if err := s.CountErr[table]; err != nil {
		return 0, err
	}
	if n, ok := s.Counts[table]; ok {
		return n, nil
	}
	return int64(len(s.Rows[table])), nil
}

func (s *Source) FetchPage(ctx context.Context, req database.PageRequest) ([][]any, error) {
	s.mu.Lock()
	s.Pages = append(s.Pages, req)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.FetchErr[req.Table][req.Offset]; err != nil {
		return nil, err
	}
	rows := s.Rows[req.Table]
	start := min(req.Offset, int64(len(rows)))
	end := min(req.Offset+req.Limit, int64(len(rows)))
	out := make([][]any, 0, end-start)
	for _, r := range rows[start:end] {
		out = append(out, append([]any(nil), r...))
	}
	return out, nil
}

// Target is an in-memory database.Target that records every statement.
type Target struct {
	mu sync.Mutex

	Databases []string
	Current   string

	// Executed holds every statement passed to Exec, successful or not.
	Executed []string
	// Batches holds every committed ExecBatch call.
	Batches [][]database.Statement
	Dropped []string
	Pings   int
	Closed  bool

	// ExecErr, when set, is consulted for every Exec call.
	ExecErr func(stmt string) error
	// BatchErr, when set, is consulted for every ExecBatch call with its
	// zero-based call number.
	BatchErr func(call int, stmts []database.Statement) error
	calls    int
}

var _ database.Target = (*Target)(nil)

// NewTarget returns a Target that already holds the given databases.
func NewTarget(existing ...string) *Target {
	return &Target{Databases: existing}
}

func (t *Target) Ping(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Pings++
	return nil
}

func (t *Target) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
}

func (t *Target) ListDatabases(context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.Databases...), nil
}

func (t *Target) CreateDatabase(_ context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, db := range t.Databases {
		if db == name {
			return fmt.Errorf("database %s already exists", name)
		}
	}
	t.Databases = append(t.Databases, name)
	return nil
}

func (t *Target) DropDatabase(_ context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.Databases[:0]
	for _, db := range t.Databases {
		if db != name {
			kept = append(kept, db)
		}
	}
	t.Databases = kept
	t.Dropped = append(t.Dropped, name)
	return nil
}

func (t *Target) UseDatabase(_ context.Context, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Current = name
	return nil
}

func (t *Target) Exec(_ context.Context, stmt string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Executed = append(t.Executed, stmt)
	if t.ExecErr != nil {
		return t.ExecErr(stmt)
	}
	return nil
}

func (t *Target) ExecBatch(ctx context.Context, stmts []database.Statement) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Pings++
	call := t.calls
	t.calls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.BatchErr != nil {
		if err := t.BatchErr(call, stmts); err != nil {
			return err
		}
	}
	t.Batches = append(t.Batches, append([]database.Statement(nil), stmts...))
	return nil
}

// InsertedSQL returns the SQL of every committed statement in order.
func (t *Target) InsertedSQL() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for _, b := range t.Batches {
		for _, st := range b {
			out = append(out, st.SQL)
		}
	}
	return out
}

// FailOn returns an ExecErr func failing every statement containing substr.
func FailOn(substr string, err error) func(string) error {
	return func(stmt string) error {
		if strings.Contains(stmt, substr) {
			return err
		}
		return nil
	}
}
