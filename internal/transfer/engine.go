// Package transfer copies table rows from the source to the target in
// fixed-size batches. Each batch is fetched, formatted, written and
// committed before the next one starts.
package transfer

import (
	"context"
	"time"

	"github.com/koustreak/dbferry/internal/database"
	"github.com/koustreak/dbferry/internal/errs"
	"github.com/koustreak/dbferry/internal/logger"
	"github.com/koustreak/dbferry/internal/schema"
)

// DefaultBatchSize is the number of rows per batch when none is configured.
const DefaultBatchSize = 1000

// Options tunes a transfer.
type Options struct {
	BatchSize int64
	Mode      InsertMode

	// OrderByKey orders pages by the table's key columns, when it has any,
	// so that OFFSET paging is stable.
	OrderByKey bool

	// BatchTimeout bounds each fetch and each write. Zero means no limit.
	BatchTimeout time.Duration
}

// BatchStats reports one committed batch.
type BatchStats struct {
	Table  string
	Offset int64
	Rows   int
	Done   int64
	Total  int64
	Read   time.Duration
	Format time.Duration
	Write  time.Duration
}

// Result summarises the transfer of one table. On failure it describes the
// batches committed before the error.
type Result struct {
	Table    string
	Total    int64
	Done     int64
	Batches  int
	Read     time.Duration
	Format   time.Duration
	Write    time.Duration
	Duration time.Duration
}

// Engine runs table transfers between one source and one target.
type Engine struct {
	src     database.Source
	dst     database.Target
	opts    Options
	log     *logger.Logger
	onBatch func(BatchStats)
}

// New creates an Engine. Zero options fall back to DefaultBatchSize and
// InsertLiteral.
func New(src database.Source, dst database.Target, opts Options, log *logger.Logger) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Mode == "" {
		opts.Mode = InsertLiteral
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{src: src, dst: dst, opts: opts, log: log.Component("transfer")}
}

// OnBatch registers fn to be called after every committed batch.
func (e *Engine) OnBatch(fn func(BatchStats)) {
	e.onBatch = fn
}

// Transfer copies every row of t. The first failing batch aborts the table;
// batches committed before it stay committed.
func (e *Engine) Transfer(ctx context.Context, t schema.Table) (*Result, error) {
	start := time.Now()
	res := &Result{Table: t.Name}
	defer func() { res.Duration = time.Since(start) }()

	if len(t.Columns) == 0 {
		return res, errs.New(errs.ErrKindTransfer, "table has no columns").ForTable(t.Name)
	}

	total, err := e.src.CountRows(ctx, t.Name)
	if err != nil {
		return res, errs.Wrap(errs.ErrKindTransfer, "failed to count rows", err).ForTable(t.Name)
	}
	res.Total = total

	batches, err := PlanBatches(total, e.opts.BatchSize)
	if err != nil {
		return res, err
	}

	cols := t.ColumnNames()
	var orderBy []string
	if e.opts.OrderByKey {
		orderBy = t.KeyColumns()
	}

	log := e.log.With().Str("table", t.Name).Int64("total", total).Logger()
	log.Infof("exporting %d rows in %d batches", total, len(batches))

	for _, b := range batches {
		stats, err := e.runBatch(ctx, t.Name, cols, orderBy, b)
		if err != nil {
			return res, err
		}
		if stats.Rows == 0 {
			return res, errs.Errorf(errs.ErrKindTransfer,
				"source returned no rows, expected %d more", total-b.Offset).ForTable(t.Name).AtOffset(b.Offset)
		}

		res.Batches++
		res.Done = b.Offset + int64(stats.Rows)
		res.Read += stats.Read
		res.Format += stats.Format
		res.Write += stats.Write

		stats.Done = res.Done
		stats.Total = total
		e.log.Batch(t.Name, b.Offset, stats.Rows, stats.Done, total, stats.Read, stats.Format, stats.Write)
		if e.onBatch != nil {
			e.onBatch(stats)
		}
	}

	if res.Done < total {
		return res, errs.Errorf(errs.ErrKindTransfer,
			"source returned %d of %d rows", res.Done, total).ForTable(t.Name).AtOffset(res.Done)
	}
	return res, nil
}

// runBatch performs read, format and write of one window.
func (e *Engine) runBatch(ctx context.Context, table string, cols, orderBy []string, b Batch) (BatchStats, error) {
	stats := BatchStats{Table: table, Offset: b.Offset}

	readStart := time.Now()
	rows, err := e.fetch(ctx, database.PageRequest{
		Table:   table,
		OrderBy: orderBy,
		Offset:  b.Offset,
		Limit:   b.Size,
	})
	stats.Read = time.Since(readStart)
	if err != nil {
		return stats, errs.Wrap(errs.ErrKindTransfer, "failed to fetch batch", err).ForTable(table).AtOffset(b.Offset)
	}
	stats.Rows = len(rows)
	if len(rows) == 0 {
		return stats, nil
	}

	formatStart := time.Now()
	stmts, err := e.buildStatements(table, cols, rows)
	stats.Format = time.Since(formatStart)
	if err != nil {
		return stats, asTableError(err, table, b.Offset)
	}

	writeStart := time.Now()
	err = e.write(ctx, stmts)
	stats.Write = time.Since(writeStart)
	if err != nil {
		return stats, errs.Wrap(errs.ErrKindTransfer, "failed to write batch", err).ForTable(table).AtOffset(b.Offset)
	}
	return stats, nil
}

func (e *Engine) buildStatements(table string, cols []string, rows [][]any) ([]database.Statement, error) {
	for i, row := range rows {
		if len(row) != len(cols) {
			return nil, errs.Errorf(errs.ErrKindTransfer,
				"row %d has %d values for %d columns", i, len(row), len(cols))
		}
	}

	if e.opts.Mode == InsertParams {
		return BuildParamInserts(table, cols, rows)
	}

	literals := make([][]string, len(rows))
	for i, row := range rows {
		lits, err := RowLiterals(row)
		if err != nil {
			return nil, err
		}
		literals[i] = lits
	}
	return []database.Statement{{SQL: BuildLiteralInsert(table, cols, literals)}}, nil
}

func (e *Engine) fetch(ctx context.Context, req database.PageRequest) ([][]any, error) {
	ctx, cancel := e.batchContext(ctx)
	defer cancel()
	return e.src.FetchPage(ctx, req)
}

func (e *Engine) write(ctx context.Context, stmts []database.Statement) error {
	ctx, cancel := e.batchContext(ctx)
	defer cancel()
	return e.dst.ExecBatch(ctx, stmts)
}

func (e *Engine) batchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.BatchTimeout > 0 {
		return context.WithTimeout(ctx, e.opts.BatchTimeout)
	}
	return context.WithCancel(ctx)
}

// asTableError attaches the location to an *errs.Error, wrapping anything else.
func asTableError(err error, table string, offset int64) error {
	if e, ok := err.(*errs.Error); ok {
		return e.ForTable(table).AtOffset(offset)
	}
	return errs.Wrap(errs.ErrKindTransfer, "failed to build batch", err).ForTable(table).AtOffset(offset)
}
