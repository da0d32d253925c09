// Package migrate runs a full migration: create the target database, read
// the source catalog, create every table, then copy every table's rows.
//
// Failures creating the database or reading the catalog stop the run. A
// table whose CREATE TABLE is rejected is skipped for the data phase, and a
// table whose transfer fails is abandoned; the remaining tables continue
// in both cases.
package migrate

import (
	"context"
	"errors"

	"github.com/koustreak/dbferry/internal/database"
	"github.com/koustreak/dbferry/internal/errs"
	"github.com/koustreak/dbferry/internal/logger"
	"github.com/koustreak/dbferry/internal/schema"
	"github.com/koustreak/dbferry/internal/transfer"
)

// Options configures a run.
type Options struct {
	// Database is created on the target and receives every table.
	Database string

	// Reset drops Database before creating it.
	Reset bool

	// Tables restricts the run to these source tables. Empty means all.
	Tables []string

	Transfer transfer.Options
}

// Migrator moves one source schema into one new target database.
type Migrator struct {
	src      database.Source
	dst      database.Target
	log      *logger.Logger
	progress *Progress
}

// New creates a Migrator. The caller owns both connections.
func New(src database.Source, dst database.Target, log *logger.Logger) *Migrator {
	if log == nil {
		log = logger.Discard()
	}
	return &Migrator{
		src:      src,
		dst:      dst,
		log:      log.Component("migrate"),
		progress: NewProgress(""),
	}
}

// Progress returns the live progress of the run.
func (m *Migrator) Progress() *Progress {
	return m.progress
}

// Run executes the migration. The returned report is never nil. The error
// is a fatal error, or the join of every per-table failure.
func (m *Migrator) Run(ctx context.Context, opts Options) (*Report, error) {
	report := newReport(opts.Database)
	m.progress.SetDatabase(opts.Database)

	catalog, err := m.prepare(ctx, opts)
	if err != nil {
		m.log.ErrorWith("migration aborted", err, map[string]interface{}{"database": opts.Database})
		m.progress.FinishWithError(err.Error())
		report.finish(err)
		return report, err
	}

	tables := catalog.Tables()
	m.progress.SetTables(catalog.Names())
	for _, t := range tables {
		report.Tables = append(report.Tables, TableReport{Name: t.Name, Status: TablePending, Columns: len(t.Columns)})
	}

	var failures []error

	// Schema phase: every table before any data.
	m.progress.SetPhase(PhaseSchema)
	created := make([]schema.Table, 0, len(tables))
	for _, t := range tables {
		if err := schema.Materialize(ctx, m.dst, t); err != nil {
			m.log.ErrorWith("create table failed, skipping its data", err, map[string]interface{}{"table": t.Name})
			m.markFailed(report, t.Name, TableSkipped, err)
			failures = append(failures, err)
			continue
		}
		m.log.With().Str("table", t.Name).Logger().Info("table created")
		m.progress.SetStatus(t.Name, TableCreated)
		report.table(t.Name).Status = TableCreated
		created = append(created, t)
	}

	// Data phase.
	m.progress.SetPhase(PhaseData)
	engine := transfer.New(m.src, m.dst, opts.Transfer, m.log)
	engine.OnBatch(func(s transfer.BatchStats) {
		m.progress.AddBatch(s.Table, s.Done, s.Total)
	})

	for _, t := range created {
		if err := ctx.Err(); err != nil {
			failures = append(failures, errs.Wrap(errs.ErrKindTimeout, "migration canceled", err))
			break
		}

		m.progress.UpdateTable(t.Name, TableTransferring, 0, 0)
		m.progress.Log("transferring " + t.Name)
		res, err := engine.Transfer(ctx, t)
		if res != nil {
			report.applyResult(res)
		}
		if err != nil {
			m.log.ErrorWith("table transfer aborted", err, map[string]interface{}{"table": t.Name})
			m.markFailed(report, t.Name, TableFailed, err)
			failures = append(failures, err)
			continue
		}

		m.progress.UpdateTable(t.Name, TableCompleted, res.Total, res.Done)
		report.table(t.Name).Status = TableCompleted
		m.log.With().Str("table", t.Name).Int64("rows", res.Done).Logger().Info("table migrated")
	}

	runErr := errors.Join(failures...)
	m.progress.Finish()
	report.finish(runErr)
	return report, runErr
}

// prepare runs the fatal steps: target database creation and introspection.
func (m *Migrator) prepare(ctx context.Context, opts Options) (*schema.Catalog, error) {
	if opts.Database == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "target database name is required")
	}

	m.progress.SetPhase(PhaseCreateDatabase)
	if opts.Reset {
		m.log.With().Str("database", opts.Database).Logger().Warn("dropping target database")
		if err := m.dst.DropDatabase(ctx, opts.Database); err != nil {
			return nil, asKind(errs.ErrKindSchema, "failed to drop target database", err)
		}
	}

	m.log.With().Str("database", opts.Database).Logger().Info("creating target database")
	if err := m.dst.CreateDatabase(ctx, opts.Database); err != nil {
		return nil, asKind(errs.ErrKindSchema, "failed to create target database", err)
	}
	if err := m.dst.UseDatabase(ctx, opts.Database); err != nil {
		return nil, asKind(errs.ErrKindSchema, "failed to select target database", err)
	}

	m.progress.SetPhase(PhaseIntrospect)
	catalog, err := schema.Introspect(ctx, m.src, m.log)
	if err != nil {
		return nil, err
	}
	catalog, err = catalog.Filter(opts.Tables)
	if err != nil {
		return nil, err
	}
	m.log.Infof("found %d tables", catalog.Len())
	return catalog, nil
}

func (m *Migrator) markFailed(report *Report, table, status string, err error) {
	m.progress.AddFailedTable(table, status, err.Error())
	if t := report.table(table); t != nil {
		t.Status = status
		t.Error = err.Error()
	}
}

// asKind keeps an *errs.Error as is and wraps anything else with kind.
func asKind(kind errs.ErrKind, msg string, err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.Wrap(kind, msg, err)
}
