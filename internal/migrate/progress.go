package migrate

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is the stage a run is in.
type Phase string

const (
	PhaseInit           Phase = "init"
	PhaseCreateDatabase Phase = "create_database"
	PhaseIntrospect     Phase = "introspect"
	PhaseSchema         Phase = "schema"
	PhaseData           Phase = "data"
	PhaseDone           Phase = "done"
)

// Table states.
const (
	TablePending      = "pending"
	TableCreated      = "created"
	TableSkipped      = "skipped"
	TableTransferring = "transferring"
	TableCompleted    = "completed"
	TableFailed       = "failed"
)

type FailedTable struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type TableStatus struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	TotalRows    int64  `json:"totalRows"`
	MigratedRows int64  `json:"migratedRows"`
	Percent      int    `json:"percent"`
	Batches      int    `json:"batches"`
}

type Status struct {
	Running       bool          `json:"running"`
	Database      string        `json:"database"`
	Overall       int           `json:"overallPercent"`
	ElapsedSec    int64         `json:"elapsedSeconds"`
	CurrentPhase  Phase         `json:"currentPhase"`
	LogMessage    string        `json:"logMessage"`
	TableProgress []TableStatus `json:"tables"`
	FailedTables  []FailedTable `json:"failedTables,omitempty"`
}

// Progress tracks a run for the status server. It is safe for concurrent
// use; the run writes while HTTP handlers read snapshots.
type Progress struct {
	mu        sync.Mutex
	startedAt time.Time
	status    Status
}

func NewProgress(database string) *Progress {
	return &Progress{
		startedAt: time.Now(),
		status: Status{
			Running:      true,
			Database:     database,
			CurrentPhase: PhaseInit,
		},
	}
}

// Snapshot returns a copy of the current status.
func (p *Progress) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.status
	s.ElapsedSec = int64(time.Since(p.startedAt).Seconds())
	s.TableProgress = append([]TableStatus(nil), p.status.TableProgress...)
	s.FailedTables = append([]FailedTable(nil), p.status.FailedTables...)
	return s
}

// Table returns the status of one table.
func (p *Progress) Table(name string) (TableStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.status.TableProgress {
		if t.Name == name {
			return t, true
		}
	}
	return TableStatus{}, false
}

func (p *Progress) SetDatabase(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Database = name
}

func (p *Progress) SetPhase(phase Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.CurrentPhase = phase
}

func (p *Progress) Log(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.LogMessage = msg
}

// SetTables registers the tables of the run, all pending.
func (p *Progress) SetTables(names []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.TableProgress = make([]TableStatus, len(names))
	for i, n := range names {
		p.status.TableProgress[i] = TableStatus{Name: n, Status: TablePending}
	}
}

func (p *Progress) UpdateTable(name, status string, total, migrated int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.find(name)
	if t == nil {
		return
	}
	t.Status = status
	t.TotalRows = total
	t.MigratedRows = migrated
	t.Percent = percent(migrated, total)
	p.recompute()
}

// SetStatus changes only the state of a table.
func (p *Progress) SetStatus(name, status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t := p.find(name); t != nil {
		t.Status = status
	}
}

// AddBatch records one committed batch of a transferring table.
func (p *Progress) AddBatch(name string, done, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.find(name)
	if t == nil {
		return
	}
	t.Batches++
	t.TotalRows = total
	t.MigratedRows = done
	t.Percent = percent(done, total)
	p.recompute()
}

func (p *Progress) AddFailedTable(name, status, errMsg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t := p.find(name); t != nil {
		t.Status = status
	}
	p.status.FailedTables = append(p.status.FailedTables, FailedTable{Name: name, Error: errMsg})
}

func (p *Progress) FinishWithError(errMsg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Running = false
	p.status.LogMessage = fmt.Sprintf("migration failed: %s (elapsed %ds)", errMsg, int64(time.Since(p.startedAt).Seconds()))
}

// Finish closes a run that got through every table. Failed tables are named
// in the final message and keep Overall below 100.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.Running = false
	p.status.CurrentPhase = PhaseDone
	elapsed := int64(time.Since(p.startedAt).Seconds())
	if n := len(p.status.FailedTables); n > 0 {
		names := make([]string, n)
		for i, f := range p.status.FailedTables {
			names[i] = f.Name
		}
		p.status.LogMessage = fmt.Sprintf("migration finished with %d failed table(s): %s (elapsed %ds)",
			n, strings.Join(names, ", "), elapsed)
		return
	}
	p.status.LogMessage = fmt.Sprintf("migration completed (elapsed %ds)", elapsed)
	p.status.Overall = 100
}

func (p *Progress) find(name string) *TableStatus {
	for i := range p.status.TableProgress {
		if p.status.TableProgress[i].Name == name {
			return &p.status.TableProgress[i]
		}
	}
	return nil
}

// recompute derives the overall percentage from the row counts known so far.
func (p *Progress) recompute() {
	var total, done int64
	for _, t := range p.status.TableProgress {
		total += t.TotalRows
		done += t.MigratedRows
	}
	p.status.Overall = percent(done, total)
}

func percent(done, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(float64(done) / float64(total) * 100.0)
}
