package migrate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/koustreak/dbferry/internal/errs"
	"github.com/koustreak/dbferry/internal/filestore"
	"github.com/koustreak/dbferry/internal/transfer"
)

// Report summarises a finished run.
type Report struct {
	Database   string        `json:"database"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	DurationMS int64         `json:"durationMs"`
	Succeeded  bool          `json:"succeeded"`
	Error      string        `json:"error,omitempty"`
	Tables     []TableReport `json:"tables"`
}

// TableReport is the outcome of one table.
type TableReport struct {
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	Columns      int     `json:"columns"`
	TotalRows    int64   `json:"totalRows"`
	MigratedRows int64   `json:"migratedRows"`
	Batches      int     `json:"batches"`
	ReadMS       float64 `json:"readMs"`
	FormatMS     float64 `json:"formatMs"`
	WriteMS      float64 `json:"writeMs"`
	DurationMS   int64   `json:"durationMs"`
	Error        string  `json:"error,omitempty"`
}

func newReport(database string) *Report {
	return &Report{Database: database, StartedAt: time.Now().UTC()}
}

func (r *Report) table(name string) *TableReport {
	for i := range r.Tables {
		if r.Tables[i].Name == name {
			return &r.Tables[i]
		}
	}
	return nil
}

func (r *Report) applyResult(res *transfer.Result) {
	t := r.table(res.Table)
	if t == nil {
		return
	}
	t.TotalRows = res.Total
	t.MigratedRows = res.Done
	t.Batches = res.Batches
	t.ReadMS = ms(res.Read)
	t.FormatMS = ms(res.Format)
	t.WriteMS = ms(res.Write)
	t.DurationMS = res.Duration.Milliseconds()
}

func (r *Report) finish(err error) {
	r.FinishedAt = time.Now().UTC()
	r.DurationMS = r.FinishedAt.Sub(r.StartedAt).Milliseconds()
	r.Succeeded = err == nil
	if err != nil {
		r.Error = err.Error()
	}
}

// Failed returns the tables that did not complete.
func (r *Report) Failed() []TableReport {
	var out []TableReport
	for _, t := range r.Tables {
		if t.Status == TableFailed || t.Status == TableSkipped {
			out = append(out, t)
		}
	}
	return out
}

// JSON renders the report for humans and machines alike.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ReportKey is the object key a report is stored under:
// <prefix><database>-<unix seconds>.json
func ReportKey(prefix, database string, at time.Time) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%s%s-%d.json", prefix, database, at.Unix())
}

// PublishReport uploads r to bucket and returns its key.
func PublishReport(ctx context.Context, store filestore.Store, bucket, prefix string, r *Report) (string, error) {
	body, err := r.JSON()
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "failed to encode report", err)
	}
	if err := store.EnsureBucket(ctx, bucket); err != nil {
		return "", err
	}

	at := r.FinishedAt
	if at.IsZero() {
		at = time.Now()
	}
	key := ReportKey(prefix, r.Database, at)
	if _, err := store.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
