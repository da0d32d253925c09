package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/koustreak/dbferry/internal/logger"
	"github.com/koustreak/dbferry/internal/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProgress() *migrate.Progress {
	p := migrate.NewProgress("shop")
	p.SetPhase(migrate.PhaseData)
	p.SetTables([]string{"T", "U"})
	p.UpdateTable("T", migrate.TableTransferring, 10, 0)
	p.AddBatch("T", 4, 10)
	return p
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	h := New(":0", newProgress(), nil).Routes()

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestStatus(t *testing.T) {
	h := New(":0", newProgress(), nil).Routes()

	rec := get(t, h, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st migrate.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.Running)
	assert.Equal(t, "shop", st.Database)
	assert.Equal(t, migrate.PhaseData, st.CurrentPhase)
	require.Len(t, st.TableProgress, 2)
	assert.Equal(t, int64(4), st.TableProgress[0].MigratedRows)
}

func TestTableStatus(t *testing.T) {
	h := New(":0", newProgress(), nil).Routes()

	rec := get(t, h, "/status/tables/T")
	require.Equal(t, http.StatusOK, rec.Code)

	var ts migrate.TableStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ts))
	assert.Equal(t, "T", ts.Name)
	assert.Equal(t, 40, ts.Percent)

	rec = get(t, h, "/status/tables/NOPE")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown table NOPE")
}

func TestUnknownRoute(t *testing.T) {
	h := New(":0", newProgress(), nil).Routes()
	assert.Equal(t, http.StatusNotFound, get(t, h, "/nope").Code)
}

func TestRequestLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: "info", Format: "json", Output: &buf})

	h := New(":0", newProgress(), log).Routes()
	get(t, h, "/healthz")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["message"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/healthz", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.Equal(t, "status", entry["component"])
}

func TestUnknownTableLogsWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: "info", Format: "json", Output: &buf})

	h := New(":0", newProgress(), log).Routes()
	require.Equal(t, http.StatusNotFound, get(t, h, "/status/tables/NOPE").Code)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var warn, access map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &warn))
	require.NoError(t, json.Unmarshal(lines[1], &access))
	assert.Equal(t, "status requested for unknown table", warn["message"])
	assert.Equal(t, "NOPE", warn["table"])
	assert.Equal(t, "status", warn["component"])
	assert.NotEmpty(t, warn["request_id"])
	assert.Equal(t, access["request_id"], warn["request_id"])
}

func TestStartShutdown(t *testing.T) {
	s := New("127.0.0.1:0", newProgress(), nil)
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}
