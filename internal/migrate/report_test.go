package migrate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/koustreak/dbferry/internal/filestore/filestoretest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportKey(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Equal(t, "reports/shop-1700000000.json", ReportKey("reports/", "shop", at))
	assert.Equal(t, "reports/shop-1700000000.json", ReportKey("reports", "shop", at))
	assert.Equal(t, "shop-1700000000.json", ReportKey("", "shop", at))
}

func TestPublishReport(t *testing.T) {
	r := newReport("shop")
	r.Tables = []TableReport{{Name: "T", Status: TableCompleted, TotalRows: 2, MigratedRows: 2}}
	r.finish(nil)

	store := filestoretest.New()
	key, err := PublishReport(context.Background(), store, "dbferry", "reports/", r)
	require.NoError(t, err)

	assert.True(t, store.Buckets["dbferry"])
	assert.Equal(t, ReportKey("reports/", "shop", r.FinishedAt), key)
	assert.Equal(t, "application/json", store.Objects["dbferry"][key].ContentType)

	var decoded Report
	require.NoError(t, json.Unmarshal(store.Body("dbferry", key), &decoded))
	assert.Equal(t, "shop", decoded.Database)
	assert.True(t, decoded.Succeeded)
	assert.Equal(t, int64(2), decoded.Tables[0].MigratedRows)
}

func TestPublishReport_PutError(t *testing.T) {
	store := filestoretest.New()
	store.PutErr = errors.New("bucket full")

	_, err := PublishReport(context.Background(), store, "dbferry", "", newReport("shop"))
	assert.ErrorIs(t, err, store.PutErr)
}

func TestReport_FinishWithError(t *testing.T) {
	r := newReport("shop")
	r.finish(errors.New("two tables failed"))

	assert.False(t, r.Succeeded)
	assert.Equal(t, "two tables failed", r.Error)

	body, err := r.JSON()
	require.NoError(t, err)
	assert.True(t, bytes.Contains(body, []byte(`"error": "two tables failed"`)))
}
