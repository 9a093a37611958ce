package storage

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cardfetch/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.StartRun("trace-1", "Input.csv", "out.csv", "b")
	require.NoError(t, err)

	outcomes := []internal.RowOutcome{
		{LineNo: 1, ExternalID: "1", Name: "Dark Magician", Status: internal.OutcomeSaved, Passcode: "46986414"},
		{LineNo: 2, Name: "Nonexistent", Status: internal.OutcomeFailed, Error: "no matching card"},
		{LineNo: 3, Status: internal.OutcomeSkipped},
		{LineNo: 4, ExternalID: "7", Name: "Also Missing", Status: internal.OutcomeFailed, Error: "status=500"},
	}
	for _, o := range outcomes {
		require.NoError(t, db.RecordOutcome(runID, o))
	}
	require.NoError(t, db.FinishRun(runID, internal.RunSummary{TraceID: "trace-1", Total: 4, Saved: 1, Failed: 2, Skipped: 1}))

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "trace-1", runs[0].TraceID)
	require.NotNil(t, runs[0].FinishedAt)

	var counts map[string]int
	require.NoError(t, json.Unmarshal([]byte(runs[0].CountsJSON), &counts))
	require.Equal(t, map[string]int{"total": 4, "saved": 1, "failed": 2, "skipped": 1}, counts)

	failed, err := db.FailedRows("trace-1")
	require.NoError(t, err)
	require.Equal(t, []internal.InputRow{
		{LineNo: 2, Name: "Nonexistent"},
		{LineNo: 4, ExternalID: "7", Name: "Also Missing"},
	}, failed)

	last, err := db.GetMetadata("runs.last_trace_id")
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, "trace-1", *last)
}

func TestFailedRowsUnknownRun(t *testing.T) {
	db := openTestDB(t)
	_, err := db.FailedRows("missing")
	require.Error(t, err)
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	for _, trace := range []string{"a", "b", "c"} {
		_, err := db.StartRun(trace, "in", "out", "a")
		require.NoError(t, err)
	}
	runs, err := db.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "c", runs[0].TraceID)
	require.Equal(t, "b", runs[1].TraceID)
	require.Nil(t, runs[0].FinishedAt)
}

func TestMetadataMissing(t *testing.T) {
	db := openTestDB(t)
	v, err := db.GetMetadata("nope")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestBlankOutcomeFieldsStoredAsNull(t *testing.T) {
	db := openTestDB(t)

	runID, err := db.StartRun("trace-null", "Input.csv", "out.csv", "a")
	require.NoError(t, err)
	require.NoError(t, db.RecordOutcome(runID, internal.RowOutcome{LineNo: 1, Name: "Pot of Greed", Status: internal.OutcomeSaved, Passcode: "55144522"}))

	var externalID, errText sql.NullString
	var passcode string
	require.NoError(t, db.conn.QueryRow(`SELECT externalId, passcode, error FROM row_outcomes WHERE runId = ?`, runID).
		Scan(&externalID, &passcode, &errText))
	require.False(t, externalID.Valid)
	require.False(t, errText.Valid)
	require.Equal(t, "55144522", passcode)
}
