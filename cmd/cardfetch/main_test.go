package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"cardfetch/internal/config"
	"cardfetch/internal/pipeline"
	"cardfetch/internal/storage"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Defaults()
	require.NoError(t, err)
	tmp := t.TempDir()
	cfg.InputPath = filepath.Join(tmp, "Input.csv")
	cfg.OutputPath = filepath.Join(tmp, "out", "yugioh_cards.csv")
	cfg.DBPath = filepath.Join(tmp, "data", "cardfetch.db")
	cfg.RequestDelayMs = 0
	cfg.LogLevel = "error"
	return cfg
}

func TestRunBatchMissingInputReturnsError(t *testing.T) {
	cfg := testConfig(t)
	var stdout bytes.Buffer

	err := runBatch(context.Background(), cfg, &stdout)
	require.ErrorIs(t, err, pipeline.ErrInputMissing)
	require.Contains(t, err.Error(), "must have column 'name'")
	require.Empty(t, stdout.String())

	_, statErr := os.Stat(cfg.OutputPath)
	require.True(t, os.IsNotExist(statErr))
}

func TestRunBatchWritesOutputAndClosesLedger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("name") != "Pot of Greed" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"No card matching your query was found in the database."}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":55144522,"name":"Pot of Greed","humanReadableCardType":"Normal Spell","desc":"Draw 2 cards."}]}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.APIBaseURL = srv.URL
	require.NoError(t, os.WriteFile(cfg.InputPath, []byte("id,name\n1,Pot of Greed\n2,\n3,Nonexistent\n"), 0o644))

	var stdout bytes.Buffer
	require.NoError(t, runBatch(context.Background(), cfg, &stdout))
	require.True(t, strings.HasPrefix(stdout.String(), "done trace="), stdout.String())
	require.Contains(t, stdout.String(), "saved=1 failed=1 skipped=1")

	blob, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(blob)), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[1], "1,55144522,Pot of Greed,Spell,"), lines[1])

	// The ledger was closed on return, so a fresh handle sees the finished run.
	db, err := storage.Open(cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.ListRuns(1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].FinishedAt)
}
