package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/lazypower/counsel/internal/engine"
	"github.com/lazypower/counsel/internal/server"
	"github.com/lazypower/counsel/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: warn\n"), 0600))
	rootCmd.SetArgs(append(args, "--config", cfgPath))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestApproveAndListLocal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "counsel.db")
	t.Setenv("COUNSEL_DB", dbPath)

	db, err := store.Open(dbPath)
	require.NoError(t, err)
	_, err = engine.New(db, zap.NewNop()).CreateDecision(context.Background(), engine.DecisionInput{
		ID: "d1", Objective: "Launch checkout", Recommendation: "PROCEED", Confidence: "HIGH",
		Signals: store.Signals{Financial: "ok", Risk: "low", Complexity: "low"},
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err := run(t, "approve", "d1", "--adjust", "0.5")
	require.NoError(t, err)
	assert.Contains(t, out, "reward +1.50")
	assert.Contains(t, out, "weights updated: 6/6")

	out, err = run(t, "decisions", "--objective", "checkout")
	require.NoError(t, err)
	assert.Contains(t, out, "[+1.500] d1 PROCEED (HIGH)")
	assert.Contains(t, out, "1 of 1")

	out, err = run(t, "weights", "--source-type", "signal")
	require.NoError(t, err)
	assert.Contains(t, out, "signal/risk:low -> PROCEED")
	assert.Contains(t, out, "3 of 3")

	_, err = run(t, "approve", "missing", "--reject")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWeightsRemote(t *testing.T) {
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	eng := engine.New(db, zap.NewNop())
	_, err = eng.CreateDecision(context.Background(), engine.DecisionInput{
		ID: "r1", Objective: "Remote check", Recommendation: "HALT now", Confidence: "LOW",
	})
	require.NoError(t, err)
	_, err = eng.RecordApproval(context.Background(), engine.ApprovalInput{DecisionID: "r1", Approved: false})
	require.NoError(t, err)

	ts := httptest.NewServer(server.New(db, eng, zap.NewNop(), "test"))
	t.Cleanup(ts.Close)
	t.Cleanup(func() { serverURL, weightsSourceType, weightsSourceID = "", "", "" })

	out, err := run(t, "weights", "--server", ts.URL, "--source-type", "decision", "--source-id", "r1")
	require.NoError(t, err)
	assert.Contains(t, out, "-1.0000  x1    decision/r1 -> HALT")
	assert.Contains(t, out, "1 of 1")
}
