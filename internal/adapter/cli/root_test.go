package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatagent/code-analyzer/internal/adapter/store/sqlite"
	"github.com/chatagent/code-analyzer/internal/usecase/work"
)

type stubRunner struct {
	err   error
	calls int
}

func (s *stubRunner) Run(ctx context.Context) error {
	s.calls++
	return s.err
}

type stubHistory struct {
	runs []sqlite.Run
	err  error
}

func (s *stubHistory) RecentRuns(ctx context.Context, limit int) ([]sqlite.Run, error) {
	return s.runs, s.err
}

func execute(t *testing.T, deps Dependencies, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	deps.Args = Arguments{OutWriter: out, ErrWriter: out}
	root := NewRootCommand(deps)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, Dependencies{Version: "v1.2.3"}, "--version")

	assert.ErrorIs(t, err, ErrVersionRequested)
	assert.Contains(t, out, "v1.2.3")
}

func TestServeRunsWorker(t *testing.T) {
	runner := &stubRunner{}

	_, err := execute(t, Dependencies{Runner: runner}, "serve")

	require.NoError(t, err)
	assert.Equal(t, 1, runner.calls)
}

func TestServePropagatesWorkerError(t *testing.T) {
	runner := &stubRunner{err: errors.New("subscription unreachable")}

	_, err := execute(t, Dependencies{Runner: runner}, "serve")

	assert.ErrorContains(t, err, "subscription unreachable")
}

func TestServeWithoutRunner(t *testing.T) {
	_, err := execute(t, Dependencies{}, "serve")

	assert.Error(t, err)
}

func TestRunsPrintsHistory(t *testing.T) {
	history := &stubHistory{runs: []sqlite.Run{
		{
			RunRecord: work.RunRecord{
				RunID:         "run-1",
				Repository:    "acme/widgets",
				Provider:      "Github",
				Mode:          "pull_request",
				FilesAnalyzed: 3,
				Posted:        true,
				Duration:      2 * time.Second,
			},
			CreatedAt: time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC),
		},
	}}

	out, err := execute(t, Dependencies{History: history}, "runs")

	require.NoError(t, err)
	assert.Contains(t, out, "acme/widgets")
	assert.Contains(t, out, "posted")
	assert.Contains(t, out, "files=3")
}

func TestRunsEmptyHistory(t *testing.T) {
	out, err := execute(t, Dependencies{History: &stubHistory{}}, "runs")

	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")
}

func TestRunsWithoutStore(t *testing.T) {
	_, err := execute(t, Dependencies{}, "runs")

	assert.ErrorContains(t, err, "disabled")
}
