package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmhttp "github.com/chatagent/code-analyzer/internal/adapter/llm/http"
	"github.com/chatagent/code-analyzer/internal/domain"
)

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content, msg string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	_, err = wt.Add(name)
	require.NoError(t, err)

	hash, err := wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash
}

// newFixtureRemote builds a repository with one commit on master and a
// refs/pull/5/head ref adding feature.go.
func newFixtureRemote(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	commitFile(t, repo, dir, "base.go", "package base", "initial")

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("feature"),
		Create: true,
	}))
	featureHash := commitFile(t, repo, dir, "feature.go", "package feature", "add feature")

	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewHashReference("refs/pull/5/head", featureHash)))

	require.NoError(t, wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName("master"),
	}))
	return dir
}

func cloneFixture(t *testing.T, remote string) *Clone {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainClone(dir, false, &gogit.CloneOptions{URL: remote})
	require.NoError(t, err)
	return &Clone{Dir: dir, repo: repo}
}

func prRequest(n int) *domain.AnalysisRequest {
	return &domain.AnalysisRequest{
		Token: "secret",
		Repository: &domain.RepositoryDescriptor{
			Kind:              domain.ProviderGitHub,
			Owner:             "acme",
			Repo:              "widgets",
			PullRequestNumber: domain.PRNumber(n),
		},
	}
}

type stubLister struct {
	files []string
	err   error
}

func (s *stubLister) ListPullRequestFiles(ctx context.Context, repo *domain.RepositoryDescriptor, token string) ([]string, error) {
	return s.files, s.err
}

func TestResolveUsesProviderAPIList(t *testing.T) {
	clone := cloneFixture(t, newFixtureRemote(t))

	lister := &stubLister{files: []string{"base.go", "does-not-exist.go"}}
	m := NewManager("", lister, llmhttp.NopLogger{}, 0)

	files, err := m.ResolvePullRequestFiles(context.Background(), clone, prRequest(5))

	require.NoError(t, err)
	assert.Equal(t, []string{"base.go"}, files)
}

func TestFinalizeAppendsUntrackedFiles(t *testing.T) {
	clone := cloneFixture(t, newFixtureRemote(t))
	require.NoError(t, os.WriteFile(filepath.Join(clone.Dir, "untracked.go"), []byte("package u"), 0o644))

	m := NewManager("", nil, llmhttp.NopLogger{}, 0)

	files := m.finalize(context.Background(), clone, []string{"base.go"})

	assert.Contains(t, files, "base.go")
	assert.Contains(t, files, "untracked.go")
}

func TestFinalizeUntrackedOrderIsStable(t *testing.T) {
	clone := cloneFixture(t, newFixtureRemote(t))
	for _, name := range []string{"zz.go", "aa.go", "mm.go"} {
		require.NoError(t, os.WriteFile(filepath.Join(clone.Dir, name), []byte("package x"), 0o644))
	}

	m := NewManager("", nil, llmhttp.NopLogger{}, 0)

	files := m.finalize(context.Background(), clone, []string{"base.go"})

	assert.Equal(t, []string{"base.go", "aa.go", "mm.go", "zz.go"}, files)
}

func TestFinalizeDropsMissingAndDuplicatePaths(t *testing.T) {
	clone := cloneFixture(t, newFixtureRemote(t))

	m := NewManager("", nil, llmhttp.NopLogger{}, 0)

	files := m.finalize(context.Background(), clone, []string{"base.go", "base.go", "gone.go", ""})

	assert.Equal(t, []string{"base.go"}, files)
}

func TestResolveFallsBackToLocalRef(t *testing.T) {
	clone := cloneFixture(t, newFixtureRemote(t))

	// API lister fails; the PR ref fetched from origin must provide the diff
	lister := &stubLister{err: errors.New("api unavailable")}
	m := NewManager("", lister, llmhttp.NopLogger{}, 0)

	files, err := m.ResolvePullRequestFiles(context.Background(), clone, prRequest(5))

	require.NoError(t, err)
	assert.Equal(t, []string{"feature.go"}, files)
}

func TestResolveWithoutListerUsesLocalRef(t *testing.T) {
	clone := cloneFixture(t, newFixtureRemote(t))

	m := NewManager("", nil, llmhttp.NopLogger{}, 0)

	files, err := m.ResolvePullRequestFiles(context.Background(), clone, prRequest(5))

	require.NoError(t, err)
	assert.Equal(t, []string{"feature.go"}, files)
}

func TestResolveUnresolvablePRReturnsEmpty(t *testing.T) {
	clone := cloneFixture(t, newFixtureRemote(t))

	m := NewManager("", nil, llmhttp.NopLogger{}, 0)

	files, err := m.ResolvePullRequestFiles(context.Background(), clone, prRequest(99))

	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestResolveCapsFileCount(t *testing.T) {
	remoteDir := t.TempDir()
	remote, err := gogit.PlainInit(remoteDir, false)
	require.NoError(t, err)

	var listed []string
	for i := 0; i < 25; i++ {
		name := fmt.Sprintf("gen/file%02d.go", i)
		listed = append(listed, name)
	}
	wt, err := remote.Worktree()
	require.NoError(t, err)
	for _, name := range listed {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(remoteDir, name)), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(remoteDir, name), []byte("package gen"), 0o644))
		_, err = wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("bulk", &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	clone := cloneFixture(t, remoteDir)
	lister := &stubLister{files: listed}
	m := NewManager("", lister, llmhttp.NopLogger{}, 20)

	files, err := m.ResolvePullRequestFiles(context.Background(), clone, prRequest(99))

	require.NoError(t, err)
	assert.Len(t, files, 20)
}

func TestDetectBaseBranch(t *testing.T) {
	clone := cloneFixture(t, newFixtureRemote(t))
	m := NewManager("", nil, llmhttp.NopLogger{}, 0)

	assert.Equal(t, "master", m.detectBaseBranch(clone))
}

func TestRecentCommitFiles(t *testing.T) {
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "one.go", "package one", "first")
	commitFile(t, repo, dir, "two.go", "package two", "second")

	clone := &Clone{Dir: dir, repo: repo}
	m := NewManager("", nil, llmhttp.NopLogger{}, 0)

	files, err := m.recentCommitFiles(context.Background(), clone)

	require.NoError(t, err)
	assert.Contains(t, files, "one.go")
	assert.Contains(t, files, "two.go")
}
