package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/chatagent/code-analyzer/internal/domain"
)

// baseBranchCandidates are probed in order when detecting the branch a pull
// request targets.
var baseBranchCandidates = []string{"main", "master", "develop"}

const recentCommitWindow = 10

// ResolvePullRequestFiles determines which files the pull request changed.
// Three strategies run in order, first productive one wins:
//  1. the provider's REST API (plus a best-effort checkout of the PR head so
//     file contents match the PR);
//  2. fetching the PR ref locally and diffing it against the base branch,
//     with a recent-commit heuristic when the diff comes up empty;
//  3. falling back to the base branch with an empty set.
//
// Untracked files are appended and the result is filtered to paths that
// exist on disk, then truncated to the configured cap.
func (m *Manager) ResolvePullRequestFiles(ctx context.Context, clone *Clone, req *domain.AnalysisRequest) ([]string, error) {
	repo := req.Repository
	prNumber := repo.PullRequestNumber.Int()

	if err := m.fetchAll(ctx, clone); err != nil {
		m.logger.LogWarning(ctx, "fetch failed, continuing with clone state", map[string]interface{}{
			"error": err.Error(),
		})
	}

	base := m.detectBaseBranch(clone)
	m.checkoutRevision(ctx, clone, "origin/"+base)

	// Strategy 1: provider API
	if m.lister != nil {
		files, err := m.lister.ListPullRequestFiles(ctx, repo, req.Token)
		switch {
		case err != nil:
			m.logger.LogWarning(ctx, "provider file listing failed", map[string]interface{}{
				"provider": string(repo.Kind),
				"error":    err.Error(),
			})
		case len(files) > 0:
			// Content should match the PR head where possible; the API list
			// stands even when every checkout attempt fails.
			m.checkoutPullRequestHead(ctx, clone, prNumber)
			return m.finalize(ctx, clone, files), nil
		}
	}

	// Strategy 2: local PR ref
	if files, ok := m.resolveViaLocalRef(ctx, clone, prNumber, base); ok {
		return m.finalize(ctx, clone, files), nil
	}

	// Strategy 3: base branch, empty set
	m.logger.LogWarning(ctx, "could not resolve pull request files, falling back to base branch", map[string]interface{}{
		"pr":   prNumber,
		"base": base,
	})
	m.checkoutRevision(ctx, clone, "origin/"+base)
	return nil, nil
}

func (m *Manager) fetchAll(ctx context.Context, clone *Clone) error {
	err := clone.repo.FetchContext(ctx, &gogit.FetchOptions{})
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

func (m *Manager) detectBaseBranch(clone *Clone) string {
	for _, name := range baseBranchCandidates {
		if _, err := clone.repo.Reference(plumbing.NewRemoteReferenceName("origin", name), true); err == nil {
			return name
		}
	}
	return baseBranchCandidates[0]
}

// checkoutRevision checks out an arbitrary revision; failures are logged and
// swallowed because every caller treats checkout as best-effort.
func (m *Manager) checkoutRevision(ctx context.Context, clone *Clone, rev string) bool {
	hash, err := clone.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		m.logger.LogWarning(ctx, "cannot resolve revision", map[string]interface{}{
			"revision": rev,
			"error":    err.Error(),
		})
		return false
	}

	wt, err := clone.repo.Worktree()
	if err != nil {
		return false
	}
	if err := wt.Checkout(&gogit.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		m.logger.LogWarning(ctx, "checkout failed", map[string]interface{}{
			"revision": rev,
			"error":    err.Error(),
		})
		return false
	}
	return true
}

// checkoutPullRequestHead tries the known PR ref spellings, then a local
// fetch of the PR head. Best-effort.
func (m *Manager) checkoutPullRequestHead(ctx context.Context, clone *Clone, prNumber int) {
	for _, rev := range []string{
		fmt.Sprintf("refs/pull/%d/head", prNumber),
		fmt.Sprintf("pull/%d/head", prNumber),
		fmt.Sprintf("pr_%d", prNumber),
	} {
		if m.checkoutRevision(ctx, clone, rev) {
			return
		}
	}

	if err := m.fetchPullRequestRef(ctx, clone, prNumber); err != nil {
		m.logger.LogWarning(ctx, "could not fetch pull request head", map[string]interface{}{
			"pr":    prNumber,
			"error": err.Error(),
		})
		return
	}
	m.checkoutRevision(ctx, clone, fmt.Sprintf("pr_%d", prNumber))
}

func (m *Manager) fetchPullRequestRef(ctx context.Context, clone *Clone, prNumber int) error {
	spec := config.RefSpec(fmt.Sprintf("+refs/pull/%d/head:refs/heads/pr_%d", prNumber, prNumber))
	err := clone.repo.FetchContext(ctx, &gogit.FetchOptions{RefSpecs: []config.RefSpec{spec}})
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

func (m *Manager) resolveViaLocalRef(ctx context.Context, clone *Clone, prNumber int, base string) ([]string, bool) {
	if err := m.fetchPullRequestRef(ctx, clone, prNumber); err != nil {
		m.logger.LogWarning(ctx, "fetching pull request ref failed", map[string]interface{}{
			"pr":    prNumber,
			"error": err.Error(),
		})
		return nil, false
	}
	if !m.checkoutRevision(ctx, clone, fmt.Sprintf("pr_%d", prNumber)) {
		return nil, false
	}

	files, err := m.nameOnlyDiff(ctx, clone, "origin/"+base)
	if err != nil {
		m.logger.LogWarning(ctx, "diff against base failed", map[string]interface{}{
			"base":  base,
			"error": err.Error(),
		})
		return nil, false
	}

	if len(files) == 0 {
		m.logger.LogWarning(ctx, "empty diff, scanning recent commits", map[string]interface{}{
			"pr":      prNumber,
			"commits": recentCommitWindow,
		})
		files, err = m.recentCommitFiles(ctx, clone)
		if err != nil {
			m.logger.LogWarning(ctx, "recent commit scan failed", map[string]interface{}{
				"error": err.Error(),
			})
			return nil, false
		}
	}

	return files, true
}

// nameOnlyDiff lists paths that differ between the given base revision and
// HEAD.
func (m *Manager) nameOnlyDiff(ctx context.Context, clone *Clone, baseRev string) ([]string, error) {
	baseHash, err := clone.repo.ResolveRevision(plumbing.Revision(baseRev))
	if err != nil {
		return nil, fmt.Errorf("resolve base %s: %w", baseRev, err)
	}
	baseCommit, err := clone.repo.CommitObject(*baseHash)
	if err != nil {
		return nil, fmt.Errorf("base commit: %w", err)
	}

	head, err := clone.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	headCommit, err := clone.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("head commit: %w", err)
	}

	patch, err := baseCommit.PatchContext(ctx, headCommit)
	if err != nil {
		return nil, fmt.Errorf("compute patch: %w", err)
	}

	var files []string
	for _, fp := range patch.FilePatches() {
		from, to := fp.Files()
		switch {
		case to != nil:
			files = append(files, to.Path())
		case from != nil:
			files = append(files, from.Path())
		}
	}
	return files, nil
}

// recentCommitFiles collects the files touched in the last few commits on
// HEAD. Used when a PR head was fetched but the diff against the detected
// base is empty.
func (m *Manager) recentCommitFiles(ctx context.Context, clone *Clone) ([]string, error) {
	iter, err := clone.repo.Log(&gogit.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}
	defer iter.Close()

	seen := make(map[string]bool)
	var files []string
	for i := 0; i < recentCommitWindow; i++ {
		commit, err := iter.Next()
		if err != nil {
			break
		}
		stats, err := commit.StatsContext(ctx)
		if err != nil {
			continue
		}
		for _, stat := range stats {
			if !seen[stat.Name] {
				seen[stat.Name] = true
				files = append(files, stat.Name)
			}
		}
	}
	return files, nil
}

// finalize appends untracked files, keeps only paths that exist on disk and
// applies the file cap.
func (m *Manager) finalize(ctx context.Context, clone *Clone, files []string) []string {
	if wt, err := clone.repo.Worktree(); err == nil {
		if status, err := wt.Status(); err == nil {
			var untracked []string
			for path, st := range status {
				if st.Worktree == gogit.Untracked {
					untracked = append(untracked, path)
				}
			}
			// Status is a map; sort so truncation keeps a stable set.
			sort.Strings(untracked)
			files = append(files, untracked...)
		}
	}

	seen := make(map[string]bool)
	var existing []string
	for _, f := range files {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		if _, err := os.Stat(filepath.Join(clone.Dir, f)); err == nil {
			existing = append(existing, f)
		}
	}

	if len(existing) > m.maxFiles {
		m.logger.LogWarning(ctx, "too many changed files, truncating", map[string]interface{}{
			"found": len(existing),
			"limit": m.maxFiles,
		})
		existing = existing[:m.maxFiles]
	}
	return existing
}
