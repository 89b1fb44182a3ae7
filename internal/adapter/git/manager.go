package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"

	llmhttp "github.com/chatagent/code-analyzer/internal/adapter/llm/http"
	"github.com/chatagent/code-analyzer/internal/domain"
)

// Logger is the structured logging port used by the manager.
type Logger = llmhttp.Logger

// FileLister fetches a pull request's changed files through a provider API.
// Implemented by the scm adapter; optional.
type FileLister interface {
	ListPullRequestFiles(ctx context.Context, repo *domain.RepositoryDescriptor, token string) ([]string, error)
}

// Clone is a materialized working copy of a remote repository.
type Clone struct {
	Dir  string
	repo *gogit.Repository
}

// Manager clones repositories into temp directories and resolves the file
// sets analysis operates on.
type Manager struct {
	workDir  string
	logger   Logger
	lister   FileLister
	maxFiles int
}

// NewManager constructs a Manager. workDir empty means the system temp dir;
// lister may be nil, disabling the provider-API file resolution strategy.
func NewManager(workDir string, lister FileLister, logger Logger, maxFiles int) *Manager {
	if maxFiles <= 0 {
		maxFiles = 20
	}
	return &Manager{
		workDir:  workDir,
		logger:   logger,
		lister:   lister,
		maxFiles: maxFiles,
	}
}

// Clone materializes the repository into a fresh temp directory using the
// token embedded in the clone URL. The caller owns the returned Clone and
// must Cleanup it.
func (m *Manager) Clone(ctx context.Context, req *domain.AnalysisRequest) (*Clone, error) {
	repo := req.Repository

	url, err := AuthURL(repo, req.Token)
	if err != nil {
		return nil, &domain.CloneError{Provider: repo.Kind, Err: err}
	}

	dir, err := os.MkdirTemp(m.workDir, "analyzer-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	m.logger.LogInfo(ctx, "cloning repository", map[string]interface{}{
		"provider": string(repo.Kind),
		"dir":      dir,
	})

	gitRepo, err := gogit.PlainCloneContext(ctx, dir, false, &gogit.CloneOptions{URL: url})
	if err != nil {
		os.RemoveAll(dir)
		if isAuthError(err) {
			return nil, &domain.CloneError{Provider: repo.Kind, Err: fmt.Errorf("%w: verify the access token and its permissions", domain.ErrAuthenticationFailed)}
		}
		return nil, &domain.CloneError{Provider: repo.Kind, Err: fmt.Errorf("%s", llmhttp.RedactURLSecrets(err.Error()))}
	}

	// A clone that finished without a .git directory is corrupt
	if _, err := os.Stat(filepath.Join(dir, gogit.GitDirName)); err != nil {
		os.RemoveAll(dir)
		return nil, &domain.CloneError{Provider: repo.Kind, Err: fmt.Errorf("incomplete clone: .git directory missing")}
	}

	return &Clone{Dir: dir, repo: gitRepo}, nil
}

// Cleanup removes the clone's temp directory. Safe to call more than once
// and on a nil clone; failures are logged, never returned.
func (m *Manager) Cleanup(ctx context.Context, clone *Clone) {
	if clone == nil || clone.Dir == "" {
		return
	}
	if err := os.RemoveAll(clone.Dir); err != nil {
		m.logger.LogWarning(ctx, "cleanup failed", map[string]interface{}{
			"dir":   clone.Dir,
			"error": err.Error(),
		})
		return
	}
	m.logger.LogInfo(ctx, "clone removed", map[string]interface{}{"dir": clone.Dir})
	clone.Dir = ""
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	if err == transport.ErrAuthenticationRequired || err == transport.ErrAuthorizationFailed {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "authentication") || strings.Contains(msg, "authorization")
}
