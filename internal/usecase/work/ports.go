package work

import (
	"context"
	"time"

	gitadapter "github.com/chatagent/code-analyzer/internal/adapter/git"
	"github.com/chatagent/code-analyzer/internal/adapter/scm"
	"github.com/chatagent/code-analyzer/internal/domain"
)

// RepositoryAccess is the slice of the git layer the processor drives.
type RepositoryAccess interface {
	Clone(ctx context.Context, req *domain.AnalysisRequest) (*gitadapter.Clone, error)
	ResolvePullRequestFiles(ctx context.Context, clone *gitadapter.Clone, req *domain.AnalysisRequest) ([]string, error)
	WalkProject(ctx context.Context, clone *gitadapter.Clone) ([]string, error)
	Cleanup(ctx context.Context, clone *gitadapter.Clone)
}

// Analyzer produces a markdown report and the count of files the model
// actually analyzed.
type Analyzer interface {
	AnalyzeFiles(ctx context.Context, root string, files []string, req *domain.AnalysisRequest) (string, int, error)
	AnalyzeProject(ctx context.Context, root string, files []string, req *domain.AnalysisRequest) (string, int, error)
	AnalyzeSnippet(ctx context.Context, code string, req *domain.AnalysisRequest) (string, int, error)
}

// PosterFactory returns the poster for a repository kind.
type PosterFactory func(kind domain.ProviderKind) (scm.Poster, error)

// QuotaReporter reports how many files an analysis consumed for a user.
// Failures are advisory.
type QuotaReporter interface {
	UpdateFileQuota(ctx context.Context, userID string, fileCount int) error
}

// RunRecord is one processed message, for the optional run history.
type RunRecord struct {
	RunID         string
	Repository    string
	Provider      string
	Mode          string
	FilesAnalyzed int
	Posted        bool
	Duration      time.Duration
}

type RunStore interface {
	SaveRun(ctx context.Context, rec RunRecord) error
}

type Logger interface {
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
}
