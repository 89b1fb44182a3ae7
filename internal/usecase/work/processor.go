package work

import (
	"context"
	"fmt"
	"time"

	"github.com/chatagent/code-analyzer/internal/adapter/scm"
	"github.com/chatagent/code-analyzer/internal/domain"
)

// Processor turns one queue payload into a posted analysis report.
type Processor struct {
	repos     RepositoryAccess
	analyzer  Analyzer
	newPoster PosterFactory
	quota     QuotaReporter
	runs      RunStore
	logger    Logger
}

// Deps carries the processor's collaborators. Quota and Runs are optional.
type Deps struct {
	Repos     RepositoryAccess
	Analyzer  Analyzer
	NewPoster PosterFactory
	Quota     QuotaReporter
	Runs      RunStore
	Logger    Logger
}

func NewProcessor(d Deps) *Processor {
	if d.Logger == nil {
		d.Logger = nopLogger{}
	}
	return &Processor{
		repos:     d.Repos,
		analyzer:  d.Analyzer,
		newPoster: d.NewPoster,
		quota:     d.Quota,
		runs:      d.Runs,
		logger:    d.Logger,
	}
}

// Handle processes one message end to end: decode, analyze per mode, post
// the report, then best-effort quota and run-history updates. The returned
// error is informational; acknowledgement is the transport's concern.
func (p *Processor) Handle(ctx context.Context, msgID string, payload []byte) error {
	req, err := domain.DecodeAnalysisRequest(payload)
	if err != nil {
		p.logger.LogWarning(ctx, "discarding invalid message", map[string]interface{}{
			"id":    msgID,
			"error": err.Error(),
		})
		return err
	}

	mode := req.Mode()
	start := time.Now()
	rec := RunRecord{
		RunID:      msgID,
		Repository: repoLabel(req.Repository),
		Provider:   string(req.Repository.Kind),
		Mode:       mode.String(),
	}

	p.logger.LogInfo(ctx, "processing analysis request", map[string]interface{}{
		"id":         msgID,
		"mode":       mode.String(),
		"provider":   string(req.Repository.Kind),
		"repository": rec.Repository,
	})

	report, analyzed, err := p.runAnalysis(ctx, mode, req)
	if err != nil {
		p.logger.LogWarning(ctx, "analysis failed", map[string]interface{}{
			"id":    msgID,
			"error": err.Error(),
		})
		rec.Duration = time.Since(start)
		p.saveRun(ctx, rec)
		return err
	}
	rec.FilesAnalyzed = analyzed

	if err := p.post(ctx, req, report); err != nil {
		p.logger.LogWarning(ctx, "posting analysis result failed", map[string]interface{}{
			"id":    msgID,
			"error": err.Error(),
		})
		rec.Duration = time.Since(start)
		p.saveRun(ctx, rec)
		return err
	}
	rec.Posted = true

	p.updateQuota(ctx, req, analyzed)

	rec.Duration = time.Since(start)
	p.saveRun(ctx, rec)
	p.logger.LogInfo(ctx, "analysis delivered", map[string]interface{}{
		"id":             msgID,
		"files_analyzed": analyzed,
		"duration":       rec.Duration.String(),
	})
	return nil
}

func (p *Processor) runAnalysis(ctx context.Context, mode domain.AnalysisMode, req *domain.AnalysisRequest) (string, int, error) {
	if mode == domain.ModeSnippet {
		return p.analyzer.AnalyzeSnippet(ctx, req.Code, req)
	}

	clone, err := p.repos.Clone(ctx, req)
	if err != nil {
		return "", 0, err
	}
	defer p.repos.Cleanup(ctx, clone)

	switch mode {
	case domain.ModePullRequest:
		files, err := p.repos.ResolvePullRequestFiles(ctx, clone, req)
		if err != nil {
			return "", 0, err
		}
		return p.analyzer.AnalyzeFiles(ctx, clone.Dir, files, req)
	case domain.ModeWholeProject:
		files, err := p.repos.WalkProject(ctx, clone)
		if err != nil {
			return "", 0, err
		}
		return p.analyzer.AnalyzeProject(ctx, clone.Dir, files, req)
	default:
		return "", 0, fmt.Errorf("unsupported analysis mode: %s", mode)
	}
}

func (p *Processor) post(ctx context.Context, req *domain.AnalysisRequest, report string) error {
	poster, err := p.newPoster(req.Repository.Kind)
	if err != nil {
		return err
	}
	result, err := poster.Post(ctx, scm.Target{Token: req.Token, Repo: req.Repository}, report)
	if err != nil {
		return err
	}
	p.logger.LogInfo(ctx, "comment posted", map[string]interface{}{
		"provider":      string(req.Repository.Kind),
		"comment_id":    result.ID,
		"url":           result.URL,
		"created_issue": result.CreatedIssue,
	})
	return nil
}

// updateQuota reports consumption for the requesting user. A failed update
// never fails the message.
func (p *Processor) updateQuota(ctx context.Context, req *domain.AnalysisRequest, analyzed int) {
	if p.quota == nil || req.Email == "" {
		return
	}
	if err := p.quota.UpdateFileQuota(ctx, req.Email, analyzed); err != nil {
		p.logger.LogWarning(ctx, "file quota update failed", map[string]interface{}{
			"user":  req.Email,
			"error": err.Error(),
		})
	}
}

func (p *Processor) saveRun(ctx context.Context, rec RunRecord) {
	if p.runs == nil {
		return
	}
	if err := p.runs.SaveRun(ctx, rec); err != nil {
		p.logger.LogWarning(ctx, "run history write failed", map[string]interface{}{
			"run_id": rec.RunID,
			"error":  err.Error(),
		})
	}
}

func repoLabel(r *domain.RepositoryDescriptor) string {
	switch {
	case r.Owner != "" && r.Repo != "":
		return r.Owner + "/" + r.Repo
	case r.Workspace != "" && r.RepoSlug != "":
		return r.Workspace + "/" + r.RepoSlug
	case r.ProjectID != "":
		return r.ProjectID
	case r.RepositoryURL != "":
		return r.RepositoryURL
	}
	return string(r.Kind)
}

type nopLogger struct{}

func (nopLogger) LogInfo(context.Context, string, map[string]interface{})    {}
func (nopLogger) LogWarning(context.Context, string, map[string]interface{}) {}
