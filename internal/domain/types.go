package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ProviderKind identifies a source-control hosting provider.
// The wire values match what the processing service publishes.
type ProviderKind string

const (
	ProviderGitHub    ProviderKind = "Github"
	ProviderGitLab    ProviderKind = "Gitlab"
	ProviderAzure     ProviderKind = "Azure"
	ProviderBitbucket ProviderKind = "Bitbucket"
)

// Valid reports whether the kind is one of the supported providers.
func (k ProviderKind) Valid() bool {
	switch k {
	case ProviderGitHub, ProviderGitLab, ProviderAzure, ProviderBitbucket:
		return true
	}
	return false
}

// PRNumber is a pull-request number that tolerates being published as a JSON
// string, number, or null. The processing service is not consistent about the
// type it emits.
type PRNumber int

// UnmarshalJSON accepts 42, "42", and null.
func (n *PRNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("pull request number must be numeric, got %s: %w", string(data), err)
	}
	*n = PRNumber(v)
	return nil
}

// Int returns the number as a plain int.
func (n PRNumber) Int() int { return int(n) }

// RepositoryDescriptor identifies a remote repository. Which fields must be
// populated depends on the provider kind: GitHub needs owner+repo (or a
// repository URL they can be parsed from), GitLab needs project_id, Bitbucket
// needs workspace+repo_slug, Azure needs organization+project+repo.
type RepositoryDescriptor struct {
	Kind              ProviderKind `json:"type"`
	Owner             string       `json:"owner,omitempty"`
	Repo              string       `json:"repo,omitempty"`
	RepositoryURL     string       `json:"repository_url,omitempty"`
	PullRequestNumber PRNumber     `json:"pull_request_number,omitempty"`
	ProjectID         string       `json:"project_id,omitempty"`
	RepoSlug          string       `json:"repo_slug,omitempty"`
	PullRequestID     string       `json:"pull_request_id,omitempty"`
	Workspace         string       `json:"workspace,omitempty"`
	Organization      string       `json:"organization,omitempty"`
	Project           string       `json:"project,omitempty"`
}

// AnalysisMode selects which analysis path a request takes.
type AnalysisMode int

const (
	// ModeSnippet analyzes the literal code carried in the request; no clone.
	ModeSnippet AnalysisMode = iota
	// ModePullRequest analyzes the files changed in a pull request.
	ModePullRequest
	// ModeWholeProject analyzes every source file in the repository.
	ModeWholeProject
)

// String returns the mode name for logging.
func (m AnalysisMode) String() string {
	switch m {
	case ModeSnippet:
		return "snippet"
	case ModePullRequest:
		return "pull_request"
	case ModeWholeProject:
		return "whole_project"
	default:
		return "unknown"
	}
}

// AnalysisRequest is the unit of work dequeued from the queue.
type AnalysisRequest struct {
	Language           string                `json:"language"`
	Prompt             string                `json:"prompt"`
	Name               string                `json:"name"`
	Code               string                `json:"code"`
	Email              string                `json:"email"`
	Token              string                `json:"token"`
	Repository         *RepositoryDescriptor `json:"repository"`
	AnalyzeFullProject bool                  `json:"analyze_full_project,omitempty"`
	ModifiedFiles      []string              `json:"modified_files,omitempty"`
}

// Mode derives the analysis mode from the request. Literal code wins over a
// pull-request number; whole-project is the default when neither is present.
func (r *AnalysisRequest) Mode() AnalysisMode {
	switch {
	case strings.TrimSpace(r.Code) != "":
		return ModeSnippet
	case r.Repository != nil && r.Repository.PullRequestNumber > 0:
		return ModePullRequest
	default:
		return ModeWholeProject
	}
}

// Validate checks the invariants the worker requires before any cloning.
func (r *AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return &ValidationError{Reason: "repository token is required"}
	}
	if r.Repository == nil {
		return &ValidationError{Reason: "repository information is required"}
	}
	if !r.Repository.Kind.Valid() {
		return &ValidationError{Reason: fmt.Sprintf("unsupported repository type: %q", r.Repository.Kind)}
	}
	return nil
}

// DecodeAnalysisRequest parses and validates an inbound queue payload.
func DecodeAnalysisRequest(data []byte) (*AnalysisRequest, error) {
	var req AnalysisRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("malformed message payload: %v", err)}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}
