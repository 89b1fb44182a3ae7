package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/chatagent/code-analyzer/internal/adapter/cli"
	"github.com/chatagent/code-analyzer/internal/adapter/configmanager"
	gitadapter "github.com/chatagent/code-analyzer/internal/adapter/git"
	"github.com/chatagent/code-analyzer/internal/adapter/llm/anthropic"
	"github.com/chatagent/code-analyzer/internal/adapter/llm/gemini"
	llmhttp "github.com/chatagent/code-analyzer/internal/adapter/llm/http"
	"github.com/chatagent/code-analyzer/internal/adapter/observability"
	"github.com/chatagent/code-analyzer/internal/adapter/queue"
	"github.com/chatagent/code-analyzer/internal/adapter/queue/pubsub"
	"github.com/chatagent/code-analyzer/internal/adapter/scm"
	"github.com/chatagent/code-analyzer/internal/adapter/store/sqlite"
	"github.com/chatagent/code-analyzer/internal/config"
	"github.com/chatagent/code-analyzer/internal/domain"
	"github.com/chatagent/code-analyzer/internal/usecase/analysis"
	"github.com/chatagent/code-analyzer/internal/usecase/work"
	"github.com/chatagent/code-analyzer/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "analyzer",
		EnvPrefix:   "ANALYZER",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.Logging)

	gateway, err := buildGateway(cfg, logger)
	if err != nil {
		return err
	}

	lister := scm.NewFileLister(nil, logger)
	manager := gitadapter.NewManager(cfg.Git.WorkDir, lister, logger, cfg.Analysis.MaxFiles)
	engine := analysis.NewEngine(gateway, logger, cfg.Analysis.MaxFiles)

	var quota work.QuotaReporter
	if cfg.ConfigManager.BaseURL != "" {
		quota = configmanager.New(cfg.ConfigManager.BaseURL, cfg.ConfigManager.AuthToken, logger, configmanager.Options{
			CacheSize: cfg.ConfigManager.CacheSize,
			CacheTTL:  parseCacheTTL(cfg.ConfigManager.CacheTTL),
		})
	}

	var runStore *sqlite.Store
	if cfg.Store.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else if runStore, err = sqlite.Open(cfg.Store.Path); err != nil {
			log.Printf("warning: failed to initialize run store: %v", err)
			runStore = nil
		} else {
			defer runStore.Close()
		}
	}

	deps := work.Deps{
		Repos:    manager,
		Analyzer: engine,
		NewPoster: func(kind domain.ProviderKind) (scm.Poster, error) {
			return scm.NewPoster(kind, nil, logger)
		},
		Quota:  quota,
		Logger: logger,
	}
	if runStore != nil {
		deps.Runs = runStore
	}
	processor := work.NewProcessor(deps)

	cliDeps := cli.Dependencies{
		Runner: &worker{
			project:      cfg.Queue.Project,
			subscription: cfg.Queue.Subscription,
			processor:    processor,
			logger:       logger,
		},
		Args:    cli.Arguments{OutWriter: os.Stdout, ErrWriter: os.Stderr},
		Version: version.Value(),
	}
	if runStore != nil {
		cliDeps.History = runStore
	}

	root := cli.NewRootCommand(cliDeps)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return err
	}
	return nil
}

// worker connects the subscription to the processor. The subscriber is
// created inside Run so commands that never touch the queue do not need
// broker credentials.
type worker struct {
	project      string
	subscription string
	processor    *work.Processor
	logger       llmhttp.Logger
}

func (w *worker) Run(ctx context.Context) error {
	sub, err := pubsub.New(ctx, w.project, w.subscription, w.logger)
	if err != nil {
		return err
	}
	defer sub.Close()

	return sub.Receive(ctx, func(ctx context.Context, msg queue.Message) error {
		return w.processor.Handle(ctx, msg.ID(), msg.Data())
	})
}

func buildGateway(cfg config.Config, logger llmhttp.Logger) (analysis.ModelGateway, error) {
	name := cfg.LLM.Provider
	pc, ok := cfg.Providers[name]
	if !ok || !pc.Enabled {
		return nil, fmt.Errorf("llm provider %q is not configured or not enabled", name)
	}
	if pc.APIKey == "" {
		return nil, fmt.Errorf("llm provider %q has no API key", name)
	}

	timeout := llmhttp.ParseTimeout(pc.Timeout, cfg.HTTP.Timeout, 60*time.Second)
	retry := llmhttp.BuildRetryConfig(pc, cfg.HTTP)

	switch name {
	case "anthropic":
		client := anthropic.NewHTTPClient(pc.APIKey, pc.Model)
		client.SetTimeout(timeout)
		client.SetRetryConfig(retry)
		client.SetLogger(logger)
		return anthropic.NewProvider(client), nil
	case "gemini":
		client := gemini.NewHTTPClient(pc.APIKey, pc.Model)
		client.SetTimeout(timeout)
		client.SetRetryConfig(retry)
		client.SetLogger(logger)
		return gemini.NewProvider(client), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", name)
	}
}

func parseCacheTTL(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "analyzer"))
	}
	return paths
}
