// Package app assembles the analysis stack from configuration. The API
// server and the CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvloznov/docrisk/internal/classifier"
	"github.com/dvloznov/docrisk/internal/collaborators"
	"github.com/dvloznov/docrisk/internal/config"
	"github.com/dvloznov/docrisk/internal/domain"
	"github.com/dvloznov/docrisk/internal/extract"
	"github.com/dvloznov/docrisk/internal/gcs"
	infraBQ "github.com/dvloznov/docrisk/internal/infra/bigquery"
	"github.com/dvloznov/docrisk/internal/jobs"
	"github.com/dvloznov/docrisk/internal/llm"
	"github.com/dvloznov/docrisk/internal/notify"
	"github.com/dvloznov/docrisk/internal/pipeline"
	"github.com/dvloznov/docrisk/internal/risk"
	"github.com/dvloznov/docrisk/internal/storage"
	"github.com/dvloznov/docrisk/internal/vocabulary"
)

// App holds the wired components. Storage is nil unless a GCS client was
// requested.
type App struct {
	Analyzer   *pipeline.Analyzer
	Extractor  *extract.Service
	Repository storage.AssessmentRepository
	Storage    *gcs.Client

	closers []func() error
}

// Options toggle the optional parts of Build.
type Options struct {
	// GCS opens a Cloud Storage client.
	GCS bool

	// SkipNotify disables Slack alerts even when configured.
	SkipNotify bool
}

// Build creates every component the configuration asks for. Call Close
// when done, also after an error.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts Options) (*App, error) {
	a := &App{}

	vocab, err := vocabulary.Load(cfg.VocabularyPath)
	if err != nil {
		return a, err
	}
	engine, err := risk.Load(cfg.RulesPath, log)
	if err != nil {
		return a, fmt.Errorf("load rules: %w", err)
	}

	provider, err := llm.NewProvider(ctx, cfg.LLM)
	if err != nil {
		return a, err
	}
	set := collaborators.Stubs()
	var extractor llm.Extractor
	if provider != nil {
		set.Summarizer = llm.NewSummarizer(provider, set.Summarizer)
		if ex, ok := provider.(llm.Extractor); ok {
			extractor = ex
		}
		log.Info().Str("provider", provider.Name()).Bool("extraction", extractor != nil).Msg("LLM provider enabled")
	}
	a.Extractor = extract.NewService(extractor)

	repo, err := a.openRepository(ctx, cfg.Storage)
	if err != nil {
		return a, err
	}
	a.Repository = repo
	log.Info().Str("backend", cfg.Storage.Backend).Msg("Assessment storage ready")

	var notifier notify.Notifier
	if cfg.Slack.Enabled() && !opts.SkipNotify {
		notifier = notify.NewSlack(cfg.Slack.BotToken, cfg.Slack.Channel, domain.RiskBin(cfg.Slack.MinBin))
		log.Info().Str("channel", cfg.Slack.Channel).Str("min_bin", cfg.Slack.MinBin).Msg("Slack alerts enabled")
	}

	if opts.GCS {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return a, err
		}
		a.Storage = client
		a.closers = append(a.closers, client.Close)
	}

	a.Analyzer = pipeline.NewAnalyzer(pipeline.Deps{
		Classifier:    classifier.New(vocab, cfg.Matching.FieldThreshold, cfg.Matching.TypeThreshold),
		Engine:        engine,
		Collaborators: set,
		Repository:    repo,
		Notifier:      notifier,
	})
	return a, nil
}

func (a *App) openRepository(ctx context.Context, cfg config.StorageConfig) (storage.AssessmentRepository, error) {
	switch cfg.Backend {
	case config.StorageSQLite:
		repo, err := storage.OpenSQLite(cfg.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	case config.StorageBigQuery:
		repo, err := infraBQ.NewAssessmentRepository(ctx, cfg.ProjectID, cfg.DatasetID)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	case config.StorageMemory, "":
		return storage.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Loader returns a job loader backed by the GCS client, or nil without one.
func (a *App) Loader() jobs.Loader {
	if a.Storage == nil {
		return nil
	}
	return gcs.NewLoader(a.Storage, a.Extractor)
}

// Close releases clients in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
