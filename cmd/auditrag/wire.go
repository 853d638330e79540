package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/auditrag/internal/adapters/driven/ai"
	configfile "github.com/custodia-labs/auditrag/internal/adapters/driven/config/file"
	sourcefile "github.com/custodia-labs/auditrag/internal/adapters/driven/source/file"
	"github.com/custodia-labs/auditrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/auditrag/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/custodia-labs/auditrag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/auditrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
	"github.com/custodia-labs/auditrag/internal/core/ports/driving"
	"github.com/custodia-labs/auditrag/internal/core/services"
	"github.com/custodia-labs/auditrag/internal/logger"
	"github.com/custodia-labs/auditrag/internal/postprocessors/chunker"
)

// container owns the adapters shared by every command.
type container struct {
	configDir string
	settings  *services.SettingsService
	templates *configfile.TemplateStore
	runs      driven.RunStore
	history   *services.HistoryService
	closers   []func() error
}

// bootstrap wires adapters for configDir into CLI services.
func bootstrap(configDir string) (*cli.Services, error) {
	c, err := newContainer(configDir, nil)
	if err != nil {
		return nil, err
	}
	return &cli.Services{
		Settings:       c.settings,
		Templates:      services.NewTemplateService(c.templates),
		History:        c.history,
		Analysis:       c.analysis,
		WatchTemplates: c.templates.Watch,
		Close:          c.close,
	}, nil
}

func newContainer(configDir string, getenv func(string) string) (*container, error) {
	if configDir == "" {
		dir, err := configfile.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("resolving config directory: %w", err)
		}
		configDir = dir
	}
	c := &container{configDir: configDir}

	var cfg driven.ConfigStore
	if fileCfg, err := configfile.NewConfigStore(configDir); err != nil {
		logger.Warn("Config file unavailable, settings will not persist: %v", err)
		cfg = memory.NewConfigStore()
	} else {
		cfg = fileCfg
	}

	var opts []services.SettingsOption
	if getenv != nil {
		opts = append(opts, services.WithEnv(getenv))
	}
	c.settings = services.NewSettingsService(cfg, ai.NewConfigValidator(), opts...)

	var err error
	c.templates, err = configfile.NewTemplateStore(filepath.Join(configDir, "templates"))
	if err != nil {
		return nil, fmt.Errorf("opening templates: %w", err)
	}

	settings, err := c.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	history := driven.RunStore(memory.NewRunStore())
	if settings.History.Enabled {
		store, openErr := sqlite.NewStore(filepath.Join(configDir, "data"))
		if openErr != nil {
			logger.Warn("History database unavailable, runs kept in memory: %v", openErr)
		} else {
			c.closers = append(c.closers, store.Close)
			history = store.RunStore()
		}
		c.runs = history
	}
	c.history = services.NewHistoryService(history)

	logger.Debug("Config directory: %s", configDir)
	return c, nil
}

// analysis builds the pipeline from the current settings.
func (c *container) analysis() (driving.AnalysisService, error) {
	if err := c.settings.Validate(); err != nil {
		return nil, err
	}
	settings, err := c.settings.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	split, err := chunker.FromSettings(settings.Pipeline)
	if err != nil {
		return nil, err
	}

	aiServices, err := ai.NewServices(settings)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, func() error {
		aiServices.Close()
		return nil
	})

	logger.Debug("Pipeline: llm=%s/%s embedding=%s/%s chunk=%d/%d top_k=%d",
		settings.LLM.Provider, settings.LLM.Model,
		settings.Embedding.Provider, settings.Embedding.Model,
		settings.Pipeline.ChunkSize, settings.Pipeline.ChunkOverlap, settings.Pipeline.TopK)

	return services.NewAnalysisService(
		services.AnalysisDeps{
			Source:    sourcefile.New(),
			Chunker:   split,
			Embedder:  aiServices.Embedding,
			LLM:       aiServices.LLM,
			Templates: c.templates,
			NewIndex:  vectormem.Factory,
			Runs:      c.runs,
		},
		services.WithTemplateIDs(settings.Templates.Answer, settings.Templates.Decision),
		services.WithRetrieval(settings.Pipeline.TopK),
		services.WithRetryPolicy(services.RetryPolicyFromSettings(settings.Pipeline)),
	)
}

func (c *container) close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
