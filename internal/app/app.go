package app

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shapedtime/cinesplit/internal/api"
	"github.com/shapedtime/cinesplit/internal/config"
	"github.com/shapedtime/cinesplit/internal/identify"
	"github.com/shapedtime/cinesplit/internal/library"
	"github.com/shapedtime/cinesplit/internal/llm"
	"github.com/shapedtime/cinesplit/internal/metacache"
	"github.com/shapedtime/cinesplit/internal/metrics"
	"github.com/shapedtime/cinesplit/internal/omdb"
	"github.com/shapedtime/cinesplit/internal/opensubtitles"
	"github.com/shapedtime/cinesplit/internal/segment"
	"github.com/shapedtime/cinesplit/internal/service"
	"github.com/shapedtime/cinesplit/internal/subdl"
	"github.com/shapedtime/cinesplit/internal/subtitle"
)

// Version is reported by the status endpoint and the CLI.
var Version = "dev"

// App holds the wired analysis pipeline and the resources it owns.
type App struct {
	Config   *config.Config
	DB       *library.DB
	Repo     *library.AnalysisRepository
	Service  *service.AnalysisService
	Registry *prometheus.Registry
	Acquirer *subtitle.Acquirer
	LLM      *llm.Client

	cache *metacache.Store
}

// NewLogger builds the process logger for a configured level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// New opens storage and builds every pipeline component from cfg.
func New(cfg *config.Config) (*App, error) {
	log := slog.With("component", "app")

	dsn := cfg.Database.Path
	if cfg.Database.Driver == library.DriverPostgres {
		dsn = cfg.Database.URL
	}
	db, err := library.NewDB(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, err
	}
	log.Info("Database initialized", "driver", cfg.Database.Driver)

	a := &App{
		Config:   cfg,
		DB:       db,
		Repo:     library.NewAnalysisRepository(db),
		Registry: prometheus.NewRegistry(),
	}

	// Metadata cache is optional; failures only cost extra OMDb calls.
	var details identify.DetailsCache
	if cfg.MetadataCache.Enabled {
		store, err := metacache.Open(cfg.MetadataCache.Path, time.Duration(cfg.MetadataCache.TTLHours)*time.Hour)
		if err != nil {
			log.Warn("Metadata cache unavailable, continuing without it", "path", cfg.MetadataCache.Path, "error", err)
		} else {
			a.cache = store
			details = store
		}
	}

	omdbClient := omdb.NewClient(cfg.OMDB.APIKey, cfg.OMDB.BaseURL)
	if !omdbClient.IsConfigured() {
		log.Warn("OMDb API key not configured, title lookups will fail")
	}
	resolver := identify.NewResolver(omdbClient, details)

	osClient := opensubtitles.NewClient(
		cfg.OpenSubtitles.APIKey,
		cfg.OpenSubtitles.Username,
		cfg.OpenSubtitles.Password,
		cfg.OpenSubtitles.BaseURL,
	)
	subdlClient := subdl.NewClient(cfg.SubDL.APIKey, cfg.SubDL.BaseURL, cfg.SubDL.DownloadURL)
	a.Acquirer = subtitle.NewAcquirer(
		cfg.Acquisition.Offline,
		cfg.Acquisition.FixturePath,
		subtitle.NewPrimarySource(osClient, cfg.OpenSubtitles.Languages),
		subtitle.NewFallbackSource(subdlClient, cfg.OpenSubtitles.Languages),
	)
	if cfg.Acquisition.Offline {
		log.Info("Offline mode: subtitles come from the fixture file", "path", cfg.Acquisition.FixturePath)
	}

	a.LLM = llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})

	m := metrics.New(a.Registry)
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.NewAnalysisCollector(a.Repo),
	)

	a.Service = service.NewAnalysisService(resolver, a.Repo, a.Acquirer, segment.NewSegmenter(a.LLM), m)
	return a, nil
}

// Status summarizes the running configuration for the status endpoint.
func (a *App) Status() api.StatusInfo {
	sources := a.Acquirer.Sources()
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	return api.StatusInfo{
		Version:         Version,
		Database:        a.DB.Driver(),
		Offline:         a.Config.Acquisition.Offline,
		SubtitleSources: names,
		Languages:       a.Config.OpenSubtitles.Languages,
		Model:           a.LLM.Model(),
	}
}

// Ready pings the analysis store.
func (a *App) Ready(ctx context.Context) error {
	return a.DB.PingContext(ctx)
}

// Close releases storage handles.
func (a *App) Close() error {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Warn("Failed to close metadata cache", "error", err)
		}
	}
	return a.DB.Close()
}
