package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/use-agent/recipebox/config"
	"github.com/use-agent/recipebox/engine"
	"github.com/use-agent/recipebox/extractor"
	"github.com/use-agent/recipebox/llm"
	"github.com/use-agent/recipebox/notify"
	"github.com/use-agent/recipebox/pipeline"
	"github.com/use-agent/recipebox/store"
	"github.com/use-agent/recipebox/tab"
)

// needs says which optional services a command uses.
type needs struct {
	summarizer bool
	fetcher    bool
}

// services is everything a command runs against.
type services struct {
	cfg        *config.Config
	store      store.Store
	summarizer llm.Summarizer
	notifier   notify.Notifier
	fetcher    *engine.Fetcher
	orch       *pipeline.Orchestrator
}

// setup loads configuration, starts logging and builds the services a
// command needs. The caller must call Close.
func setup(ctx context.Context, n needs, logFile string) (*services, func(), error) {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()
	if logFile != "" && cfg.Log.File == "" {
		cfg.Log.File = logFile
	}

	// ── 2. Initialise structured logging ────────────────────────────
	closeLog, err := initLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(n.summarizer); err != nil {
		closeLog()
		return nil, nil, err
	}

	svc, err := build(ctx, cfg, n)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return svc, func() { svc.Close(); closeLog() }, nil
}

func build(ctx context.Context, cfg *config.Config, n needs) (_ *services, err error) {
	svc := &services{cfg: cfg}
	defer func() {
		if err != nil {
			svc.Close()
		}
	}()

	// ── 3. Store ────────────────────────────────────────────────────
	if svc.store, err = store.Open(ctx, cfg.Store); err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}

	// ── 4. Summarizer ───────────────────────────────────────────────
	if n.summarizer {
		if svc.summarizer, err = llm.New(cfg.LLM, nil); err != nil {
			return nil, err
		}
	}

	// ── 5. Extraction ───────────────────────────────────────────────
	profiles, err := extractor.LoadProfiles(cfg.Extractor.ProfilesFile)
	if err != nil {
		return nil, err
	}
	policy, err := extractor.ParsePolicy(cfg.Extractor.Policy)
	if err != nil {
		return nil, err
	}

	// ── 6. Notifications ────────────────────────────────────────────
	if svc.notifier, err = notify.FromConfig(cfg.Notify); err != nil {
		return nil, err
	}

	// ── 7. Fetcher (launches Chrome when the browser engine is on) ─
	if n.fetcher {
		if svc.fetcher, err = engine.NewFetcher(cfg); err != nil {
			return nil, fmt.Errorf("start fetcher: %w", err)
		}
	}

	svc.orch = pipeline.New(extractor.New(profiles), svc.summarizer, svc.store,
		pipeline.WithPolicy(policy),
		pipeline.WithNotifier(svc.notifier),
	)
	slog.Debug("services ready",
		"store", cfg.Store.Backend,
		"summarizer", summarizerName(svc.summarizer),
		"policy", policy,
		"fetcher", svc.fetcher != nil,
	)
	return svc, nil
}

// pageFetcher returns the fetcher as a tab.PageFetcher, or nil when none
// was built, so an absent fetcher never becomes a non-nil interface.
func (s *services) pageFetcher() tab.PageFetcher {
	if s.fetcher == nil {
		return nil
	}
	return s.fetcher
}

// Close releases everything build created, in reverse order.
func (s *services) Close() {
	if s.fetcher != nil {
		s.fetcher.Close()
	}
	if s.notifier != nil {
		if err := s.notifier.Close(); err != nil {
			slog.Warn("failed to close notifier", "error", err)
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}
}

func summarizerName(s llm.Summarizer) string {
	if s == nil {
		return "none"
	}
	return s.Name()
}

var errNoSource = errors.New("one of --url, --html-file with --url, or --cdp is required")

// sourceFor picks the tab source from the command flags: the user's
// Chrome with cdp, a saved file with htmlFile, otherwise a server-side
// fetch of rawURL.
func sourceFor(svc *services, rawURL, htmlFile string, cdp, stealth bool, readFile func(string) ([]byte, error)) (tab.Source, error) {
	switch {
	case cdp:
		if svc.cfg.Browser.CDPURL == "" {
			return nil, errors.New("--cdp needs RECIPEBOX_CDP_URL")
		}
		return tab.NewBrowser(svc.cfg.Browser.CDPURL), nil
	case htmlFile != "":
		if rawURL == "" {
			return nil, errors.New("--html-file needs --url for the summary key")
		}
		data, err := readFile(htmlFile)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", htmlFile, err)
		}
		return tab.Static{URL: rawURL, HTML: string(data)}, nil
	case rawURL != "":
		fetcher := svc.pageFetcher()
		if fetcher == nil {
			return nil, errors.New("no page fetcher available")
		}
		return tab.Remote{URL: rawURL, Fetcher: fetcher, Stealth: stealth}, nil
	}
	return nil, errNoSource
}
