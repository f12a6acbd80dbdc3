package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/use-agent/recipebox/api"
	"github.com/use-agent/recipebox/models"
	"github.com/use-agent/recipebox/render"
	"github.com/use-agent/recipebox/tab"
	"github.com/use-agent/recipebox/tui"
)

func crawlAction(c *cli.Context) error {
	rawURL, htmlFile, cdp := c.String("url"), c.String("html-file"), c.Bool("cdp")
	n := needs{summarizer: true, fetcher: htmlFile == "" && !cdp}

	svc, done, err := setup(c.Context, n, "")
	if err != nil {
		return err
	}
	defer done()

	src, err := sourceFor(svc, rawURL, htmlFile, cdp, c.Bool("stealth"), os.ReadFile)
	if err != nil {
		return err
	}

	out := svc.orch.RunCrawlAndSummarize(c.Context, src)
	if out.Summary != nil {
		fmt.Print(render.Text(out.Summary, time.Local))
	}
	return exitFor(out)
}

func showAction(c *cli.Context) error {
	svc, done, err := setup(c.Context, needs{}, "")
	if err != nil {
		return err
	}
	defer done()

	var src tab.Source = tab.Static{URL: c.String("url")}
	if c.Bool("cdp") {
		if src, err = sourceFor(svc, "", "", true, false, nil); err != nil {
			return err
		}
	}

	out := svc.orch.RunLoadForCurrentTab(c.Context, src)
	if out.Summary == nil && out.Success {
		fmt.Println("No summary saved for this page.")
		return nil
	}
	if out.Summary != nil {
		fmt.Print(render.Text(out.Summary, time.Local))
	}
	return exitFor(out)
}

func listAction(c *cli.Context) error {
	format := c.String("format")
	switch format {
	case "text", "html", "markdown":
	default:
		return fmt.Errorf("unknown format %q (want text, html or markdown)", format)
	}

	svc, done, err := setup(c.Context, needs{}, "")
	if err != nil {
		return err
	}
	defer done()

	out := svc.orch.RunViewAll(c.Context)
	if out.Status.Kind == models.StatusError {
		return exitFor(out)
	}

	switch format {
	case "html":
		fmt.Println(render.HTMLList(out.Entries, time.Local))
	case "markdown":
		md, err := render.MarkdownList(out.Entries, time.Local)
		if err != nil {
			return err
		}
		fmt.Println(md)
	default:
		fmt.Print(render.TextList(out.Entries, time.Local))
	}
	return nil
}

func deleteAction(c *cli.Context) error {
	svc, done, err := setup(c.Context, needs{}, "")
	if err != nil {
		return err
	}
	defer done()

	out := svc.orch.RunDelete(c.Context, c.String("url"))
	if out.Success {
		fmt.Println(out.Status.Message)
	}
	return exitFor(out)
}

func serveAction(c *cli.Context) error {
	svc, done, err := setup(c.Context, needs{summarizer: true, fetcher: true}, "")
	if err != nil {
		return err
	}
	defer done()

	cfg := svc.cfg
	slog.Info("recipebox starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"store", cfg.Store.Backend,
		"summarizer", summarizerName(svc.summarizer),
	)

	// ── 8. Setup router ─────────────────────────────────────────────
	router := api.NewRouter(cfg, api.Deps{
		Orchestrator: svc.orch,
		Store:        svc.store,
		Fetcher:      svc.pageFetcher(),
		Summarizer:   summarizerName(svc.summarizer),
		Location:     time.Local,
		StartTime:    time.Now(),
	})

	// ── 9. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// ── 10. Graceful shutdown ───────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		slog.Error("HTTP server error", "error", err)
		return err
	}

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// done() runs via defer: closes the fetcher's Chrome, notifiers and store.
	slog.Info("recipebox stopped")
	return nil
}

func popupAction(c *cli.Context) error {
	rawURL, cdp := c.String("url"), c.Bool("cdp")
	logFile := filepath.Join(os.TempDir(), "recipebox.log")

	svc, done, err := setup(c.Context, needs{summarizer: true, fetcher: !cdp}, logFile)
	if err != nil {
		return err
	}
	defer done()

	src, err := sourceFor(svc, rawURL, "", cdp, false, nil)
	if err != nil {
		return err
	}
	return tui.Run(c.Context, svc.orch, src, time.Local)
}

// exitFor turns a failed outcome into a non-zero exit. Reported outcomes,
// such as a page without a recipe, print their message and exit cleanly.
func exitFor(out *models.Outcome) error {
	switch out.Status.Kind {
	case models.StatusError:
		return cli.Exit(out.Status.Message, 1)
	case models.StatusReported:
		fmt.Println(out.Status.Message)
	}
	return nil
}
