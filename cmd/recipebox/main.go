package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/use-agent/recipebox/api/handler"
	"github.com/use-agent/recipebox/config"
)

func main() {
	app := &cli.App{
		Name:    "recipebox",
		Usage:   "summarize recipe pages with AI and keep the summaries",
		Version: handler.Version,
		Commands: []*cli.Command{
			{
				Name:  "crawl",
				Usage: "Crawl a recipe page, summarize it and save the summary",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "page URL (the key the summary is saved under)"},
					&cli.StringFlag{Name: "html-file", Usage: "read the page from this file instead of fetching it"},
					&cli.BoolFlag{Name: "cdp", Usage: "use the active tab of the Chrome at RECIPEBOX_CDP_URL"},
					&cli.BoolFlag{Name: "stealth", Usage: "start the browser engines in stealth mode"},
				},
				Action: crawlAction,
			},
			{
				Name:  "show",
				Usage: "Show the saved summary for a page",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "page URL"},
					&cli.BoolFlag{Name: "cdp", Usage: "use the active tab of the Chrome at RECIPEBOX_CDP_URL"},
				},
				Action: showAction,
			},
			{
				Name:  "list",
				Usage: "List every saved summary, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "text", Usage: "text, html or markdown"},
				},
				Action: listAction,
			},
			{
				Name:  "delete",
				Usage: "Delete the saved summary for a page",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Required: true, Usage: "page URL"},
				},
				Action: deleteAction,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveAction,
			},
			{
				Name:  "popup",
				Usage: "Open the terminal popup for a page",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "page URL"},
					&cli.BoolFlag{Name: "cdp", Usage: "use the active tab of the Chrome at RECIPEBOX_CDP_URL"},
				},
				Action: popupAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "recipebox:", err)
		os.Exit(1)
	}
}

// initLogger configures slog based on the LogConfig. Logs go to stderr,
// or to cfg.File when set; the returned func closes that file.
func initLogger(cfg config.LogConfig) (func(), error) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var (
		w       io.Writer = os.Stderr
		closeFn           = func() {}
	)
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
	return closeFn, nil
}
