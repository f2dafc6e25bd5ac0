package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/breakerview/breakerview/pkg/log"
	"github.com/breakerview/breakerview/pkg/monitor"
	"github.com/breakerview/breakerview/pkg/report"
	"github.com/breakerview/breakerview/pkg/storage"
	"github.com/breakerview/breakerview/pkg/types"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
)

// options are the flags that select what run prints.
type options struct {
	report        string
	at            time.Time
	historyView   types.View
	historyWindow time.Duration
}

func main() {
	// init packages
	m := monitor.Configured()
	s := storage.Configured()
	r := report.Configured(m, s)

	which := lflag.String("report", "summary", "Report to print (summary, day, month, year, panels, history)")
	at := lflag.String("at", "", "RFC3339 time to report on instead of now")
	historyView := lflag.String("history-view", "day", "View listed by the history report (day, month, year)")
	historyWindow := lflag.Duration("history-window", 30*24*time.Hour, "How far back the history report reaches")

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag automatically sets llog's level, but we need to set the slog level
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}

	// stdout carries the report
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	log.SetDefaultLogLevel(level)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = log.WithRequestID(log.With(ctx, logger))

	closeStorage := func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}

	opts, err := parseOptions(*which, *at, *historyView, *historyWindow, time.Now())
	if err == nil {
		err = run(ctx, r, opts, os.Stdout)
	}
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "report failed", slog.String("report", *which), slog.Any("error", err))
		// deferred functions don't run on os.Exit
		closeStorage()
		os.Exit(1)
	}
	closeStorage()
}

func parseOptions(which, at, historyView string, historyWindow time.Duration, now time.Time) (options, error) {
	opts := options{report: which, at: now, historyWindow: historyWindow}
	if at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return options{}, fmt.Errorf("invalid at (%s): %w", at, err)
		}
		opts.at = t
	}
	view, err := types.ParseView(historyView)
	if err != nil {
		return options{}, fmt.Errorf("invalid history-view: %w", err)
	}
	opts.historyView = view
	if historyWindow < 0 {
		return options{}, fmt.Errorf("history-window cannot be negative: %s", historyWindow)
	}
	return opts, nil
}

// run builds the selected report and writes it to w as JSON. Nothing else is
// written to w.
func run(ctx context.Context, r *report.Reporter, opts options, w io.Writer) error {
	out, err := build(ctx, r, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func build(ctx context.Context, r *report.Reporter, opts options) (any, error) {
	switch opts.report {
	case "summary":
		return r.Summary(ctx, opts.at)
	case "panels":
		return r.Panels(ctx)
	case "history":
		return r.History(ctx, opts.historyView, opts.at.Add(-opts.historyWindow), opts.at)
	default:
		view, err := types.ParseView(opts.report)
		if err != nil {
			return nil, fmt.Errorf("unknown report %q", opts.report)
		}
		return r.Series(ctx, view, opts.at)
	}
}
