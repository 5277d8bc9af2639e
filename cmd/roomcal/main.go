package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"roomcal/internal/analyze"
	"roomcal/internal/capture"
	"roomcal/internal/config"
	"roomcal/internal/ics"
	"roomcal/internal/ingest"
	appLog "roomcal/internal/log"
	"roomcal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	csvPath    string
	serve      bool
	export     string
	snapshot   string
	debug      bool
}

func main() {
	appLog.Info("roomcal starting", "version", "0.1.0")

	flags := parseFlags()
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI overrides.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.csvPath != "" {
		conf.Source.Path = flags.csvPath
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"year", conf.Year,
		"source_path", conf.Source.Path,
		"source_url", conf.Source.URL != "",
		"refresh", conf.RefreshCron,
		"serve", flags.serve,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	switch {
	case flags.serve:
		err = runServe(ctx, conf)
	case flags.snapshot != "":
		err = runSnapshot(ctx, conf, flags.snapshot)
	default:
		err = runOnce(ctx, conf, flags.export)
	}
	if err != nil {
		appLog.Error("roomcal failed", err)
		os.Exit(1)
	}

	appLog.Info("roomcal exiting")
}

// runOnce ingests the sheet, runs the pipeline once and prints the
// summary; with -export it also writes the occurrence calendar.
func runOnce(ctx context.Context, conf *config.Config, exportPath string) error {
	src := ingest.Source{
		Path:     conf.Source.Path,
		URL:      conf.Source.URL,
		CacheDir: conf.CacheDir,
	}
	bookings, ingestErrs, err := src.Load(ctx)
	if err != nil {
		return err
	}

	a := analyze.Run(bookings, conf.Year)
	printSummary(a, len(ingestErrs))

	if exportPath != "" {
		if err := ics.WriteFile(exportPath, a); err != nil {
			return err
		}
		appLog.Info("ICS export written", "path", exportPath, "events", len(a.Occurrences))
	}
	return nil
}

// runServe runs the HTTP server with a cron-driven refresh of the
// cached analysis.
func runServe(ctx context.Context, conf *config.Config) error {
	s := web.NewServer(conf)

	// Initial fill; serving starts even if the first ingest fails
	// (requests will retry through the cache path).
	if err := s.Refresh(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		if err := s.Refresh(context.Background()); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", conf.RefreshCron, err)
	}
	c.Start()
	defer c.Stop()

	return s.ListenAndServe(ctx)
}

// runSnapshot starts a temporary server, captures the report page as a
// PNG and exits.
func runSnapshot(ctx context.Context, conf *config.Config, outputPath string) error {
	s := web.NewServer(conf)
	if err := s.Refresh(ctx); err != nil {
		return err
	}

	serveCtx, stopServe := context.WithCancel(ctx)
	defer stopServe()
	go func() {
		if err := s.ListenAndServe(serveCtx); err != nil {
			appLog.Error("snapshot server failed", err)
		}
	}()

	// Give the listener a moment to come up.
	time.Sleep(300 * time.Millisecond)

	err := capture.ReportPNG(ctx, capture.Options{
		URL:        "http://" + conf.Listen + "/report",
		OutputPath: outputPath,
	})
	if err != nil {
		return err
	}
	appLog.Info("report snapshot written", "path", outputPath)
	return nil
}

func printSummary(a *analyze.Analysis, skipped int) {
	st := a.Stats
	fmt.Printf("Room booking analysis %d\n", a.Year)
	fmt.Printf("  bookings:        %d (%d records skipped)\n", st.TotalBookings, skipped)
	fmt.Printf("  occurrences:     %d\n", st.TotalOccurrences)
	fmt.Printf("  conflicts:       %d\n", st.TotalConflicts)
	fmt.Printf("  rooms/groups:    %d/%d\n", st.TotalRooms, st.TotalGroups)
	fmt.Printf("  recommendations: %d (%s%% conflict-free)\n", st.TotalRecommendations, st.ConflictFreePercent)
	fmt.Printf("  most contested:  %s (%d conflicts)\n", st.TopConflictRoom.Room, st.TopConflictRoom.Count)

	for _, rec := range a.Recommendations {
		fmt.Printf("  -> %s / %s on %s: %s (%s)\n",
			rec.Key.Group, rec.Key.Activity, rec.Key.StartDate.Format("2006-01-02"),
			rec.Room, rec.Justification)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "roomcal.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.csvPath, "csv", "", "Reservation sheet CSV path (overrides config source)")
	flag.BoolVar(&cfg.serve, "serve", false, "Serve the HTTP API with periodic refresh")
	flag.StringVar(&cfg.export, "export", "", "Write the occurrence calendar to this ICS file and exit")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "Write a PNG snapshot of the report page and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
