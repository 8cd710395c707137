package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"mpdreader/internal/api"
	"mpdreader/internal/catalog"
	"mpdreader/internal/config"
	"mpdreader/internal/dash"
	"mpdreader/internal/logger"
	"mpdreader/internal/models"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// 1. Parse command-line arguments
	flags := flag.NewFlagSet("mpdreader", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configFile := flags.String("c", "manifests.json", "Path to the manifest config file")
	logLevel := flags.String("L", "info", "Log level (error, warn, info, debug)")
	logFormat := flags.String("F", "json", "Log format (json, text)")
	outputDir := flags.String("o", "", "Directory to write HLS playlists to")
	listenAddr := flags.String("l", "", "HTTP listen address; serves playlists instead of exiting")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	// 2. Initialize logger
	log := logger.New(stderr, *logLevel, *logFormat)
	log.Infof("Starting MPD reader...")
	log.Infof("Log level set to: %s", *logLevel)

	// 3. Load configuration
	var cfg *config.Config
	if flags.NArg() > 0 {
		cfg = config.FromSources(flags.Args())
	} else {
		var err error
		cfg, err = config.LoadConfig(*configFile)
		if err != nil {
			log.Errorf("Failed to load configuration: %v", err)
			return 1
		}
	}
	log.Infof("Configuration loaded successfully for: %s (%d manifests)", cfg.Name, len(cfg.Manifests))
	if *outputDir == "" {
		*outputDir = cfg.OutputDir
	}

	// 4. Initialize services and managers
	dashClient := dash.NewClient(log)
	catalogMgr := catalog.NewManager(log, cfg, dashClient)

	if *listenAddr != "" {
		return serve(log, catalogMgr, *listenAddr)
	}

	// 5. Load, expand and report every manifest
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports, loadErr := catalogMgr.LoadAll(ctx)
	if loadErr != nil {
		log.Errorf("Some manifests could not be parsed: %v", loadErr)
	}

	// 6. Write playlists for the manifests that parsed
	if *outputDir != "" {
		if err := writePlaylists(ctx, catalogMgr, reports, *outputDir); err != nil {
			log.Errorf("Failed to write playlists: %v", err)
			return 1
		}
		log.Infof("Playlists written to %s", *outputDir)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		log.Errorf("Failed to write reports: %v", err)
		return 1
	}

	if loadErr != nil {
		return 1
	}
	return 0
}

func writePlaylists(ctx context.Context, catalogMgr *catalog.Manager, reports []models.ManifestReport, dir string) error {
	for _, report := range reports {
		if report.Status != models.StatusParsed {
			continue
		}
		entry, err := catalogMgr.GetOrLoad(ctx, report.ID)
		if err != nil {
			return err
		}
		if err := entry.WritePlaylists(filepath.Join(dir, report.ID)); err != nil {
			return fmt.Errorf("manifest %s: %w", report.ID, err)
		}
	}
	return nil
}

func serve(log logger.Logger, catalogMgr *catalog.Manager, listenAddr string) int {
	// Set up API router with dependencies
	router := api.New(catalogMgr, log)

	// Set up and run the HTTP server with graceful shutdown
	server := &http.Server{
		Addr:    listenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Server starting on %s", listenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Listen for shutdown signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		log.Errorf("Could not listen on %s: %v", listenAddr, err)
		return 1
	case <-quit:
	}
	log.Infof("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Server shutdown failed: %v", err)
		return 1
	}

	log.Infof("Server exited gracefully")
	return 0
}
