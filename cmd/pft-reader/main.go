package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/George-Forgey/PFT-Reader/internal/config"
	"github.com/George-Forgey/PFT-Reader/internal/imaging"
	"github.com/George-Forgey/PFT-Reader/internal/logging"
	"github.com/George-Forgey/PFT-Reader/internal/ocr"
	"github.com/George-Forgey/PFT-Reader/internal/pipeline"
	"github.com/George-Forgey/PFT-Reader/internal/server"
	"github.com/George-Forgey/PFT-Reader/internal/storage"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("pft-reader - read pulmonary function test tables from screenshots")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  pft-reader                                   Run the MCP server on stdin/stdout")
	fmt.Println("  pft-reader read <template> <screenshot> [csv]  Read one screenshot and print the report")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from .env):")
	fmt.Println("  PFT_LAYOUT_PATH=layout.json   Table layout file (required to read tables)")
	fmt.Println("  PFT_LOG_LEVEL=debug           debug, info, warn or error")
	fmt.Println("  PFT_OCR_LANGUAGE=eng          Tesseract language")
	fmt.Println("  PFT_TESSDATA_PREFIX=dir       Tesseract data directory")
	fmt.Println("  PFT_MATCH_THRESHOLD=0.2       Override the layout's match threshold")
	fmt.Println("  PFT_DEBUG_DIR=dir             Write cropped tables and cells per run")
	fmt.Println("  DATABASE_URL=postgres://...   Record every run in PostgreSQL")
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("pft-reader %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pft-reader: %v\n", err)
		os.Exit(1)
	}

	log := logging.NewLogger("pft-reader", logging.ParseLevel(cfg.LogLevel))
	log.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "read" {
		if err := runRead(ctx, cfg, log, os.Args[2:]); err != nil {
			log.Error("read failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := runServer(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildPipeline wires the reader's stages from cfg. The returned cleanup
// closes the run store, if one was opened.
func buildPipeline(ctx context.Context, cfg *config.Config, log *logging.Logger, reader ocr.Reader, cache *imaging.ImageCache) (*pipeline.Pipeline, func(), error) {
	layout, err := config.LoadLayout(cfg.LayoutPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.Apply(layout)

	opts := pipeline.Options{
		Layout:   layout,
		Reader:   reader,
		Logger:   log,
		Cache:    cache,
		DebugDir: cfg.DebugDir,
	}

	cleanup := func() {}
	if cfg.DatabaseURL != "" {
		store, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL, "")
		if err != nil {
			return nil, nil, err
		}
		opts.Recorder = store
		cleanup = func() {
			if err := store.Close(); err != nil {
				log.Warn("failed to close run store", "error", err)
			}
		}
		log.Info("recording runs in postgres")
	}

	p, err := pipeline.New(opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	log.Info("layout loaded", "path", layout.Path, "rows", layout.Grid.NumRows(), "cols", layout.Grid.NumCols())
	return p, cleanup, nil
}

func newReader(cfg *config.Config, log *logging.Logger) *ocr.TesseractReader {
	reader := ocr.NewTesseractReader(ocr.TesseractOptions{
		Language:       cfg.OCRLanguage,
		TessdataPrefix: cfg.TessdataPrefix,
	})
	log.Debug("ocr ready", "tesseract", reader.Version(), "language", cfg.OCRLanguage)
	return reader
}

func runRead(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		usage()
		return fmt.Errorf("read needs a template and a screenshot")
	}
	if cfg.LayoutPath == "" {
		return fmt.Errorf("PFT_LAYOUT_PATH is not set")
	}

	p, cleanup, err := buildPipeline(ctx, cfg, log, newReader(cfg, log), imaging.NewImageCache())
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := p.RunFiles(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if !res.Matched() {
		return fmt.Errorf("table not found in %s (best score %.3f)", args[1], res.Match.Score)
	}

	if len(args) == 3 {
		f, err := os.Create(args[2])
		if err != nil {
			return fmt.Errorf("failed to create csv: %w", err)
		}
		if err := res.Table.WriteCSV(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Info("table written", "path", args[2])
	}

	fmt.Println(res.Report.String())
	return nil
}

func runServer(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	cache := imaging.NewImageCache()
	reader := newReader(cfg, log)
	opts := server.Options{Reader: reader, Cache: cache, Logger: log.With("server")}

	if cfg.LayoutPath == "" {
		log.Warn("PFT_LAYOUT_PATH not set; table tools are disabled")
		return server.New(opts).Run(ctx)
	}

	p, cleanup, err := buildPipeline(ctx, cfg, log.With("pipeline"), reader, cache)
	if err != nil {
		return err
	}
	defer cleanup()
	opts.Pipeline = p
	srv := server.New(opts)

	watcher, err := config.NewLayoutWatcher(cfg.LayoutPath)
	if err != nil {
		log.Warn("layout reloading disabled", "error", err)
	} else {
		defer watcher.Close()
		go func() {
			err := watcher.Run(ctx, func(l *config.Layout) {
				cfg.Apply(l)
				srv.UpdateLayout(l)
				log.Info("layout reloaded", "path", l.Path)
			}, func(err error) {
				log.Warn("layout reload failed", "error", err)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("layout watcher stopped", "error", err)
			}
		}()
	}

	return srv.Run(ctx)
}
