package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cognicore/gellius/internal/logging"
	"github.com/cognicore/gellius/pkg/gellius"
	"github.com/cognicore/gellius/pkg/gellius/config"
	"github.com/cognicore/gellius/pkg/gellius/internalerr"
	"github.com/cognicore/gellius/pkg/gellius/tei"
)

// Exit codes
const (
	exitOK = iota
	exitConfig
	exitExtract
	exitAnalyze
	exitOutput
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gellius-analytics", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML config file (optional)")
		input      = fs.String("input", "", "TEI XML input (default data/books.xml)")
		outDir     = fs.String("out", "", "Output directory (default data)")
		top        = fs.Int("top", 0, "Size of the global ranking (default 100)")
		topPerBook = fs.Int("top-per-book", 0, "Size of each per-book ranking (default 30)")
		backend    = fs.String("backend", "", "Analyzer backend: latin, prose or cltk")
		logLevel   = fs.String("log-level", "", "debug, info, warn or error")
		report     = fs.Bool("report", false, "Also write an HTML summary")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return exitConfig
	}
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(stderr, "environment: %v\n", err)
		return exitConfig
	}

	// Flags win over file and environment
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = *input
		case "out":
			cfg.OutputDir = *outDir
		case "top":
			cfg.TopGlobal = *top
		case "top-per-book":
			cfg.TopPerBook = *topPerBook
		case "backend":
			cfg.Analyzer.Backend = *backend
		case "log-level":
			cfg.LogLevel = *logLevel
		case "report":
			cfg.HTMLReport = *report
		}
	})

	log := logging.NewWithWriters(cfg.LogLevel, stdout, stderr)

	components, err := (&config.Loader{Config: cfg, Logger: log}).Load(ctx)
	if err != nil {
		log.Error("%v", err)
		return exitCode(err)
	}
	defer func() {
		if err := components.Analyzer.Close(); err != nil {
			log.Warn("close analyzer: %v", err)
		}
	}()

	g := gellius.New(gellius.Options{
		Input:      cfg.Input,
		OutputDir:  cfg.OutputDir,
		Names:      cfg.Outputs,
		TopGlobal:  cfg.TopGlobal,
		TopPerBook: cfg.TopPerBook,
		HTMLReport: cfg.HTMLReport,
		TEI:        tei.Options{RejectDuplicateTitles: cfg.RejectDuplicateTitles},
		Backend:    cfg.Analyzer.Backend,
	}, components.Analyzer, log)

	if _, err := g.Run(ctx); err != nil {
		log.Error("%v", err)
		return exitCode(err)
	}
	return exitOK
}

// exitCode maps a failure to the stage it came from.
func exitCode(err error) int {
	var se *gellius.StageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &se):
		switch se.Stage {
		case gellius.StageExtract:
			return exitExtract
		case gellius.StageAnalyze:
			return exitAnalyze
		default:
			return exitOutput
		}
	case errors.Is(err, internalerr.ErrInvalidConfig):
		return exitConfig
	case errors.Is(err, internalerr.ErrAnalyzer):
		return exitAnalyze
	case errors.Is(err, internalerr.ErrOutput):
		return exitOutput
	default:
		return exitConfig
	}
}
