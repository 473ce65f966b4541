// Package gellius runs the Noctes Atticae word-frequency pipeline: TEI
// extraction, NLP filtering, frequency ranking and persistence.
package gellius

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cognicore/gellius/internal/logging"
	"github.com/cognicore/gellius/pkg/gellius/analytics"
	"github.com/cognicore/gellius/pkg/gellius/ingest"
	"github.com/cognicore/gellius/pkg/gellius/nlp"
	"github.com/cognicore/gellius/pkg/gellius/output"
	"github.com/cognicore/gellius/pkg/gellius/tei"
)

// Stage identifies the part of a run that failed.
type Stage string

const (
	StageExtract Stage = "extract"
	StageAnalyze Stage = "analyze"
	StageOutput  Stage = "output"
)

// StageError wraps the first error of a run with the stage it occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options configures a run
type Options struct {
	Input      string
	OutputDir  string
	Names      output.Names
	TopGlobal  int
	TopPerBook int
	HTMLReport bool
	TEI        tei.Options
	// Backend is recorded in the manifest.
	Backend string
}

// Gellius is one configured pipeline. The analyzer is shared by every
// chapter of the run and is not closed by Run.
type Gellius struct {
	opts     Options
	analyzer nlp.Analyzer
	log      *logging.Logger
}

// Result holds every artifact of a completed run.
type Result struct {
	Corpus   *tei.Corpus
	Tokens   *ingest.TokenCorpus
	Global   analytics.Ranking
	PerBook  analytics.BookRankings
	Manifest *output.Manifest
}

// New creates a pipeline around an already-built analyzer
func New(opts Options, analyzer nlp.Analyzer, log *logging.Logger) *Gellius {
	if log == nil {
		log = logging.NewDiscard()
	}
	if opts.TopGlobal <= 0 {
		opts.TopGlobal = analytics.DefaultTopGlobal
	}
	if opts.TopPerBook <= 0 {
		opts.TopPerBook = analytics.DefaultTopPerBook
	}
	opts.Names = opts.Names.WithDefaults()
	return &Gellius{opts: opts, analyzer: analyzer, log: log}
}

// Run executes extract, preprocess, rank and persist in order. It stops at
// the first error; artifacts already written stay valid.
func (g *Gellius) Run(ctx context.Context) (*Result, error) {
	nlpCfg := g.analyzer.Config()
	manifest := output.NewManifest(g.opts.Input)
	manifest.Backend = g.opts.Backend
	manifest.Language = nlpCfg.Language
	for _, s := range nlpCfg.Stages {
		manifest.Stages = append(manifest.Stages, string(s))
	}
	manifest.TopGlobal = g.opts.TopGlobal
	manifest.TopPerBook = g.opts.TopPerBook
	res := &Result{Manifest: manifest}

	// Extract
	g.log.Info("Extracting books from %s", g.opts.Input)
	corpus, err := tei.Extract(g.opts.Input, g.opts.TEI)
	if err != nil {
		return nil, &StageError{Stage: StageExtract, Err: err}
	}
	for _, d := range corpus.Duplicates {
		g.log.Warn("Book %d repeats the title %q of book %d; keeping the later one", d.Later, d.Title, d.First)
		manifest.Duplicates = append(manifest.Duplicates, d.Title)
	}
	manifest.Corpus = corpus.Stats()
	g.log.Info("Extracted %d books, %d chapters", manifest.Corpus.Books, manifest.Corpus.Chapters)
	res.Corpus = corpus
	if err := g.write(manifest, g.opts.Names.Extracted, corpus); err != nil {
		return nil, err
	}

	// Preprocess
	tokens, err := ingest.NewFilter(g.analyzer, g.log).Preprocess(ctx, corpus)
	if err != nil {
		return nil, &StageError{Stage: StageAnalyze, Err: err}
	}
	res.Tokens = tokens
	if err := g.write(manifest, g.opts.Names.Tokens, tokens); err != nil {
		return nil, err
	}
	if c, ok := g.analyzer.(*nlp.Cached); ok {
		hits, misses := c.Stats()
		g.log.Debug("Analysis cache: %d hits, %d misses", hits, misses)
	}

	// Rank
	res.Global = analytics.TopGlobal(tokens, g.opts.TopGlobal)
	if err := g.write(manifest, g.opts.Names.TopGlobal, res.Global); err != nil {
		return nil, err
	}
	res.PerBook = analytics.TopPerBook(tokens, g.opts.TopPerBook)
	if err := g.write(manifest, g.opts.Names.TopPerBook, res.PerBook); err != nil {
		return nil, err
	}
	manifest.Tokens = analytics.Summarize(tokens)

	if g.opts.HTMLReport {
		report := output.Report{Manifest: manifest, Global: res.Global, PerBook: res.PerBook}
		if err := output.WriteHTMLReport(g.path(g.opts.Names.Report), report); err != nil {
			return nil, &StageError{Stage: StageOutput, Err: err}
		}
		manifest.AddArtifact(g.opts.Names.Report)
	}

	manifest.Finish()
	if err := output.WriteJSON(g.path(g.opts.Names.Manifest), manifest); err != nil {
		return nil, &StageError{Stage: StageOutput, Err: err}
	}
	g.log.Info("Run %s finished in %s: %d tokens, %d distinct",
		manifest.RunID, manifest.Duration().Round(time.Millisecond), manifest.Tokens.Tokens, manifest.Tokens.Vocabulary)
	return res, nil
}

func (g *Gellius) write(m *output.Manifest, name string, v any) error {
	path := g.path(name)
	if err := output.WriteJSON(path, v); err != nil {
		return &StageError{Stage: StageOutput, Err: err}
	}
	m.AddArtifact(name)
	g.log.Info("Wrote %s", path)
	return nil
}

func (g *Gellius) path(name string) string {
	return filepath.Join(g.opts.OutputDir, name)
}
