package config

import (
	"context"
	"fmt"

	"github.com/cognicore/gellius/internal/logging"
	"github.com/cognicore/gellius/pkg/gellius/internalerr"
	"github.com/cognicore/gellius/pkg/gellius/lexicon"
	"github.com/cognicore/gellius/pkg/gellius/nlp"
	"github.com/cognicore/gellius/pkg/gellius/nlp/cltk"
	"github.com/cognicore/gellius/pkg/gellius/nlp/latin"
	"github.com/cognicore/gellius/pkg/gellius/nlp/prosenlp"
	"github.com/cognicore/gellius/pkg/gellius/stoplist"
)

// Loader reads the resource files named by a Config and constructs the
// analyzer for the run.
type Loader struct {
	Config *Config
	Logger *logging.Logger
}

// Components holds everything built from the configuration
type Components struct {
	NLP      nlp.Config
	Stops    *stoplist.Manager
	Lexicon  *lexicon.Lexicon
	Analyzer nlp.Analyzer
}

// Load builds the components. The caller owns Analyzer and must Close it.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}
	log := l.Logger
	if log == nil {
		log = logging.NewDiscard()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	nlpCfg, err := cfg.NLPConfig()
	if err != nil {
		return nil, err
	}
	comp := &Components{NLP: nlpCfg}

	// Load stoplist
	if cfg.Analyzer.Stoplist != "" {
		comp.Stops, err = stoplist.Load(cfg.Analyzer.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("%w: load stoplist: %w", internalerr.ErrInvalidConfig, err)
		}
		log.Debug("Loaded %d stop-words from %s", comp.Stops.Len(), cfg.Analyzer.Stoplist)
	} else if cfg.Analyzer.Backend != BackendCLTK && nlpCfg.Enabled(nlp.StageStops) {
		comp.Stops, err = stoplist.ForLanguage(nlpCfg.Language)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", internalerr.ErrInvalidConfig, err)
		}
	}

	// Load lexicon
	if cfg.Analyzer.Lexicon != "" {
		comp.Lexicon, err = lexicon.LoadFromYAML(cfg.Analyzer.Lexicon)
		if err != nil {
			return nil, fmt.Errorf("%w: load lexicon: %w", internalerr.ErrInvalidConfig, err)
		}
		stats := comp.Lexicon.Stats()
		log.Debug("Loaded %d lemmas (%d forms) from %s", stats.Lemmas, stats.Forms, cfg.Analyzer.Lexicon)
	}

	var analyzer nlp.Analyzer
	switch cfg.Analyzer.Backend {
	case BackendLatin:
		analyzer, err = latin.New(nlpCfg, latin.Options{Stops: comp.Stops, Lexicon: comp.Lexicon})
	case BackendProse:
		analyzer, err = prosenlp.New(nlpCfg, comp.Stops, comp.Lexicon)
	case BackendCLTK:
		analyzer, err = cltk.New(ctx, nlpCfg, cltk.Options{
			Python:       cfg.Analyzer.CLTK.Python,
			Script:       cfg.Analyzer.CLTK.Script,
			StartTimeout: cfg.Analyzer.CLTK.StartTimeout,
			Logger:       log,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("build %s analyzer: %w", cfg.Analyzer.Backend, err)
	}

	if cfg.Analyzer.Cache {
		analyzer = nlp.NewCached(analyzer)
	}
	comp.Analyzer = analyzer
	log.Info("Analyzer %s ready: %s", cfg.Analyzer.Backend, nlpCfg)
	return comp, nil
}
