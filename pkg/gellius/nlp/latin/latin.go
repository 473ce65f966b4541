// Package latin is the native Go Latin analysis pipeline.
package latin

import (
	"context"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/gellius/pkg/gellius/ingest"
	"github.com/cognicore/gellius/pkg/gellius/internalerr"
	"github.com/cognicore/gellius/pkg/gellius/lexicon"
	"github.com/cognicore/gellius/pkg/gellius/nlp"
	"github.com/cognicore/gellius/pkg/gellius/stoplist"
)

// Analyzer runs normalize → tokenize → stops → lexicon, limited to the
// stages enabled in its config.
type Analyzer struct {
	cfg       nlp.Config
	tokenizer *ingest.Tokenizer
	stops     *stoplist.Manager
	lexicon   *lexicon.Lexicon
}

// Options supplies the resources of the optional stages. A nil Stops uses
// the builtin Latin list; a nil Lexicon with the lexicon stage enabled is an
// error.
type Options struct {
	Stops     *stoplist.Manager
	Lexicon   *lexicon.Lexicon
	Tokenizer *ingest.Tokenizer
}

// New builds the analyzer once for the whole run.
func New(cfg nlp.Config, opts Options) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !supported(cfg.Language) {
		return nil, fmt.Errorf("latin analyzer: unsupported language %q: %w", cfg.Language, internalerr.ErrInvalidConfig)
	}

	a := &Analyzer{
		cfg:       nlp.Config{Language: cfg.Language, Stages: append([]nlp.Stage(nil), cfg.Stages...)},
		tokenizer: opts.Tokenizer,
		stops:     opts.Stops,
		lexicon:   opts.Lexicon,
	}
	if a.tokenizer == nil {
		a.tokenizer = ingest.NewLatinTokenizer()
	}
	if a.cfg.Enabled(nlp.StageStops) && a.stops == nil {
		a.stops = stoplist.DefaultLatin()
	}
	if a.cfg.Enabled(nlp.StageLexicon) && a.lexicon == nil {
		return nil, fmt.Errorf("latin analyzer: stage %q enabled without a lexicon: %w", nlp.StageLexicon, internalerr.ErrInvalidConfig)
	}
	return a, nil
}

func supported(lang string) bool {
	switch lang {
	case "lat", "la", "latin":
		return true
	}
	return false
}

func (a *Analyzer) Analyze(ctx context.Context, text string) (nlp.Doc, error) {
	if err := ctx.Err(); err != nil {
		return nlp.Doc{}, err
	}

	if a.cfg.Enabled(nlp.StageNormalize) {
		text = norm.NFC.String(text)
	}

	words := a.tokenizer.Tokenize(text)
	doc := nlp.Doc{Tokens: make([]nlp.Token, len(words))}
	for i, w := range words {
		tok := nlp.Token{Text: w}
		if a.cfg.Enabled(nlp.StageStops) {
			tok.Stop = a.stops.IsStop(w)
		}
		if a.cfg.Enabled(nlp.StageLexicon) && !tok.Stop && !ingest.IsPunctuation(w) {
			tok.Text = a.lexicon.Lemmatize(w)
		}
		doc.Tokens[i] = tok
	}
	return doc, nil
}

func (a *Analyzer) Config() nlp.Config {
	return a.cfg
}

func (a *Analyzer) Close() error {
	return nil
}
