// Package prosenlp tokenizes with the prose library. Segmentation, tagging
// and entity extraction are switched off when the analyzer is built.
package prosenlp

import (
	"context"
	"fmt"

	"github.com/jdkato/prose/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/gellius/pkg/gellius/ingest"
	"github.com/cognicore/gellius/pkg/gellius/internalerr"
	"github.com/cognicore/gellius/pkg/gellius/lexicon"
	"github.com/cognicore/gellius/pkg/gellius/nlp"
	"github.com/cognicore/gellius/pkg/gellius/stoplist"
)

type Analyzer struct {
	cfg     nlp.Config
	opts    []prose.DocOpt
	stops   *stoplist.Manager
	lexicon *lexicon.Lexicon
}

// New builds a prose-backed analyzer. Stop tagging uses stops, or the
// builtin list for the configured language when stops is nil.
func New(cfg nlp.Config, stops *stoplist.Manager, lex *lexicon.Lexicon) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Enabled(nlp.StageStops) && stops == nil {
		var err error
		stops, err = stoplist.ForLanguage(cfg.Language)
		if err != nil {
			return nil, fmt.Errorf("prose analyzer: %v: %w", err, internalerr.ErrInvalidConfig)
		}
	}
	if cfg.Enabled(nlp.StageLexicon) && lex == nil {
		return nil, fmt.Errorf("prose analyzer: stage %q enabled without a lexicon: %w", nlp.StageLexicon, internalerr.ErrInvalidConfig)
	}

	return &Analyzer{
		cfg: nlp.Config{Language: cfg.Language, Stages: append([]nlp.Stage(nil), cfg.Stages...)},
		opts: []prose.DocOpt{
			prose.WithTokenization(true),
			prose.WithSegmentation(false),
			prose.WithTagging(false),
			prose.WithExtraction(false),
		},
		stops:   stops,
		lexicon: lex,
	}, nil
}

func (a *Analyzer) Analyze(ctx context.Context, text string) (nlp.Doc, error) {
	if err := ctx.Err(); err != nil {
		return nlp.Doc{}, err
	}
	if a.cfg.Enabled(nlp.StageNormalize) {
		text = norm.NFC.String(text)
	}

	pdoc, err := prose.NewDocument(text, a.opts...)
	if err != nil {
		return nlp.Doc{}, fmt.Errorf("prose: %w", err)
	}

	ptoks := pdoc.Tokens()
	doc := nlp.Doc{Tokens: make([]nlp.Token, 0, len(ptoks))}
	for _, pt := range ptoks {
		if pt.Text == "" {
			continue
		}
		tok := nlp.Token{Text: pt.Text}
		if a.cfg.Enabled(nlp.StageStops) {
			tok.Stop = a.stops.IsStop(pt.Text)
		}
		if a.cfg.Enabled(nlp.StageLexicon) && !tok.Stop && !ingest.IsPunctuation(pt.Text) {
			tok.Text = a.lexicon.Lemmatize(pt.Text)
		}
		doc.Tokens = append(doc.Tokens, tok)
	}
	return doc, nil
}

func (a *Analyzer) Config() nlp.Config {
	return a.cfg
}

func (a *Analyzer) Close() error {
	return nil
}
