// Package nlp defines the language-analysis collaborator used by the
// tokenizer/filter stage. Backends live in subpackages.
package nlp

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cognicore/gellius/pkg/gellius/internalerr"
)

// Stage names one step of an analysis pipeline.
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageTokenize  Stage = "tokenize"
	StageStops     Stage = "stops"
	StageLexicon   Stage = "lexicon"
)

// DefaultStages is the full default pipeline, in execution order.
func DefaultStages() []Stage {
	return []Stage{StageNormalize, StageTokenize, StageStops, StageLexicon}
}

// ParseStage validates a configured stage name.
func ParseStage(s string) (Stage, error) {
	st := Stage(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(DefaultStages(), st) {
		return "", fmt.Errorf("unknown stage %q: %w", s, internalerr.ErrInvalidConfig)
	}
	return st, nil
}

// Config fixes the language and enabled stages of an analyzer at
// construction. It is never mutated afterwards.
type Config struct {
	Language string
	Stages   []Stage
}

// DefaultConfig returns the full default pipeline for a language.
func DefaultConfig(lang string) Config {
	return Config{Language: lang, Stages: DefaultStages()}
}

// WithoutFinal returns a copy with the last stage removed.
func (c Config) WithoutFinal() Config {
	out := Config{Language: c.Language}
	if len(c.Stages) > 0 {
		out.Stages = slices.Clone(c.Stages[:len(c.Stages)-1])
	}
	return out
}

// Enabled reports whether a stage is part of the pipeline.
func (c Config) Enabled(s Stage) bool {
	return slices.Contains(c.Stages, s)
}

// Validate checks that the pipeline can produce tokens.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Language) == "" {
		return fmt.Errorf("language is required: %w", internalerr.ErrInvalidConfig)
	}
	if !c.Enabled(StageTokenize) {
		return fmt.Errorf("stage %q is required: %w", StageTokenize, internalerr.ErrInvalidConfig)
	}
	seen := make(map[Stage]bool, len(c.Stages))
	for _, s := range c.Stages {
		if seen[s] {
			return fmt.Errorf("stage %q listed twice: %w", s, internalerr.ErrInvalidConfig)
		}
		seen[s] = true
	}
	return nil
}

func (c Config) String() string {
	names := make([]string, len(c.Stages))
	for i, s := range c.Stages {
		names[i] = string(s)
	}
	return c.Language + "[" + strings.Join(names, ",") + "]"
}

// Token is one emitted token and its stop-word tag.
type Token struct {
	Text string
	Stop bool
}

// Doc is the result of analyzing one text.
type Doc struct {
	Tokens []Token
}

// StopsFiltered returns token texts with stop-words removed, in emission order.
func (d Doc) StopsFiltered() []string {
	out := make([]string, 0, len(d.Tokens))
	for _, t := range d.Tokens {
		if !t.Stop {
			out = append(out, t.Text)
		}
	}
	return out
}

// Texts returns every token text, stop-words included.
func (d Doc) Texts() []string {
	out := make([]string, len(d.Tokens))
	for i, t := range d.Tokens {
		out[i] = t.Text
	}
	return out
}

// Analyzer turns text into a token stream. Implementations are expensive to
// build and are meant to be created once per run.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (Doc, error)
	Config() Config
	Close() error
}
