package ingest

import (
	"context"
	"fmt"

	"github.com/cognicore/gellius/internal/logging"
	"github.com/cognicore/gellius/internal/orderedjson"
	"github.com/cognicore/gellius/pkg/gellius/internalerr"
	"github.com/cognicore/gellius/pkg/gellius/nlp"
	"github.com/cognicore/gellius/pkg/gellius/tei"
)

// Punctuation is the fixed set of marks dropped after stop-word filtering.
var Punctuation = map[string]struct{}{
	".": {}, ",": {}, ";": {}, "?": {}, "!": {}, "(": {}, ")": {},
}

// IsPunctuation reports whether tok is one of the filtered marks.
func IsPunctuation(tok string) bool {
	_, ok := Punctuation[tok]
	return ok
}

// TokenBook is a book whose chapters have been reduced to filtered tokens.
type TokenBook struct {
	Title    string
	Chapters [][]string
}

// TokenCorpus has the shape of tei.Corpus with token lists for chapters.
type TokenCorpus struct {
	Books []TokenBook
}

// MarshalJSON encodes {"title": [["tok", ...], ...], ...} in book order.
func (tc *TokenCorpus) MarshalJSON() ([]byte, error) {
	titles := make([]string, len(tc.Books))
	chapters := make([][][]string, len(tc.Books))
	for i, b := range tc.Books {
		titles[i] = b.Title
		chapters[i] = make([][]string, len(b.Chapters))
		for j, ch := range b.Chapters {
			if ch == nil {
				ch = []string{}
			}
			chapters[i][j] = ch
		}
	}
	return orderedjson.Object(titles, chapters)
}

// UnmarshalJSON reads a previously written token artifact.
func (tc *TokenCorpus) UnmarshalJSON(data []byte) error {
	titles, chapters, err := orderedjson.Decode[[][]string](data)
	if err != nil {
		return err
	}
	tc.Books = make([]TokenBook, len(titles))
	for i, title := range titles {
		tc.Books[i] = TokenBook{Title: title, Chapters: chapters[i]}
	}
	return nil
}

// Filter runs chapters through an analyzer and drops stop-words and
// punctuation. The analyzer is shared across every chapter of the run.
type Filter struct {
	analyzer nlp.Analyzer
	log      *logging.Logger
}

// NewFilter creates a filter around an already-built analyzer.
func NewFilter(analyzer nlp.Analyzer, log *logging.Logger) *Filter {
	if log == nil {
		log = logging.NewDiscard()
	}
	return &Filter{analyzer: analyzer, log: log}
}

// Chapter filters one chapter text. The result is never nil.
func (f *Filter) Chapter(ctx context.Context, text string) ([]string, error) {
	doc, err := f.analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(doc.Tokens))
	for _, tok := range doc.StopsFiltered() {
		if IsPunctuation(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// Preprocess filters every chapter of every book, preserving order and
// chapter count.
func (f *Filter) Preprocess(ctx context.Context, corpus *tei.Corpus) (*TokenCorpus, error) {
	f.log.Info("Preprocessing %d books with %s", len(corpus.Books), f.analyzer.Config())

	out := &TokenCorpus{Books: make([]TokenBook, 0, len(corpus.Books))}
	for _, book := range corpus.Books {
		f.log.Info("Analyzing %s", book.Title)

		chapters := make([][]string, len(book.Chapters))
		for i, text := range book.Chapters {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			tokens, err := f.Chapter(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("%w: book %q chapter %d: %w", internalerr.ErrAnalyzer, book.Title, i+1, err)
			}
			chapters[i] = tokens
		}
		out.Books = append(out.Books, TokenBook{Title: book.Title, Chapters: chapters})
		f.log.Debug("%s: %d chapters", book.Title, len(chapters))
	}
	return out, nil
}
