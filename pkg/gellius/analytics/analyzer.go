package analytics

import (
	"bytes"
	"encoding/json"

	"github.com/cognicore/gellius/internal/orderedjson"
	"github.com/cognicore/gellius/pkg/gellius/ingest"
)

// Default ranking sizes of the historical artifacts.
const (
	DefaultTopGlobal  = 100
	DefaultTopPerBook = 30
)

// BookRanking is the ranking of a single book.
type BookRanking struct {
	Title   string
	Ranking Ranking
}

// BookRankings keeps per-book rankings in book order.
type BookRankings []BookRanking

// MarshalJSON encodes {"title": [["token", count], ...], ...}.
func (br BookRankings) MarshalJSON() ([]byte, error) {
	titles := make([]string, len(br))
	rankings := make([]Ranking, len(br))
	for i, b := range br {
		titles[i] = b.Title
		rankings[i] = b.Ranking
		if rankings[i] == nil {
			rankings[i] = Ranking{}
		}
	}
	return orderedjson.Object(titles, rankings)
}

func (br *BookRankings) UnmarshalJSON(data []byte) error {
	titles, rankings, err := orderedjson.Decode[Ranking](data)
	if err != nil {
		return err
	}
	out := make(BookRankings, len(titles))
	for i := range titles {
		out[i] = BookRanking{Title: titles[i], Ranking: rankings[i]}
	}
	*br = out
	return nil
}

// Get returns the ranking of a book.
func (br BookRankings) Get(title string) (Ranking, bool) {
	for _, b := range br {
		if b.Title == title {
			return b.Ranking, true
		}
	}
	return nil, false
}

// CountBook counts every token of every chapter of one book.
func CountBook(book ingest.TokenBook) *Counter {
	c := NewCounter()
	for _, chapter := range book.Chapters {
		c.Add(chapter...)
	}
	return c
}

// CountCorpus counts every token of the corpus, books in order.
func CountCorpus(tc *ingest.TokenCorpus) *Counter {
	c := NewCounter()
	for _, book := range tc.Books {
		for _, chapter := range book.Chapters {
			c.Add(chapter...)
		}
	}
	return c
}

// TopGlobal ranks the n most frequent tokens across the whole corpus.
func TopGlobal(tc *ingest.TokenCorpus, n int) Ranking {
	return CountCorpus(tc).MostCommon(n)
}

// TopPerBook ranks the n most frequent tokens of each book independently.
func TopPerBook(tc *ingest.TokenCorpus, n int) BookRankings {
	out := make(BookRankings, 0, len(tc.Books))
	for _, book := range tc.Books {
		out = append(out, BookRanking{
			Title:   book.Title,
			Ranking: CountBook(book).MostCommon(n),
		})
	}
	return out
}

// BookSummary holds token totals for one book.
type BookSummary struct {
	Title      string `json:"title"`
	Chapters   int    `json:"chapters"`
	Tokens     int    `json:"tokens"`
	Vocabulary int    `json:"vocabulary"`
}

// Summary holds corpus-wide token totals.
type Summary struct {
	Books      []BookSummary `json:"books"`
	Chapters   int           `json:"chapters"`
	Tokens     int           `json:"tokens"`
	Vocabulary int           `json:"vocabulary"`
}

// Summarize computes token and vocabulary sizes per book and overall.
func Summarize(tc *ingest.TokenCorpus) Summary {
	s := Summary{Books: make([]BookSummary, 0, len(tc.Books))}
	for _, book := range tc.Books {
		c := CountBook(book)
		s.Books = append(s.Books, BookSummary{
			Title:      book.Title,
			Chapters:   len(book.Chapters),
			Tokens:     c.Total(),
			Vocabulary: c.Len(),
		})
		s.Chapters += len(book.Chapters)
	}
	all := CountCorpus(tc)
	s.Tokens = all.Total()
	s.Vocabulary = all.Len()
	return s
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
