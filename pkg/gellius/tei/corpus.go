package tei

import (
	"unicode/utf8"

	"github.com/cognicore/gellius/internal/orderedjson"
)

// Book is one book-level textpart with its chapter texts in document order.
// A chapter has no identity beyond its index in Chapters.
type Book struct {
	Title    string
	Chapters []string
}

// Corpus maps book titles to chapters, keeping document order.
type Corpus struct {
	Books []Book

	// Duplicates records titles that appeared more than once (last wins).
	Duplicates []DuplicateTitle
}

// DuplicateTitle describes an overwritten book. Positions are 1-based.
type DuplicateTitle struct {
	Title string
	First int
	Later int
}

// Titles returns the book titles in order.
func (c *Corpus) Titles() []string {
	titles := make([]string, len(c.Books))
	for i, b := range c.Books {
		titles[i] = b.Title
	}
	return titles
}

// Book returns the book with the given title.
func (c *Corpus) Book(title string) (Book, bool) {
	for _, b := range c.Books {
		if b.Title == title {
			return b, true
		}
	}
	return Book{}, false
}

// MarshalJSON encodes the corpus as {"title": ["chapter", ...], ...}.
func (c *Corpus) MarshalJSON() ([]byte, error) {
	chapters := make([][]string, len(c.Books))
	for i, b := range c.Books {
		chapters[i] = b.Chapters
		if chapters[i] == nil {
			chapters[i] = []string{}
		}
	}
	return orderedjson.Object(c.Titles(), chapters)
}

// UnmarshalJSON reads a previously written extraction artifact.
func (c *Corpus) UnmarshalJSON(data []byte) error {
	titles, chapters, err := orderedjson.Decode[[]string](data)
	if err != nil {
		return err
	}
	c.Books = make([]Book, len(titles))
	for i, title := range titles {
		c.Books[i] = Book{Title: title, Chapters: chapters[i]}
	}
	return nil
}

// Stats summarizes an extracted corpus.
type Stats struct {
	Books         int `json:"books"`
	Chapters      int `json:"chapters"`
	EmptyChapters int `json:"empty_chapters"`
	Characters    int `json:"characters"`
}

func (c *Corpus) Stats() Stats {
	s := Stats{Books: len(c.Books)}
	for _, b := range c.Books {
		s.Chapters += len(b.Chapters)
		for _, ch := range b.Chapters {
			if ch == "" {
				s.EmptyChapters++
			}
			s.Characters += utf8.RuneCountInString(ch)
		}
	}
	return s
}
