// Package tei extracts books and chapters from a TEI-XML edition.
package tei

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"

	"github.com/cognicore/gellius/pkg/gellius/internalerr"
)

// Namespace is the TEI P5 namespace URI.
const Namespace = "http://www.tei-c.org/ns/1.0"

const (
	textpart       = "textpart"
	subtypeBook    = "book"
	subtypeChapter = "chapter"
)

// Options tune extraction. The zero value is usable.
type Options struct {
	// Namespace overrides the element namespace (default: TEI).
	Namespace string
	// RejectDuplicateTitles makes a repeated book title an error instead of
	// overwriting the earlier book.
	RejectDuplicateTitles bool
}

func (o Options) namespace() string {
	if o.Namespace == "" {
		return Namespace
	}
	return o.Namespace
}

// ParseError reports a document that is not well-formed XML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse TEI document: %v", e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{internalerr.ErrInvalidInput, e.Err}
}

// MissingElementError reports a book division lacking a required child.
// Book is the 1-based position of the book in document order.
type MissingElementError struct {
	Book    int
	Element string
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("book %d: missing %s element", e.Book, e.Element)
}

func (e *MissingElementError) Unwrap() error {
	return internalerr.ErrMissingElement
}

// Extract parses the TEI file at path.
func Extract(path string, opts Options) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ExtractReader(f, opts)
}

// ExtractReader parses a TEI document from r.
func ExtractReader(r io.Reader, opts Options) (*Corpus, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, &ParseError{Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &ParseError{Err: errors.New("no root element")}
	}

	x := extractor{ns: opts.namespace()}
	corpus := &Corpus{}
	index := make(map[string]int)
	firstPos := make(map[string]int)

	books := x.findAll(root, x.isBook)
	for i, bookDiv := range books {
		pos := i + 1
		title, err := x.title(bookDiv, pos)
		if err != nil {
			return nil, err
		}

		var chapters []string
		for _, chapterDiv := range x.findAll(bookDiv, x.isChapter) {
			chapters = append(chapters, x.chapterText(chapterDiv))
		}
		if chapters == nil {
			chapters = []string{}
		}

		if at, dup := index[title]; dup {
			if opts.RejectDuplicateTitles {
				return nil, fmt.Errorf("book %d %q: %w", pos, title, internalerr.ErrDuplicateTitle)
			}
			corpus.Duplicates = append(corpus.Duplicates, DuplicateTitle{
				Title: title,
				First: firstPos[title],
				Later: pos,
			})
			corpus.Books[at].Chapters = chapters
			continue
		}
		index[title] = len(corpus.Books)
		firstPos[title] = pos
		corpus.Books = append(corpus.Books, Book{Title: title, Chapters: chapters})
	}

	return corpus, nil
}

type extractor struct {
	ns string
}

func (x extractor) is(e *etree.Element, tag string) bool {
	return e.Tag == tag && e.NamespaceURI() == x.ns
}

func (x extractor) isTextpart(e *etree.Element, subtype string) bool {
	return x.is(e, "div") &&
		e.SelectAttrValue("type", "") == textpart &&
		e.SelectAttrValue("subtype", "") == subtype
}

func (x extractor) isBook(e *etree.Element) bool    { return x.isTextpart(e, subtypeBook) }
func (x extractor) isChapter(e *etree.Element) bool { return x.isTextpart(e, subtypeChapter) }

// findAll returns the descendants of e (not e itself) matching pred, in
// document order.
func (x extractor) findAll(e *etree.Element, pred func(*etree.Element) bool) []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(n *etree.Element) {
		for _, child := range n.ChildElements() {
			if pred(child) {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(e)
	return out
}

func (x extractor) title(book *etree.Element, pos int) (string, error) {
	heads := x.findAll(book, func(e *etree.Element) bool { return x.is(e, "head") })
	if len(heads) == 0 {
		return "", &MissingElementError{Book: pos, Element: "head"}
	}
	title := normalize(innerSegments(heads[0], nil))
	if title == "" {
		return "", &MissingElementError{Book: pos, Element: "head text"}
	}
	return title, nil
}

// chapterText joins the text of every outermost paragraph of the chapter.
// Paragraphs nested in another paragraph are already covered by their parent.
func (x extractor) chapterText(chapter *etree.Element) string {
	var segments []string
	var walk func(*etree.Element)
	walk = func(n *etree.Element) {
		for _, child := range n.ChildElements() {
			if x.is(child, "p") {
				segments = innerSegments(child, segments)
				segments = append(segments, child.Tail())
				continue
			}
			walk(child)
		}
	}
	walk(chapter)
	return normalize(segments)
}

// innerSegments appends the leading text of e and the leading and tail text
// of every descendant, in document order.
func innerSegments(e *etree.Element, segments []string) []string {
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			segments = append(segments, t.Data)
		case *etree.Element:
			segments = innerSegments(t, segments)
		}
	}
	return segments
}

// normalize strips every segment, drops empty ones and collapses whitespace
// runs to a single space.
func normalize(segments []string) string {
	var b strings.Builder
	for _, seg := range segments {
		for _, field := range strings.Fields(seg) {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(field)
		}
	}
	return b.String()
}
