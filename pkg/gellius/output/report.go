package output

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/cognicore/gellius/pkg/gellius/analytics"
	"github.com/cognicore/gellius/pkg/gellius/internalerr"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Report is the content of the HTML summary page.
type Report struct {
	Manifest *Manifest
	Global   analytics.Ranking
	PerBook  analytics.BookRankings
}

// RenderReport writes a self-contained HTML page for r.
func RenderReport(w io.Writer, r Report) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	head := elem(atom.Head, nil,
		elem(atom.Meta, []html.Attribute{{Key: "charset", Val: "utf-8"}}),
		elem(atom.Title, nil, text("Noctes Atticae word frequencies")),
	)
	body := elem(atom.Body, nil, elem(atom.H1, nil, text("Noctes Atticae word frequencies")))

	if m := r.Manifest; m != nil {
		body.AppendChild(elem(atom.H2, nil, text("Run")))
		body.AppendChild(keyValueTable([][2]string{
			{"Run", m.RunID},
			{"Input", m.Input},
			{"Backend", m.Backend},
			{"Language", m.Language},
			{"Books", strconv.Itoa(m.Corpus.Books)},
			{"Chapters", strconv.Itoa(m.Corpus.Chapters)},
			{"Empty chapters", strconv.Itoa(m.Corpus.EmptyChapters)},
			{"Tokens", strconv.Itoa(m.Tokens.Tokens)},
			{"Vocabulary", strconv.Itoa(m.Tokens.Vocabulary)},
		}))
	}

	body.AppendChild(elem(atom.H2, nil, text(fmt.Sprintf("Top %d words", len(r.Global)))))
	body.AppendChild(rankingTable(r.Global))

	for _, b := range r.PerBook {
		section := elem(atom.Section, nil, elem(atom.H3, nil, text(b.Title)))
		if len(b.Ranking) == 0 {
			section.AppendChild(elem(atom.P, nil, text("No words.")))
		} else {
			section.AppendChild(rankingTable(b.Ranking))
		}
		body.AppendChild(section)
	}

	doc.AppendChild(elem(atom.Html, []html.Attribute{{Key: "lang", Val: "en"}}, head, body))
	return html.Render(w, doc)
}

// WriteHTMLReport renders r to path.
func WriteHTMLReport(path string, r Report) error {
	var buf bytes.Buffer
	if err := RenderReport(&buf, r); err != nil {
		return fmt.Errorf("%w: render %s: %w", internalerr.ErrOutput, path, err)
	}
	buf.WriteByte('\n')
	return writeFile(path, buf.Bytes())
}

func rankingTable(ranking analytics.Ranking) *html.Node {
	table := elem(atom.Table, nil, elem(atom.Tr, nil,
		elem(atom.Th, nil, text("#")),
		elem(atom.Th, nil, text("Word")),
		elem(atom.Th, nil, text("Count")),
	))
	for i, e := range ranking {
		table.AppendChild(elem(atom.Tr, nil,
			elem(atom.Td, nil, text(strconv.Itoa(i+1))),
			elem(atom.Td, nil, text(e.Token)),
			elem(atom.Td, nil, text(strconv.Itoa(e.Count))),
		))
	}
	return table
}

func keyValueTable(rows [][2]string) *html.Node {
	table := elem(atom.Table, nil)
	for _, row := range rows {
		table.AppendChild(elem(atom.Tr, nil,
			elem(atom.Th, nil, text(row[0])),
			elem(atom.Td, nil, text(row[1])),
		))
	}
	return table
}

func elem(a atom.Atom, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
