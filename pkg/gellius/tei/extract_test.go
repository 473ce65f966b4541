package tei

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cognicore/gellius/pkg/gellius/internalerr"
)

func teiDoc(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader><fileDesc><titleStmt><title>Noctes Atticae</title></titleStmt></fileDesc></teiHeader>
  <text><body><div type="edition">` + body + `</div></body></text>
</TEI>`
}

func extractString(t *testing.T, xml string, opts Options) *Corpus {
	t.Helper()
	corpus, err := ExtractReader(strings.NewReader(xml), opts)
	if err != nil {
		t.Fatalf("ExtractReader: %v", err)
	}
	return corpus
}

func TestExtractLiberIExample(t *testing.T) {
	xml := teiDoc(`
    <div type="textpart" subtype="book">
      <head>Liber I</head>
      <div type="textpart" subtype="chapter"><p>Hoc est. Illud est.</p></div>
      <div type="textpart" subtype="chapter"><p>Nihil.</p></div>
    </div>`)

	corpus := extractString(t, xml, Options{})

	want := []Book{{Title: "Liber I", Chapters: []string{"Hoc est. Illud est.", "Nihil."}}}
	if !reflect.DeepEqual(corpus.Books, want) {
		t.Errorf("Books = %#v, want %#v", corpus.Books, want)
	}

	data, err := json.Marshal(corpus)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got := string(data); got != `{"Liber I":["Hoc est. Illud est.","Nihil."]}` {
		t.Errorf("JSON = %s", got)
	}
}

func TestExtractPreservesDocumentOrder(t *testing.T) {
	xml := teiDoc(`
    <div type="textpart" subtype="book"><head>Liber III</head>
      <div type="textpart" subtype="chapter"><p>gamma</p></div>
      <div type="textpart" subtype="chapter"><p>alpha</p></div>
    </div>
    <div type="textpart" subtype="book"><head>Liber I</head>
      <div type="textpart" subtype="chapter"><p>zeta</p></div>
    </div>
    <div type="textpart" subtype="book"><head>Liber II</head>
      <div type="textpart" subtype="chapter"><p>beta</p></div>
      <div type="textpart" subtype="chapter"><p>delta</p></div>
      <div type="textpart" subtype="chapter"><p>epsilon</p></div>
    </div>`)

	corpus := extractString(t, xml, Options{})

	if got, want := corpus.Titles(), []string{"Liber III", "Liber I", "Liber II"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Titles = %v, want %v", got, want)
	}
	if got, want := corpus.Books[2].Chapters, []string{"beta", "delta", "epsilon"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Liber II chapters = %v, want %v", got, want)
	}

	data, err := json.Marshal(corpus)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.HasPrefix(string(data), `{"Liber III":`) {
		t.Errorf("JSON should keep document order, got %s", data)
	}
}

func TestExtractWhitespaceAndTails(t *testing.T) {
	xml := teiDoc(`
    <div type="textpart" subtype="book"><head>
        Liber   <num>I</num>
      </head>
      <div type="textpart" subtype="chapter">
        <p>
          Favorinus   philosophus <quote>adulescenti
          veterum</quote>  verborum
          cupidissimo <note>cf. Macr.</note>dixit.
        </p>
        <p>  Secunda
           pars.  </p>
      </div>
    </div>`)

	corpus := extractString(t, xml, Options{})

	if corpus.Books[0].Title != "Liber I" {
		t.Errorf("Title = %q, want %q", corpus.Books[0].Title, "Liber I")
	}
	got := corpus.Books[0].Chapters[0]
	want := "Favorinus philosophus adulescenti veterum verborum cupidissimo cf. Macr. dixit. Secunda pars."
	if got != want {
		t.Errorf("Chapter = %q\nwant      %q", got, want)
	}
	if strings.Contains(got, "  ") || strings.TrimSpace(got) != got {
		t.Errorf("Chapter text not normalized: %q", got)
	}
}

func TestExtractIgnoresTextOutsideParagraphs(t *testing.T) {
	xml := teiDoc(`
    <div type="textpart" subtype="book"><head>Liber I</head>
      <div type="textpart" subtype="chapter">
        <head>Caput primum</head>
        <p>intus</p>
        <milestone unit="section"/>
      </div>
    </div>`)

	corpus := extractString(t, xml, Options{})
	if got := corpus.Books[0].Chapters[0]; got != "intus" {
		t.Errorf("Chapter = %q, want %q", got, "intus")
	}
}

func TestExtractNestedParagraphCountedOnce(t *testing.T) {
	xml := teiDoc(`
    <div type="textpart" subtype="book"><head>Liber I</head>
      <div type="textpart" subtype="chapter">
        <p>ante <note><p>nota</p></note> post</p>
      </div>
    </div>`)

	corpus := extractString(t, xml, Options{})
	if got := corpus.Books[0].Chapters[0]; got != "ante nota post" {
		t.Errorf("Chapter = %q, want %q", got, "ante nota post")
	}
}

func TestExtractEmptyChapterKept(t *testing.T) {
	xml := teiDoc(`
    <div type="textpart" subtype="book"><head>Liber I</head>
      <div type="textpart" subtype="chapter"></div>
      <div type="textpart" subtype="chapter"><p>   </p></div>
      <div type="textpart" subtype="chapter"><p>verba</p></div>
    </div>
    <div type="textpart" subtype="book"><head>Liber II</head></div>`)

	corpus := extractString(t, xml, Options{})

	if got, want := corpus.Books[0].Chapters, []string{"", "", "verba"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Chapters = %q, want %q", got, want)
	}
	if corpus.Books[1].Chapters == nil || len(corpus.Books[1].Chapters) != 0 {
		t.Errorf("Book without chapters should have an empty list, got %#v", corpus.Books[1].Chapters)
	}

	stats := corpus.Stats()
	if stats.Books != 2 || stats.Chapters != 3 || stats.EmptyChapters != 2 || stats.Characters != 5 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestExtractIgnoresOtherNamespaces(t *testing.T) {
	xml := `<root xmlns:x="urn:other" xmlns="http://www.tei-c.org/ns/1.0">
  <x:div type="textpart" subtype="book"><x:head>Alienus</x:head></x:div>
  <div type="textpart" subtype="book"><head>Liber I</head>
    <div type="textpart" subtype="chapter"><p>unum</p><x:p>alienum</x:p></div>
  </div>
</root>`

	corpus := extractString(t, xml, Options{})
	if len(corpus.Books) != 1 || corpus.Books[0].Title != "Liber I" {
		t.Fatalf("Books = %#v", corpus.Books)
	}
	if got := corpus.Books[0].Chapters[0]; got != "unum" {
		t.Errorf("Chapter = %q, want %q", got, "unum")
	}
}

func TestExtractMissingHead(t *testing.T) {
	xml := teiDoc(`
    <div type="textpart" subtype="book"><head>Liber I</head></div>
    <div type="textpart" subtype="book">
      <div type="textpart" subtype="chapter"><p>sine titulo</p></div>
    </div>`)

	_, err := ExtractReader(strings.NewReader(xml), Options{})
	if err == nil {
		t.Fatal("Expected error for book without head")
	}

	var missing *MissingElementError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingElementError, got %T: %v", err, err)
	}
	if missing.Book != 2 || missing.Element != "head" {
		t.Errorf("MissingElementError = %+v, want book 2 head", missing)
	}
	if !errors.Is(err, internalerr.ErrMissingElement) {
		t.Error("Error should wrap ErrMissingElement")
	}
}

func TestExtractEmptyHead(t *testing.T) {
	xml := teiDoc(`<div type="textpart" subtype="book"><head>  </head></div>`)

	_, err := ExtractReader(strings.NewReader(xml), Options{})
	var missing *MissingElementError
	if !errors.As(err, &missing) || missing.Book != 1 {
		t.Fatalf("Expected MissingElementError for book 1, got %v", err)
	}
}

func TestExtractMalformedXML(t *testing.T) {
	tests := map[string]string{
		"unclosed": `<TEI xmlns="http://www.tei-c.org/ns/1.0"><text><body>`,
		"mismatch": `<TEI xmlns="http://www.tei-c.org/ns/1.0"><p>a</div></TEI>`,
		"empty":    ``,
	}
	for name, xml := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ExtractReader(strings.NewReader(xml), Options{})
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Expected ParseError, got %T: %v", err, err)
			}
			if !errors.Is(err, internalerr.ErrInvalidInput) {
				t.Error("ParseError should match ErrInvalidInput")
			}
		})
	}
}

func TestExtractDuplicateTitleLastWins(t *testing.T) {
	xml := teiDoc(`
    <div type="textpart" subtype="book"><head>Liber I</head>
      <div type="textpart" subtype="chapter"><p>prior</p></div>
    </div>
    <div type="textpart" subtype="book"><head>Liber II</head>
      <div type="textpart" subtype="chapter"><p>medius</p></div>
    </div>
    <div type="textpart" subtype="book"><head>Liber I</head>
      <div type="textpart" subtype="chapter"><p>posterior</p></div>
    </div>`)

	corpus := extractString(t, xml, Options{})

	if got, want := corpus.Titles(), []string{"Liber I", "Liber II"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Titles = %v, want %v", got, want)
	}
	book, _ := corpus.Book("Liber I")
	if !reflect.DeepEqual(book.Chapters, []string{"posterior"}) {
		t.Errorf("Later book should win, got %v", book.Chapters)
	}
	want := []DuplicateTitle{{Title: "Liber I", First: 1, Later: 3}}
	if !reflect.DeepEqual(corpus.Duplicates, want) {
		t.Errorf("Duplicates = %+v, want %+v", corpus.Duplicates, want)
	}
}

func TestExtractDuplicateTitleRejected(t *testing.T) {
	xml := teiDoc(`
    <div type="textpart" subtype="book"><head>Liber I</head></div>
    <div type="textpart" subtype="book"><head>Liber I</head></div>`)

	_, err := ExtractReader(strings.NewReader(xml), Options{RejectDuplicateTitles: true})
	if !errors.Is(err, internalerr.ErrDuplicateTitle) {
		t.Fatalf("Expected ErrDuplicateTitle, got %v", err)
	}
}

func TestExtractIdempotent(t *testing.T) {
	xml := teiDoc(`
    <div type="textpart" subtype="book"><head>Liber I</head>
      <div type="textpart" subtype="chapter"><p>Quod <hi>erat</hi> demonstrandum.</p></div>
    </div>`)
	path := filepath.Join(t.TempDir(), "books.xml")
	if err := os.WriteFile(path, []byte(xml), 0o644); err != nil {
		t.Fatal(err)
	}

	first, err := Extract(path, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	second, err := Extract(path, Options{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Extraction not idempotent:\n%#v\n%#v", first, second)
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "absent.xml"), Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestCorpusJSONRoundTrip(t *testing.T) {
	in := &Corpus{Books: []Book{
		{Title: "Liber II", Chapters: []string{"b"}},
		{Title: "Liber I", Chapters: []string{}},
	}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out Corpus
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(out.Books, in.Books) {
		t.Errorf("Round trip = %#v, want %#v", out.Books, in.Books)
	}
}
