// Package output persists the pipeline's intermediate and final artifacts.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cognicore/gellius/pkg/gellius/internalerr"
)

// Names holds the file name of every artifact, relative to the output
// directory.
type Names struct {
	Extracted  string `yaml:"extracted"`
	Tokens     string `yaml:"tokens"`
	TopGlobal  string `yaml:"top_global"`
	TopPerBook string `yaml:"top_per_book"`
	Manifest   string `yaml:"manifest"`
	Report     string `yaml:"report"`
}

// DefaultNames returns the artifact names of the historical scripts.
func DefaultNames() Names {
	return Names{
		Extracted:  "book_dict.json",
		Tokens:     "preprocessed_book_dict.json",
		TopGlobal:  "top_words_all_books.json",
		TopPerBook: "top_words_per_book.json",
		Manifest:   "manifest.json",
		Report:     "report.html",
	}
}

// WithDefaults fills empty names from DefaultNames.
func (n Names) WithDefaults() Names {
	d := DefaultNames()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&n.Extracted, d.Extracted)
	fill(&n.Tokens, d.Tokens)
	fill(&n.TopGlobal, d.TopGlobal)
	fill(&n.TopPerBook, d.TopPerBook)
	fill(&n.Manifest, d.Manifest)
	fill(&n.Report, d.Report)
	return n
}

// Encode renders v as UTF-8 JSON with 4-space indentation, without escaping
// non-ASCII or HTML characters, followed by a newline.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON encodes v to path. The parent directory is created if needed and
// the file is replaced atomically, so a failed write never leaves a
// truncated artifact behind.
func WriteJSON(path string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", internalerr.ErrOutput, path, err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", internalerr.ErrOutput, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", internalerr.ErrOutput, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %w", internalerr.ErrOutput, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: write %s: %w", internalerr.ErrOutput, path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: %w", internalerr.ErrOutput, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: write %s: %w", internalerr.ErrOutput, path, err)
	}
	return nil
}

// ReadJSON decodes a previously written artifact.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
