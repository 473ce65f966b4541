package lexicon

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon maps inflected Latin forms to their lemma:
//   - Lemmas: lemma -> all known forms (lemma first)
//   - Reverse index: form -> lemma
//
// Lookups are case-insensitive; lemmas are stored lowercase.
type Lexicon struct {
	lemmas       map[string][]string
	reverseIndex map[string]string
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		lemmas:       make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// LoadFromYAML loads lemma mappings from a YAML file.
//
// Expected format:
//
//	lemmas:
//	  - lemma: dico
//	    forms: [dicit, dixit, dicere, dictum]
//	  - lemma: philosophus
//	    forms: [philosophi, philosopho, philosophum]
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse reads the YAML lexicon format.
func Parse(data []byte) (*Lexicon, error) {
	var config struct {
		Lemmas []struct {
			Lemma string   `yaml:"lemma"`
			Forms []string `yaml:"forms"`
		} `yaml:"lemmas"`
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	lex := New()
	for _, entry := range config.Lemmas {
		if strings.TrimSpace(entry.Lemma) == "" {
			continue
		}
		lex.AddLemma(entry.Lemma, entry.Forms)
	}
	return lex, nil
}

// AddLemma registers forms for a lemma. The lemma is always its own form.
// Re-adding a lemma replaces its previous forms.
func (l *Lexicon) AddLemma(lemma string, forms []string) {
	lemma = strings.ToLower(strings.TrimSpace(lemma))

	if old, exists := l.lemmas[lemma]; exists {
		for _, f := range old {
			if l.reverseIndex[f] == lemma {
				delete(l.reverseIndex, f)
			}
		}
	}

	normalized := make([]string, 0, len(forms)+1)
	seen := map[string]bool{lemma: true}
	normalized = append(normalized, lemma)
	for _, f := range forms {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		normalized = append(normalized, f)
	}

	l.lemmas[lemma] = normalized
	for _, f := range normalized {
		l.reverseIndex[f] = lemma
	}
}

// Lemmatize returns the lemma of a form, or the form itself when unknown.
func (l *Lexicon) Lemmatize(form string) string {
	if lemma, ok := l.reverseIndex[strings.ToLower(form)]; ok {
		return lemma
	}
	return form
}

// Known reports whether the form has a lemma entry.
func (l *Lexicon) Known(form string) bool {
	_, ok := l.reverseIndex[strings.ToLower(form)]
	return ok
}

// Forms returns every known form sharing the lemma of token.
func (l *Lexicon) Forms(token string) []string {
	token = strings.ToLower(token)
	if lemma, ok := l.reverseIndex[token]; ok {
		return l.lemmas[lemma]
	}
	return []string{token}
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	return Stats{
		Lemmas: len(l.lemmas),
		Forms:  len(l.reverseIndex),
	}
}

// Stats holds lexicon sizes.
type Stats struct {
	Lemmas int // Number of lemmas
	Forms  int // Number of distinct forms, lemmas included
}
