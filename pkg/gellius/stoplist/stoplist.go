package stoplist

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed latin.yaml
var latinYAML []byte

// Source records where a stop-word came from
type Source string

const (
	SourceBuiltin Source = "builtin"
	SourceFile    Source = "file"
	SourceManual  Source = "manual"
)

// Manager holds a case-insensitive stop-word set
type Manager struct {
	stops map[string]Source
}

// NewManager creates a manager from an initial list
func NewManager(initialStops []string) *Manager {
	m := &Manager{stops: make(map[string]Source, len(initialStops))}
	for _, s := range initialStops {
		m.Add(s, SourceManual)
	}
	return m
}

// IsStop checks if a token is a stop-word
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[strings.ToLower(token)]
	return ok
}

// SourceOf reports where a stop-word came from
func (m *Manager) SourceOf(token string) (Source, bool) {
	src, ok := m.stops[strings.ToLower(token)]
	return src, ok
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string, src Source) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return
	}
	m.stops[token] = src
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, strings.ToLower(token))
}

// All returns all stop-words, sorted
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

func (m *Manager) Len() int {
	return len(m.stops)
}

// File is the on-disk YAML format shared by the builtin and custom lists
type File struct {
	Terms []string `yaml:"terms"`
}

// Parse reads a YAML stoplist
func Parse(data []byte, src Source) (*Manager, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse stoplist: %w", err)
	}
	m := &Manager{stops: make(map[string]Source, len(f.Terms))}
	for _, t := range f.Terms {
		m.Add(t, src)
	}
	return m, nil
}

// Load reads a custom YAML stoplist from disk
func Load(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, SourceFile)
}

// DefaultLatin returns the builtin Latin stoplist
func DefaultLatin() *Manager {
	m, err := Parse(latinYAML, SourceBuiltin)
	if err != nil {
		panic(fmt.Sprintf("builtin latin stoplist: %v", err))
	}
	return m
}

// ForLanguage returns the builtin list for a language code
func ForLanguage(lang string) (*Manager, error) {
	switch strings.ToLower(lang) {
	case "lat", "la", "latin":
		return DefaultLatin(), nil
	default:
		return nil, fmt.Errorf("no builtin stoplist for language %q", lang)
	}
}
