package output

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/cognicore/gellius/pkg/gellius/analytics"
	"github.com/cognicore/gellius/pkg/gellius/tei"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a fresh, lexically sortable run identifier.
func NewRunID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Manifest describes one run: what went in, how it was analyzed and what
// came out. It is written after every other artifact.
type Manifest struct {
	RunID      string            `json:"run_id"`
	Started    time.Time         `json:"started"`
	Finished   time.Time         `json:"finished"`
	Input      string            `json:"input"`
	Backend    string            `json:"backend"`
	Language   string            `json:"language"`
	Stages     []string          `json:"stages"`
	TopGlobal  int               `json:"top_global"`
	TopPerBook int               `json:"top_per_book"`
	Corpus     tei.Stats         `json:"corpus"`
	Tokens     analytics.Summary `json:"tokens"`
	Duplicates []string          `json:"duplicate_titles,omitempty"`
	Artifacts  []string          `json:"artifacts"`
}

// NewManifest starts a manifest for a run beginning now.
func NewManifest(input string) *Manifest {
	return &Manifest{
		RunID:     NewRunID(),
		Started:   time.Now().UTC(),
		Input:     input,
		Stages:    []string{},
		Artifacts: []string{},
	}
}

// AddArtifact records a written file, in write order.
func (m *Manifest) AddArtifact(name string) {
	m.Artifacts = append(m.Artifacts, name)
}

// Finish stamps the end time.
func (m *Manifest) Finish() {
	m.Finished = time.Now().UTC()
}

// Duration is the wall time of the run, zero until Finish.
func (m *Manifest) Duration() time.Duration {
	if m.Finished.IsZero() {
		return 0
	}
	return m.Finished.Sub(m.Started)
}
