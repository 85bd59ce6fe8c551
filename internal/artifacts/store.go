// Package artifacts persists paired preprocessing and model artifacts
// as versioned blobs under a fixed directory, with a pointer file
// naming the current pair.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"especulai/internal/encoder"
	"especulai/internal/trainer"
	"especulai/pkg/pairing"
)

// Artifact files inside a version directory.
const (
	preprocessorFile = "preprocessador.json"
	modelFile        = "modelo.json"
	manifestFile     = "manifesto.json"
	currentFile      = "CURRENT"
)

// Store errors.
var (
	// ErrUnavailable covers every condition that leaves the serving
	// layer without a usable model: no export yet, unreadable blobs,
	// or an integrity failure.
	ErrUnavailable = errors.New("model unavailable")

	// ErrPairingMismatch means the model and preprocessing artifacts
	// do not belong together. Scoring with a mismatched pair is an
	// integrity error, never a best-effort fallback.
	ErrPairingMismatch = errors.New("model/preprocessor pairing mismatch")
)

// Manifest records the binding between the two blobs of a version.
type Manifest struct {
	Version              string    `json:"version"`
	PairingID            string    `json:"pairing_id"`
	PreprocessorChecksum string    `json:"preprocessor_checksum"`
	ModelChecksum        string    `json:"model_checksum"`
	ExportedAt           time.Time `json:"exported_at"`
}

// Pair is a loaded, immutable artifact pair.
type Pair struct {
	Version      string
	Preprocessor *encoder.Preprocessor
	Model        *trainer.ModelArtifact
}

// Store reads and writes artifact pairs under a fixed directory.
// Exports are serialized: at most one is in flight at a time.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Export persists a new version of the pair and, only after every blob
// is written, atomically repoints CURRENT at it. Previous versions are
// left untouched.
func (s *Store) Export(p *encoder.Preprocessor, m *trainer.ModelArtifact) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.PairingID == "" || p.PairingID != m.PairingID {
		return "", fmt.Errorf("%w: preprocessor %q vs model %q", ErrPairingMismatch, p.PairingID, m.PairingID)
	}

	version := time.Now().UTC().Format("20060102_150405") + "_" + uuid.NewString()[:8]
	versionDir := filepath.Join(s.dir, version)

	if err := os.MkdirAll(versionDir, 0755); err != nil {
		return "", fmt.Errorf("create version dir: %w", err)
	}

	preprocessorBlob, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal preprocessor: %w", err)
	}

	modelBlob, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal model: %w", err)
	}

	manifest := Manifest{
		Version:              version,
		PairingID:            p.PairingID,
		PreprocessorChecksum: pairing.Checksum(preprocessorBlob),
		ModelChecksum:        pairing.Checksum(modelBlob),
		ExportedAt:           time.Now().UTC(),
	}

	manifestBlob, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}

	files := map[string][]byte{
		preprocessorFile: preprocessorBlob,
		modelFile:        modelBlob,
		manifestFile:     manifestBlob,
	}

	for name, blob := range files {
		if err := os.WriteFile(filepath.Join(versionDir, name), blob, 0644); err != nil {
			return "", fmt.Errorf("write %s: %w", name, err)
		}
	}

	if err := s.setCurrent(version); err != nil {
		return "", err
	}

	return version, nil
}

// setCurrent updates the pointer file with a write-then-rename so a
// concurrent reader sees either the old or the new version in full.
func (s *Store) setCurrent(version string) error {
	tmp := filepath.Join(s.dir, currentFile+".tmp")
	if err := os.WriteFile(tmp, []byte(version+"\n"), 0644); err != nil {
		return fmt.Errorf("write current pointer: %w", err)
	}

	if err := os.Rename(tmp, filepath.Join(s.dir, currentFile)); err != nil {
		return fmt.Errorf("swap current pointer: %w", err)
	}

	return nil
}

// CurrentVersion resolves the CURRENT pointer.
func (s *Store) CurrentVersion() (string, error) {
	blob, err := os.ReadFile(filepath.Join(s.dir, currentFile))
	if err != nil {
		return "", fmt.Errorf("%w: no current pointer in %s", ErrUnavailable, s.dir)
	}

	return strings.TrimSpace(string(blob)), nil
}

// LoadCurrent loads and verifies the pair named by CURRENT.
func (s *Store) LoadCurrent() (*Pair, error) {
	version, err := s.CurrentVersion()
	if err != nil {
		return nil, err
	}

	return s.Load(version)
}

// Load loads one version and verifies its integrity: both checksums
// must match the manifest and both blobs must carry the same pairing
// ID. Any failure surfaces as a model-unavailable condition.
func (s *Store) Load(version string) (*Pair, error) {
	versionDir := filepath.Join(s.dir, version)

	manifestBlob, err := os.ReadFile(filepath.Join(versionDir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest for %s: %v", ErrUnavailable, version, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(manifestBlob, &manifest); err != nil {
		return nil, fmt.Errorf("%w: parse manifest for %s: %v", ErrUnavailable, version, err)
	}

	preprocessorBlob, err := os.ReadFile(filepath.Join(versionDir, preprocessorFile))
	if err != nil {
		return nil, fmt.Errorf("%w: read preprocessor for %s: %v", ErrUnavailable, version, err)
	}

	if err := pairing.Verify(preprocessorBlob, manifest.PreprocessorChecksum); err != nil {
		return nil, fmt.Errorf("%w: preprocessor integrity for %s: %v", ErrUnavailable, version, err)
	}

	modelBlob, err := os.ReadFile(filepath.Join(versionDir, modelFile))
	if err != nil {
		return nil, fmt.Errorf("%w: read model for %s: %v", ErrUnavailable, version, err)
	}

	if err := pairing.Verify(modelBlob, manifest.ModelChecksum); err != nil {
		return nil, fmt.Errorf("%w: model integrity for %s: %v", ErrUnavailable, version, err)
	}

	var p encoder.Preprocessor
	if err := json.Unmarshal(preprocessorBlob, &p); err != nil {
		return nil, fmt.Errorf("%w: parse preprocessor for %s: %v", ErrUnavailable, version, err)
	}

	var m trainer.ModelArtifact
	if err := json.Unmarshal(modelBlob, &m); err != nil {
		return nil, fmt.Errorf("%w: parse model for %s: %v", ErrUnavailable, version, err)
	}

	if p.PairingID != m.PairingID || p.PairingID != manifest.PairingID {
		return nil, fmt.Errorf("%w: %v (version %s)", ErrUnavailable, ErrPairingMismatch, version)
	}

	return &Pair{Version: version, Preprocessor: &p, Model: &m}, nil
}
