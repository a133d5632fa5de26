package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/smoke/field"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the solver's transported fields for restore or offline
// inspection.
type Snapshot struct {
	Version int     `json:"version"`
	Domain  string  `json:"domain"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Faces   int     `json:"faces"`
	Frame   int     `json:"frame"`
	Time    float64 `json:"time"`

	Fields map[string][]field.Texel `json:"fields"`
}

// Cells returns the number of texels each field must hold.
func (s *Snapshot) Cells() int {
	return s.Faces * s.Width * s.Height
}

// Validate checks version and field lengths.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	for name, data := range s.Fields {
		if len(data) != s.Cells() {
			return fmt.Errorf("field %s has %d cells, want %d", name, len(data), s.Cells())
		}
	}
	return nil
}

// SaveSnapshot writes a snapshot to dir and returns its path.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%s_%d.json", snapshot.Domain, snapshot.Frame))
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads and validates a snapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
