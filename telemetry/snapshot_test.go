package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/smoke/field"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Domain:  "planar-wrapped",
		Width:   2,
		Height:  2,
		Faces:   1,
		Frame:   1000,
		Time:    16.5,
		Fields: map[string][]field.Texel{
			"density":  {{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0.5, 0.5, 0.5, 0}},
			"velocity": {{0.1, 0.2, 0, 0}, {}, {}, {-1, 2, 0, 0}},
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Base(path) != "snapshot_planar-wrapped_1000.json" {
		t.Errorf("unexpected snapshot name %s", filepath.Base(path))
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("snapshot file was not created")
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if loaded.Frame != 1000 || loaded.Time != 16.5 || loaded.Domain != "planar-wrapped" {
		t.Errorf("header mismatch: %+v", loaded)
	}
	for name, want := range snapshot.Fields {
		got := loaded.Fields[name]
		if len(got) != len(want) {
			t.Fatalf("%s: length %d, want %d", name, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
			}
		}
	}
}

func TestSnapshotValidate(t *testing.T) {
	s := &Snapshot{Version: SnapshotVersion, Width: 2, Height: 2, Faces: 6,
		Fields: map[string][]field.Texel{"density": make([]field.Texel, 24)}}
	if err := s.Validate(); err != nil {
		t.Errorf("expected valid cube snapshot, got %v", err)
	}

	s.Fields["velocity"] = make([]field.Texel, 4)
	if err := s.Validate(); err == nil {
		t.Error("expected length mismatch error")
	}

	s = &Snapshot{Version: SnapshotVersion + 1}
	if err := s.Validate(); err == nil {
		t.Error("expected version error")
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
