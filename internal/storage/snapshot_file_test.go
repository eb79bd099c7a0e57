package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"tensordep/internal/model"
)

func sampleBundle() model.Bundle {
	activation := sampleActivation("reg-1")
	tensor := sampleTensor("ten-1", "reg-1")
	return model.Bundle{
		VersionedRecord: CurrentVersion(),
		Registry:        sampleRegistry("reg-1"),
		Activation:      &activation,
		Tensor:          &tensor,
	}
}

func TestBundleRoundTripAllCompressions(t *testing.T) {
	input := sampleBundle()
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionXZ} {
		var buf bytes.Buffer
		if err := WriteBundle(&buf, input, c); err != nil {
			t.Fatalf("%s: write: %v", c, err)
		}
		output, err := ReadBundle(&buf)
		if err != nil {
			t.Fatalf("%s: read: %v", c, err)
		}
		if !reflect.DeepEqual(input, output) {
			t.Fatalf("%s: bundle mismatch:\nwant %+v\ngot  %+v", c, input, output)
		}
	}
}

func TestSnapshotFileSniffsContainer(t *testing.T) {
	dir := t.TempDir()
	input := sampleBundle()

	path := filepath.Join(dir, "registry.xz")
	size, err := SaveSnapshotFile(path, input, CompressionForPath(path))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if size <= 0 {
		t.Fatalf("unexpected size %d", size)
	}

	renamed := filepath.Join(dir, "registry.bin")
	if err := os.Rename(path, renamed); err != nil {
		t.Fatalf("rename: %v", err)
	}
	output, err := LoadSnapshotFile(renamed)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if output.Registry.ID != "reg-1" || output.Tensor == nil || len(output.Tensor.Cells) != 2 {
		t.Fatalf("unexpected bundle: %+v", output)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no temp files left, got %d entries", len(entries))
	}
}

func TestCompressionSelection(t *testing.T) {
	cases := map[string]Compression{
		"a.json":     CompressionNone,
		"a.XZ":       CompressionXZ,
		"a.lz4":      CompressionLZ4,
		"a.snapshot": CompressionLZ4,
	}
	for path, want := range cases {
		if got := CompressionForPath(path); got != want {
			t.Fatalf("%s: want %s, got %s", path, want, got)
		}
	}

	if c, err := ParseCompression("XZ"); err != nil || c != CompressionXZ {
		t.Fatalf("parse xz: %s %v", c, err)
	}
	if _, err := ParseCompression("zstd"); !errors.Is(err, ErrUnknownCompression) {
		t.Fatalf("expected unknown compression, got %v", err)
	}
	if err := WriteBundle(&bytes.Buffer{}, sampleBundle(), "zstd"); !errors.Is(err, ErrUnknownCompression) {
		t.Fatalf("expected unknown compression, got %v", err)
	}
}
