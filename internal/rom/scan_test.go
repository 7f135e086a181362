package rom

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScan_ShouldMatchExtensionsCaseInsensitively(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.GB", "a.gbc", "c.txt", "d.gb.bak", "e.zip"} {
		writeFile(t, dir, name, []byte{0})
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.gb"), 0755); err != nil {
		t.Fatal(err)
	}

	entries, err := Scan(dir, ROMExtensions)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{"a.gbc", "b.GB"}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries (%v), want %v", len(entries), entries, want)
	}
	for i, name := range want {
		if entries[i].Name != name {
			t.Errorf("entry %d = %q, want %q", i, entries[i].Name, name)
		}
		if entries[i].Path != filepath.Join(dir, name) {
			t.Errorf("entry %d path = %q", i, entries[i].Path)
		}
	}
}

func TestScan_WithArchives(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "game.gb", []byte{0})
	writeFile(t, dir, "pack.7z", []byte{0})

	entries, err := Scan(dir, append(ROMExtensions, ArchiveExtensions...))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestScan_EmptyDirectory(t *testing.T) {
	entries, err := Scan(t.TempDir(), ROMExtensions)
	if err != nil || len(entries) != 0 {
		t.Errorf("Scan = %v, %v; want empty", entries, err)
	}
}

func TestScan_MissingDirectory(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "nope"), ROMExtensions); err == nil {
		t.Error("Expected error for missing directory")
	}
}
