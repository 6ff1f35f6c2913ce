package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskCache_RoundTripCompressed(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 1<<20, 3)
	if err != nil {
		t.Fatal(err)
	}

	wav := bytes.Repeat([]byte("RIFF...."), 1024)
	if err := dc.Put("https://example.com/a.wav", wav); err != nil {
		t.Fatal(err)
	}
	if dc.Size() >= int64(len(wav)) {
		t.Errorf("expected compression, size %d >= %d", dc.Size(), len(wav))
	}

	got, ok := dc.Get("https://example.com/a.wav")
	if !ok || !bytes.Equal(got, wav) {
		t.Fatal("round trip mismatch")
	}
}

func TestDiskCache_IndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	dc, err := NewDiskCache(dir, 1<<20, 0)
	if err != nil {
		t.Fatal(err)
	}
	_ = dc.Put("k", []byte("value"))
	if err := dc.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewDiskCache(dir, 1<<20, 0)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := reopened.Get("k")
	if !ok || string(got) != "value" {
		t.Errorf("Get after reopen = %q, %v", got, ok)
	}
}

func TestDiskCache_MissingFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	dc, _ := NewDiskCache(dir, 1<<20, 0)
	_ = dc.Put("k", []byte("value"))

	files, _ := filepath.Glob(filepath.Join(dir, "*.cache"))
	for _, f := range files {
		_ = os.Remove(f)
	}

	if _, ok := dc.Get("k"); ok {
		t.Error("expected miss for deleted file")
	}
	if dc.Contains("k") {
		t.Error("entry should be dropped from the index")
	}
}

func TestDiskCache_Eviction(t *testing.T) {
	dc, _ := NewDiskCache(t.TempDir(), 20, 0)
	_ = dc.Put("a", make([]byte, 10))
	_ = dc.Put("b", make([]byte, 10))
	_ = dc.Put("c", make([]byte, 10))

	if dc.Contains("a") {
		t.Error("a should have been evicted")
	}
	if dc.Size() != 20 {
		t.Errorf("Size = %d, want 20", dc.Size())
	}
}
