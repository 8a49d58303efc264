package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStorePutGet(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	ok, err := store.Exists(ctx, "meeting_combined.json")
	if err != nil || ok {
		t.Fatalf("want absent checkpoint, got %v, %v", ok, err)
	}
	if _, err := store.Get(ctx, "meeting_combined.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound got %v", err)
	}

	payload := []byte(`[{"speaker_id":"SPEAKER_00","text":"hello"}]`)
	if err := store.Put(ctx, "meeting_combined.json", payload); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	ok, err = store.Exists(ctx, "meeting_combined.json")
	if err != nil || !ok {
		t.Fatalf("want present checkpoint, got %v, %v", ok, err)
	}
	got, err := store.Get(ctx, "meeting_combined.json")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("want=%s got=%s", payload, got)
	}
}

func TestFileStoreCompressesZstKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ctx := context.Background()

	payload := bytes.Repeat([]byte(`{"speaker_id":"SPEAKER_01","text":"ja"},`), 200)
	if err := store.Put(ctx, "m_boundaries.json.zst", payload); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "m_boundaries.json.zst"))
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if len(raw) >= len(payload) {
		t.Fatalf("expected compressed file smaller than %d bytes, got %d", len(payload), len(raw))
	}

	got, err := store.Get(ctx, "m_boundaries.json.zst")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("decompressed payload mismatch")
	}
}
