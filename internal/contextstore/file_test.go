package contextstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chart-relay-bot/internal/types"
)

func TestLoadAbsent(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "ctx.txt"), 0)

	mc, ok, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ok {
		t.Fatalf("Expected absent context, got %q", mc.Text)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "nested", "ctx.txt"), 0)

	texts := []string{
		"Tendencia alcista en semanal.\nSoporte en 61.200",
		"",
		"línea con acentos: ñ, é, ü\r\n",
	}
	for _, want := range texts {
		if err := s.Save(ctx, want); err != nil {
			t.Fatalf("Save(%q) failed: %v", want, err)
		}
		got, ok, err := s.Load(ctx)
		if err != nil || !ok {
			t.Fatalf("Load after Save(%q): ok=%v err=%v", want, ok, err)
		}
		if got.Text != want {
			t.Errorf("Expected %q, got %q", want, got.Text)
		}
		if got.UpdatedAt.IsZero() {
			t.Error("Expected UpdatedAt to be set")
		}
	}
}

func TestSaveReplacesPreviousValue(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "ctx.txt"), 0)

	_ = s.Save(ctx, strings.Repeat("largo ", 100))
	if err := s.Save(ctx, "corto"); err != nil {
		t.Fatal(err)
	}
	got, _, _ := s.Load(ctx)
	if got.Text != "corto" {
		t.Errorf("Expected full replacement, got %q", got.Text)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "ctx.txt"), 0)
	if err := s.Save(context.Background(), "x"); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "ctx.txt" {
		names := []string{}
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only ctx.txt, got %v", names)
	}
}

func TestSaveFailureReturnsPersistError(t *testing.T) {
	dir := t.TempDir()

	// The parent "directory" is a regular file, so nothing can be written below it.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFileStore(filepath.Join(blocker, "ctx.txt"), 0)

	err := s.Save(context.Background(), "nuevo")
	if !errors.Is(err, types.ErrPersist) {
		t.Fatalf("Expected ErrPersist, got %v", err)
	}
	var pe *types.PersistError
	if !errors.As(err, &pe) || pe.Op != "save" {
		t.Errorf("Expected PersistError for save, got %#v", err)
	}
}
