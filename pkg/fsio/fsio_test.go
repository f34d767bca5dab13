package fsio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadAtAndWriteAt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := WriteAt(path, 2, []byte("XY")); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	got := make([]byte, 4)
	n, err := ReadAt(path, 1, got)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != 4 {
		t.Fatalf("ReadAt n = %d, want 4", n)
	}
	if string(got) != "1XY4" {
		t.Errorf("got %q, want %q", got, "1XY4")
	}
}

func TestWriteAtMissingFileFails(t *testing.T) {
	t.Parallel()

	_, err := WriteAt(filepath.Join(t.TempDir(), "missing"), 0, []byte("x"))
	if err == nil {
		t.Fatal("expected WriteAt against a non-existent file to fail")
	}
}

func TestCopyProducesIdenticalContentAtDest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dest := filepath.Join(dir, "dest.txt")
	if err := os.WriteFile(src, []byte("copy me"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Copy(src, dest, CopyOptions{}); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "copy me" {
		t.Errorf("dest content = %q, want %q", got, "copy me")
	}

	if _, err := os.Stat(src); err != nil {
		t.Errorf("Copy must not remove the source: %v", err)
	}
}

func TestCopyLeavesNoTempFileBehind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dest := filepath.Join(dir, "dest.txt")
	if err := os.WriteFile(src, []byte("x"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Copy(src, dest, CopyOptions{}); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected exactly src and dest in %q, found %d entries", dir, len(entries))
	}
}

func TestMoveWithinSameDirectoryRenamesDirectly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dest := filepath.Join(dir, "dest.txt")
	if err := os.WriteFile(src, []byte("move me"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Move(src, dest, CopyOptions{}); err != nil {
		t.Fatalf("Move: %v", err)
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("Move must remove the source, stat error = %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "move me" {
		t.Errorf("dest content = %q, want %q", got, "move me")
	}
}

func TestCopyPreservesPermissionsWhenRequested(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dest := filepath.Join(dir, "dest.txt")
	if err := os.WriteFile(src, []byte("x"), 0640); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := Copy(src, dest, CopyOptions{PreserveAttributes: true}); err != nil {
		t.Fatalf("Copy: %v", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("dest permissions = %v, want 0640", info.Mode().Perm())
	}
}
