package fileutil

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	content := []byte("hello world")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestTempPathKeepsExtension(t *testing.T) {
	if got := TempPath("/a/b/clip.mp4"); got != "/a/b/clip.tmp.mp4" {
		t.Fatalf("TempPath = %q", got)
	}
	if got := TempPath("/a/ideas"); got != "/a/ideas.tmp" {
		t.Fatalf("TempPath without ext = %q", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "ideas.json")
	if err := WriteFileAtomic(path, []byte(`{"ideas":[]}`), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if !NonEmpty(path) {
		t.Fatal("expected final file")
	}
	if Exists(TempPath(path)) {
		t.Fatal("temp file should not remain")
	}
}

func TestPromoteRejectsEmptyTemp(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, "a.tmp.mp3")
	final := filepath.Join(dir, "a.mp3")
	if err := os.WriteFile(tmp, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Promote(tmp, final); err == nil {
		t.Fatal("expected error for empty temp output")
	}
	if Exists(tmp) || Exists(final) {
		t.Fatal("expected neither temp nor final to remain")
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "subtitles", "a.ass")
	dst := filepath.Join(dir, "subtitles_archived", "a.ass")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("[Script Info]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if Exists(src) {
		t.Fatal("source should be gone")
	}
	if !Exists(dst) {
		t.Fatal("destination should exist")
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "payload" {
		t.Fatalf("content mismatch: %q", got)
	}
}

func TestVerifyCopyDetectsChangedDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "copy.bin")
	if err := os.WriteFile(path, []byte("payloaD"), 0o644); err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256([]byte("payload"))
	if err := verifyCopy(path, 7, sum[:]); err == nil {
		t.Fatal("expected hash mismatch")
	}
	if err := verifyCopy(path, 8, sum[:]); err == nil {
		t.Fatal("expected size mismatch")
	}
	good := sha256.Sum256([]byte("payloaD"))
	if err := verifyCopy(path, 7, good[:]); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
}
