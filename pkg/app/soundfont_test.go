package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindSoundFont_Explicit(t *testing.T) {
	if got := findSoundFont("/sf/custom.sf2", "/songs/track.kar"); got != "/sf/custom.sf2" {
		t.Errorf("findSoundFont = %q, want the explicit path", got)
	}
}

func TestFindSoundFont_NextToSong(t *testing.T) {
	dir := t.TempDir()
	sfPath := filepath.Join(dir, DefaultSoundFontName)
	if err := os.WriteFile(sfPath, []byte("RIFF....sfbk"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	got := findSoundFont("", filepath.Join(dir, "track.kar"))
	if got != sfPath {
		t.Errorf("findSoundFont = %q, want %q", got, sfPath)
	}
}

func TestFindSoundFont_CurrentDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultSoundFontName), []byte("RIFF....sfbk"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	t.Chdir(dir)

	if got := findSoundFont("", "/elsewhere/track.kar"); got != DefaultSoundFontName {
		t.Errorf("findSoundFont = %q, want %q", got, DefaultSoundFontName)
	}
}

func TestFindSoundFont_NotFound(t *testing.T) {
	t.Chdir(t.TempDir())

	if got := findSoundFont("", filepath.Join(t.TempDir(), "track.kar")); got != "" {
		t.Errorf("findSoundFont = %q, want empty", got)
	}
}

func TestResolveEncoding(t *testing.T) {
	if enc, err := resolveEncoding(""); err != nil || enc != nil {
		t.Errorf("empty name should mean raw passthrough, got (%v, %v)", enc, err)
	}

	for _, name := range []string{"ISO-8859-1", "Shift_JIS", "UTF-8"} {
		enc, err := resolveEncoding(name)
		if err != nil {
			t.Errorf("resolveEncoding(%q) failed: %v", name, err)
		}
		if enc == nil {
			t.Errorf("resolveEncoding(%q) returned nil encoding", name)
		}
	}

	if _, err := resolveEncoding("no-such-charset"); err == nil {
		t.Error("expected error for an unknown charset name")
	}
}
