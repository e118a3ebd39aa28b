package fileutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Song file extensions the player understands.
var songExtensions = []string{".cdg", ".kar", ".mid"}

// Companion audio extensions for CDG songs, in lookup priority order.
var audioExtensions = []string{".wav", ".ogg", ".mp3"}

// SongData locates one song file and its companions inside a directory or
// a zip archive.
type SongData struct {
	// Name is the song's file name within its container.
	Name string

	fsys FileSystem
}

// OpenSong resolves a song path. Three spellings are accepted: a plain
// file path, a path to a zip archive (the first song file inside is
// played), and an archive-member path like "songs.zip/track01.cdg".
func OpenSong(path string) (*SongData, error) {
	lower := strings.ToLower(path)

	if idx := strings.Index(lower, ".zip"+string(filepath.Separator)); idx >= 0 {
		archive := path[:idx+4]
		member := filepath.ToSlash(path[idx+5:])
		zfs, err := NewZipFS(archive)
		if err != nil {
			return nil, err
		}
		return &SongData{Name: member, fsys: zfs}, nil
	}

	if strings.HasSuffix(lower, ".zip") {
		zfs, err := NewZipFS(path)
		if err != nil {
			return nil, err
		}
		name, err := firstSongInArchive(zfs)
		if err != nil {
			return nil, err
		}
		return &SongData{Name: name, fsys: zfs}, nil
	}

	return &SongData{
		Name: filepath.Base(path),
		fsys: NewRealFS(filepath.Dir(path)),
	}, nil
}

func firstSongInArchive(zfs *ZipFS) (string, error) {
	entries, err := zfs.ReadDir(".")
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, songExt := range songExtensions {
			if ext == songExt {
				return entry.Name(), nil
			}
		}
	}
	return "", fmt.Errorf("no song file in archive %s", zfs.BasePath())
}

// Ext returns the song's lowercased file extension.
func (s *SongData) Ext() string {
	return strings.ToLower(filepath.Ext(s.Name))
}

// Read loads the song's bytes.
func (s *SongData) Read() ([]byte, error) {
	return s.fsys.ReadFile(s.Name)
}

// CompanionAudio finds the audio file paired with this song: the same base
// name with a .wav, .ogg or .mp3 extension, in that priority order.
func (s *SongData) CompanionAudio() (string, error) {
	base := strings.TrimSuffix(filepath.Base(s.Name), filepath.Ext(s.Name))
	dir := filepath.Dir(s.Name)

	for _, ext := range audioExtensions {
		if path, err := s.fsys.FindFile(dir, base+ext); err == nil {
			return filepath.Base(path), nil
		}
	}
	return "", fmt.Errorf("no wav, ogg or mp3 file to match %s", s.Name)
}

// ReadCompanion loads a companion file found by CompanionAudio.
func (s *SongData) ReadCompanion(name string) ([]byte, error) {
	dir := filepath.Dir(s.Name)
	if dir != "." {
		name = dir + "/" + name
	}
	return s.fsys.ReadFile(name)
}
