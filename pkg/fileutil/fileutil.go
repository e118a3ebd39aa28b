package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FindFileCaseInsensitive searches dir for filename ignoring case and
// returns the path under the file's actual on-disk name. Karaoke rips
// made on Windows freely mix SONG.CDG with song.mp3.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	searchName := strings.ToLower(filename)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s)", filename, dir)
}

// FindFileCaseInsensitiveFS is FindFileCaseInsensitive over an fs.FS,
// used for looking inside zip archives.
func FindFileCaseInsensitiveFS(fsys fs.FS, dir, filename string) (string, error) {
	searchName := strings.ToLower(filename)

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(entry.Name()) == searchName {
			// fs.FS paths always use forward slashes.
			return dir + "/" + entry.Name(), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s)", filename, dir)
}
