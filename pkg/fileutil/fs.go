// Package fileutil provides unified file system access over plain
// directories and zip archives, with case-insensitive lookup. Karaoke
// collections routinely mix cases between a song file and its companions
// (SONG.CDG next to song.mp3), and often keep both inside a zip.
package fileutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem abstracts a song's container: a real directory or a zip
// archive. All name lookups are case-insensitive.
type FileSystem interface {
	// Open opens a file by name.
	Open(name string) (fs.File, error)
	// ReadFile reads a whole file.
	ReadFile(name string) ([]byte, error)
	// ReadDir lists a directory.
	ReadDir(name string) ([]fs.DirEntry, error)
	// FindFile searches dir for filename and returns the actual path.
	FindFile(dir, filename string) (string, error)
	// BasePath returns the directory or archive path this FileSystem
	// was opened on.
	BasePath() string
}

// RealFS provides access to an on-disk directory.
type RealFS struct {
	basePath string
}

// NewRealFS creates a FileSystem rooted at basePath.
func NewRealFS(basePath string) *RealFS {
	return &RealFS{basePath: basePath}
}

func (r *RealFS) Open(name string) (fs.File, error) {
	actualPath, err := r.findFileCaseInsensitive(r.resolvePath(name))
	if err != nil {
		return nil, err
	}
	return os.Open(actualPath)
}

func (r *RealFS) ReadFile(name string) ([]byte, error) {
	actualPath, err := r.findFileCaseInsensitive(r.resolvePath(name))
	if err != nil {
		return nil, err
	}
	return os.ReadFile(actualPath)
}

func (r *RealFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(r.resolvePath(name))
}

func (r *RealFS) FindFile(dir, filename string) (string, error) {
	searchDir := dir
	if r.basePath != "" && !filepath.IsAbs(dir) {
		searchDir = filepath.Join(r.basePath, dir)
	}
	return FindFileCaseInsensitive(searchDir, filename)
}

func (r *RealFS) BasePath() string {
	return r.basePath
}

func (r *RealFS) resolvePath(name string) string {
	cleanName := strings.TrimPrefix(strings.TrimPrefix(name, "/"), "\\")
	if r.basePath != "" {
		return filepath.Join(r.basePath, cleanName)
	}
	return cleanName
}

func (r *RealFS) findFileCaseInsensitive(path string) (string, error) {
	// Try direct access first.
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	dir := filepath.Dir(path)
	filename := filepath.Base(path)
	return FindFileCaseInsensitive(dir, filename)
}

// ZipFS provides access to the contents of a zip archive. The whole
// archive is read into memory on open; karaoke song archives are small.
type ZipFS struct {
	fsys     fs.FS
	basePath string
}

// NewZipFS opens the zip archive at archivePath.
func NewZipFS(archivePath string) (*ZipFS, error) {
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", archivePath, err)
	}
	return &ZipFS{fsys: reader, basePath: archivePath}, nil
}

func (z *ZipFS) Open(name string) (fs.File, error) {
	actualPath, err := z.findFileCaseInsensitive(cleanArchiveName(name))
	if err != nil {
		return nil, err
	}
	return z.fsys.Open(actualPath)
}

func (z *ZipFS) ReadFile(name string) ([]byte, error) {
	actualPath, err := z.findFileCaseInsensitive(cleanArchiveName(name))
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(z.fsys, actualPath)
}

func (z *ZipFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(z.fsys, cleanArchiveName(name))
}

func (z *ZipFS) FindFile(dir, filename string) (string, error) {
	return FindFileCaseInsensitiveFS(z.fsys, cleanArchiveName(dir), filename)
}

func (z *ZipFS) BasePath() string {
	return z.basePath
}

func (z *ZipFS) findFileCaseInsensitive(path string) (string, error) {
	if f, err := z.fsys.Open(path); err == nil {
		f.Close()
		return path, nil
	}

	dir := filepath.Dir(path)
	filename := filepath.Base(path)
	// Archive paths always use forward slashes.
	dir = strings.ReplaceAll(dir, "\\", "/")
	return FindFileCaseInsensitiveFS(z.fsys, dir, filename)
}

// cleanArchiveName maps external path spellings onto fs.FS naming: no
// leading separators, forward slashes, "." for the root.
func cleanArchiveName(name string) string {
	cleanName := strings.TrimPrefix(strings.TrimPrefix(name, "/"), "\\")
	cleanName = strings.ReplaceAll(cleanName, "\\", "/")
	if cleanName == "" {
		return "."
	}
	return cleanName
}
