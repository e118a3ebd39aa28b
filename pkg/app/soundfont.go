package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gokaraoke/gokaraoke/pkg/player"
)

// DefaultSoundFontName is the SoundFont filename searched for when none
// is given on the command line.
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// findSoundFont picks the SoundFont for MIDI synthesis, in order:
// the explicit --soundfont path, the default name in the current
// directory, then the default name next to the song. Returns "" when
// nothing is found.
func findSoundFont(explicit, songPath string) string {
	if explicit != "" {
		return explicit
	}

	if _, err := os.Stat(DefaultSoundFontName); err == nil {
		return DefaultSoundFontName
	}

	if songPath != "" {
		candidate := filepath.Join(filepath.Dir(songPath), DefaultSoundFontName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// newSynthFromFile loads a SoundFont file and builds a synthesizer on it.
func newSynthFromFile(path string) (*player.MIDISynth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SoundFont %s: %w", path, err)
	}
	return player.NewMIDISynth(data)
}
