// Package cli parses the command line into a playback configuration.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings parsed from command-line arguments.
type Config struct {
	SongPath  string        // path to the song file (.cdg, .kar, .mid, or a .zip)
	Encoding  string        // text encoding of KAR lyrics (e.g. latin-1, shift-jis)
	Zoom      string        // scaling policy: none, int, full, soft
	FPS       int           // display frames per second
	SyncMs    int           // manual audio/graphics sync adjustment in milliseconds
	NoMusic   bool          // render lyrics/graphics without audio
	SoundFont string        // SoundFont file for MIDI synthesis
	Timeout   time.Duration // automatic exit after this long (0 = unlimited)
	LogLevel  string        // log level (debug, info, warn, error)
	Headless  bool          // headless mode, no window
	ShowHelp  bool
}

var validZoomModes = map[string]bool{
	"none": true,
	"int":  true,
	"full": true,
	"soft": true,
}

// ParseArgs parses command-line arguments into a Config. Flags may appear
// before or after the song path. HEADLESS, TIMEOUT, LOG_LEVEL and
// SOUNDFONT environment variables act as fallbacks when the corresponding
// flag is absent.
func ParseArgs(args []string) (*Config, error) {
	// Reorder so flags come first and positional arguments last.
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("gokaraoke", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	fs.StringVar(&config.Encoding, "encoding", "", "text encoding of KAR lyrics")
	fs.StringVar(&config.Encoding, "e", "", "text encoding (shorthand)")
	fs.StringVar(&config.Zoom, "zoom", "int", "scaling policy: none, int, full, soft")
	fs.IntVar(&config.FPS, "fps", 30, "display frames per second")
	fs.IntVar(&config.SyncMs, "sync-ms", 0, "audio/graphics sync adjustment in milliseconds")
	fs.BoolVar(&config.NoMusic, "nomusic", false, "play without audio")
	fs.StringVar(&config.SoundFont, "soundfont", "", "SoundFont file for MIDI synthesis")
	fs.IntVar(&timeoutSec, "timeout", 0, "exit after this many seconds")
	fs.IntVar(&timeoutSec, "t", 0, "exit after this many seconds (shorthand)")
	fs.StringVar(&config.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&config.LogLevel, "l", "info", "log level (shorthand)")
	fs.BoolVar(&config.Headless, "headless", false, "headless mode")
	fs.BoolVar(&config.ShowHelp, "help", false, "show help")
	fs.BoolVar(&config.ShowHelp, "h", false, "show help (shorthand)")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// Environment variable fallbacks; flags win.
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}
	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}
	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}
	if config.SoundFont == "" {
		config.SoundFont = os.Getenv("SOUNDFONT")
	}

	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	if !validZoomModes[config.Zoom] {
		return nil, fmt.Errorf("invalid zoom mode: %s (must be none, int, full, or soft)", config.Zoom)
	}
	if config.FPS <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", config.FPS)
	}

	if fs.NArg() > 0 {
		config.SongPath = fs.Arg(0)
	}

	return config, nil
}

// reorderArgs moves flags ahead of positional arguments.
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)

			// A following non-dash argument is this flag's value,
			// unless the flag is boolean.
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				if !isBoolFlag(arg) {
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

func isBoolFlag(arg string) bool {
	switch arg {
	case "-h", "--help", "-help", "--headless", "-headless", "--nomusic", "-nomusic":
		return true
	}
	return false
}

// PrintHelp writes the usage message.
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `gokaraoke - CDG and MIDI/KAR karaoke player

Usage:
  gokaraoke [options] <song>

Arguments:
  song    Path to a .cdg, .kar or .mid song file, or to a .zip archive
          containing one. A .cdg song plays its companion audio file
          (.wav, .ogg or .mp3 with the same base name).

Options:
  -e, --encoding <name>       Text encoding of KAR lyrics (default: raw bytes)
  --zoom <mode>               Scaling policy: none, int, full, soft (default: int)
  --fps <n>                   Display frames per second (default: 30)
  --sync-ms <n>               Shift graphics against audio by n milliseconds
  --nomusic                   Render lyrics/graphics without audio
  --soundfont <file>          SoundFont for MIDI synthesis
  -t, --timeout <seconds>     Exit after the given number of seconds
  -l, --log-level <level>     Log level: debug, info, warn, error (default: info)
  --headless                  Headless mode (no window)
  -h, --help                  Show this help

Environment Variables:
  HEADLESS=1                  Enable headless mode
  TIMEOUT=<seconds>           Automatic exit timeout
  LOG_LEVEL=<level>           Log level
  SOUNDFONT=<file>            SoundFont for MIDI synthesis

Examples:
  gokaraoke song.cdg                  Play a CDG song with its audio track
  gokaraoke song.kar                  Play a KAR file with synthesized MIDI
  gokaraoke --encoding shift-jis song.kar
  gokaraoke --zoom full song.cdg      Stretch to the full window
  gokaraoke --nomusic song.kar        Lyrics only, no audio
`)
}
