package cli

import (
	"testing"
	"time"
)

// clearEnv pins the fallback environment variables to empty so the host
// environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HEADLESS", "TIMEOUT", "LOG_LEVEL", "SOUNDFONT"} {
		t.Setenv(key, "")
	}
}

func TestParseArgs_ValidArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected Config
	}{
		{
			name: "defaults",
			args: []string{},
			expected: Config{
				Zoom:     "int",
				FPS:      30,
				LogLevel: "info",
			},
		},
		{
			name: "song path",
			args: []string{"/songs/track.cdg"},
			expected: Config{
				SongPath: "/songs/track.cdg",
				Zoom:     "int",
				FPS:      30,
				LogLevel: "info",
			},
		},
		{
			name: "encoding",
			args: []string{"--encoding", "shift-jis", "song.kar"},
			expected: Config{
				SongPath: "song.kar",
				Encoding: "shift-jis",
				Zoom:     "int",
				FPS:      30,
				LogLevel: "info",
			},
		},
		{
			name: "encoding shorthand",
			args: []string{"-e", "latin-1", "song.kar"},
			expected: Config{
				SongPath: "song.kar",
				Encoding: "latin-1",
				Zoom:     "int",
				FPS:      30,
				LogLevel: "info",
			},
		},
		{
			name: "zoom mode",
			args: []string{"--zoom", "full", "song.cdg"},
			expected: Config{
				SongPath: "song.cdg",
				Zoom:     "full",
				FPS:      30,
				LogLevel: "info",
			},
		},
		{
			name: "fps and sync",
			args: []string{"--fps", "60", "--sync-ms", "-250", "song.cdg"},
			expected: Config{
				SongPath: "song.cdg",
				Zoom:     "int",
				FPS:      60,
				SyncMs:   -250,
				LogLevel: "info",
			},
		},
		{
			name: "no music",
			args: []string{"--nomusic", "song.kar"},
			expected: Config{
				SongPath: "song.kar",
				Zoom:     "int",
				FPS:      30,
				NoMusic:  true,
				LogLevel: "info",
			},
		},
		{
			name: "soundfont",
			args: []string{"--soundfont", "/sf/general.sf2", "song.mid"},
			expected: Config{
				SongPath:  "song.mid",
				Zoom:      "int",
				FPS:       30,
				SoundFont: "/sf/general.sf2",
				LogLevel:  "info",
			},
		},
		{
			name: "timeout",
			args: []string{"--timeout", "10"},
			expected: Config{
				Zoom:     "int",
				FPS:      30,
				Timeout:  10 * time.Second,
				LogLevel: "info",
			},
		},
		{
			name: "timeout shorthand",
			args: []string{"-t", "5"},
			expected: Config{
				Zoom:     "int",
				FPS:      30,
				Timeout:  5 * time.Second,
				LogLevel: "info",
			},
		},
		{
			name: "log level shorthand",
			args: []string{"-l", "error"},
			expected: Config{
				Zoom:     "int",
				FPS:      30,
				LogLevel: "error",
			},
		},
		{
			name: "headless",
			args: []string{"--headless"},
			expected: Config{
				Zoom:     "int",
				FPS:      30,
				LogLevel: "info",
				Headless: true,
			},
		},
		{
			name: "help",
			args: []string{"--help"},
			expected: Config{
				Zoom:     "int",
				FPS:      30,
				LogLevel: "info",
				ShowHelp: true,
			},
		},
		{
			name: "flags after positional argument",
			args: []string{"song.kar", "--timeout", "5", "--log-level", "debug"},
			expected: Config{
				SongPath: "song.kar",
				Zoom:     "int",
				FPS:      30,
				Timeout:  5 * time.Second,
				LogLevel: "debug",
			},
		},
		{
			name: "boolean flag before positional argument",
			args: []string{"--nomusic", "song.kar", "--zoom", "none"},
			expected: Config{
				SongPath: "song.kar",
				Zoom:     "none",
				FPS:      30,
				NoMusic:  true,
				LogLevel: "info",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			config, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if config.SongPath != tt.expected.SongPath {
				t.Errorf("SongPath = %q, want %q", config.SongPath, tt.expected.SongPath)
			}
			if config.Encoding != tt.expected.Encoding {
				t.Errorf("Encoding = %q, want %q", config.Encoding, tt.expected.Encoding)
			}
			if config.Zoom != tt.expected.Zoom {
				t.Errorf("Zoom = %q, want %q", config.Zoom, tt.expected.Zoom)
			}
			if config.FPS != tt.expected.FPS {
				t.Errorf("FPS = %d, want %d", config.FPS, tt.expected.FPS)
			}
			if config.SyncMs != tt.expected.SyncMs {
				t.Errorf("SyncMs = %d, want %d", config.SyncMs, tt.expected.SyncMs)
			}
			if config.NoMusic != tt.expected.NoMusic {
				t.Errorf("NoMusic = %v, want %v", config.NoMusic, tt.expected.NoMusic)
			}
			if config.SoundFont != tt.expected.SoundFont {
				t.Errorf("SoundFont = %q, want %q", config.SoundFont, tt.expected.SoundFont)
			}
			if config.Timeout != tt.expected.Timeout {
				t.Errorf("Timeout = %v, want %v", config.Timeout, tt.expected.Timeout)
			}
			if config.LogLevel != tt.expected.LogLevel {
				t.Errorf("LogLevel = %q, want %q", config.LogLevel, tt.expected.LogLevel)
			}
			if config.Headless != tt.expected.Headless {
				t.Errorf("Headless = %v, want %v", config.Headless, tt.expected.Headless)
			}
			if config.ShowHelp != tt.expected.ShowHelp {
				t.Errorf("ShowHelp = %v, want %v", config.ShowHelp, tt.expected.ShowHelp)
			}
		})
	}
}

func TestParseArgs_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "negative timeout",
			args: []string{"--timeout", "-10"},
		},
		{
			name: "invalid log level",
			args: []string{"--log-level", "invalid"},
		},
		{
			name: "invalid zoom mode",
			args: []string{"--zoom", "stretch"},
		},
		{
			name: "zero fps",
			args: []string{"--fps", "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := ParseArgs(tt.args)
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseArgs_EnvFallbacks(t *testing.T) {
	t.Run("environment supplies values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("HEADLESS", "1")
		t.Setenv("TIMEOUT", "7")
		t.Setenv("LOG_LEVEL", "DEBUG")
		t.Setenv("SOUNDFONT", "/sf/env.sf2")

		config, err := ParseArgs([]string{"song.kar"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !config.Headless {
			t.Error("HEADLESS=1 should enable headless mode")
		}
		if config.Timeout != 7*time.Second {
			t.Errorf("Timeout = %v, want 7s", config.Timeout)
		}
		if config.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", config.LogLevel)
		}
		if config.SoundFont != "/sf/env.sf2" {
			t.Errorf("SoundFont = %q, want /sf/env.sf2", config.SoundFont)
		}
	})

	t.Run("flags override environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TIMEOUT", "7")
		t.Setenv("LOG_LEVEL", "error")
		t.Setenv("SOUNDFONT", "/sf/env.sf2")

		config, err := ParseArgs([]string{"-t", "3", "-l", "warn", "--soundfont", "/sf/flag.sf2"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Timeout != 3*time.Second {
			t.Errorf("Timeout = %v, want 3s", config.Timeout)
		}
		if config.LogLevel != "warn" {
			t.Errorf("LogLevel = %q, want warn", config.LogLevel)
		}
		if config.SoundFont != "/sf/flag.sf2" {
			t.Errorf("SoundFont = %q, want /sf/flag.sf2", config.SoundFont)
		}
	})
}
