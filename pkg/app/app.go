// Package app wires the command line, song container, decoders, audio and
// the game loop into a runnable karaoke player.
package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/gokaraoke/gokaraoke/pkg/cli"
	"github.com/gokaraoke/gokaraoke/pkg/fileutil"
	"github.com/gokaraoke/gokaraoke/pkg/logger"
	"github.com/gokaraoke/gokaraoke/pkg/midi"
	"github.com/gokaraoke/gokaraoke/pkg/player"
)

// Initial window sizes for the two player kinds. CDG graphics are
// fixed-ratio, so that window starts at twice the native 288x192 frame.
const (
	cdgWindowWidth  = 576
	cdgWindowHeight = 384
	karWindowWidth  = 640
	karWindowHeight = 480
)

// Application holds the parsed configuration and runs one song.
type Application struct {
	config *cli.Config
	log    *slog.Logger
}

// New creates an Application.
func New() *Application {
	return &Application{}
}

// Run parses arguments, opens the song and plays it to the end.
func (app *Application) Run(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.config = config

	if config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	if err := logger.InitLogger(config.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log = logger.GetLogger()

	if config.SongPath == "" {
		cli.PrintHelp()
		return fmt.Errorf("no song file specified")
	}

	song, err := fileutil.OpenSong(config.SongPath)
	if err != nil {
		return fmt.Errorf("failed to open song: %w", err)
	}

	app.log.Info("Song opened", "name", song.Name, "format", song.Ext())

	switch song.Ext() {
	case ".cdg":
		return app.runCDG(song)
	case ".kar", ".mid":
		return app.runKAR(song)
	}
	return fmt.Errorf("unsupported song format: %s", song.Ext())
}

// runCDG plays a CDG song against its companion audio track.
func (app *Application) runCDG(song *fileutil.SongData) error {
	data, err := song.Read()
	if err != nil {
		return fmt.Errorf("failed to read song: %w", err)
	}

	session := player.NewCDGSession(data)

	var clock player.Clock
	cleanup := func() {}

	if app.config.NoMusic {
		clock = player.NewWallClock()
	} else {
		name, err := song.CompanionAudio()
		if err != nil {
			return fmt.Errorf("%w (use --nomusic to play without audio)", err)
		}
		audioData, err := song.ReadCompanion(name)
		if err != nil {
			return fmt.Errorf("failed to read audio track %s: %w", name, err)
		}
		track, err := player.NewTrackPlayer(strings.ToLower(filepath.Ext(name)), audioData)
		if err != nil {
			return err
		}
		if app.config.Headless {
			track.SetMuted(true)
		}
		track.Play()
		app.log.Info("Audio track started", "name", name, "duration_ms", track.DurationMs())

		clock = track
		cleanup = track.Stop
	}
	defer cleanup()

	g := app.newGame(clock, session.Update, nil)
	g.draw = func(screen *ebiten.Image) {
		session.Draw(screen, app.config.Zoom)
	}

	return app.runLoop(g, song.Name, cdgWindowWidth, cdgWindowHeight)
}

// runKAR plays a KAR/MIDI song: synthesized audio plus the lyric sweep.
func (app *Application) runKAR(song *fileutil.SongData) error {
	data, err := song.Read()
	if err != nil {
		return fmt.Errorf("failed to read song: %w", err)
	}

	enc, err := resolveEncoding(app.config.Encoding)
	if err != nil {
		return err
	}

	file, err := midi.Parse(data, enc)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", song.Name, err)
	}

	face, err := player.LoadFace("", 16)
	if err != nil {
		return err
	}
	session := player.NewKARSession(file, face, player.NewFaceMetrics(face),
		karWindowWidth, karWindowHeight)

	var clock player.Clock
	cleanup := func() {}

	if app.config.NoMusic {
		clock = player.NewWallClock()
	} else {
		sfPath := findSoundFont(app.config.SoundFont, app.config.SongPath)
		if sfPath == "" {
			return fmt.Errorf("no SoundFont found: pass --soundfont or place %s next to the song (or use --nomusic)",
				DefaultSoundFontName)
		}
		synth, err := newSynthFromFile(sfPath)
		if err != nil {
			return err
		}
		if app.config.Headless {
			synth.SetMuted(true)
		}
		if err := synth.Play(data); err != nil {
			return err
		}
		app.log.Info("MIDI synthesis started", "soundfont", sfPath)

		clock = synth
		cleanup = synth.Stop
	}
	defer cleanup()

	g := app.newGame(clock, session.Update, session.Resize)
	g.draw = session.Draw

	return app.runLoop(g, song.Name, karWindowWidth, karWindowHeight)
}

// resolveEncoding looks a charset name up in the IANA registry. An empty
// name means raw single-byte passthrough.
func resolveEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unknown text encoding: %s", name)
	}
	return enc, nil
}
