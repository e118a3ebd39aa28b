// Package player drives karaoke playback sessions: CDG graphics decoding
// against an audio clock, and KAR/MIDI lyric sweeps against synthesized
// MIDI audio.
package player

import (
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleRate is the audio sample rate used for all playback.
const SampleRate = 44100

var (
	// Ebiten allows only one audio context per process.
	globalAudioContext *audio.Context
	audioContextMutex  sync.Mutex
)

// audioContext returns the process-wide audio context, creating it on
// first use.
func audioContext() *audio.Context {
	audioContextMutex.Lock()
	defer audioContextMutex.Unlock()

	if globalAudioContext == nil {
		globalAudioContext = audio.NewContext(SampleRate)
	}
	return globalAudioContext
}

// Clock reports the playback position the graphics follow. Implementations
// are the audio players (position of the decoded stream) and WallClock for
// silent playback.
type Clock interface {
	// PositionMs returns the playback position in milliseconds.
	PositionMs() int
}

// WallClock is the playback clock used with --nomusic: time simply starts
// at construction and runs forward.
type WallClock struct {
	start time.Time
}

// NewWallClock creates a clock starting now.
func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

// PositionMs returns milliseconds since the clock started.
func (c *WallClock) PositionMs() int {
	return int(time.Since(c.start).Milliseconds())
}
