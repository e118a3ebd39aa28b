package player

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// TrackPlayer plays a CDG song's companion audio file. The decoded
// stream's position is the playback clock the graphics follow.
type TrackPlayer struct {
	player   *audio.Player
	duration time.Duration
	playing  bool
	muted    bool

	mu sync.RWMutex
}

// NewTrackPlayer decodes in-memory audio data by extension (".wav",
// ".ogg" or ".mp3") and prepares it for playback.
func NewTrackPlayer(ext string, data []byte) (*TrackPlayer, error) {
	stream, err := decodeTrack(ext, data)
	if err != nil {
		return nil, err
	}

	player, err := audioContext().NewPlayer(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio player: %w", err)
	}

	// All three decoders report their length in bytes of 16-bit stereo
	// output at the context's sample rate.
	duration := time.Duration(stream.Length()) * time.Second / (4 * SampleRate)

	return &TrackPlayer{
		player:   player,
		duration: duration,
	}, nil
}

// trackStream is the common surface of the wav, vorbis and mp3 decoders.
type trackStream interface {
	io.ReadSeeker
	Length() int64
}

func decodeTrack(ext string, data []byte) (trackStream, error) {
	switch ext {
	case ".wav":
		stream, err := wav.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode wav: %w", err)
		}
		return stream, nil
	case ".ogg":
		stream, err := vorbis.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode ogg: %w", err)
		}
		return stream, nil
	case ".mp3":
		stream, err := mp3.DecodeWithSampleRate(SampleRate, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode mp3: %w", err)
		}
		return stream, nil
	}
	return nil, fmt.Errorf("unsupported audio format: %s", ext)
}

// Play starts playback.
func (t *TrackPlayer) Play() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.muted {
		t.player.SetVolume(0)
	}
	t.player.Play()
	t.playing = true
}

// PositionMs returns the playback position in milliseconds.
func (t *TrackPlayer) PositionMs() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int(t.player.Position().Milliseconds())
}

// DurationMs returns the track length in milliseconds.
func (t *TrackPlayer) DurationMs() int {
	return int(t.duration.Milliseconds())
}

// Finished reports whether the track has played to its end.
func (t *TrackPlayer) Finished() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.playing {
		return true
	}
	return !t.player.IsPlaying()
}

// SetMuted silences playback without stopping the clock.
func (t *TrackPlayer) SetMuted(muted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.muted = muted
	if t.player != nil {
		if muted {
			t.player.SetVolume(0)
		} else {
			t.player.SetVolume(1)
		}
	}
}

// Stop stops playback and releases the audio player.
func (t *TrackPlayer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.player != nil {
		t.player.Close()
	}
	t.playing = false
}
