package player

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/sinshu/go-meltysynth/meltysynth"
)

// ErrNoSoundFont is returned when MIDI playback is requested without a
// SoundFont to synthesize with.
var ErrNoSoundFont = errors.New("a SoundFont file is required for MIDI playback")

// midiStream implements io.Reader for Ebitengine audio, rendering samples
// from the MeltySynth sequencer on demand.
type midiStream struct {
	sequencer *meltysynth.MidiFileSequencer
	stopped   bool
	mu        sync.Mutex
}

// Read renders audio from the sequencer as interleaved 16-bit stereo.
func (s *midiStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.sequencer == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	samples := len(p) / 4
	if samples == 0 {
		return 0, nil
	}

	left := make([]float32, samples)
	right := make([]float32, samples)
	s.sequencer.Render(left, right)

	for i := 0; i < samples; i++ {
		l := int16(clampSample(left[i]) * 32767)
		r := int16(clampSample(right[i]) * 32767)
		binary.LittleEndian.PutUint16(p[i*4:], uint16(l))
		binary.LittleEndian.PutUint16(p[i*4+2:], uint16(r))
	}

	return len(p), nil
}

func (s *midiStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func clampSample(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// MIDISynth plays a MIDI file through software synthesis: MeltySynth
// renders the song against a SoundFont, and the resulting stream feeds an
// Ebitengine audio player. The audio player's position is the playback
// clock the lyric sweep follows.
type MIDISynth struct {
	soundFont *meltysynth.SoundFont
	synth     *meltysynth.Synthesizer
	sequencer *meltysynth.MidiFileSequencer

	audioCtx *audio.Context
	player   *audio.Player
	stream   *midiStream

	duration time.Duration
	playing  bool
	muted    bool

	mu sync.RWMutex
}

// NewMIDISynth creates a synthesizer from raw SoundFont (.sf2) data.
func NewMIDISynth(soundFontData []byte) (*MIDISynth, error) {
	if len(soundFontData) == 0 {
		return nil, ErrNoSoundFont
	}

	soundFont, err := meltysynth.NewSoundFont(bytes.NewReader(soundFontData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SoundFont: %w", err)
	}

	settings := meltysynth.NewSynthesizerSettings(SampleRate)
	synth, err := meltysynth.NewSynthesizer(soundFont, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesizer: %w", err)
	}

	return &MIDISynth{
		soundFont: soundFont,
		synth:     synth,
		audioCtx:  audioContext(),
	}, nil
}

// Play starts playback of raw SMF data. A previous playback is stopped
// first.
func (m *MIDISynth) Play(midiData []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopInternal()

	midiFile, err := meltysynth.NewMidiFile(bytes.NewReader(midiData))
	if err != nil {
		return fmt.Errorf("failed to parse MIDI file: %w", err)
	}

	m.sequencer = meltysynth.NewMidiFileSequencer(m.synth)
	m.sequencer.Play(midiFile, false)
	m.duration = midiFile.GetLength()

	m.stream = &midiStream{sequencer: m.sequencer}
	player, err := m.audioCtx.NewPlayer(m.stream)
	if err != nil {
		return fmt.Errorf("failed to create audio player: %w", err)
	}
	m.player = player

	if m.muted {
		m.player.SetVolume(0)
	}

	m.player.Play()
	m.playing = true
	return nil
}

// PositionMs returns the playback position in milliseconds.
func (m *MIDISynth) PositionMs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.player == nil {
		return 0
	}
	return int(m.player.Position().Milliseconds())
}

// Finished reports whether playback has run past the end of the file.
func (m *MIDISynth) Finished() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.playing || m.player == nil {
		return true
	}
	return m.player.Position() >= m.duration
}

// SetMuted silences the synthesized audio without stopping the clock.
// Used in headless mode.
func (m *MIDISynth) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.muted = muted
	if m.player != nil {
		if muted {
			m.player.SetVolume(0)
		} else {
			m.player.SetVolume(1)
		}
	}
}

// Stop stops playback and releases the audio player.
func (m *MIDISynth) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopInternal()
}

func (m *MIDISynth) stopInternal() {
	if m.stream != nil {
		m.stream.Stop()
	}
	if m.player != nil {
		m.player.Close()
		m.player = nil
	}
	m.sequencer = nil
	m.stream = nil
	m.playing = false
}
