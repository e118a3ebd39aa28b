// Package midi parses Standard MIDI Files (and their .kar karaoke variant)
// just far enough for karaoke playback: it extracts timed lyric text from
// meta-events, collects every tempo change across all tracks, and converts
// lyric and note ticks to milliseconds once the tempo map is complete.
//
// The parser deliberately does no synthesis. Audio rendering is the
// player's concern; this package only reconstructs when each syllable and
// note happens.
package midi

import "github.com/gokaraoke/gokaraoke/pkg/lyrics"

// TempoChange is one tempo breakpoint: from Click onward the song runs at
// Tempo microseconds per quarter note (until the next breakpoint).
type TempoChange struct {
	Click int
	Tempo int
}

// File is the parse result for one MIDI/KAR file.
type File struct {
	Tracks []*Track

	// Lyrics is the chosen lyric list from the best track, with
	// millisecond timing computed.
	Lyrics *lyrics.Lyrics

	// Division fields from the header chunk. Exactly one timing scheme
	// is active: ClickUnitsPerQuarter for metrical time, or the SMPTE
	// pair. Lyric timing requires metrical time; SMPTE values are stored
	// but not converted.
	ClickUnitsPerQuarter int
	ClickUnitsPerSMPTE   int
	SMPTEFramesPerSec    int

	// Tempo breakpoints in click order, collected from every track. The
	// list starts with a (0, 0) sentinel; the first real tempo event
	// governs timing from tick 0.
	Tempo []TempoChange

	// Time signature, from the last 0x58 meta-event seen.
	Numerator              int
	Denominator            int
	ClocksPerMetronomeTick int
	NotesPer24MIDIClocks   int

	// Start of the earliest note and end of the latest note across all
	// tracks, in milliseconds. The flags are false for files with no
	// note events at all.
	EarliestNoteMs    float64
	HasEarliestNoteMs bool
	LastNoteMs        float64
	HasLastNoteMs     bool
}

// Track is the per-track parse state and result.
type Track struct {
	Num int

	// LyricsTrack marks a track literally named "Words"; such a track's
	// lyric candidate wins over any length comparison.
	LyricsTrack bool

	// Candidate syllable lists: TextEvents from 0x01 meta-events,
	// LyricEvents from 0x05. At most one of them is chosen per track.
	TextEvents  *lyrics.Lyrics
	LyricEvents *lyrics.Lyrics

	// First note-on and last note-on/off ticks, and their millisecond
	// conversions (filled in after the tempo map is complete).
	FirstNoteClick    int
	HasFirstNote      bool
	LastNoteClick     int
	HasLastNote       bool
	FirstNoteMs       float64
	HasFirstNoteMs    bool
	LastNoteMs        float64
	HasLastNoteMs     bool

	totalClicks   int
	runningStatus byte
}

func newTrack(num int) *Track {
	return &Track{
		Num:         num,
		TextEvents:  &lyrics.Lyrics{},
		LyricEvents: &lyrics.Lyrics{},
	}
}

// candidateLyrics picks the better of the track's two syllable lists:
// the lyric-event list when it is strictly longer, otherwise the
// text-event list, otherwise whichever is non-empty.
func (t *Track) candidateLyrics() *lyrics.Lyrics {
	hasText := t.TextEvents.HasAny()
	hasLyric := t.LyricEvents.HasAny()

	switch {
	case hasText && hasLyric:
		if len(t.LyricEvents.Syllables) > len(t.TextEvents.Syllables) {
			return t.LyricEvents
		}
		return t.TextEvents
	case hasText:
		return t.TextEvents
	case hasLyric:
		return t.LyricEvents
	}
	return nil
}
