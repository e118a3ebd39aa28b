package midi

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/gokaraoke/gokaraoke/pkg/logger"
	"github.com/gokaraoke/gokaraoke/pkg/lyrics"
)

// Structural parse failures. Anything else malformed is skipped (an event)
// or abandoned (a track) without failing the file.
var (
	// ErrNotMidi means the data does not start with a MIDI header chunk.
	ErrNotMidi = errors.New("no MIDI header chunk at start")
	// ErrNoLyrics means no track carried any usable lyric or text events.
	ErrNoLyrics = errors.New("no lyrics in any track")
)

// Meta-event types.
const (
	metaSequenceNumber    = 0x00
	metaText              = 0x01
	metaCopyright         = 0x02
	metaTrackName         = 0x03
	metaInstrument        = 0x04
	metaLyric             = 0x05
	metaMarker            = 0x06
	metaCuePoint          = 0x07
	metaProgramName       = 0x08
	metaDeviceName        = 0x09
	metaChannelPrefix     = 0x20
	metaPort              = 0x21
	metaEndOfTrack        = 0x2F
	metaSetTempo          = 0x51
	metaSMPTEOffset       = 0x54
	metaTimeSignature     = 0x58
	metaKeySignature      = 0x59
	metaSequencerSpecific = 0x7F
)

// Text events longer than this are administrative blobs, not syllables.
const maxLyricTextLength = 1000

// nonLyricMarkers appear in text events some files use for sysex dumps and
// track administration rather than lyrics.
var nonLyricMarkers = []string{" SYX", "Track-", "%-", "%+"}

// Parse reads a complete MIDI/KAR byte buffer and returns its lyric and
// timing content. Event text is decoded with enc; a nil enc keeps the raw
// bytes. The parse fails only on structural problems (ErrNotMidi, a short
// header, ErrNoLyrics); a malformed event abandons its track and a
// malformed track stops the track scan, keeping whatever parsed before it.
func Parse(data []byte, enc encoding.Encoding) (*File, error) {
	p := &parser{
		c:   &cursor{data: data},
		enc: enc,
		log: logger.GetLogger(),
		file: &File{
			Tempo: []TempoChange{{0, 0}},
		},
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}
	p.parseTracks()

	p.file.Lyrics = p.selectBestLyrics()
	if p.file.Lyrics == nil {
		return nil, ErrNoLyrics
	}

	p.computeTiming()
	p.file.Lyrics.AnalyzeSpaces()
	p.computeNoteBounds()

	return p.file, nil
}

type parser struct {
	c    *cursor
	enc  encoding.Encoding
	log  *slog.Logger
	file *File
}

func (p *parser) parseHeader() error {
	sig, ok := p.c.readBytes(4)
	if !ok || string(sig) != "MThd" {
		return ErrNotMidi
	}
	length, ok := p.c.readUint32()
	if !ok {
		return ErrNotMidi
	}
	header, ok := p.c.readBytes(int(length))
	if !ok || len(header) < 6 {
		return fmt.Errorf("truncated MIDI header chunk (%d bytes)", length)
	}

	division := int(header[4])<<8 | int(header[5])
	if division&0x8000 != 0 {
		p.file.ClickUnitsPerSMPTE = division & 0x00FF
		p.file.SMPTEFramesPerSec = division & 0x7F00
	} else {
		p.file.ClickUnitsPerQuarter = division & 0x7FFF
	}
	return nil
}

func (p *parser) parseTracks() {
	for trackNum := 0; ; trackNum++ {
		sig, ok := p.c.readBytes(4)
		if !ok {
			return
		}
		length, ok := p.c.readUint32()
		if !ok {
			return
		}
		if string(sig) != "MTrk" {
			p.log.Debug("expected MIDI track chunk", "chunk", string(sig))
		}

		track := p.parseTrack(trackNum, int(length))
		if track == nil {
			return
		}
		p.file.Tracks = append(p.file.Tracks, track)
	}
}

// parseTrack scans one track chunk. It returns nil when an event cannot be
// decoded, dropping the half-parsed track.
func (p *parser) parseTrack(trackNum, length int) *Track {
	track := newTrack(trackNum)
	for bytesRead := 0; bytesRead < length; {
		n := p.processEvent(track)
		if n <= 0 {
			return nil
		}
		bytesRead += n
	}
	return track
}

// processEvent reads one delta-time-prefixed event and returns the number
// of bytes consumed, or 0 when the event cannot be decoded.
func (p *parser) processEvent(track *Track) int {
	clicks, varBytes := p.c.varLength()
	if varBytes == 0 {
		return 0
	}
	bytesRead := varBytes
	track.totalClicks += clicks

	statusByte, ok := p.c.readByte()
	if !ok {
		return 0
	}
	bytesRead++

	// MIDI running status: a data byte here reuses the previous status.
	var eventType byte
	if statusByte&0x80 != 0 {
		eventType = statusByte
		if eventType&0xF0 != 0xF0 {
			track.runningStatus = eventType
		}
	} else {
		eventType = track.runningStatus
		p.c.unreadByte()
		bytesRead--
	}

	var n int
	if eventType == 0xFF {
		n, ok = p.processMetaEvent(track)
	} else {
		n, ok = p.processChannelEvent(track, eventType)
	}
	if !ok {
		return 0
	}
	return bytesRead + n
}

func (p *parser) processMetaEvent(track *Track) (int, bool) {
	event, ok := p.c.readByte()
	if !ok {
		return 0, false
	}
	bytesRead := 1

	var n int
	switch event {
	case metaSequenceNumber:
		n, ok = p.metaSequenceNumber()
	case metaText:
		n, ok = p.metaTextEvent(track)
	case metaTrackName:
		n, ok = p.metaTrackName(track)
	case metaLyric:
		n, ok = p.metaLyricEvent(track)
	case metaCopyright, metaInstrument, metaMarker, metaCuePoint,
		metaProgramName, metaDeviceName:
		n, ok = p.discardVar()
	case metaChannelPrefix, metaPort:
		_, ok = p.c.readBytes(2)
		n = 2
	case metaEndOfTrack:
		n, ok = p.metaEndOfTrack()
	case metaSetTempo:
		n, ok = p.metaSetTempo(track)
	case metaSMPTEOffset:
		_, ok = p.c.readBytes(6)
		n = 6
	case metaTimeSignature:
		n, ok = p.metaTimeSignature()
	case metaKeySignature:
		n, ok = p.metaKeySignature()
	case metaSequencerSpecific:
		n, ok = p.metaSequencerSpecific()
	default:
		p.log.Debug("unknown meta-event", "event", fmt.Sprintf("%#02x", event))
		n, ok = p.discardVar()
	}
	if !ok {
		return 0, false
	}
	return bytesRead + n, true
}

// metaSequenceNumber skips a sequence-number event: a length byte of 0x02
// followed by the number, or 0x00 for the bare form.
func (p *parser) metaSequenceNumber() (int, bool) {
	length, ok := p.c.readByte()
	if !ok {
		return 0, false
	}
	if length != 0x00 && length != 0x02 {
		p.log.Debug("invalid sequence number length", "value", length)
	}
	if _, ok := p.c.readBytes(int(length)); !ok {
		return 0, false
	}
	return 1 + int(length), true
}

func (p *parser) metaTextEvent(track *Track) (int, bool) {
	length, varBytes := p.c.varLength()
	if varBytes == 0 {
		return 0, false
	}
	raw, ok := p.c.readBytes(length)
	if !ok {
		return 0, false
	}
	if length <= maxLyricTextLength {
		text := p.decodeText(raw)
		if isLyricText(text) {
			track.TextEvents.RecordText(track.totalClicks, text)
		}
	} else {
		p.log.Debug("ignoring oversized text event", "length", length)
	}
	return varBytes + length, true
}

func (p *parser) metaTrackName(track *Track) (int, bool) {
	length, varBytes := p.c.varLength()
	if varBytes == 0 {
		return 0, false
	}
	title, ok := p.c.readBytes(length)
	if !ok {
		return 0, false
	}
	// The KAR convention names the lyric track exactly "Words".
	if string(title) == "Words" {
		track.LyricsTrack = true
	}
	return varBytes + length, true
}

func (p *parser) metaLyricEvent(track *Track) (int, bool) {
	length, varBytes := p.c.varLength()
	if varBytes == 0 {
		return 0, false
	}
	raw, ok := p.c.readBytes(length)
	if !ok {
		return 0, false
	}
	text := p.decodeText(raw)
	if isLyricText(text) {
		track.LyricEvents.RecordLyric(track.totalClicks, text)
	}
	return varBytes + length, true
}

func (p *parser) metaEndOfTrack() (int, bool) {
	b, ok := p.c.readByte()
	if !ok {
		return 0, false
	}
	if b != 0 {
		p.log.Warn("invalid end of track")
	}
	return 1, true
}

func (p *parser) metaSetTempo(track *Track) (int, bool) {
	b, ok := p.c.readBytes(4)
	if !ok {
		return 0, false
	}
	if b[0] != 0x03 {
		p.log.Warn("invalid tempo length byte", "value", b[0])
	}
	tempo := int(b[1])<<16 | int(b[2])<<8 | int(b[3])
	p.file.Tempo = append(p.file.Tempo, TempoChange{track.totalClicks, tempo})
	return 4, true
}

func (p *parser) metaTimeSignature() (int, bool) {
	b, ok := p.c.readBytes(5)
	if !ok {
		return 0, false
	}
	if b[0] != 0x04 {
		p.log.Warn("invalid time signature length byte", "value", b[0])
	}
	p.file.Numerator = int(b[1])
	p.file.Denominator = int(b[2])
	p.file.ClocksPerMetronomeTick = int(b[3])
	p.file.NotesPer24MIDIClocks = int(b[4])
	return 5, true
}

func (p *parser) metaKeySignature() (int, bool) {
	b, ok := p.c.readBytes(3)
	if !ok {
		return 0, false
	}
	if b[0] != 0x02 {
		p.log.Warn("invalid key signature length byte", "value", b[0])
	}
	return 3, true
}

// metaSequencerSpecific skips a sequencer-specific event, handling both
// manufacturer-ID encodings: a single non-zero byte, or a zero byte
// followed by a two-byte ID.
func (p *parser) metaSequencerSpecific() (int, bool) {
	length, varBytes := p.c.varLength()
	if varBytes == 0 {
		return 0, false
	}
	bytesRead := varBytes

	id, ok := p.c.readByte()
	if !ok {
		return 0, false
	}
	bytesRead++
	if id == 0 {
		if _, ok := p.c.readBytes(2); !ok {
			return 0, false
		}
		bytesRead += 2
		length -= 3
	} else {
		length--
	}
	if length < 0 {
		return 0, false
	}
	if _, ok := p.c.readBytes(length); !ok {
		return 0, false
	}
	return bytesRead + length, true
}

func (p *parser) processChannelEvent(track *Track, eventType byte) (int, bool) {
	switch eventType & 0xF0 {
	case 0x80: // note off
		if _, ok := p.c.readBytes(2); !ok {
			return 0, false
		}
		track.LastNoteClick = track.totalClicks
		track.HasLastNote = true
		return 2, true

	case 0x90: // note on
		if _, ok := p.c.readBytes(2); !ok {
			return 0, false
		}
		if !track.HasFirstNote {
			track.FirstNoteClick = track.totalClicks
			track.HasFirstNote = true
		}
		track.LastNoteClick = track.totalClicks
		track.HasLastNote = true
		return 2, true

	case 0xA0, 0xB0, 0xE0: // aftertouch / control change / pitch wheel
		if _, ok := p.c.readBytes(2); !ok {
			return 0, false
		}
		return 2, true

	case 0xC0, 0xD0: // program change / channel aftertouch
		if _, ok := p.c.readByte(); !ok {
			return 0, false
		}
		return 1, true
	}

	switch eventType {
	case 0xF0:
		return p.sysexF0()
	case 0xF7:
		return p.discardVar()
	}

	p.log.Debug("unknown event", "event", fmt.Sprintf("%#02x", eventType))
	return p.discardVar()
}

// sysexF0 skips an F0 sysex block and validates its F7 terminator.
func (p *parser) sysexF0() (int, bool) {
	length, varBytes := p.c.varLength()
	if varBytes == 0 || length < 1 {
		return 0, false
	}
	if _, ok := p.c.readBytes(length - 1); !ok {
		return 0, false
	}
	end, ok := p.c.readByte()
	if !ok {
		return 0, false
	}
	if end != 0xF7 {
		p.log.Warn("invalid F0 sysex end byte", "value", fmt.Sprintf("%#02x", end))
	}
	return varBytes + length, true
}

func (p *parser) discardVar() (int, bool) {
	length, varBytes := p.c.varLength()
	if varBytes == 0 {
		return 0, false
	}
	if _, ok := p.c.readBytes(length); !ok {
		return 0, false
	}
	return varBytes + length, true
}

func (p *parser) decodeText(raw []byte) string {
	if p.enc == nil {
		return string(raw)
	}
	decoded, err := p.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

func isLyricText(text string) bool {
	for _, marker := range nonLyricMarkers {
		if strings.Contains(text, marker) {
			return false
		}
	}
	return true
}

// selectBestLyrics picks the lyric list across all tracks, maximizing
// (flagged-lyrics-track, syllable count) lexicographically. Earlier tracks
// win ties.
func (p *parser) selectBestLyrics() *lyrics.Lyrics {
	var best *lyrics.Lyrics
	bestFlagged := false
	bestCount := 0

	for _, track := range p.file.Tracks {
		candidate := track.candidateLyrics()
		if candidate == nil {
			continue
		}
		count := len(candidate.Syllables)
		better := best == nil ||
			(track.LyricsTrack && !bestFlagged) ||
			(track.LyricsTrack == bestFlagged && count > bestCount)
		if better {
			best = candidate
			bestFlagged = track.LyricsTrack
			bestCount = count
		}
	}
	return best
}

// computeTiming assigns milliseconds to every syllable and to each track's
// note bounds. Syllable ticks are non-decreasing within the chosen list,
// and each sweep uses its own converter cursor.
func (p *parser) computeTiming() {
	ts := NewTimestamp(p.file)
	for _, s := range p.file.Lyrics.Syllables {
		ts.AdvanceToClick(s.Click)
		s.Ms = int(ts.Ms())
	}

	for _, track := range p.file.Tracks {
		ts := NewTimestamp(p.file)
		if track.HasFirstNote {
			ts.AdvanceToClick(track.FirstNoteClick)
			track.FirstNoteMs = ts.Ms()
			track.HasFirstNoteMs = true
		}
		if track.HasLastNote {
			ts.AdvanceToClick(track.LastNoteClick)
			track.LastNoteMs = ts.Ms()
			track.HasLastNoteMs = true
		}
	}
}

func (p *parser) computeNoteBounds() {
	for _, track := range p.file.Tracks {
		if track.HasFirstNoteMs {
			if !p.file.HasEarliestNoteMs || track.FirstNoteMs < p.file.EarliestNoteMs {
				p.file.EarliestNoteMs = track.FirstNoteMs
				p.file.HasEarliestNoteMs = true
			}
		}
		if track.HasLastNoteMs {
			if !p.file.HasLastNoteMs || track.LastNoteMs > p.file.LastNoteMs {
				p.file.LastNoteMs = track.LastNoteMs
				p.file.HasLastNoteMs = true
			}
		}
	}
}
