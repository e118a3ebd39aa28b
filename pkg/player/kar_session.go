package player

import (
	"image/color"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"

	"github.com/gokaraoke/gokaraoke/pkg/logger"
	"github.com/gokaraoke/gokaraoke/pkg/lyrics"
	"github.com/gokaraoke/gokaraoke/pkg/midi"
)

const (
	// paragraphLeadTimeMs is how far ahead of a long silence the display
	// scrolls to the upcoming paragraph.
	paragraphLeadTimeMs = 5000

	// activeRowPercent keeps the line being sung at roughly a third of
	// the way down the screen.
	activeRowPercent = 33

	// lyricsMargin is the left and right text margin in pixels.
	lyricsMargin = 8
)

// Lyric display colours.
var (
	colourReady = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colourSung  = color.RGBA{R: 255, G: 80, B: 80, A: 255}
	colourInfo  = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	colourTitle = color.RGBA{R: 120, G: 200, B: 255, A: 255}
)

// KARSession sweeps through a parsed KAR/MIDI file's lyrics against the
// playback clock: syllables change colour as their time passes, and the
// view scrolls to keep the active line near the top third of the screen.
type KARSession struct {
	file    *midi.File
	face    font.Face
	metrics lyrics.FontMetrics

	width, height int
	rowHeight     int
	ascent        int
	visibleRows   int

	// Wrapped display lines, the pixel position of every syllable, and
	// the flattened time-ordered syllable list with its line mapping.
	lines     [][]*lyrics.Syllable
	lineStart []int
	order     []*lyrics.Syllable
	lineOf    []int

	next    int
	topLine int
	lastPos int
	endMs   int

	log *slog.Logger
}

// NewKARSession lays out the file's lyrics for a width x height display.
// The face may be nil when the session is only updated, never drawn.
func NewKARSession(f *midi.File, face font.Face, metrics lyrics.FontMetrics, width, height int) *KARSession {
	s := &KARSession{
		file:    f,
		face:    face,
		metrics: metrics,
		log:     logger.GetLogger(),
	}
	s.Resize(width, height)
	return s
}

// Resize re-wraps the lyrics for a new display size, preserving the
// playback position.
func (s *KARSession) Resize(width, height int) {
	s.width = width
	s.height = height
	s.layout()

	s.next = 0
	s.topLine = 0
	s.advance(s.lastPos)
}

// layout word-wraps the lyrics and fixes every syllable's pixel position.
func (s *KARSession) layout() {
	_, lineHeight := s.metrics.Size("Ay")
	s.rowHeight = lineHeight + 2
	s.ascent = lineHeight * 4 / 5
	if fm, ok := s.metrics.(*FaceMetrics); ok {
		s.ascent = fm.Ascent()
	}
	s.visibleRows = s.height / s.rowHeight
	if s.visibleRows < 1 {
		s.visibleRows = 1
	}

	s.lines = s.file.Lyrics.WordWrap(s.metrics, s.width-2*lyricsMargin, lyricsMargin, nil)

	s.lineStart = make([]int, len(s.lines))
	s.order = s.order[:0]
	s.lineOf = s.lineOf[:0]
	for i, line := range s.lines {
		s.lineStart[i] = len(s.order)
		x := lyricsMargin
		for _, syllable := range line {
			if syllable.Left != lyrics.Unplaced {
				x = syllable.Left
			}
			w, _ := s.metrics.Size(syllable.Text)
			syllable.Left = x
			syllable.Right = x + w
			x += w

			s.order = append(s.order, syllable)
			s.lineOf = append(s.lineOf, i)
		}
	}

	s.endMs = 0
	if len(s.order) > 0 {
		s.endMs = s.order[len(s.order)-1].Ms
	}
	if s.file.HasLastNoteMs && int(s.file.LastNoteMs) > s.endMs {
		s.endMs = int(s.file.LastNoteMs)
	}

	s.log.Debug("lyrics laid out",
		"lines", len(s.lines), "syllables", len(s.order),
		"visibleRows", s.visibleRows)
}

// Update advances the sweep to the given playback position. It returns
// true once the position is past the last note and every syllable has
// been swept.
func (s *KARSession) Update(posMs int) (bool, error) {
	s.lastPos = posMs
	s.advance(posMs)
	s.topLine = s.computeTopLine(posMs)

	done := s.next >= len(s.order) && posMs > s.endMs
	return done, nil
}

func (s *KARSession) advance(posMs int) {
	for s.next < len(s.order) && s.order[s.next].Ms <= posMs {
		s.next++
	}
}

// computeTopLine picks the first visible line: the active line is held at
// a third of the way down, and during a long instrumental gap the view
// moves on to the next paragraph a few seconds early.
func (s *KARSession) computeTopLine(posMs int) int {
	if len(s.lines) <= s.visibleRows {
		return 0
	}

	current := 0
	if s.next > 0 {
		current = s.lineOf[s.next-1]
	}
	if s.next < len(s.order) && s.lineOf[s.next] > current &&
		s.order[s.next].Ms-posMs <= paragraphLeadTimeMs {
		current = s.lineOf[s.next]
	}

	top := current - s.visibleRows*activeRowPercent/100
	return clampInt(top, 0, len(s.lines)-s.visibleRows)
}

// TopLine returns the index of the first visible display line.
func (s *KARSession) TopLine() int {
	return s.topLine
}

// SweptCount returns how many syllables have been swept so far.
func (s *KARSession) SweptCount() int {
	return s.next
}

// Lines returns the wrapped display lines.
func (s *KARSession) Lines() [][]*lyrics.Syllable {
	return s.lines
}

// Draw paints the visible lyric lines. Swept syllables are shown in the
// sung colour, pending ones in the ready colour, and title/info comments
// in their own colours.
func (s *KARSession) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	lastLine := min(s.topLine+s.visibleRows, len(s.lines))
	for i := s.topLine; i < lastLine; i++ {
		y := (i-s.topLine)*s.rowHeight + s.ascent
		for j, syllable := range s.lines[i] {
			text.Draw(screen, syllable.Text, s.face, syllable.Left, y,
				s.syllableColour(i, j, syllable))
		}
	}
}

func (s *KARSession) syllableColour(line, pos int, syllable *lyrics.Syllable) color.Color {
	switch syllable.Kind {
	case lyrics.KindTitle:
		return colourTitle
	case lyrics.KindInfo:
		return colourInfo
	}
	if s.lineStart[line]+pos < s.next {
		return colourSung
	}
	return colourReady
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
