// Package lyrics holds the timed-syllable model built while parsing a
// KAR/MIDI file, plus the display-oriented passes over it: space repair for
// files that omit inter-word spaces, and pixel-width word wrapping.
package lyrics

import "strings"

// Kind classifies how a syllable is displayed.
type Kind int

const (
	// KindLyric is normal sung text, highlighted as the song progresses.
	KindLyric Kind = iota
	// KindInfo is an informational comment line (@I).
	KindInfo
	// KindTitle is a title comment line (@T).
	KindTitle
)

// Unplaced is the sentinel for Left/Right before the renderer positions a
// syllable on screen.
const Unplaced = -1

// Syllable is a single timed lyric event: a syllable of a word to be
// displayed and highlighted at a given time.
type Syllable struct {
	// Click is the absolute MIDI tick of the event. Ms is filled in after
	// the whole file is parsed, once the tempo map is complete.
	Click int
	Ms    int

	Text string
	Line int
	Kind Kind

	// Screen positions, filled in when the syllable is drawn.
	Left  int
	Right int
}

// copyWithText returns a new syllable identical to s but carrying text.
func (s *Syllable) copyWithText(text string) *Syllable {
	c := *s
	c.Text = text
	c.Left = Unplaced
	c.Right = Unplaced
	return &c
}

// Lyrics is the complete lyric content of one song: syllables ordered by
// event time. The line counter is only used while recording.
type Lyrics struct {
	Syllables []*Syllable

	line int
}

// HasAny reports whether any syllables were recorded.
func (l *Lyrics) HasAny() bool {
	return len(l.Syllables) > 0
}

func (l *Lyrics) append(click int, text string, kind Kind) {
	l.Syllables = append(l.Syllables, &Syllable{
		Click: click,
		Text:  text,
		Line:  l.line,
		Kind:  kind,
		Left:  Unplaced,
		Right: Unplaced,
	})
}

// RecordText records a text meta-event (0x01) as lyric content, applying
// the KAR text conventions: @T title lines, @I info lines, other @-comments
// dropped, a leading backslash for a paragraph break, a leading slash for a
// line break.
func (l *Lyrics) RecordText(click int, text string) {
	// Strip stray nulls and CRs.
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r", "")

	if text == "" {
		return
	}

	if text[0] == '@' {
		var kind Kind
		switch {
		case len(text) > 1 && text[1] == 'T':
			kind = KindTitle
		case len(text) > 1 && text[1] == 'I':
			kind = KindInfo
		default:
			// Any other comment is ignored.
			return
		}
		for _, line := range strings.Split(text[2:], "\n") {
			l.line++
			l.append(click, strings.TrimSpace(line), kind)
		}
		return
	}

	switch text[0] {
	case '\\':
		// Paragraph break: a line break with an extra blank line.
		l.line += 2
		text = text[1:]
	case '/':
		l.line++
		text = text[1:]
	}

	if text != "" {
		l.appendSplit(click, text)
	}
}

// RecordLyric records a lyric meta-event (0x05). The rules differ from text
// events: a bare "\n" payload is a paragraph break and a bare "\r"/"\r\n" a
// line break; leading backslash/slash prefixes are a text-event convention,
// but some files use them in lyric events anyway.
func (l *Lyrics) RecordLyric(click int, text string) {
	text = strings.ReplaceAll(text, "\x00", "")

	switch {
	case text == "\n":
		l.line += 2
	case text == "\r" || text == "\r\n":
		l.line++
	case text != "":
		text = strings.ReplaceAll(text, "\r", "")
		if text == "" {
			return
		}
		switch text[0] {
		case '\\':
			l.line += 2
			text = text[1:]
		case '/':
			l.line++
			text = text[1:]
		}
		l.appendSplit(click, text)
	}
}

// appendSplit appends text as lyric syllables, splitting embedded newlines
// into further line-incrementing entries. Lyrics aren't supposed to include
// embedded newlines, but sometimes they do anyway.
func (l *Lyrics) appendSplit(click int, text string) {
	lines := strings.Split(text, "\n")
	l.append(click, lines[0], KindLyric)
	for _, line := range lines[1:] {
		l.line++
		l.append(click, line, KindLyric)
	}
}

// AnalyzeSpaces checks for a degenerate case: no (or very few) spaces
// between words. Some karaoke authors omit the spaces between syllables,
// which makes the text very hard to read. When fewer than 10% of adjacent
// syllable pairs show a space, spaces are inserted after every non-final
// syllable of every line (a trailing hyphen marks a continuation and is
// stripped instead).
func (l *Lyrics) AnalyzeSpaces() {
	lines := l.groupIntoLines()

	totalPairs, totalGaps := countGaps(lines)
	if totalPairs > 0 && float64(totalGaps)/float64(totalPairs) < 0.1 {
		insertSpaces(lines)
	}
}

// groupIntoLines groups syllables into lines based on their line number.
func (l *Lyrics) groupIntoLines() [][]*Syllable {
	var lines [][]*Syllable
	var current []*Syllable
	lineNumber := -1
	started := false

	for _, s := range l.Syllables {
		if !started || s.Line != lineNumber {
			if len(current) > 0 {
				lines = append(lines, current)
			}
			current = nil
			lineNumber = s.Line
			started = true
		}
		current = append(current, s)
	}
	if len(current) > 0 {
		lines = append(lines, current)
	}
	return lines
}

// countGaps counts adjacent syllable pairs and how many of them have a
// detectable inter-word space (trailing space on the left syllable or
// leading space on the right one).
func countGaps(lines [][]*Syllable) (pairs, gaps int) {
	for _, line := range lines {
		for i := 0; i+1 < len(line); i++ {
			pairs++
			if strings.TrimRightFunc(line[i].Text, isSpace) != line[i].Text ||
				strings.TrimLeftFunc(line[i+1].Text, isSpace) != line[i+1].Text {
				gaps++
			}
		}
	}
	return pairs, gaps
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func insertSpaces(lines [][]*Syllable) {
	for _, line := range lines {
		for _, s := range line[:max(len(line)-1, 0)] {
			if strings.HasSuffix(s.Text, "-") {
				s.Text = strings.TrimSuffix(s.Text, "-")
			} else {
				s.Text += " "
			}
		}
	}
}
