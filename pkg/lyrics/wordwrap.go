package lyrics

import "strings"

// FontMetrics measures rendered text. Implementations wrap whatever font
// machinery the renderer uses.
type FontMetrics interface {
	// Size returns the rendered width and height of text in pixels.
	Size(text string) (width, height int)
}

// FoldFunc picks a fold position for a line of text that exceeds maxWidth.
// It returns a rune offset into text; returning the full rune length of
// text means "do not fold".
type FoldFunc func(text string, font FontMetrics, maxWidth int) int

// DefaultFoldPoint folds at the last space-bounded prefix that fits in
// maxWidth. When no space-bounded prefix fits, it falls back to the longest
// fitting prefix, keeping at least one rune so progress is always made.
func DefaultFoldPoint(text string, font FontMetrics, maxWidth int) int {
	runes := []rune(text)
	if w, _ := font.Size(text); w <= maxWidth {
		return len(runes)
	}

	best := 0
	for i := 1; i < len(runes); i++ {
		if runes[i] != ' ' {
			continue
		}
		if w, _ := font.Size(strings.TrimRight(string(runes[:i]), " ")); w <= maxWidth {
			best = i
		} else {
			break
		}
	}
	if best > 0 {
		// Fold after the space run so the continuation doesn't start
		// with a blank.
		for best < len(runes) && runes[best] == ' ' {
			best++
		}
		return best
	}

	for i := len(runes) - 1; i > 1; i-- {
		if w, _ := font.Size(string(runes[:i])); w <= maxWidth {
			return i
		}
	}
	return 1
}

// WordWrap folds each logical line of the lyrics into display lines no
// wider than maxWidth pixels. The result is a list of displayable lines,
// each a list of syllables; blank logical lines are preserved as empty
// entries. The first syllable of every line has Left pinned to leftMargin.
//
// When a line overflows, syllables after the fold point move to a
// continuation line prefixed with two spaces; a single syllable longer than
// the whole line is split mid-text into two synthetic syllables sharing the
// original timing. Fold positions come from fold, or DefaultFoldPoint when
// fold is nil.
func (l *Lyrics) WordWrap(font FontMetrics, maxWidth, leftMargin int, fold FoldFunc) [][]*Syllable {
	if len(l.Syllables) == 0 {
		return nil
	}
	if fold == nil {
		fold = DefaultFoldPoint
	}

	var lines [][]*Syllable

	x := 0
	var currentLine []*Syllable
	currentText := ""
	lineNumber := l.Syllables[0].Line

	for _, syllable := range l.Syllables {
		syllable.Left = Unplaced
		syllable.Right = Unplaced

		for lineNumber < syllable.Line {
			lines = append(lines, currentLine)
			x = 0
			currentLine = nil
			currentText = ""
			lineNumber++
		}

		width, _ := font.Size(syllable.Text)
		currentLine = append(currentLine, syllable)
		currentText += syllable.Text
		x += width
		for x > maxWidth {
			outputLine, rest, restText, ok := foldLine(currentLine, currentText, font, maxWidth, fold)
			if !ok {
				break
			}
			lines = append(lines, outputLine)
			noProgress := len(restText) >= len(currentText)
			currentLine = rest
			currentText = restText
			if noProgress {
				// The width budget is too small to ever fit the
				// continuation indent; stop folding this line.
				break
			}
			x, _ = font.Size(currentText)
		}
	}
	lines = append(lines, currentLine)

	for _, line := range lines {
		if len(line) > 0 {
			line[0].Left = leftMargin
		}
	}
	return lines
}

// foldLine folds a line that exceeds maxWidth at the best fold point.
// It reports ok=false when the line should not be folded (the overflow is
// trailing whitespace only).
func foldLine(currentLine []*Syllable, currentText string, font FontMetrics, maxWidth int, fold FoldFunc) (output, rest []*Syllable, restText string, ok bool) {
	textRunes := []rune(currentText)
	foldPoint := fold(currentText, font, maxWidth)
	if foldPoint >= len(textRunes) {
		return nil, nil, "", false
	}

	// Everything before foldPoint goes out as the finished line. Whole
	// syllables only; the fold point is a hint, not a hard split.
	n := 0
	i := 0
	for n+len([]rune(currentLine[i].Text)) <= foldPoint {
		output = append(output, currentLine[i])
		n += len([]rune(currentLine[i].Text))
		i++
	}

	syllable := currentLine[i]
	if i == 0 {
		// One long syllable. Break it mid-phrase.
		sylRunes := []rune(syllable.Text)
		output = append(output, syllable.copyWithText(string(sylRunes[:foldPoint])))
		currentLine[i] = syllable.copyWithText("  " + string(sylRunes[foldPoint:]))
	} else {
		// Continuation lines are indented two spaces.
		currentLine[i] = syllable.copyWithText("  " + syllable.Text)
	}

	rest = currentLine[i:]
	var sb strings.Builder
	for _, s := range rest {
		sb.WriteString(s.Text)
	}
	return output, rest, sb.String(), true
}
