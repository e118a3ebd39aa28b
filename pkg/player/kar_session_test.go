package player

import (
	"testing"

	"github.com/gokaraoke/gokaraoke/pkg/lyrics"
	"github.com/gokaraoke/gokaraoke/pkg/midi"
)

// stubFont measures every rune as 10x10 pixels.
type stubFont struct{}

func (stubFont) Size(text string) (int, int) {
	return 10 * len([]rune(text)), 10
}

func syllable(line, ms int, text string) *lyrics.Syllable {
	return &lyrics.Syllable{
		Ms:    ms,
		Text:  text,
		Line:  line,
		Left:  lyrics.Unplaced,
		Right: lyrics.Unplaced,
	}
}

// threeLineFile builds a song with two opening lines and a third verse
// after a long instrumental gap.
func threeLineFile() *midi.File {
	return &midi.File{
		Lyrics: &lyrics.Lyrics{
			Syllables: []*lyrics.Syllable{
				syllable(0, 1000, "Hello "),
				syllable(0, 2000, "world"),
				syllable(1, 3000, "second "),
				syllable(1, 4000, "line"),
				syllable(2, 20000, "late "),
				syllable(2, 21000, "verse"),
			},
		},
	}
}

func TestKARSession_SweepAdvances(t *testing.T) {
	s := NewKARSession(threeLineFile(), nil, stubFont{}, 200, 100)

	steps := []struct {
		posMs int
		swept int
	}{
		{0, 0},
		{999, 0},
		{1000, 1},
		{2500, 2},
		{4000, 4},
		{19999, 4},
		{21000, 6},
	}
	for _, step := range steps {
		done, err := s.Update(step.posMs)
		if err != nil {
			t.Fatalf("Update(%d) failed: %v", step.posMs, err)
		}
		if s.SweptCount() != step.swept {
			t.Errorf("at %d ms swept = %d, want %d", step.posMs, s.SweptCount(), step.swept)
		}
		if done {
			t.Errorf("at %d ms session reported done", step.posMs)
		}
	}

	done, err := s.Update(21001)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !done {
		t.Error("session should be done past the last syllable")
	}
}

func TestKARSession_DoneWaitsForLastNote(t *testing.T) {
	f := threeLineFile()
	f.LastNoteMs = 30000
	f.HasLastNoteMs = true

	s := NewKARSession(f, nil, stubFont{}, 200, 100)
	if done, _ := s.Update(25000); done {
		t.Error("session finished while notes were still sounding")
	}
	if done, _ := s.Update(30001); !done {
		t.Error("session should finish once past the last note")
	}
}

func TestKARSession_Layout(t *testing.T) {
	s := NewKARSession(threeLineFile(), nil, stubFont{}, 200, 100)

	lines := s.Lines()
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}

	first := lines[0]
	if first[0].Left != lyricsMargin {
		t.Errorf("first syllable Left = %d, want %d", first[0].Left, lyricsMargin)
	}
	// "Hello " is 6 runes at 10 px each.
	if first[1].Left != lyricsMargin+60 {
		t.Errorf("second syllable Left = %d, want %d", first[1].Left, lyricsMargin+60)
	}
	if first[1].Right != first[1].Left+50 {
		t.Errorf("second syllable Right = %d, want %d", first[1].Right, first[1].Left+50)
	}
}

func TestKARSession_Scrolling(t *testing.T) {
	// Row height is 12 (10 px glyphs plus leading), so a 24 px display
	// shows two of the three lines.
	s := NewKARSession(threeLineFile(), nil, stubFont{}, 200, 24)

	s.Update(500)
	if s.TopLine() != 0 {
		t.Errorf("top line at start = %d, want 0", s.TopLine())
	}

	s.Update(4000)
	if s.TopLine() != 1 {
		t.Errorf("top line while singing line 1 = %d, want 1", s.TopLine())
	}

	// During the instrumental gap the view stays put until the next
	// paragraph is close.
	s.Update(14000)
	if s.TopLine() != 1 {
		t.Errorf("top line mid-gap = %d, want 1", s.TopLine())
	}
	s.Update(16000)
	if s.TopLine() != 1 {
		t.Errorf("top line with paragraph lead = %d, want 1 (clamped)", s.TopLine())
	}
}

func TestKARSession_ResizePreservesSweep(t *testing.T) {
	s := NewKARSession(threeLineFile(), nil, stubFont{}, 200, 100)
	s.Update(2500)
	if s.SweptCount() != 2 {
		t.Fatalf("swept = %d before resize, want 2", s.SweptCount())
	}

	s.Resize(400, 200)
	if s.SweptCount() != 2 {
		t.Errorf("swept = %d after resize, want 2", s.SweptCount())
	}
}
