package midi

// Timestamp converts absolute click counts to elapsed milliseconds by
// walking the file's tempo breakpoints. A converter instance is a forward
// cursor: AdvanceToClick must be called with non-decreasing clicks over the
// instance's lifetime, and each independent sweep (syllable timing, per-
// track note timing) uses a fresh instance.
type Timestamp struct {
	clickUnitsPerQuarter int
	tempo                []TempoChange

	ms    float64
	click int
	i     int
}

// NewTimestamp returns a converter positioned at click 0 of f.
func NewTimestamp(f *File) *Timestamp {
	return &Timestamp{
		clickUnitsPerQuarter: f.ClickUnitsPerQuarter,
		tempo:                f.Tempo,
	}
}

// Ms returns the elapsed time at the current cursor position.
func (t *Timestamp) Ms() float64 {
	return t.ms
}

// AdvanceToClick moves the cursor forward to the indicated click number,
// accumulating milliseconds through every tempo span crossed on the way.
// Jumps backward in time are ignored.
func (t *Timestamp) AdvanceToClick(click int) {
	clicks := click - t.click
	if clicks < 0 {
		return
	}

	for clicks > 0 && t.i < len(t.tempo) {
		// How many clicks remain at the current tempo?
		clicksRemaining := max(t.tempo[t.i].Click-t.click, 0)
		clicksUsed := min(clicks, clicksRemaining)
		if clicksUsed != 0 {
			t.ms += t.timeForClicks(clicksUsed, t.tempo[t.i-1].Tempo)
		}
		t.click += clicksUsed
		clicks -= clicksUsed
		clicksRemaining -= clicksUsed
		if clicksRemaining == 0 {
			t.i++
		}
	}

	if clicks > 0 {
		// Past the last tempo mark of the song; that tempo holds
		// forever.
		t.ms += t.timeForClicks(clicks, t.tempo[len(t.tempo)-1].Tempo)
		t.click += clicks
	}
}

func (t *Timestamp) timeForClicks(clicks, tempo int) float64 {
	if t.clickUnitsPerQuarter == 0 {
		// SMPTE-division files carry no metrical timing.
		return 0
	}
	microseconds := float64(clicks) / float64(t.clickUnitsPerQuarter) * float64(tempo)
	return microseconds / 1000
}
