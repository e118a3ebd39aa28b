package player

import "github.com/hajimehoshi/ebiten/v2"

// zoomTransform computes how a w x h frame is placed on a sw x sh screen
// under the given scaling policy:
//
//	none  1:1 pixels, centered
//	int   largest integer scale that fits, centered
//	full  stretched to the whole screen, aspect ignored
//	soft  largest fractional scale that fits, centered, filtered
func zoomTransform(zoom string, sw, sh, w, h int) (scaleX, scaleY, tx, ty float64, filter ebiten.Filter) {
	filter = ebiten.FilterNearest

	switch zoom {
	case "none":
		scaleX, scaleY = 1, 1
	case "full":
		scaleX = float64(sw) / float64(w)
		scaleY = float64(sh) / float64(h)
		return scaleX, scaleY, 0, 0, filter
	case "soft":
		s := min(float64(sw)/float64(w), float64(sh)/float64(h))
		scaleX, scaleY = s, s
		filter = ebiten.FilterLinear
	default: // "int"
		s := min(sw/w, sh/h)
		if s < 1 {
			s = 1
		}
		scaleX, scaleY = float64(s), float64(s)
	}

	tx = (float64(sw) - float64(w)*scaleX) / 2
	ty = (float64(sh) - float64(h)*scaleY) / 2
	return scaleX, scaleY, tx, ty, filter
}
