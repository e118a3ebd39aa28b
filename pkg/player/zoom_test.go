package player

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestZoomTransform(t *testing.T) {
	tests := []struct {
		name           string
		zoom           string
		sw, sh         int
		scaleX, scaleY float64
		tx, ty         float64
		filter         ebiten.Filter
	}{
		{
			name: "none centers at 1:1",
			zoom: "none", sw: 576, sh: 384,
			scaleX: 1, scaleY: 1, tx: 144, ty: 96,
			filter: ebiten.FilterNearest,
		},
		{
			name: "int picks the largest whole scale",
			zoom: "int", sw: 600, sh: 400,
			scaleX: 2, scaleY: 2, tx: 12, ty: 8,
			filter: ebiten.FilterNearest,
		},
		{
			name: "int never shrinks below 1",
			zoom: "int", sw: 100, sh: 100,
			scaleX: 1, scaleY: 1, tx: -94, ty: -46,
			filter: ebiten.FilterNearest,
		},
		{
			name: "full stretches both axes",
			zoom: "full", sw: 576, sh: 576,
			scaleX: 2, scaleY: 3, tx: 0, ty: 0,
			filter: ebiten.FilterNearest,
		},
		{
			name: "soft scales fractionally with filtering",
			zoom: "soft", sw: 432, sh: 384,
			scaleX: 1.5, scaleY: 1.5, tx: 0, ty: 48,
			filter: ebiten.FilterLinear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scaleX, scaleY, tx, ty, filter := zoomTransform(tt.zoom, tt.sw, tt.sh, 288, 192)
			if scaleX != tt.scaleX || scaleY != tt.scaleY {
				t.Errorf("scale = (%v, %v), want (%v, %v)", scaleX, scaleY, tt.scaleX, tt.scaleY)
			}
			if tx != tt.tx || ty != tt.ty {
				t.Errorf("translate = (%v, %v), want (%v, %v)", tx, ty, tt.tx, tt.ty)
			}
			if filter != tt.filter {
				t.Errorf("filter = %v, want %v", filter, tt.filter)
			}
		})
	}
}
