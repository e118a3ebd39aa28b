package player

import (
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gokaraoke/gokaraoke/pkg/cdg"
	"github.com/gokaraoke/gokaraoke/pkg/logger"
)

// CDGSession decodes a CDG stream against the playback clock and keeps a
// 288x192 RGBA frame of the visible area up to date, one dirty tile at a
// time.
type CDGSession struct {
	reader *cdg.PacketReader

	// Visible area, row-major RGBA.
	frame      []byte
	frameDirty bool
	tile       []uint32

	packetsRead int
	exhausted   bool

	borderColour    uint32
	hasBorderColour bool

	img *ebiten.Image
	log *slog.Logger
}

// NewCDGSession creates a session over a complete in-memory CDG stream.
func NewCDGSession(data []byte) *CDGSession {
	return &CDGSession{
		reader: cdg.NewPacketReader(data),
		frame:  make([]byte, cdg.DisplayWidth*cdg.DisplayHeight*4),
		tile:   make([]uint32, cdg.TileWidth*cdg.TileHeight),
		log:    logger.GetLogger(),
	}
}

// Update advances decoding to the given playback position. CDG streams
// run at a fixed 300 packets per second, so the position alone determines
// how many packets are due. It returns true once the stream is exhausted.
func (s *CDGSession) Update(posMs int) (bool, error) {
	if posMs < 0 {
		posMs = 0
	}

	if !s.exhausted {
		due := posMs * cdg.PacketsPerSecond / 1000
		if due > s.packetsRead {
			if !s.reader.DoPackets(due - s.packetsRead) {
				s.exhausted = true
				s.log.Debug("CDG stream exhausted", "packets", s.packetsRead)
			}
			s.packetsRead = due
		}
	}

	// A border colour change repaints everything around the tiles, so the
	// whole frame is stale.
	if border, ok := s.reader.GetBorderColour(); ok {
		if !s.hasBorderColour || border != s.borderColour {
			s.borderColour = border
			s.hasBorderColour = true
			s.reader.MarkTilesDirty()
		}
	}

	for _, t := range s.reader.GetDirtyTiles() {
		s.blitTile(t)
	}

	return s.exhausted, nil
}

// Rewind restarts the stream from the beginning.
func (s *CDGSession) Rewind() {
	s.reader.Rewind()
	s.packetsRead = 0
	s.exhausted = false
	s.hasBorderColour = false
}

// blitTile copies one decoded tile into the RGBA frame.
func (s *CDGSession) blitTile(t cdg.Tile) {
	s.reader.FillTile(s.tile, t.Row, t.Col)

	x0 := t.Row * cdg.TileWidth
	y0 := t.Col * cdg.TileHeight
	for ty := 0; ty < cdg.TileHeight; ty++ {
		dst := ((y0+ty)*cdg.DisplayWidth + x0) * 4
		for tx := 0; tx < cdg.TileWidth; tx++ {
			c := cdg.UnpackRGB(s.tile[ty*cdg.TileWidth+tx])
			s.frame[dst] = c.R
			s.frame[dst+1] = c.G
			s.frame[dst+2] = c.B
			s.frame[dst+3] = c.A
			dst += 4
		}
	}
	s.frameDirty = true
}

// Frame exposes the visible-area RGBA buffer.
func (s *CDGSession) Frame() []byte {
	return s.frame
}

// BorderColour returns the current border colour, defaulting to black
// while the stream has not yet set one.
func (s *CDGSession) BorderColour() uint32 {
	if !s.hasBorderColour {
		return 0
	}
	return s.borderColour
}

// Draw paints the frame onto the screen under the given zoom policy,
// with the border colour filling the surround.
func (s *CDGSession) Draw(screen *ebiten.Image, zoom string) {
	if s.img == nil {
		s.img = ebiten.NewImage(cdg.DisplayWidth, cdg.DisplayHeight)
	}
	if s.frameDirty {
		s.img.WritePixels(s.frame)
		s.frameDirty = false
	}

	screen.Fill(cdg.UnpackRGB(s.BorderColour()))

	sw := screen.Bounds().Dx()
	sh := screen.Bounds().Dy()
	scaleX, scaleY, tx, ty, filter := zoomTransform(zoom, sw, sh, cdg.DisplayWidth, cdg.DisplayHeight)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scaleX, scaleY)
	op.GeoM.Translate(tx, ty)
	op.Filter = filter
	screen.DrawImage(s.img, op)
}
