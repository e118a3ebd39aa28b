package cdg

import (
	"log/slog"

	"github.com/gokaraoke/gokaraoke/pkg/logger"
)

// Tile identifies one cell of the 6x4 dirty-tracking grid. Row counts
// across the display (0..5), Col counts down (0..3).
type Tile struct {
	Row int
	Col int
}

// PacketReader consumes 24-byte CDG packets and evaluates their
// instructions against an indexed pixel buffer and a 16-entry colour table.
//
// A PacketReader is owned by a single playback session and is not safe for
// concurrent use. All buffers are flat row-major arrays indexed by
// y*FullWidth+x.
//
// Two parallel buffers are maintained: pixelColours holds the 4-bit colour
// index of every pixel, and surface holds the resolved 0xRRGGBB value.
// The index buffer cannot be derived back from the surface, because CDG
// files may map the same RGB value to two table slots, and the tile-block
// XOR instruction operates on indices. Whenever the colour table changes,
// surface is recomputed wholesale from pixelColours.
type PacketReader struct {
	data []byte
	pos  int

	colourTable  [ColourTableSize]uint32
	pixelColours []uint8
	surface      []uint32

	// Persistent sub-tile screen shift: 0..5 px right, 0..11 px down.
	// Used together with whole-tile scrolls for single-pixel scrolling.
	hOffset int
	vOffset int

	presetColourIndex int
	borderColourIndex int

	// Last colour index a memory preset cleared the screen to, or -1.
	// Repeated identical presets are skipped until a tile block writes
	// real content again.
	justClearedColourIndex int

	// Recorded but unused: reserved for overlay compositing on movie
	// backgrounds.
	transparentColour int

	// Bitmask over the 6x4 tile grid: bit (1<<row)<<(col*8).
	dirtyTiles uint32

	log *slog.Logger
}

// NewPacketReader creates a reader over a complete in-memory CDG stream.
func NewPacketReader(data []byte) *PacketReader {
	pr := &PacketReader{
		data:         data,
		pixelColours: make([]uint8, FullWidth*FullHeight),
		surface:      make([]uint32, FullWidth*FullHeight),
		log:          logger.GetLogger(),
	}
	pr.Rewind()
	return pr
}

// Rewind resets the stream to the beginning and reinitialises all decoder
// state: colour table to black, offsets to zero, all tiles marked dirty.
func (pr *PacketReader) Rewind() {
	pr.pos = 0

	// Default colour table for CDG files that draw before loading one.
	for i := range pr.colourTable {
		pr.colourTable[i] = 0
	}

	pr.justClearedColourIndex = -1
	pr.presetColourIndex = -1
	pr.borderColourIndex = -1
	pr.transparentColour = -1

	pr.hOffset = 0
	pr.vOffset = 0

	for i := range pr.pixelColours {
		pr.pixelColours[i] = 0
		pr.surface[i] = 0
	}

	pr.dirtyTiles = 0xFFFFFFFF
}

// MarkTilesDirty marks every tile dirty, so that the next call to
// GetDirtyTiles returns the complete grid. Used after external resizes.
func (pr *PacketReader) MarkTilesDirty() {
	pr.dirtyTiles = 0xFFFFFFFF
}

// GetDirtyTiles returns all currently-dirty tiles and resets the dirty set.
func (pr *PacketReader) GetDirtyTiles() []Tile {
	var tiles []Tile
	if pr.dirtyTiles != 0 {
		for col := 0; col < TilesPerCol; col++ {
			for row := 0; row < TilesPerRow; row++ {
				if pr.dirtyTiles&((1<<row)<<(col*8)) != 0 {
					tiles = append(tiles, Tile{Row: row, Col: col})
				}
			}
		}
	}
	pr.dirtyTiles = 0
	return tiles
}

// GetBorderColour returns the current border colour as a packed 0xRRGGBB
// value. The second return value is false while the CDG stream has not yet
// specified a border colour.
func (pr *PacketReader) GetBorderColour() (uint32, bool) {
	if pr.borderColourIndex == -1 {
		return 0, false
	}
	return pr.colourTable[pr.borderColourIndex], true
}

// DoPackets reads up to numPackets packets from the stream and applies
// their instructions. It returns true on success, or false when the
// end-of-stream was hit on the very first packet of this call, meaning the
// stream is exhausted. Hitting end-of-stream after at least one packet was
// consumed still counts as success.
func (pr *PacketReader) DoPackets(numPackets int) bool {
	for i := 0; i < numPackets; i++ {
		pkt, ok := pr.nextPacket()
		if !ok {
			return i != 0
		}
		pr.processPacket(pkt)
	}
	return true
}

// FillTile copies one tile's worth of resolved pixels into dst, which must
// hold at least TileWidth*TileHeight values (row-major). The tile origin is
// offset by the border margin plus the current screen shift.
func (pr *PacketReader) FillTile(dst []uint32, row, col int) {
	if row < 0 || row >= TilesPerRow || col < 0 || col >= TilesPerCol {
		return
	}
	if len(dst) < TileWidth*TileHeight {
		return
	}
	xStart := BorderWidth + pr.hOffset + row*TileWidth
	yStart := BorderHeight + pr.vOffset + col*TileHeight
	for ty := 0; ty < TileHeight; ty++ {
		src := (yStart+ty)*FullWidth + xStart
		copy(dst[ty*TileWidth:(ty+1)*TileWidth], pr.surface[src:src+TileWidth])
	}
}

// nextPacket reads the next 24-byte packet. A short trailing packet ends
// the stream cleanly.
func (pr *PacketReader) nextPacket() (packet, bool) {
	if pr.pos+PacketSize > len(pr.data) {
		pr.pos = len(pr.data)
		return packet{}, false
	}
	raw := pr.data[pr.pos : pr.pos+PacketSize]
	pr.pos += PacketSize
	return packet{
		command:     raw[0],
		instruction: raw[1],
		data:        raw[4:20],
	}, true
}

func (pr *PacketReader) processPacket(pkt packet) {
	if pkt.command&cdgMask != cdgCommand {
		// Not a CDG instruction packet; other subcode channels share
		// the stream.
		return
	}
	switch pkt.instruction & cdgMask {
	case instMemoryPreset:
		pr.memoryPreset(pkt)
	case instBorderPreset:
		pr.borderPreset(pkt)
	case instTileBlock:
		pr.tileBlock(pkt, false)
	case instScrollPreset:
		pr.scroll(pkt, false)
	case instScrollCopy:
		pr.scroll(pkt, true)
	case instDefTranspCol:
		pr.defineTransparentColour(pkt)
	case instLoadColTableLow:
		pr.loadColourTable(pkt, 0)
	case instLoadColTableHigh:
		pr.loadColourTable(pkt, 8)
	case instTileBlockXor:
		pr.tileBlock(pkt, true)
	default:
		// Never fatal: unknown instructions are skipped so that CDG
		// extensions (or corruption) cannot abort playback.
		pr.log.Debug("skipping unknown CDG instruction",
			"instruction", pkt.instruction&cdgMask)
	}
}

// memoryPreset clears the entire frame (viewable area plus border) to one
// colour index.
func (pr *PacketReader) memoryPreset(pkt packet) {
	colour := int(pkt.data[0] & 0x0F)

	// CDG streams often repeat preset commands in case one is corrupted
	// on disc. Honour every one, but don't waste time re-clearing to the
	// same colour.
	if colour == pr.justClearedColourIndex {
		return
	}
	pr.justClearedColourIndex = colour

	// A memory preset also resets the border colour.
	pr.presetColourIndex = colour
	pr.borderColourIndex = colour

	// This may arrive before any colour table load; the table load
	// recomputes all resolved values, so storing indices here is enough.
	idx := uint8(colour)
	rgb := pr.colourTable[colour]
	for i := range pr.pixelColours {
		pr.pixelColours[i] = idx
		pr.surface[i] = rgb
	}

	pr.dirtyTiles = 0xFFFFFFFF
}

// borderPreset clears only the border strips to one colour index.
func (pr *PacketReader) borderPreset(pkt packet) {
	colour := int(pkt.data[0] & 0x0F)
	if colour == pr.borderColourIndex {
		return
	}
	pr.borderColourIndex = colour

	idx := uint8(colour)
	// Top and bottom strips, full width.
	for y := 0; y < BorderHeight; y++ {
		topRow := y * FullWidth
		botRow := (FullHeight - 1 - y) * FullWidth
		for x := 0; x < FullWidth; x++ {
			pr.pixelColours[topRow+x] = idx
			pr.pixelColours[botRow+x] = idx
		}
	}
	// Left and right strips between them.
	for y := BorderHeight; y < FullHeight-BorderHeight; y++ {
		row := y * FullWidth
		for x := 0; x < BorderWidth; x++ {
			pr.pixelColours[row+x] = idx
			pr.pixelColours[row+FullWidth-1-x] = idx
		}
	}

	pr.recomputeSurface()
	// No tiles are marked here: the renderer decides whether a border
	// colour change warrants a full redraw.
}

// tileBlock paints a 6x12-pixel two-colour bitmap. In XOR mode the selected
// colour index is XORed against each pixel's current index instead of
// overwriting it.
func (pr *PacketReader) tileBlock(pkt packet, xor bool) {
	d := pkt.data
	if d[1]&0x20 != 0 {
		// Some discs set this bit to mean "ignore this command".
		return
	}

	colour0 := d[0] & 0x0F
	colour1 := d[1] & 0x0F

	y0 := int(d[2]&0x1F) * 12
	x0 := int(d[3]&0x3F) * 6

	// Clamp a corrupted position rather than running off the buffer.
	if y0 > FullHeight-12 {
		y0 = FullHeight - 12
	}
	if x0 > FullWidth-6 {
		x0 = FullWidth - 6
	}

	pr.markTileSpan(x0, y0)

	for i := 0; i < 12; i++ {
		bits := d[4+i] & cdgMask
		y := y0 + i
		row := y * FullWidth
		for j := 0; j < 6; j++ {
			var newCol uint8
			sel := colour0
			if bits>>(5-j)&0x01 != 0 {
				sel = colour1
			}
			if xor {
				newCol = pr.pixelColours[row+x0+j] ^ sel
			} else {
				newCol = sel
			}
			pr.pixelColours[row+x0+j] = newCol
			pr.surface[row+x0+j] = pr.colourTable[newCol&0x0F]
		}
	}

	// The screen has real content again, so a subsequent preset must be
	// honoured.
	pr.justClearedColourIndex = -1
}

// markTileSpan marks dirty every display tile intersecting the 6x12 pixel
// block at (x0, y0), mapped through the current screen shift. Out-of-range
// tile indices are clamped to the grid; writes touching the left/top border
// may conservatively mark the first row/column.
func (pr *PacketReader) markTileSpan(x0, y0 int) {
	firstRow := clampInt((x0-BorderWidth-pr.hOffset)/TileWidth, 0, TilesPerRow-1)
	lastRow := clampInt((x0-1-pr.hOffset)/TileWidth, firstRow, TilesPerRow-1)

	firstCol := clampInt((y0-BorderHeight-pr.vOffset)/TileHeight, 0, TilesPerCol-1)
	lastCol := clampInt((y0-1-pr.vOffset)/TileHeight, firstCol, TilesPerCol-1)

	for col := firstCol; col <= lastCol; col++ {
		for row := firstRow; row <= lastRow; row++ {
			pr.dirtyTiles |= (1 << row) << (col * 8)
		}
	}
}

// scroll handles both scroll variants. "Copy" wraps the scrolled-out edge
// around to the opposite edge; "preset" fills the vacated edge with a
// colour. Independently of any whole-tile shift, the command carries the
// persistent sub-tile screen shift.
func (pr *PacketReader) scroll(pkt packet, wrap bool) {
	d := pkt.data
	colour := d[0] & 0x0F
	hScroll := d[1] & cdgMask
	vScroll := d[2] & cdgMask

	hCmd := (hScroll & 0x30) >> 4
	hOffset := int(hScroll & 0x07)
	vCmd := (vScroll & 0x30) >> 4
	vOffset := int(vScroll & 0x0F)

	vPixels := verticalScrollPixels(vCmd)
	hPixels := horizontalScrollPixels(hCmd)

	if hOffset != pr.hOffset || vOffset != pr.vOffset {
		pr.hOffset = min(hOffset, 5)
		pr.vOffset = min(vOffset, 11)
		pr.dirtyTiles = 0xFFFFFFFF
	}

	if hPixels == 0 && vPixels == 0 {
		return
	}

	if vPixels != 0 {
		pr.shiftVertical(vPixels, colour, wrap)
	}
	if hPixels != 0 {
		pr.shiftHorizontal(hPixels, colour, wrap)
	}

	pr.recomputeSurface()
	pr.dirtyTiles = 0xFFFFFFFF
}

// verticalScrollPixels converts a 2-bit direction code to signed pixels
// (positive = up, negative = down).
func verticalScrollPixels(cmd byte) int {
	switch cmd {
	case 2:
		return 12
	case 1:
		return -12
	}
	return 0
}

// horizontalScrollPixels converts a 2-bit direction code to signed pixels
// (positive = left, negative = right).
func horizontalScrollPixels(cmd byte) int {
	switch cmd {
	case 2:
		return 6
	case 1:
		return -6
	}
	return 0
}

// shiftVertical moves the whole pixel buffer dy rows (positive = up).
func (pr *PacketReader) shiftVertical(dy int, fill byte, wrap bool) {
	shifted := make([]uint8, len(pr.pixelColours))
	for y := 0; y < FullHeight; y++ {
		src := y + dy
		switch {
		case src >= 0 && src < FullHeight:
			// In range.
		case wrap:
			src = (src + FullHeight) % FullHeight
		default:
			row := shifted[y*FullWidth : (y+1)*FullWidth]
			for x := range row {
				row[x] = fill
			}
			continue
		}
		copy(shifted[y*FullWidth:(y+1)*FullWidth],
			pr.pixelColours[src*FullWidth:(src+1)*FullWidth])
	}
	pr.pixelColours = shifted
}

// shiftHorizontal moves the whole pixel buffer dx columns (positive = left).
func (pr *PacketReader) shiftHorizontal(dx int, fill byte, wrap bool) {
	shifted := make([]uint8, len(pr.pixelColours))
	for y := 0; y < FullHeight; y++ {
		srcRow := pr.pixelColours[y*FullWidth : (y+1)*FullWidth]
		dstRow := shifted[y*FullWidth : (y+1)*FullWidth]
		for x := 0; x < FullWidth; x++ {
			src := x + dx
			switch {
			case src >= 0 && src < FullWidth:
				// In range.
			case wrap:
				src = (src + FullWidth) % FullWidth
			default:
				dstRow[x] = fill
				continue
			}
			dstRow[x] = srcRow[src]
		}
	}
	pr.pixelColours = shifted
}

// defineTransparentColour records the transparent colour index. It has no
// rendering effect; the index is reserved for overlay compositing.
func (pr *PacketReader) defineTransparentColour(pkt packet) {
	pr.transparentColour = int(pkt.data[0] & 0x0F)
}

// loadColourTable unpacks eight 12-bit RGB entries into the colour table
// starting at the given slot, then recomputes the resolved surface. Pixel
// indices never change on a table load, only what they resolve to.
func (pr *PacketReader) loadColourTable(pkt packet, start int) {
	d := pkt.data
	for i := 0; i < 8; i++ {
		// Each entry is packed [--RRRRGG][--GGBBBB].
		entry := int(d[2*i]&cdgMask)<<8 | int(d[2*i+1]&cdgMask)
		entry = (entry&0x3F00)>>2 | entry&0x003F
		r := uint8(((entry & 0x0F00) >> 8) * 17)
		g := uint8(((entry & 0x00F0) >> 4) * 17)
		b := uint8((entry & 0x000F) * 17)
		pr.colourTable[start+i] = PackRGB(r, g, b)
	}

	// Handles CDGs that preset the screen before loading the table.
	pr.recomputeSurface()
	pr.dirtyTiles = 0xFFFFFFFF
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

// recomputeSurface rebuilds every resolved pixel from the index buffer
// through the current colour table.
func (pr *PacketReader) recomputeSurface() {
	for i, idx := range pr.pixelColours {
		pr.surface[i] = pr.colourTable[idx&0x0F]
	}
}
