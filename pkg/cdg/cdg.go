// Package cdg decodes CD+Graphics subcode packet streams into an indexed
// pixel buffer suitable for incremental tile-based rendering.
//
// A CDG stream is a sequence of 24-byte subcode packets delivered at a fixed
// rate of 300 packets per second (75 CD sectors/sec, 4 packets per sector).
// Only packets whose command byte masks to 0x09 carry CDG instructions; the
// rest of the subcode channel is ignored. The full CDG frame is 300x216
// pixels, of which only the central 288x192 area is meant to be visible. The
// surrounding border strips (6 px left/right, 12 px top/bottom) are still
// painted, because scroll commands rotate pixels through them.
package cdg

import "image/color"

// CDG command code. Subcode packets whose masked command byte differs are
// not CDG instructions at all.
const cdgCommand = 0x09

// CDG instruction codes.
const (
	instMemoryPreset     = 1
	instBorderPreset     = 2
	instTileBlock        = 6
	instScrollPreset     = 20
	instScrollCopy       = 24
	instDefTranspCol     = 28
	instLoadColTableLow  = 30
	instLoadColTableHigh = 31
	instTileBlockXor     = 38
)

// All CDG fields carry 6 significant bits.
const cdgMask = 0x3F

const (
	// FullWidth and FullHeight are the dimensions of the complete CDG
	// frame, including the border area.
	FullWidth  = 300
	FullHeight = 216

	// DisplayWidth and DisplayHeight are the dimensions of the visible
	// center area.
	DisplayWidth  = 288
	DisplayHeight = 192

	// BorderWidth and BorderHeight are the widths of the border strips on
	// the left/right and top/bottom edges respectively.
	BorderWidth  = (FullWidth - DisplayWidth) / 2
	BorderHeight = (FullHeight - DisplayHeight) / 2
)

// The visible area is divided into a 6x4 grid of tiles for incremental
// redraw tracking. Each column of the grid occupies one byte of the dirty
// bitmask, with 6 bits used for the 6 rows.
const (
	TilesPerRow = 6
	TilesPerCol = 4
	TileWidth   = DisplayWidth / TilesPerRow
	TileHeight  = DisplayHeight / TilesPerCol
)

// ColourTableSize is the number of colour-table slots (4-bit pixel indices).
const ColourTableSize = 16

const (
	// PacketSize is the size of one subcode packet in bytes.
	PacketSize = 24

	// PacketsPerSecond is the fixed CDG packet rate. This is the
	// authoritative clock for mapping playback position to packets.
	PacketsPerSecond = 300
)

// PackRGB packs 8-bit channels into a 0xRRGGBB colour value.
func PackRGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// UnpackRGB converts a packed 0xRRGGBB colour value to a color.RGBA.
func UnpackRGB(c uint32) color.RGBA {
	return color.RGBA{
		R: uint8(c >> 16),
		G: uint8(c >> 8),
		B: uint8(c),
		A: 0xFF,
	}
}

// packet is a single 24-byte subcode packet. Bytes 2-3 (parity Q) and 20-23
// (parity P) are not interpreted.
type packet struct {
	command     byte
	instruction byte
	data        []byte // bytes 4..19
}
