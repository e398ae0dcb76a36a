package video

import "github.com/valerio/go-jeebie/jeebie/bit"

// TileRow holds the two bit-planes that encode one 8-pixel row of a DMG
// tile. Each pixel's 2-bit color index is split across two bytes rather
// than packed 2-bits-per-pixel in one, because the PPU's pixel fetcher
// reads the planes as two separate byte fetches from VRAM:
// https://gbdev.io/pandocs/Tile_Data.html
//
//	Low  (0x3C): 00111100
//	High (0x7E): 01111110
//	index:       02333320   (bit 7 of each byte -> leftmost pixel)
type TileRow struct {
	Low  byte
	High byte
}

func colorIndex(low, high byte, bitIndex uint8) int {
	idx := 0
	if bit.IsSet(bitIndex, low) {
		idx |= 1
	}
	if bit.IsSet(bitIndex, high) {
		idx |= 2
	}
	return idx
}

// GetPixel returns the color index (0-3) of column x (0 = leftmost).
func (t TileRow) GetPixel(x int) int {
	return colorIndex(t.Low, t.High, uint8(7-x))
}

// GetPixelFlipped is GetPixel with the row read right-to-left, for
// sprites drawn with the X-flip attribute set.
func (t TileRow) GetPixelFlipped(x int) int {
	return colorIndex(t.Low, t.High, uint8(x))
}

// Tile is a decoded 8x8 DMG tile: 8 rows of 2 bytes each, 16 bytes total
// in VRAM.
type Tile struct {
	Index int // VRAM tile number (0-383), unset unless fetched via FetchTileWithIndex
	Rows  [8]TileRow
}

// GetPixel returns the color index (0-3) at (x, y), or 0 if out of range.
func (t *Tile) GetPixel(x, y int) int {
	if x < 0 || x >= 8 || y < 0 || y >= 8 {
		return 0
	}
	return t.Rows[y].GetPixel(x)
}

// Pixels renders the tile's raw color indices as GBColor values, for
// debug overlays that want an 8x8 grid without a palette applied.
func (t *Tile) Pixels() [8][8]GBColor {
	var grid [8][8]GBColor
	for y, row := range t.Rows {
		for x := 0; x < 8; x++ {
			grid[y][x] = GBColor(row.GetPixel(x))
		}
	}
	return grid
}

// MemoryReader is the read-only VRAM access tile decoding needs.
type MemoryReader interface {
	Read(addr uint16) byte
}

// FetchTile decodes the 16-byte tile stored at baseAddr. The returned
// tile's Index is left unset; use FetchTileWithIndex when the caller
// needs to track which VRAM slot it came from.
func FetchTile(mem MemoryReader, baseAddr uint16) Tile {
	var t Tile
	for row := range t.Rows {
		a := baseAddr + uint16(row*2)
		t.Rows[row] = TileRow{Low: mem.Read(a), High: mem.Read(a + 1)}
	}
	return t
}

// FetchTileWithIndex is FetchTile plus stamping the resulting tile with
// its VRAM slot number.
func FetchTileWithIndex(mem MemoryReader, baseAddr uint16, index int) Tile {
	t := FetchTile(mem, baseAddr)
	t.Index = index
	return t
}
