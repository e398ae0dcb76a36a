package video

import (
	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/bit"
)

// GpuMode is the PPU's current STAT mode. The numeric values match the
// STAT register's mode bits (0-1) directly.
type GpuMode uint8

const (
	hblankMode GpuMode = 0
	vblankMode GpuMode = 1
	oamScanMode GpuMode = 2
	vramReadMode GpuMode = 3
)

const (
	oamScanCycles   = 80
	lineCycles      = 456
	lastVisibleLine = 143
	lastLine        = 153
)

// Bus is the memory access the GPU needs: VRAM/OAM/register reads and
// writes, interrupt requests, and a way to tell the MMU which access window
// is currently open.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	RequestInterrupt(interrupt addr.Interrupt)
	SetPPUMode(mode uint8)
}

// GPU renders the background, window and sprite layers one scanline at a
// time, approximating the real pixel-FIFO's variable mode 3 length from
// scroll offset and sprite count rather than a fixed dot count per mode.
type GPU struct {
	bus         Bus
	oam         *OAM
	framebuffer *FrameBuffer

	mode GpuMode
	line int

	cycles      int // cycles elapsed in the current mode
	mode3Cycles int // length of mode 3 for the current line, set when mode 2 ends

	pixelCounter int // next pixel drawBackground will render
	windowLine   int // internal window line counter; advances only on lines the window was actually drawn

	statLine bool // previous level of the OR'd STAT interrupt sources, for edge detection

	scanlineSprites []Sprite
}

// NewGpu creates a GPU wired to the given bus.
func NewGpu(bus Bus) *GPU {
	return &GPU{
		bus:         bus,
		oam:         NewOAM(bus),
		framebuffer: NewFrameBuffer(),
		mode:        oamScanMode,
	}
}

// GetFrameBuffer returns the GPU's output framebuffer.
func (g *GPU) GetFrameBuffer() *FrameBuffer {
	return g.framebuffer
}

// Tick advances the PPU by the given number of T-cycles, driving the
// mode 2 -> 3 -> 0 state machine across 144 visible lines followed by 10
// VBlank lines, firing VBlank/STAT interrupts on the appropriate edges.
func (g *GPU) Tick(cycles int) {
	lcdc := g.bus.Read(addr.LCDC)
	if !bit.IsSet(7, lcdc) {
		if g.mode != hblankMode || g.line != 0 {
			g.line = 0
			g.cycles = 0
			g.windowLine = 0
			g.setMode(hblankMode)
			g.writeLY()
		}
		return
	}

	g.cycles += cycles

	switch g.mode {
	case oamScanMode:
		if g.cycles >= oamScanCycles {
			g.cycles -= oamScanCycles
			g.scanlineSprites = nil
			if bit.IsSet(1, lcdc) {
				g.scanlineSprites = g.oam.GetSpritesForScanline(g.line)
			}
			g.mode3Cycles = g.computeMode3Length()
			g.setMode(vramReadMode)
		}
	case vramReadMode:
		if g.cycles >= g.mode3Cycles {
			g.cycles -= g.mode3Cycles
			g.drawScanline()
			g.setMode(hblankMode)
		}
	case hblankMode:
		hblank := lineCycles - oamScanCycles - g.mode3Cycles
		if g.cycles >= hblank {
			g.cycles -= hblank
			g.advanceLine()
		}
	case vblankMode:
		if g.cycles >= lineCycles {
			g.cycles -= lineCycles
			g.advanceLine()
		}
	}
}

// advanceLine moves LY to the next line and switches modes at the
// mode0->mode2 and mode1(line153)->mode2 boundaries.
func (g *GPU) advanceLine() {
	wasVblank := g.mode == vblankMode
	g.line++

	if !wasVblank && g.line > lastVisibleLine {
		g.writeLY()
		g.setMode(vblankMode)
		g.bus.RequestInterrupt(addr.VBlankInterrupt)
		return
	}

	if wasVblank && g.line > lastLine {
		g.line = 0
		g.windowLine = 0
	}

	g.writeLY()
	if wasVblank {
		if g.line == 0 {
			g.setMode(oamScanMode)
		}
		return
	}
	g.setMode(oamScanMode)
}

// computeMode3Length approximates the pixel-FIFO's variable mode 3
// duration: a fixed base plus the fine-scroll delay and a fetch penalty
// per sprite/window present on the line. The exact cycle count on real
// hardware depends on FIFO stalls this scanline-compositing design
// doesn't model.
func (g *GPU) computeMode3Length() int {
	scx := g.bus.Read(addr.SCX)
	length := 172 + int(scx%8)
	length += 6 * len(g.scanlineSprites)
	if g.windowVisibleThisLine() {
		length += 6
	}
	return length
}

func (g *GPU) windowVisibleThisLine() bool {
	lcdc := g.bus.Read(addr.LCDC)
	if !bit.IsSet(5, lcdc) {
		return false
	}
	wy := int(g.bus.Read(addr.WY))
	return g.line >= wy
}

func (g *GPU) setMode(mode GpuMode) {
	g.mode = mode
	g.bus.SetPPUMode(uint8(mode))
	g.updateSTAT()
}

func (g *GPU) writeLY() {
	g.bus.Write(addr.LY, uint8(g.line))
	g.updateSTAT()
}

// updateSTAT refreshes STAT's mode and coincidence bits and fires the LCD
// STAT interrupt on the rising edge of the OR of its enabled sources.
func (g *GPU) updateSTAT() {
	stat := g.bus.Read(addr.STAT)
	lyc := g.bus.Read(addr.LYC)
	coincidence := uint8(g.line) == lyc

	stat &^= 0x07
	stat |= uint8(g.mode) & 0x03
	if coincidence {
		stat |= 0x04
	}
	g.bus.Write(addr.STAT, stat)

	line := coincidence && bit.IsSet(6, stat)
	switch g.mode {
	case hblankMode:
		line = line || bit.IsSet(3, stat)
	case vblankMode:
		line = line || bit.IsSet(4, stat)
	case oamScanMode:
		line = line || bit.IsSet(5, stat)
	}

	if line && !g.statLine {
		g.bus.RequestInterrupt(addr.LCDSTATInterrupt)
	}
	g.statLine = line
}

// ByteToColor maps a 2-bit Game Boy color index (0-3) to its display color.
func ByteToColor(colorIndex byte) GBColor {
	switch colorIndex & 0x03 {
	case 0:
		return WhiteColor
	case 1:
		return LightGreyColor
	case 2:
		return DarkGreyColor
	default:
		return BlackColor
	}
}

func paletteColor(colorIndex int, palette byte) GBColor {
	shade := (palette >> uint(colorIndex*2)) & 0x03
	return ByteToColor(shade)
}

func (g *GPU) bgTileMapBase() uint16 {
	if bit.IsSet(3, g.bus.Read(addr.LCDC)) {
		return addr.TileMap1
	}
	return addr.TileMap0
}

func (g *GPU) windowTileMapBase() uint16 {
	if bit.IsSet(6, g.bus.Read(addr.LCDC)) {
		return addr.TileMap1
	}
	return addr.TileMap0
}

// tileDataAddr resolves a tile number to its tile data address, honoring
// LCDC bit 4's choice between the unsigned ($8000) and signed ($9000,
// wrapping down through $8800) addressing modes.
func (g *GPU) tileDataAddr(tileNum byte) uint16 {
	if bit.IsSet(4, g.bus.Read(addr.LCDC)) {
		return addr.TileData0 + uint16(tileNum)*16
	}
	return uint16(int32(addr.TileData2) + int32(int8(tileNum))*16)
}

func (g *GPU) tileRowAt(tileNum byte, rowInTile int) TileRow {
	rowAddr := g.tileDataAddr(tileNum) + uint16(rowInTile*2)
	return TileRow{Low: g.bus.Read(rowAddr), High: g.bus.Read(rowAddr + 1)}
}

// bgColorIndex returns the raw (pre-palette) 2-bit background color at the
// given screen column, for the GPU's current line.
func (g *GPU) bgColorIndex(screenX int) int {
	scx := int(g.bus.Read(addr.SCX))
	scy := int(g.bus.Read(addr.SCY))
	bgX := (screenX + scx) & 0xFF
	bgY := (g.line + scy) & 0xFF

	tileCol := bgX / 8
	tileRow := bgY / 8
	tileNum := g.bus.Read(g.bgTileMapBase() + uint16(tileRow*32+tileCol))

	row := g.tileRowAt(tileNum, bgY%8)
	return row.GetPixel(bgX % 8)
}

// windowColorIndex returns the raw window color at screenX, and whether the
// window actually covers that pixel on the current line.
func (g *GPU) windowColorIndex(screenX int) (int, bool) {
	if !g.windowVisibleThisLine() {
		return 0, false
	}

	wx := int(g.bus.Read(addr.WX)) - 7
	if screenX < wx {
		return 0, false
	}

	winX := screenX - wx
	winY := g.windowLine
	tileCol := winX / 8
	tileRow := winY / 8
	tileNum := g.bus.Read(g.windowTileMapBase() + uint16(tileRow*32+tileCol))

	row := g.tileRowAt(tileNum, winY%8)
	return row.GetPixel(winX % 8), true
}

// spritePixelColor returns the raw sprite color at the sprite-relative
// pixel (screenX - sprite.X), honoring flip and 8x16 tile-splitting.
func (g *GPU) spritePixelColor(s *Sprite, screenX int) int {
	relX := screenX - int(s.X)
	rowInSprite := g.line - int(s.Y)
	if s.FlipY {
		rowInSprite = s.Height - 1 - rowInSprite
	}

	tileIndex := s.TileIndex
	if s.Height == 16 {
		tileIndex &^= 0x01
		if rowInSprite >= 8 {
			tileIndex |= 0x01
			rowInSprite -= 8
		}
	}

	rowAddr := addr.TileData0 + uint16(tileIndex)*16 + uint16(rowInSprite*2)
	row := TileRow{Low: g.bus.Read(rowAddr), High: g.bus.Read(rowAddr + 1)}
	if s.FlipX {
		return row.GetPixelFlipped(relX)
	}
	return row.GetPixel(relX)
}

func findSpriteAt(sprites []Sprite, x int) (*Sprite, bool) {
	for i := range sprites {
		relX := x - int(sprites[i].X)
		if relX < 0 || relX > 7 {
			continue
		}
		if sprites[i].HasPriorityForPixel(relX) {
			return &sprites[i], true
		}
	}
	return nil, false
}

// drawBackground renders background-only pixels [pixelCounter, pixelCounter+4)
// of the current line. It exists for callers driving the GPU dot-by-dot
// through the mode 3 transfer window without needing window/sprite
// compositing; drawScanline renders a whole line (background, window and
// sprites) in one shot.
func (g *GPU) drawBackground() {
	lcdc := g.bus.Read(addr.LCDC)
	bgp := g.bus.Read(addr.BGP)
	bgEnabled := bit.IsSet(0, lcdc)

	end := g.pixelCounter + 4
	if end > FramebufferWidth {
		end = FramebufferWidth
	}

	for x := g.pixelCounter; x < end; x++ {
		colorIdx := 0
		if bgEnabled {
			colorIdx = g.bgColorIndex(x)
		}
		g.framebuffer.SetPixel(uint(x), uint(g.line), paletteColor(colorIdx, bgp))
	}
}

// drawScanline composites the full background, window and sprite layers for
// the current line and writes it straight to the framebuffer.
func (g *GPU) drawScanline() {
	lcdc := g.bus.Read(addr.LCDC)
	bgp := g.bus.Read(addr.BGP)
	obp0 := g.bus.Read(addr.OBP0)
	obp1 := g.bus.Read(addr.OBP1)

	bgEnabled := bit.IsSet(0, lcdc)
	spritesEnabled := bit.IsSet(1, lcdc)

	sprites := g.scanlineSprites
	if spritesEnabled && sprites == nil {
		sprites = g.oam.GetSpritesForScanline(g.line)
	}
	if !spritesEnabled {
		sprites = nil
	}

	windowDrawn := false
	for x := 0; x < FramebufferWidth; x++ {
		bgColorIdx := 0
		if bgEnabled {
			bgColorIdx = g.bgColorIndex(x)
		}
		if winColorIdx, onWindow := g.windowColorIndex(x); onWindow && bgEnabled {
			bgColorIdx = winColorIdx
			windowDrawn = true
		}

		pixel := paletteColor(bgColorIdx, bgp)

		if sp, ok := findSpriteAt(sprites, x); ok {
			spColorIdx := g.spritePixelColor(sp, x)
			if spColorIdx != 0 && (!sp.BehindBG || bgColorIdx == 0) {
				palette := obp0
				if sp.PaletteOBP1 {
					palette = obp1
				}
				pixel = paletteColor(spColorIdx, palette)
			}
		}

		g.framebuffer.SetPixel(uint(x), uint(g.line), pixel)
	}

	if windowDrawn {
		g.windowLine++
	}
}
