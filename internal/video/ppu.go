// Package video implements the scanline PPU: background/window/sprite
// compositing into a 160x144 framebuffer, and the STAT/LY timing model.
package video

import "github.com/haldis/gbcore/internal/addr"

// Bus is the PPU's view of the memory-mapped register file and VRAM/OAM,
// which the memory bus owns.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	RequestInterrupt(i addr.Interrupt)
}

const (
	oamScanDots  = 80
	drawDots     = 172
	hblankStart  = oamScanDots + drawDots // 252
	dotsPerLine  = 456
	linesPerFrame = 154
	vblankStartLine = 144
)

// LCDC bit positions.
const (
	lcdEnable        = 7
	winTileMapSelect = 6
	winEnable        = 5
	bgWinTileData    = 4
	bgTileMapSelect  = 3
	objSize          = 2
	objEnable        = 1
	bgEnable         = 0
)

// STAT bit positions.
const (
	statLYCIrq    = 6
	statOAMIrq    = 5
	statVBlankIrq = 4
	statHBlankIrq = 3
	statLYCEqual  = 2
)

// PPU renders one scanline at a time, driven by a dots accumulator that the
// scheduler advances with every CPU cycle count.
type PPU struct {
	bus Bus

	dots int
	line int

	lcdWasEnabled bool
	windowLine    int

	framebuffer *FrameBuffer
	bgShadow    [FramebufferWidth]uint8
	priority    spritePriorityBuffer
}

func NewPPU(bus Bus) *PPU {
	return &PPU{
		bus:         bus,
		framebuffer: NewFrameBuffer(),
	}
}

func (p *PPU) FrameBuffer() *FrameBuffer { return p.framebuffer }

func (p *PPU) lcdc() uint8           { return p.bus.Read(addr.LCDC) }
func (p *PPU) lcdcBit(n uint8) bool  { return p.lcdc()&(1<<n) != 0 }
func (p *PPU) lcdEnabled() bool      { return p.lcdcBit(lcdEnable) }

// mode derives the current STAT mode purely from line/dots, per spec.md §4.4.
func (p *PPU) mode() uint8 {
	switch {
	case p.line >= vblankStartLine:
		return 1
	case p.dots < oamScanDots:
		return 2
	case p.dots < hblankStart:
		return 3
	default:
		return 0
	}
}

// Tick advances the PPU by cycles T-cycles, rendering completed scanlines
// and raising VBlank/STAT interrupts on mode transitions.
func (p *PPU) Tick(cycles int) {
	if !p.lcdEnabled() {
		if p.lcdWasEnabled {
			p.dots = 0
			p.line = 0
			p.writeLY()
			p.writeMode(0)
		}
		p.lcdWasEnabled = false
		return
	}
	if !p.lcdWasEnabled {
		p.windowLine = 0
	}
	p.lcdWasEnabled = true

	prevMode := p.mode()
	p.dots += cycles

	for p.dots >= dotsPerLine {
		p.dots -= dotsPerLine
		p.renderLine()
		p.line++
		if p.line >= linesPerFrame {
			p.line = 0
			p.windowLine = 0
		}
		p.writeLY()
		if p.line == vblankStartLine {
			p.bus.RequestInterrupt(addr.VBlankInterrupt)
		}
	}

	newMode := p.mode()
	p.writeMode(newMode)
	if newMode != prevMode {
		p.onModeEntered(newMode)
	}
}

func (p *PPU) onModeEntered(mode uint8) {
	stat := p.bus.Read(addr.STAT)
	switch mode {
	case 0:
		if stat&(1<<statHBlankIrq) != 0 {
			p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	case 1:
		if stat&(1<<statVBlankIrq) != 0 {
			p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	case 2:
		if stat&(1<<statOAMIrq) != 0 {
			p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	}
}

func (p *PPU) writeLY() {
	p.bus.Write(addr.LY, uint8(p.line))
	stat := p.bus.Read(addr.STAT)
	ly := uint8(p.line)
	lyc := p.bus.Read(addr.LYC)
	if ly == lyc {
		stat |= 1 << statLYCEqual
		if stat&(1<<statLYCIrq) != 0 {
			p.bus.RequestInterrupt(addr.LCDSTATInterrupt)
		}
	} else {
		stat &^= 1 << statLYCEqual
	}
	p.bus.Write(addr.STAT, stat)
}

func (p *PPU) writeMode(mode uint8) {
	stat := p.bus.Read(addr.STAT)
	stat = stat&0xFC | mode
	p.bus.Write(addr.STAT, stat)
}

func (p *PPU) renderLine() {
	if p.line >= FramebufferHeight {
		return
	}
	if !p.lcdcBit(bgEnable) {
		// DMG hardware quirk: LCDC.0=0 blanks background and window to
		// white, ignoring the palette entirely.
		base := p.line * FramebufferWidth
		for x := 0; x < FramebufferWidth; x++ {
			p.framebuffer.buffer[base+x] = uint32(WhiteColor)
			p.bgShadow[x] = 0
		}
	} else {
		p.drawBackground()
	}
	if p.lcdcBit(winEnable) {
		p.drawWindow()
	}
	if p.lcdcBit(objEnable) {
		p.drawSprites()
	}
}

func (p *PPU) tileDataBase() uint16 {
	if p.lcdcBit(bgWinTileData) {
		return addr.TileData0
	}
	return addr.TileData2
}

func (p *PPU) tileAddrFor(base uint16, tileIndex uint8, pixelRow int) uint16 {
	if base == addr.TileData2 {
		return uint16(int(base) + int(int8(tileIndex))*16 + pixelRow*2)
	}
	return base + uint16(tileIndex)*16 + uint16(pixelRow*2)
}

func (p *PPU) drawBackground() {
	base := p.line * FramebufferWidth
	scx := p.bus.Read(addr.SCX)
	scy := p.bus.Read(addr.SCY)

	tileMap := addr.TileMap0
	if p.lcdcBit(bgTileMapSelect) {
		tileMap = addr.TileMap1
	}
	tileData := p.tileDataBase()

	scrolledY := (p.line + int(scy)) & 0xFF
	tileRow := scrolledY / 8
	pixelRow := scrolledY % 8

	for x := 0; x < FramebufferWidth; x++ {
		scrolledX := (x + int(scx)) & 0xFF
		tileCol := scrolledX / 8
		mapAddr := tileMap + uint16(tileRow*32+tileCol)
		tileIndex := p.bus.Read(mapAddr)

		tileAddr := p.tileAddrFor(tileData, tileIndex, pixelRow)
		low := p.bus.Read(tileAddr)
		high := p.bus.Read(tileAddr + 1)

		bitIndex := uint8(7 - scrolledX%8)
		colorIdx := colorIndex(low, high, bitIndex)

		palette := p.bus.Read(addr.BGP)
		color := (palette >> (colorIdx * 2)) & 0x03
		p.framebuffer.buffer[base+x] = uint32(ByteToColor(color))
		p.bgShadow[x] = colorIdx
	}
}

func (p *PPU) drawWindow() {
	wy := p.bus.Read(addr.WY)
	wx := int(p.bus.Read(addr.WX)) - 7

	if p.windowLine > FramebufferHeight-1 || int(wy) > p.line || wx >= FramebufferWidth {
		return
	}

	tileMap := addr.TileMap0
	if p.lcdcBit(winTileMapSelect) {
		tileMap = addr.TileMap1
	}
	tileData := p.tileDataBase()

	tileRow := p.windowLine / 8
	pixelRow := p.windowLine % 8
	base := p.line * FramebufferWidth

	for col := 0; col < 32; col++ {
		screenX := wx + col*8
		if screenX >= FramebufferWidth {
			break
		}
		mapAddr := tileMap + uint16(tileRow*32+col)
		tileIndex := p.bus.Read(mapAddr)
		tileAddr := p.tileAddrFor(tileData, tileIndex, pixelRow)
		low := p.bus.Read(tileAddr)
		high := p.bus.Read(tileAddr + 1)

		for px := 0; px < 8; px++ {
			x := screenX + px
			if x < 0 || x >= FramebufferWidth {
				continue
			}
			colorIdx := colorIndex(low, high, uint8(7-px))
			palette := p.bus.Read(addr.BGP)
			color := (palette >> (colorIdx * 2)) & 0x03
			p.framebuffer.buffer[base+x] = uint32(ByteToColor(color))
			p.bgShadow[x] = colorIdx
		}
	}
	p.windowLine++
}

// Sprite Y/X offsets use the canonical DMG values (-16/-8), per the
// resolved open question on sprite placement.
const (
	spriteYOffset = 16
	spriteXOffset = 8
)

func (p *PPU) drawSprites() {
	height := 8
	if p.lcdcBit(objSize) {
		height = 16
	}

	type visibleSprite struct {
		index int
		y, x  int
	}
	var visible []visibleSprite
	for i := 0; i < 40; i++ {
		oamAddr := addr.OAMStart + uint16(i*4)
		y := int(p.bus.Read(oamAddr)) - spriteYOffset
		if y > p.line || y+height <= p.line {
			continue
		}
		x := int(p.bus.Read(oamAddr+1)) - spriteXOffset
		visible = append(visible, visibleSprite{i, y, x})
		if len(visible) >= 10 {
			break
		}
	}

	p.priority.clear()
	for _, s := range visible {
		for px := 0; px < 8; px++ {
			p.priority.tryClaimPixel(s.x+px, s.index, s.x)
		}
	}

	base := p.line * FramebufferWidth
	for _, s := range visible {
		oamAddr := addr.OAMStart + uint16(s.index*4)
		tile := p.bus.Read(oamAddr + 2)
		flags := p.bus.Read(oamAddr + 3)

		flipX := flags&(1<<5) != 0
		flipY := flags&(1<<6) != 0
		aboveBG := flags&(1<<7) == 0
		paletteAddr := addr.OBP0
		if flags&(1<<4) != 0 {
			paletteAddr = addr.OBP1
		}

		rowInSprite := p.line - s.y
		if flipY {
			rowInSprite = height - 1 - rowInSprite
		}

		tileIdx := tile
		rowOffset := rowInSprite
		if height == 16 {
			tileIdx &= 0xFE
			if rowInSprite >= 8 {
				tileIdx |= 1
				rowOffset -= 8
			}
		}
		tileAddr := addr.TileData0 + uint16(tileIdx)*16 + uint16(rowOffset*2)
		low := p.bus.Read(tileAddr)
		high := p.bus.Read(tileAddr + 1)

		for px := 0; px < 8; px++ {
			x := s.x + px
			if p.priority.owner(x) != s.index {
				continue
			}
			bitIndex := uint8(px)
			if !flipX {
				bitIndex = uint8(7 - px)
			}
			colorIdx := colorIndex(low, high, bitIndex)
			if colorIdx == 0 {
				continue
			}
			if !aboveBG && x >= 0 && x < FramebufferWidth && p.bgShadow[x] != 0 {
				continue
			}
			palette := p.bus.Read(paletteAddr)
			color := (palette >> (colorIdx * 2)) & 0x03
			p.framebuffer.buffer[base+x] = uint32(ByteToColor(color))
		}
	}
}

func colorIndex(low, high uint8, bitIndex uint8) uint8 {
	var idx uint8
	if low&(1<<bitIndex) != 0 {
		idx |= 1
	}
	if high&(1<<bitIndex) != 0 {
		idx |= 2
	}
	return idx
}
