package video

import "math/rand"

// GBColor is one DMG shade expanded to 32-bit ARGB, alpha forced to 0xFF
// per the framebuffer sink contract.
type GBColor uint32

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
	FramebufferSize   = FramebufferWidth * FramebufferHeight
)

const (
	BlackColor     GBColor = 0xFF000000
	DarkGreyColor  GBColor = 0xFF555555
	LightGreyColor GBColor = 0xFFAAAAAA
	WhiteColor     GBColor = 0xFFFFFFFF
)

// ByteToColor maps a 2-bit DMG colour index (0=darkest) to its ARGB shade.
func ByteToColor(value uint8) GBColor {
	switch value {
	case 0:
		return BlackColor
	case 1:
		return DarkGreyColor
	case 2:
		return LightGreyColor
	case 3:
		return WhiteColor
	}
	return 0
}

// cgbColor expands a 15-bit CGB palette entry (5 bits per channel) to
// 24-bit RGB by left-shifting each component by 3, per spec.md §4.4.
func cgbColor(value uint16) GBColor {
	r := uint32(value&0x1F) << 3
	g := uint32((value>>5)&0x1F) << 3
	b := uint32((value>>10)&0x1F) << 3
	return GBColor(0xFF000000 | r<<16 | g<<8 | b)
}

// FrameBuffer holds one completed 160x144 frame of ARGB pixels.
type FrameBuffer struct {
	buffer [FramebufferSize]uint32
}

func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

func (fb *FrameBuffer) GetPixel(x, y int) uint32 {
	return fb.buffer[y*FramebufferWidth+x]
}

func (fb *FrameBuffer) SetPixel(x, y int, color GBColor) {
	fb.buffer[y*FramebufferWidth+x] = uint32(color)
}

func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer[:]
}

func (fb *FrameBuffer) Clear() {
	for i := range fb.buffer {
		fb.buffer[i] = uint32(BlackColor)
	}
}

// DrawNoise fills the buffer with random DMG shades, used by the terminal
// backend's test-pattern mode when no ROM is loaded.
func (fb *FrameBuffer) DrawNoise() {
	shades := [4]GBColor{WhiteColor, BlackColor, LightGreyColor, DarkGreyColor}
	for i := range fb.buffer {
		fb.buffer[i] = uint32(shades[rand.Intn(4)])
	}
}

// ToBinaryData serializes the buffer as big-endian RGBA bytes, for
// bit-exact test comparison and snapshot export.
func (fb *FrameBuffer) ToBinaryData() []byte {
	data := make([]byte, len(fb.buffer)*4)
	for i, pixel := range fb.buffer {
		data[i*4] = byte(pixel >> 16)
		data[i*4+1] = byte(pixel >> 8)
		data[i*4+2] = byte(pixel)
		data[i*4+3] = byte(pixel >> 24)
	}
	return data
}

// ToGrayscale reduces the buffer to the four DMG shade indices, used by
// tests comparing against a reference trace without caring about palette.
func (fb *FrameBuffer) ToGrayscale() []byte {
	data := make([]byte, len(fb.buffer))
	for i, pixel := range fb.buffer {
		switch GBColor(pixel) {
		case BlackColor:
			data[i] = 0
		case DarkGreyColor:
			data[i] = 1
		case LightGreyColor:
			data[i] = 2
		case WhiteColor:
			data[i] = 3
		default:
			data[i] = 0
		}
	}
	return data
}
