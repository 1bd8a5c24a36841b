// Package render holds rendering helpers shared by the terminal backend.
package render

import "github.com/haldis/gbcore/internal/video"

// PixelToShade maps an ARGB framebuffer pixel to a DMG shade index (0=black,
// 3=white). ARGB (not RGBA) matches this codebase's video.GBColor encoding.
func PixelToShade(pixel uint32) int {
	switch video.GBColor(pixel) {
	case video.BlackColor:
		return 0
	case video.DarkGreyColor:
		return 1
	case video.LightGreyColor:
		return 2
	case video.WhiteColor:
		return 3
	default:
		return 0
	}
}

// HalfBlockChar returns the block character used to render one terminal
// cell from a pair of vertically-stacked pixel shades.
func HalfBlockChar(topShade, bottomShade int) rune {
	if topShade == bottomShade {
		return '█'
	}
	return '▀'
}
