package video

// spritePriorityBuffer resolves DMG sprite-pixel ownership for one
// scanline: the sprite with the lowest X wins a pixel, ties broken by the
// lower OAM index. See https://gbdev.io/pandocs/OAM.html#drawing-priority.
//
// Rather than sort the visible sprites, each candidate sprite claims the
// pixels it covers during a selection pass; the render pass only draws
// pixels a sprite still owns after every candidate has had a turn.
type spritePriorityBuffer struct {
	ownerIndex [FramebufferWidth]int
	ownerX     [FramebufferWidth]int
}

func (s *spritePriorityBuffer) clear() {
	for i := 0; i < FramebufferWidth; i++ {
		s.ownerIndex[i] = -1
		s.ownerX[i] = 0xFF
	}
}

// tryClaimPixel claims pixelX for spriteIndex if unowned, or if spriteIndex
// outranks the current owner (lower X, then lower OAM index).
func (s *spritePriorityBuffer) tryClaimPixel(pixelX, spriteIndex, spriteX int) {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return
	}
	current := s.ownerIndex[pixelX]
	if current == -1 || spriteX < s.ownerX[pixelX] || (spriteX == s.ownerX[pixelX] && spriteIndex < current) {
		s.ownerIndex[pixelX] = spriteIndex
		s.ownerX[pixelX] = spriteX
	}
}

func (s *spritePriorityBuffer) owner(pixelX int) int {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return -1
	}
	return s.ownerIndex[pixelX]
}
