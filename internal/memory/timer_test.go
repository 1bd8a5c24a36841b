package memory

import (
	"testing"

	"github.com/haldis/gbcore/internal/addr"
	"github.com/stretchr/testify/assert"
)

func TestDIVReachesWraparoundIn65536Cycles(t *testing.T) {
	timer := &Timer{}
	timer.Write(addr.DIV, 0x00)
	assert.Equal(t, uint8(0x00), timer.Read(addr.DIV))

	timer.Tick(65536 - 256) // 255 increments of 256 cycles each
	assert.Equal(t, uint8(0xFF), timer.Read(addr.DIV))

	timer.Tick(256)
	assert.Equal(t, uint8(0x00), timer.Read(addr.DIV))
}

func TestDIVWriteResets(t *testing.T) {
	timer := &Timer{}
	timer.Tick(1000)
	assert.NotEqual(t, uint8(0), timer.Read(addr.DIV))
	timer.Write(addr.DIV, 0x42) // value is ignored, any write resets
	assert.Equal(t, uint8(0), timer.Read(addr.DIV))
}

func TestTIMAOverflowReloadsAndRaisesInterrupt(t *testing.T) {
	var raised []addr.Interrupt
	timer := &Timer{RequestInterrupt: func(i addr.Interrupt) { raised = append(raised, i) }}
	timer.Write(addr.TAC, 0x05) // enabled, speed index 1 -> period 16
	timer.Write(addr.TMA, 0x7F)
	timer.Write(addr.TIMA, 0xFF)

	// Drive enough cycles for one falling edge at period 16, then let the
	// 4-cycle overflow delay elapse.
	timer.Tick(16)
	timer.Tick(8)

	assert.Equal(t, uint8(0x7F), timer.Read(addr.TIMA))
	assert.Equal(t, []addr.Interrupt{addr.TimerInterrupt}, raised)
}

func TestTIMADisabledDoesNotIncrement(t *testing.T) {
	timer := &Timer{}
	timer.Write(addr.TAC, 0x00) // disabled
	timer.Tick(100000)
	assert.Equal(t, uint8(0), timer.Read(addr.TIMA))
}
