// Package audio implements the DMG APU: four channels (square+sweep,
// square, wave, noise) synthesized directly at the host sample rate and
// mixed to interleaved stereo.
//
// Each channel's state (period, volume, duty phase) is expressed as a
// closed-form function of elapsed time since the channel was last
// triggered, rather than as a per-cycle counter ticked forward one step
// at a time: a sample requested at time t is computed straight from t,
// the same way a waveform synthesizer would. Only the noise channel's
// LFSR can't be expressed that way (each output bit depends on every bit
// before it), so it alone keeps running state, advanced incrementally as
// samples are produced.
package audio

import (
	"math"

	"github.com/haldis/gbcore/internal/addr"
	"github.com/haldis/gbcore/internal/bit"
)

// APU generates 4-channel audio, synthesized to stereo float samples at
// SampleRate.
type APU struct {
	enabled bool

	ch1 pulseChannel
	ch2 pulseChannel
	ch3 waveChannel
	ch4 noiseChannel

	vinLeft, vinRight bool
	volLeft, volRight uint8 // NR50 per-ear volume, 0-7

	sampleIndex  uint64 // count of stereo frames produced since power-on
	accumCycles  int
	pcmBuffer    []float32
	pcmCursor    int

	nr10, nr11, nr12, nr13, nr14 uint8
	nr21, nr22, nr23, nr24       uint8
	nr30, nr31, nr32, nr33, nr34 uint8
	nr41, nr42, nr43, nr44       uint8
	nr50, nr51, nr52             uint8
	waveRAM                      [waveRAMSize]uint8
	waveTable                    [waveTableLen]uint8
}

// pulseChannel is CH1 or CH2's derived, register-backed state. CH1 alone
// uses the sweep fields; CH2 leaves them zeroed and hasSweep false.
type pulseChannel struct {
	enabled    bool
	dacEnabled bool
	muted      bool
	left, right bool

	dutyIndex     uint8
	lengthInit    uint8 // NRx1 bits 5-0, 0-63
	lengthEnabled bool

	initialVolume uint8
	envelopeUp    bool
	envelopePace  uint8

	periodLatch uint16 // 11-bit NRx3/NRx4 combined value

	hasSweep   bool
	sweepPace  uint8
	sweepDown  bool
	sweepSlope uint8

	triggeredAt uint64 // global sampleIndex at the moment of trigger
}

// waveChannel is CH3's derived state: a user-programmed 32-entry table in
// place of a duty pattern, no sweep or envelope.
type waveChannel struct {
	enabled    bool
	dacEnabled bool
	muted      bool
	left, right bool

	lengthInit    uint16 // NR31, 0-255
	lengthEnabled bool
	volCode       uint8 // NR32 bits 6-5
	periodLatch   uint16

	triggeredAt uint64
}

// noiseChannel is CH4's derived state. Its LFSR is genuinely stateful:
// lfsr/stepsDone track how far the shift register has been advanced so
// far, caught up to the current sample on every next() call.
type noiseChannel struct {
	enabled    bool
	dacEnabled bool
	muted      bool
	left, right bool

	lengthInit    uint8 // NR41 bits 5-0, 0-63
	lengthEnabled bool

	initialVolume uint8
	envelopeUp    bool
	envelopePace  uint8

	shift       uint8
	narrow      bool
	divisorCode uint8

	triggeredAt uint64
	lfsr        uint16
	stepsDone   uint64
}

var noiseDivisors = [8]float64{0.5, 1, 2, 3, 4, 5, 6, 7}

// dutyTables holds the four duty-cycle waveforms at 32 entries each: the
// classic 8-step patterns (12.5%, 25%, 50%, 75% duty) upsampled 4x to
// match the sample-index formula's 32-entry indexing.
var dutyTables = buildDutyTables()

func buildDutyTables() [4][dutyTableLen]uint8 {
	base := [4][8]uint8{
		{0, 0, 0, 0, 0, 0, 0, 1},
		{1, 0, 0, 0, 0, 0, 0, 1},
		{1, 0, 0, 0, 0, 1, 1, 1},
		{0, 1, 1, 1, 1, 1, 1, 0},
	}
	var tables [4][dutyTableLen]uint8
	for d := range base {
		for i := 0; i < dutyTableLen; i++ {
			tables[d][i] = base[d][i/4]
		}
	}
	return tables
}

func New() *APU {
	return &APU{}
}

// Tick advances the APU by cycles T-cycles, producing one stereo frame
// into pcmBuffer for every cyclesPerSample elapsed, per spec.
func (a *APU) Tick(cycles int) {
	if !a.enabled {
		return
	}

	a.accumCycles += cycles
	for a.accumCycles >= cyclesPerSample {
		a.accumCycles -= cyclesPerSample
		left, right := a.mixOneFrame()
		a.pcmBuffer = append(a.pcmBuffer, left, right)
		a.sampleIndex++
	}
}

// mixOneFrame synthesizes and pans one stereo sample: each enabled
// channel contributes at most one sample, weighted 1/4, to whichever
// ear(s) it's routed to, then each ear is scaled by its own NR50 master
// volume. The result is clamped to the conventional [-1,1] f32 range a
// sink expects, since the per-channel envelope/volume formulas can
// overshoot it when several channels stack.
func (a *APU) mixOneFrame() (float32, float32) {
	var left, right float64

	if s, ok := a.ch1.next(a.sampleIndex); ok {
		if a.ch1.left {
			left += s * 0.25
		}
		if a.ch1.right {
			right += s * 0.25
		}
	}
	if s, ok := a.ch2.next(a.sampleIndex); ok {
		if a.ch2.left {
			left += s * 0.25
		}
		if a.ch2.right {
			right += s * 0.25
		}
	}
	if s, ok := a.ch3.next(a.sampleIndex, &a.waveTable); ok {
		if a.ch3.left {
			left += s * 0.25
		}
		if a.ch3.right {
			right += s * 0.25
		}
	}
	if s, ok := a.ch4.next(a.sampleIndex); ok {
		if a.ch4.left {
			left += s * 0.25
		}
		if a.ch4.right {
			right += s * 0.25
		}
	}

	left *= float64(a.volLeft+1) / 8.0
	right *= float64(a.volRight+1) / 8.0

	return float32(clampF(left, -1, 1)), float32(clampF(right, -1, 1))
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// next synthesizes one sample for a pulse channel directly from elapsed
// time since trigger, per spec's pulse-channel formulas: length gate,
// period sweep, envelope, duty sampling.
func (ch *pulseChannel) next(sampleIndex uint64) (float64, bool) {
	if !ch.enabled || !ch.dacEnabled || ch.muted {
		return 0, false
	}

	n := sampleIndex - ch.triggeredAt
	if ch.lengthEnabled {
		threshold := uint64(SampleRate) * uint64(64-ch.lengthInit) / 256
		if n > threshold {
			ch.enabled = false
			return 0, false
		}
	}

	period := float64(ch.periodLatch)
	if ch.hasSweep && ch.sweepPace > 0 {
		elapsedMs := float64(n) * 1000 / float64(SampleRate)
		i := math.Floor(elapsedMs / 8 / float64(ch.sweepPace))
		sign := 1.0
		if ch.sweepDown {
			sign = -1
		}
		factor := math.Pow(1+sign*math.Pow(2, -float64(ch.sweepSlope)), i)
		period = 2048 - (2048-float64(ch.periodLatch))*factor
	}
	if period <= 0 || period > 2047 {
		return 0, false
	}

	t := float64(n) / float64(SampleRate)
	volume := envelopeVolume(float64(ch.initialVolume), ch.envelopeUp, ch.envelopePace, t)

	idx := dutySampleIndex(n, period)
	raw := dutyTables[ch.dutyIndex&0x3][idx]
	sample := float64(raw)*2 - 1

	return sample * (volume / 32), true
}

// next synthesizes one sample for the wave channel: same length-gate and
// sample-index shape as a pulse channel, but no sweep/envelope and the
// user-programmed wave table in place of a duty pattern.
func (ch *waveChannel) next(sampleIndex uint64, table *[waveTableLen]uint8) (float64, bool) {
	if !ch.enabled || !ch.dacEnabled || ch.muted {
		return 0, false
	}

	n := sampleIndex - ch.triggeredAt
	if ch.lengthEnabled {
		threshold := uint64(SampleRate) * uint64(256-ch.lengthInit) / 256
		if n > threshold {
			ch.enabled = false
			return 0, false
		}
	}

	period := float64(ch.periodLatch)
	if period <= 0 {
		return 0, false
	}

	var volume float64
	switch ch.volCode {
	case 1:
		volume = float64(0xF)
	case 2:
		volume = float64(0xF >> 1)
	case 3:
		volume = float64(0xF >> 2)
	default:
		volume = 0
	}
	if volume == 0 {
		return 0, false
	}

	idx := dutySampleIndex(n, period)
	raw := table[idx]
	sample := float64(raw)/15*2 - 1

	return sample * (volume / 32), true
}

// next synthesizes one sample for the noise channel. Period/envelope are
// closed-form like the other channels, but the LFSR's bit history can't
// be, so it's advanced incrementally to whatever step count n implies.
func (ch *noiseChannel) next(sampleIndex uint64) (float64, bool) {
	if !ch.enabled || !ch.dacEnabled || ch.muted {
		return 0, false
	}

	n := sampleIndex - ch.triggeredAt
	if ch.lengthEnabled {
		threshold := uint64(SampleRate) * uint64(64-ch.lengthInit) / 256
		if n > threshold {
			ch.enabled = false
			return 0, false
		}
	}

	stepFreq := 262144.0 / (noiseDivisors[ch.divisorCode&0x7] * math.Pow(2, float64(ch.shift+1)))
	stepsElapsed := uint64(float64(n) * stepFreq / float64(SampleRate))
	for ch.stepsDone < stepsElapsed {
		bit0 := ch.lfsr & 1
		bit1 := (ch.lfsr >> 1) & 1
		feedback := bit0 ^ bit1
		ch.lfsr = (ch.lfsr >> 1) | (feedback << 14)
		if ch.narrow {
			ch.lfsr = (ch.lfsr &^ (1 << 6)) | (feedback << 6)
		}
		ch.stepsDone++
	}

	t := float64(n) / float64(SampleRate)
	volume := envelopeVolume(float64(ch.initialVolume), ch.envelopeUp, ch.envelopePace, t)

	sample := 1.0
	if ch.lfsr&1 == 1 {
		sample = -1
	}

	return sample * (volume / 32), true
}

// envelopeVolume implements spec's envelope formula:
// clamp(initial + direction·t·64/pace, 0, 16). pace==0 disables the
// envelope entirely (the initial volume never moves), matching real
// hardware's treatment of a zero sweep pace.
func envelopeVolume(initial float64, up bool, pace uint8, t float64) float64 {
	if pace == 0 {
		return clampF(initial, 0, 16)
	}
	dir := 1.0
	if !up {
		dir = -1
	}
	return clampF(initial+dir*t*64/float64(pace), 0, 16)
}

// dutySampleIndex implements spec's duty/wave sample-index formula:
// ((8·32768/SR)·n/period·16) mod 32.
func dutySampleIndex(n uint64, period float64) int {
	v := (8 * 32768 / float64(SampleRate)) * float64(n) / period * 16
	idx := int(math.Mod(v, dutyTableLen))
	if idx < 0 {
		idx += dutyTableLen
	}
	return idx
}

func (a *APU) unpackWaveRAM() {
	for i := 0; i < waveRAMSize; i++ {
		a.waveTable[i*2] = a.waveRAM[i] >> 4
		a.waveTable[i*2+1] = a.waveRAM[i] & 0x0F
	}
}

// Read returns a masked register value: write-only and unused bits read
// back as 1.
func (a *APU) Read(address uint16) uint8 {
	switch address {
	case addr.NR10:
		return a.nr10 | 0b1000_0000
	case addr.NR11:
		return a.nr11 | 0b0011_1111
	case addr.NR12:
		return a.nr12
	case addr.NR13:
		return 0xFF
	case addr.NR14:
		return a.nr14 | 0b1011_1111
	case addr.NR21:
		return a.nr21 | 0b0011_1111
	case addr.NR22:
		return a.nr22
	case addr.NR23:
		return 0xFF
	case addr.NR24:
		return a.nr24 | 0b1011_1111
	case addr.NR30:
		return a.nr30 | 0b0111_1111
	case addr.NR31:
		return 0xFF
	case addr.NR32:
		return a.nr32 | 0b1001_1111
	case addr.NR33:
		return 0xFF
	case addr.NR34:
		return a.nr34 | 0b1011_1111
	case addr.NR41:
		return 0xFF
	case addr.NR42:
		return a.nr42
	case addr.NR43:
		return a.nr43
	case addr.NR44:
		return a.nr44 | 0b1011_1111
	case addr.NR50:
		return a.nr50
	case addr.NR51:
		return a.nr51
	case addr.NR52:
		status := uint8(0b0111_0000)
		if a.enabled {
			status = bit.Set(7, status)
		}
		if a.ch1.enabled {
			status = bit.Set(0, status)
		}
		if a.ch2.enabled {
			status = bit.Set(1, status)
		}
		if a.ch3.enabled {
			status = bit.Set(2, status)
		}
		if a.ch4.enabled {
			status = bit.Set(3, status)
		}
		return status
	}
	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		return a.waveRAM[address-addr.WaveRAMStart]
	}
	return 0xFF
}

// Write stores a register/Wave RAM value, then recomputes every
// channel's derived synthesis state from the whole register file.
func (a *APU) Write(address uint16, value uint8) {
	isInWaveRAM := address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd

	if !a.enabled && address != addr.NR52 && !isInWaveRAM {
		return
	}

	switch address {
	case addr.NR10:
		a.nr10 = value
	case addr.NR11:
		a.nr11 = value
	case addr.NR12:
		a.nr12 = value
	case addr.NR13:
		a.nr13 = value
	case addr.NR14:
		a.nr14 = value
	case addr.NR21:
		a.nr21 = value
	case addr.NR22:
		a.nr22 = value
	case addr.NR23:
		a.nr23 = value
	case addr.NR24:
		a.nr24 = value
	case addr.NR30:
		a.nr30 = value
	case addr.NR31:
		a.nr31 = value
	case addr.NR32:
		a.nr32 = value
	case addr.NR33:
		a.nr33 = value
	case addr.NR34:
		a.nr34 = value
	case addr.NR41:
		a.nr41 = value
	case addr.NR42:
		a.nr42 = value
	case addr.NR43:
		a.nr43 = value
	case addr.NR44:
		a.nr44 = value
	case addr.NR50:
		a.nr50 = value
	case addr.NR51:
		a.nr51 = value
	case addr.NR52:
		a.nr52 = value
	}

	if isInWaveRAM {
		a.waveRAM[address-addr.WaveRAMStart] = value
		a.unpackWaveRAM()
	}

	a.mapRegistersToState()
}

func (a *APU) mapRegistersToState() {
	a.enabled = bit.IsSet(7, a.nr52)

	if !a.enabled {
		a.nr10, a.nr11, a.nr12, a.nr13, a.nr14 = 0, 0, 0, 0, 0
		a.nr21, a.nr22, a.nr23, a.nr24 = 0, 0, 0, 0
		a.nr30, a.nr31, a.nr32, a.nr33, a.nr34 = 0, 0, 0, 0, 0
		a.nr41, a.nr42, a.nr43, a.nr44 = 0, 0, 0, 0
		a.nr50, a.nr51 = 0, 0
		a.ch1.enabled, a.ch2.enabled, a.ch3.enabled, a.ch4.enabled = false, false, false, false
	}

	a.ch1.left, a.ch2.left, a.ch3.left, a.ch4.left = bit.IsSet(4, a.nr51), bit.IsSet(5, a.nr51), bit.IsSet(6, a.nr51), bit.IsSet(7, a.nr51)
	a.ch1.right, a.ch2.right, a.ch3.right, a.ch4.right = bit.IsSet(0, a.nr51), bit.IsSet(1, a.nr51), bit.IsSet(2, a.nr51), bit.IsSet(3, a.nr51)

	a.vinLeft, a.vinRight = bit.IsSet(7, a.nr50), bit.IsSet(3, a.nr50)
	a.volLeft, a.volRight = bit.ExtractBits(a.nr50, 6, 4), bit.ExtractBits(a.nr50, 2, 0)

	a.mapChannel1()
	a.mapChannel2()
	a.mapChannel3()
	a.mapChannel4()
}

func (a *APU) mapChannel1() {
	ch := &a.ch1
	ch.hasSweep = true
	ch.sweepPace = bit.ExtractBits(a.nr10, 6, 4)
	ch.sweepDown = bit.IsSet(3, a.nr10)
	ch.sweepSlope = bit.ExtractBits(a.nr10, 2, 0)

	ch.dutyIndex = bit.ExtractBits(a.nr11, 7, 6)
	ch.lengthInit = bit.ExtractBits(a.nr11, 5, 0)

	ch.initialVolume = bit.ExtractBits(a.nr12, 7, 4)
	ch.envelopeUp = bit.IsSet(3, a.nr12)
	ch.envelopePace = bit.ExtractBits(a.nr12, 2, 0)
	ch.dacEnabled = ch.initialVolume > 0 || ch.envelopeUp

	ch.periodLatch = bit.Combine(a.nr14&0b111, a.nr13)
	ch.lengthEnabled = bit.IsSet(6, a.nr14)

	if bit.IsSet(7, a.nr14) {
		if ch.dacEnabled {
			ch.enabled = true
		}
		ch.triggeredAt = a.sampleIndex
		a.nr14 = bit.Reset(7, a.nr14)
	}
	if !ch.dacEnabled {
		ch.enabled = false
	}
}

func (a *APU) mapChannel2() {
	ch := &a.ch2
	ch.hasSweep = false

	ch.dutyIndex = bit.ExtractBits(a.nr21, 7, 6)
	ch.lengthInit = bit.ExtractBits(a.nr21, 5, 0)

	ch.initialVolume = bit.ExtractBits(a.nr22, 7, 4)
	ch.envelopeUp = bit.IsSet(3, a.nr22)
	ch.envelopePace = bit.ExtractBits(a.nr22, 2, 0)
	ch.dacEnabled = ch.initialVolume > 0 || ch.envelopeUp

	ch.periodLatch = bit.Combine(a.nr24&0b111, a.nr23)
	ch.lengthEnabled = bit.IsSet(6, a.nr24)

	if bit.IsSet(7, a.nr24) {
		if ch.dacEnabled {
			ch.enabled = true
		}
		ch.triggeredAt = a.sampleIndex
		a.nr24 = bit.Reset(7, a.nr24)
	}
	if !ch.dacEnabled {
		ch.enabled = false
	}
}

func (a *APU) mapChannel3() {
	ch := &a.ch3

	ch.dacEnabled = bit.IsSet(7, a.nr30)
	ch.lengthInit = uint16(a.nr31)
	ch.volCode = bit.ExtractBits(a.nr32, 6, 5)
	ch.periodLatch = bit.Combine(a.nr34&0b111, a.nr33)
	ch.lengthEnabled = bit.IsSet(6, a.nr34)

	if bit.IsSet(7, a.nr34) {
		if ch.dacEnabled {
			ch.enabled = true
		}
		ch.triggeredAt = a.sampleIndex
		a.nr34 = bit.Reset(7, a.nr34)
	}
	if !ch.dacEnabled {
		ch.enabled = false
	}
}

func (a *APU) mapChannel4() {
	ch := &a.ch4

	ch.lengthInit = bit.ExtractBits(a.nr41, 5, 0)

	ch.initialVolume = bit.ExtractBits(a.nr42, 7, 4)
	ch.envelopeUp = bit.IsSet(3, a.nr42)
	ch.envelopePace = bit.ExtractBits(a.nr42, 2, 0)
	ch.dacEnabled = ch.initialVolume > 0 || ch.envelopeUp

	ch.shift = bit.ExtractBits(a.nr43, 7, 4)
	ch.narrow = bit.IsSet(3, a.nr43)
	ch.divisorCode = bit.ExtractBits(a.nr43, 2, 0)

	ch.lengthEnabled = bit.IsSet(6, a.nr44)

	if bit.IsSet(7, a.nr44) {
		if ch.dacEnabled {
			ch.enabled = true
		}
		ch.triggeredAt = a.sampleIndex
		ch.lfsr = 0x7FFF
		ch.stepsDone = 0
		a.nr44 = bit.Reset(7, a.nr44)
	}
	if !ch.dacEnabled {
		ch.enabled = false
	}
}

// GetSamples returns count interleaved stereo f32 frames, synthesized
// lazily by Tick and buffered until drained, per spec's "accepts
// interleaved stereo f32 samples at 65,536 Hz" audio sink contract.
func (a *APU) GetSamples(count int) []float32 {
	if count <= 0 {
		return nil
	}

	needed := count * 2
	available := len(a.pcmBuffer) - a.pcmCursor
	if available <= 0 {
		return make([]float32, needed)
	}

	out := make([]float32, needed)
	toCopy := available
	if needed < toCopy {
		toCopy = needed
	}
	copy(out, a.pcmBuffer[a.pcmCursor:a.pcmCursor+toCopy])
	a.pcmCursor += toCopy

	if a.pcmCursor >= len(a.pcmBuffer) {
		a.pcmBuffer = a.pcmBuffer[:0]
		a.pcmCursor = 0
	}

	return out
}

// ToggleChannel mutes/unmutes one channel, numbered 1-4.
func (a *APU) ToggleChannel(channel int) {
	switch channel {
	case 1:
		a.ch1.muted = !a.ch1.muted
	case 2:
		a.ch2.muted = !a.ch2.muted
	case 3:
		a.ch3.muted = !a.ch3.muted
	case 4:
		a.ch4.muted = !a.ch4.muted
	}
}

// SoloChannel mutes every channel but the one given (numbered 1-4).
// Calling it again with the same already-soloed channel clears every
// mute flag instead, toggling solo off.
func (a *APU) SoloChannel(channel int) {
	if channel < 1 || channel > 4 {
		return
	}

	muted := [5]bool{false, a.ch1.muted, a.ch2.muted, a.ch3.muted, a.ch4.muted}
	alreadySoloed := !muted[channel]
	for i := 1; i <= 4; i++ {
		if i != channel && !muted[i] {
			alreadySoloed = false
		}
	}
	if alreadySoloed {
		a.ch1.muted, a.ch2.muted, a.ch3.muted, a.ch4.muted = false, false, false, false
		return
	}

	a.ch1.muted = channel != 1
	a.ch2.muted = channel != 2
	a.ch3.muted = channel != 3
	a.ch4.muted = channel != 4
}

func (a *APU) GetChannelStatus() (bool, bool, bool, bool) {
	return a.ch1.enabled, a.ch2.enabled, a.ch3.enabled, a.ch4.enabled
}
