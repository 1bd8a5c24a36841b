package audio

// Reference: https://gbdev.io/pandocs/Audio_details.html
const (
	// SampleRate is the APU's native output rate: 2,097,152/32 = 65,536
	// frames per second, where 2,097,152 Hz is the APU's own clock (half
	// the 4,194,304 Hz CPU clock; the DIV-APU line that drives the frame
	// sequencer and sample timing ticks on the CPU clock's falling edge).
	SampleRate = 65536

	// cyclesPerSample is how many T-cycles (at the 4,194,304 Hz CPU clock
	// this package's Tick is driven from) separate two output frames:
	// 4,194,304/65,536 = 64, i.e. 32 APU-clock cycles.
	cyclesPerSample = 64
)

const (
	// waveRAMSize is wave pattern RAM's size in bytes (16 bytes = 32 nibbles).
	waveRAMSize = 16

	// waveTableLen is wave RAM unpacked to one nibble per entry.
	waveTableLen = 32

	// dutyTableLen is the duty-cycle lookup table length the pulse
	// channels share with the wave channel's sample indexing formula.
	dutyTableLen = 32
)
