package audio

// Provider is the playback-facing view of the APU: interleaved stereo f32
// samples at SampleRate (65,536 Hz) plus the debug channel controls the
// terminal/sdl2 backends expose to a developer.
type Provider interface {
	GetSamples(count int) []float32

	ToggleChannel(channel int)
	SoloChannel(channel int)
	GetChannelStatus() (ch1, ch2, ch3, ch4 bool)
}

var _ Provider = (*APU)(nil)
