package audio

import (
	"fmt"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Output is the playback device boundary.
type Output interface {
	// Play starts the streamer, which was decoded at the given source
	// sample rate, and returns a channel that is closed once it has
	// finished sounding.
	Play(s beep.Streamer, rate beep.SampleRate) <-chan struct{}
	// Halt immediately silences whatever is sounding.
	Halt()
}

// Speaker plays streams on the default output device via beep.
type Speaker struct {
	rate beep.SampleRate
}

// NewSpeaker initializes the output device at the given sample rate.
// Streams decoded at other rates are resampled on the fly.
func NewSpeaker(sampleRate int) (*Speaker, error) {
	rate := beep.SampleRate(sampleRate)
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &Speaker{rate: rate}, nil
}

func (s *Speaker) Play(st beep.Streamer, rate beep.SampleRate) <-chan struct{} {
	if rate != s.rate {
		st = beep.Resample(4, rate, s.rate, st)
	}
	done := make(chan struct{})
	speaker.Play(beep.Seq(st, beep.Callback(func() { close(done) })))
	return done
}

// Halt clears the device mixer. Streamers removed this way never reach
// their completion callback, so callers must not rely on the Play
// channel after a Halt.
func (s *Speaker) Halt() {
	speaker.Clear()
}
