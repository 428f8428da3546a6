// Package audio is the boundary to the audio codec and the output
// device. Decoding and device output are external collaborators; the
// rest of the client only sees Clip and Output.
package audio

import (
	"bytes"
	"io"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
)

// Clip is a playback-ready audio buffer. Decoding is deferred until the
// playback worker asks for the stream, so a corrupt buffer surfaces
// there and can be skipped without disturbing the receive path.
type Clip struct {
	decode func() (beep.StreamSeekCloser, beep.Format, error)
}

// NewClip wraps an arbitrary decode step.
func NewClip(decode func() (beep.StreamSeekCloser, beep.Format, error)) *Clip {
	return &Clip{decode: decode}
}

// NewMP3Clip wraps a compressed MP3 payload received off the wire.
func NewMP3Clip(data []byte) *Clip {
	return NewClip(func() (beep.StreamSeekCloser, beep.Format, error) {
		return mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	})
}

// NewStreamClip wraps an already decoded stream. Useful for other
// codecs and for tests.
func NewStreamClip(s beep.StreamSeekCloser, format beep.Format) *Clip {
	return NewClip(func() (beep.StreamSeekCloser, beep.Format, error) {
		return s, format, nil
	})
}

// Decode produces the playable stream for this clip.
func (c *Clip) Decode() (beep.StreamSeekCloser, beep.Format, error) {
	return c.decode()
}
