package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Recorder performs one capture cycle: block until the operator stops
// speaking or the phrase time limit elapses, and return the raw
// little-endian PCM recorded so far.
type Recorder interface {
	Listen(ctx context.Context) ([]byte, error)
}

// Config tunes microphone capture.
type Config struct {
	SampleRate      int
	Channels        int
	PhraseTimeLimit time.Duration // hard bound on one capture cycle
	PauseThreshold  time.Duration // this much quiet ends the phrase
	CalibrateFor    time.Duration // ambient noise measurement window
}

// DefaultConfig mirrors the capture tuning the companion server
// expects: 44.1kHz mono, 30s phrase limit, 0.3s end-of-phrase pause.
func DefaultConfig() Config {
	return Config{
		SampleRate:      44100,
		Channels:        1,
		PhraseTimeLimit: 30 * time.Second,
		PauseThreshold:  300 * time.Millisecond,
		CalibrateFor:    2 * time.Second,
	}
}

const chunkFrames = 1024

// Mic records from a portaudio input device with simple energy-based
// endpointing: the noise floor is measured once at start, and a phrase
// ends after PauseThreshold of below-floor audio.
type Mic struct {
	stream *portaudio.Stream
	buf    []int16
	cfg    Config
	floor  float64
}

// NewMic opens and starts a capture stream on dev, then calibrates the
// ambient noise floor. Callers must have initialized portaudio.
func NewMic(dev *portaudio.DeviceInfo, cfg Config) (*Mic, error) {
	if cfg.SampleRate == 0 {
		cfg = DefaultConfig()
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = cfg.Channels
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = chunkFrames

	buf := make([]int16, chunkFrames*cfg.Channels)
	stream, err := portaudio.OpenStream(params, &buf)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start input stream: %w", err)
	}

	m := &Mic{stream: stream, buf: buf, cfg: cfg}
	if err := m.calibrate(); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

// calibrate measures the ambient energy level so speech can be told
// apart from background noise.
func (m *Mic) calibrate() error {
	var total float64
	var chunks int
	until := time.Now().Add(m.cfg.CalibrateFor)
	for time.Now().Before(until) {
		if err := m.stream.Read(); err != nil {
			return fmt.Errorf("calibrate: %w", err)
		}
		total += rms(m.buf)
		chunks++
	}
	if chunks == 0 {
		return fmt.Errorf("calibrate: no audio read")
	}
	// Speech has to clear the ambient floor with some margin.
	m.floor = (total / float64(chunks)) * 1.5
	return nil
}

// Listen implements Recorder. It records until PauseThreshold of quiet
// follows speech, or PhraseTimeLimit elapses, whichever comes first.
func (m *Mic) Listen(ctx context.Context) ([]byte, error) {
	chunkDur := time.Duration(chunkFrames) * time.Second / time.Duration(m.cfg.SampleRate)
	deadline := time.Now().Add(m.cfg.PhraseTimeLimit)

	var out []byte
	var quiet time.Duration
	voiced := false

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := m.stream.Read(); err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}

		if rms(m.buf) >= m.floor {
			voiced = true
			quiet = 0
		} else if voiced {
			quiet += chunkDur
		}

		if voiced {
			out = appendPCM(out, m.buf)
		}
		if voiced && quiet >= m.cfg.PauseThreshold {
			break
		}
	}
	return out, nil
}

// Close stops and releases the capture stream.
func (m *Mic) Close() error {
	if err := m.stream.Stop(); err != nil {
		m.stream.Close()
		return err
	}
	return m.stream.Close()
}

func rms(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func appendPCM(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}
