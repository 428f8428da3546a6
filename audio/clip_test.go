package audio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMP3ClipDecodesFullDuration(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "silence.mp3"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	streamer, format, err := NewMP3Clip(data).Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	defer streamer.Close()

	if format.SampleRate != 44100 {
		t.Fatalf("sample rate = %v, want 44100", format.SampleRate)
	}

	var total int
	buf := make([][2]float64, 512)
	for {
		n, ok := streamer.Stream(buf)
		total += n
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		t.Fatalf("stream: %v", err)
	}

	// The fixture holds 3 MPEG-1 Layer III frames of 1152 samples
	// each; anything less means the tail was truncated.
	if want := 3 * 1152; total != want {
		t.Fatalf("streamed %d samples, want %d", total, want)
	}
}

func TestMP3ClipRejectsGarbage(t *testing.T) {
	if _, _, err := NewMP3Clip([]byte("not an mp3 payload")).Decode(); err == nil {
		t.Fatal("garbage buffer decoded")
	}
}
