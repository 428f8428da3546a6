package capture

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// Initialize sets up the portaudio runtime. Call once before any
// device or stream operation; pair with Terminate.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("init portaudio: %w", err)
	}
	return nil
}

// Terminate releases the portaudio runtime.
func Terminate() error {
	return portaudio.Terminate()
}

// InputDevices lists devices that can capture audio.
func InputDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	inputs := make([]*portaudio.DeviceInfo, 0, len(devices))
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			inputs = append(inputs, dev)
		}
	}
	return inputs, nil
}

// PromptDevice prints the available input devices and reads the
// operator's choice. Invoked once per session, before capture starts.
func PromptDevice(in *bufio.Reader, out io.Writer) (*portaudio.DeviceInfo, error) {
	inputs, err := InputDevices()
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no input devices available")
	}

	fmt.Fprintln(out, "Available devices:")
	for i, dev := range inputs {
		fmt.Fprintf(out, "Device id %d - %s\n", i, dev.Name)
	}

	fmt.Fprint(out, "Please select device id: ")
	line, err := in.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read device selection: %w", err)
	}
	id, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || id < 0 || id >= len(inputs) {
		return nil, fmt.Errorf("invalid device id %q", strings.TrimSpace(line))
	}
	return inputs[id], nil
}
