package frames

import (
	"errors"
	"strings"

	"github.com/gorilla/websocket"
)

// Reserved text markers. These are part of the wire contract with the
// companion server and must match bit-for-bit.
const (
	// TurnEndMarker signals that the companion finished its reply and
	// the operator may speak or type again.
	TurnEndMarker = "[end]\n"
	// InterruptPrefix marks a frame whose remainder supersedes any
	// audio that is still playing.
	InterruptPrefix = "[+]"
)

// ErrProtocol is returned for inbound frames that are neither
// recognized text nor binary.
var ErrProtocol = errors.New("protocol violation: unsupported frame type")

// ControlTag identifies the reserved control markers.
type ControlTag int

const (
	// TurnEnd corresponds to TurnEndMarker.
	TurnEnd ControlTag = iota
	// Interrupt corresponds to InterruptPrefix.
	Interrupt
)

// Frame is one discrete unit of communication over the connection.
// Exactly one of Text, Control and Audio is produced per wire message.
type Frame interface {
	frame()
}

// Text is a displayable text frame, streamed incrementally (content is
// printed with no trailing line terminator).
type Text struct {
	Content string
}

// Control is a text frame that begins with a reserved marker. It
// changes client behavior instead of being displayed; for Interrupt the
// Payload holds the displayable remainder after the prefix.
type Control struct {
	Tag     ControlTag
	Payload string
}

// Audio is a binary frame carrying compressed (MP3) audio payload.
type Audio struct {
	Data []byte
}

func (Text) frame()    {}
func (Control) frame() {}
func (Audio) frame()   {}

// Classify maps a raw websocket message onto exactly one frame kind.
// Frame kind is determined solely by the wire message type plus, for
// text, the reserved-prefix check — this is the only place that
// inspects raw markers.
func Classify(messageType int, data []byte) (Frame, error) {
	switch messageType {
	case websocket.TextMessage:
		s := string(data)
		if s == TurnEndMarker {
			return Control{Tag: TurnEnd}, nil
		}
		if rest, ok := strings.CutPrefix(s, InterruptPrefix); ok {
			return Control{Tag: Interrupt, Payload: rest}, nil
		}
		return Text{Content: s}, nil

	case websocket.BinaryMessage:
		return Audio{Data: data}, nil

	default:
		return nil, ErrProtocol
	}
}
