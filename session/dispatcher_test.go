package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/room4-2/OpenCompanion/audio"
	"github.com/room4-2/OpenCompanion/frames"
)

// scriptedConn replays a fixed sequence of frames, then a final error.
type scriptedConn struct {
	script []frames.Frame
	final  error
}

func (c *scriptedConn) ReadFrame() (frames.Frame, error) {
	if len(c.script) == 0 {
		return nil, c.final
	}
	f := c.script[0]
	c.script = c.script[1:]
	return f, nil
}

// eventLog records dispatcher side effects in the order they happen,
// shared between the fake player and the fake console.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type logPlayer struct {
	log *eventLog
}

func (p *logPlayer) Enqueue(*audio.Clip) { p.log.add("enqueue") }
func (p *logPlayer) Stop()               { p.log.add("stop") }

type logWriter struct {
	log *eventLog
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.log.add("write:" + string(p))
	return len(p), nil
}

func newDispatcher(conn *scriptedConn, log *eventLog) *Dispatcher {
	return &Dispatcher{
		Conn:      conn,
		Player:    &logPlayer{log: log},
		Out:       &logWriter{log: log},
		SessionID: "test-session",
	}
}

func printed(log *eventLog) string {
	var b strings.Builder
	for _, e := range log.all() {
		if s, ok := strings.CutPrefix(e, "write:"); ok {
			b.WriteString(s)
		}
	}
	return b.String()
}

func TestTurnEndPromptsOnce(t *testing.T) {
	conn := &scriptedConn{
		script: []frames.Frame{
			frames.Text{Content: "Hello "},
			frames.Text{Content: "there."},
			frames.Control{Tag: frames.TurnEnd},
		},
		final: io.EOF,
	}
	log := &eventLog{}
	d := newDispatcher(conn, log)

	if err := d.Run(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("Run returned %v, want io.EOF", err)
	}

	out := printed(log)
	if want := "Hello there.\nYou: "; out != want {
		t.Fatalf("printed %q, want %q", out, want)
	}
	if strings.Contains(out, frames.TurnEndMarker) {
		t.Fatalf("turn end marker leaked to output: %q", out)
	}
	if got := strings.Count(out, "You: "); got != 1 {
		t.Fatalf("prompt printed %d times, want 1", got)
	}
}

func TestInterruptStopsPlaybackBeforeDisplay(t *testing.T) {
	conn := &scriptedConn{
		script: []frames.Frame{
			frames.Audio{Data: []byte{0x01}},
			frames.Control{Tag: frames.Interrupt, Payload: "Done talking"},
		},
		final: io.EOF,
	}
	log := &eventLog{}
	d := newDispatcher(conn, log)

	if err := d.Run(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("Run returned %v, want io.EOF", err)
	}

	events := log.all()
	stop, display := -1, -1
	for i, e := range events {
		switch {
		case e == "stop":
			stop = i
		case strings.Contains(e, "Done talking"):
			display = i
		}
	}
	if stop < 0 {
		t.Fatalf("playback never stopped: %v", events)
	}
	if display < 0 {
		t.Fatalf("interrupt text never displayed: %v", events)
	}
	if stop > display {
		t.Fatalf("text displayed before playback stopped: %v", events)
	}
	if out := printed(log); strings.Contains(out, frames.InterruptPrefix) {
		t.Fatalf("interrupt prefix leaked to output: %q", out)
	}
}

func TestFramesDispatchedInArrivalOrder(t *testing.T) {
	conn := &scriptedConn{
		script: []frames.Frame{
			frames.Text{Content: "a"},
			frames.Audio{Data: []byte{0x01}},
			frames.Text{Content: "b"},
			frames.Audio{Data: []byte{0x02}},
		},
		final: io.EOF,
	}
	log := &eventLog{}
	d := newDispatcher(conn, log)

	if err := d.Run(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("Run returned %v, want io.EOF", err)
	}

	want := []string{"write:a", "enqueue", "write:b", "enqueue"}
	got := log.all()
	if len(got) != len(want) {
		t.Fatalf("events %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events %v, want %v", got, want)
		}
	}
}

func TestProtocolViolationIsFatal(t *testing.T) {
	conn := &scriptedConn{
		final: fmt.Errorf("%w: unexpected frame type 9", frames.ErrProtocol),
	}
	log := &eventLog{}
	d := newDispatcher(conn, log)

	if err := d.Run(context.Background()); !errors.Is(err, frames.ErrProtocol) {
		t.Fatalf("Run returned %v, want protocol error", err)
	}
}

func TestConnectionClosureTerminates(t *testing.T) {
	closed := errors.New("use of closed network connection")
	conn := &scriptedConn{
		script: []frames.Frame{frames.Text{Content: "partial"}},
		final:  closed,
	}
	log := &eventLog{}
	d := newDispatcher(conn, log)

	if err := d.Run(context.Background()); !errors.Is(err, closed) {
		t.Fatalf("Run returned %v, want wrapped closure error", err)
	}
}
