// Package session owns one duplex conversation with the companion
// server: a single producer (microphone capture or typed text), the
// inbound frame dispatcher, and their shared teardown.
package session

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/room4-2/OpenCompanion/capture"
	"github.com/room4-2/OpenCompanion/history"
)

// Mode selects the single producer for a session. It is chosen once,
// during the handshake, and never changes afterwards.
type Mode int

const (
	ModeText Mode = iota
	ModeAudio
)

// ModeFromSelection maps the wire mode selection onto a Mode: the
// literal "a" selects audio, any other value selects text.
func ModeFromSelection(selection string) Mode {
	if selection == "a" {
		return ModeAudio
	}
	return ModeText
}

// Conn is the duplex connection boundary. The receive direction is
// used only by the dispatcher and the send direction only by the
// producer, so the two never race on the connection.
type Conn interface {
	FrameReader
	SendText(content string) error
	SendAudio(data []byte) error
	Close() error
}

const defaultCapturePause = 2 * time.Second

// Session is one active conversation over one connection.
type Session struct {
	ID        string
	Companion string
	Mode      Mode

	conn   Conn
	player Player
	rec    capture.Recorder
	pool   *capture.Pool
	hist   *history.Store
	in     io.Reader
	out    io.Writer
	pause  time.Duration
}

// Options carries the session collaborators. Recorder is required for
// ModeAudio only; History may be nil (transcripts are then skipped).
type Options struct {
	Recorder capture.Recorder
	Pool     *capture.Pool
	History  *history.Store
	Input    io.Reader
	Output   io.Writer
	Pause    time.Duration
}

func New(id, companion string, mode Mode, conn Conn, player Player, opts Options) *Session {
	if opts.Pool == nil {
		opts.Pool = capture.NewPool(capture.DefaultPoolSize)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Pause <= 0 {
		opts.Pause = defaultCapturePause
	}
	return &Session{
		ID:        id,
		Companion: companion,
		Mode:      mode,
		conn:      conn,
		player:    player,
		rec:       opts.Recorder,
		pool:      opts.Pool,
		hist:      opts.History,
		in:        opts.Input,
		out:       opts.Output,
		pause:     opts.Pause,
	}
}

// Run starts the producer chosen by the mode and the dispatcher
// concurrently against the shared connection, and returns once both
// have terminated. The first task to finish, with or without an error,
// cancels the other; teardown is always awaited, never abandoned.
// Operator cancellation of ctx follows the same path and is not
// reported as an error.
func (s *Session) Run(ctx context.Context) error {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A blocked websocket read does not observe ctx; closing the
	// connection is what unblocks it.
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	dispatcher := &Dispatcher{
		Conn:      s.conn,
		Player:    s.player,
		Out:       s.out,
		History:   s.hist,
		SessionID: s.ID,
	}

	errc := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		errc <- dispatcher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		switch s.Mode {
		case ModeAudio:
			errc <- s.produceAudio(ctx)
		default:
			errc <- s.produceText(ctx)
		}
	}()

	err := <-errc
	cancel()
	wg.Wait()

	// Nothing may keep sounding once the session is gone.
	s.player.Stop()

	if parent.Err() != nil {
		// Controlled shutdown requested by the operator.
		return nil
	}
	return err
}
