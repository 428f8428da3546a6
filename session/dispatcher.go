package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/room4-2/OpenCompanion/audio"
	"github.com/room4-2/OpenCompanion/frames"
	"github.com/room4-2/OpenCompanion/history"
)

// FrameReader is the receive side of the connection.
type FrameReader interface {
	ReadFrame() (frames.Frame, error)
}

// Player is the playback boundary the dispatcher drives.
type Player interface {
	// Enqueue never blocks on playback.
	Enqueue(clip *audio.Clip)
	// Stop blocks until in-flight audio is silenced.
	Stop()
}

// Dispatcher classifies inbound frames and routes them to the console
// or the playback queue, strictly in arrival order.
type Dispatcher struct {
	Conn      FrameReader
	Player    Player
	Out       io.Writer
	History   *history.Store
	SessionID string

	turn strings.Builder // companion text accumulated since last turn end
}

// Run dispatches until the connection yields an error, an unexpected
// closure, or a protocol violation. All three are connection-fatal.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		frame, err := d.Conn.ReadFrame()
		if err != nil {
			if errors.Is(err, frames.ErrProtocol) {
				log.Printf("dispatcher: %v", err)
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("receive: %w", err)
		}
		d.dispatch(ctx, frame)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, frame frames.Frame) {
	switch f := frame.(type) {
	case frames.Control:
		switch f.Tag {
		case frames.TurnEnd:
			d.recordTurn(ctx)
			fmt.Fprint(d.Out, "\nYou: ")
		case frames.Interrupt:
			// Silence in-flight audio before showing the superseding
			// text, so the operator never hears stale audio over it.
			d.Player.Stop()
			fmt.Fprintln(d.Out, f.Payload)
			d.turn.WriteString(f.Payload)
			d.recordTurn(ctx)
		}

	case frames.Text:
		// Incremental streaming display, no forced newline.
		fmt.Fprint(d.Out, f.Content)
		d.turn.WriteString(f.Content)

	case frames.Audio:
		d.Player.Enqueue(audio.NewMP3Clip(f.Data))
	}
}

func (d *Dispatcher) recordTurn(ctx context.Context) {
	if d.turn.Len() == 0 {
		return
	}
	d.History.Record(ctx, d.SessionID, history.Entry{
		Role: history.RoleCompanion,
		Text: d.turn.String(),
		At:   time.Now(),
	})
	d.turn.Reset()
}
