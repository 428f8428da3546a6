package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/room4-2/OpenCompanion/history"
)

// produceAudio runs capture cycles until the session is cancelled.
// Each blocking capture call is offloaded to the bounded pool so at
// most three capture operations are ever in flight.
func (s *Session) produceAudio(ctx context.Context) error {
	for {
		fmt.Fprint(s.out, "[*]") // listening
		data, err := s.pool.Do(ctx, func() ([]byte, error) {
			return s.rec.Listen(ctx)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("capture: %w", err)
		}
		fmt.Fprint(s.out, "[-]") // done listening

		// A cycle that heard nothing produces no frame.
		if len(data) > 0 {
			if err := s.conn.SendAudio(data); err != nil {
				return fmt.Errorf("send audio: %w", err)
			}
		}

		// Politeness interval before the next capture cycle.
		select {
		case <-time.After(s.pause):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// produceText forwards operator lines until end-of-input or
// cancellation. A background reader feeds the channel so the loop
// suspends instead of busy-waiting on stdin.
func (s *Session) produceText(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		// Scan has no cancellation path for stdin; after the session
		// ends this goroutine stays parked until the process exits.
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
			return
		}
		readErr <- io.EOF
	}()

	fmt.Fprint(s.out, "You: ")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			// End of input terminates the session.
			return fmt.Errorf("input closed: %w", err)
		case line := <-lines:
			if err := s.conn.SendText(line); err != nil {
				return fmt.Errorf("send text: %w", err)
			}
			s.hist.Record(ctx, s.ID, history.Entry{
				Role: history.RoleOperator,
				Text: line,
				At:   time.Now(),
			})
		}
	}
}
