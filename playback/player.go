// Package playback serializes audio output on a single background
// worker, independent of the session's receive loop.
package playback

import (
	"log"
	"sync"

	"github.com/room4-2/OpenCompanion/audio"
)

// Player plays enqueued clips strictly in arrival order. Enqueue never
// blocks on playback; Stop halts the clip that is currently sounding
// and discards everything pending. At most one worker is ever active.
type Player struct {
	out audio.Output

	mu       sync.Mutex
	queue    []*audio.Clip
	running  bool
	stopping bool
	stopCh   chan struct{} // closed by Stop to halt the in-flight clip
	done     chan struct{} // closed by the worker on exit
}

func NewPlayer(out audio.Output) *Player {
	return &Player{out: out}
}

// Enqueue appends the clip to the queue and spawns the drain worker if
// none is running. Clips enqueued while a Stop is in flight belong to
// the superseded turn and are discarded.
func (p *Player) Enqueue(clip *audio.Clip) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopping {
		return
	}
	p.queue = append(p.queue, clip)
	if !p.running {
		p.running = true
		p.stopCh = make(chan struct{})
		p.done = make(chan struct{})
		go p.run(p.stopCh, p.done)
	}
}

// Stop discards the current and all pending clips, silences the output
// immediately and blocks until the worker has fully terminated: no
// audio plays after Stop returns. On an idle player it is a no-op.
func (p *Player) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	done := p.done
	if !p.stopping {
		p.stopping = true
		p.queue = nil
		close(p.stopCh)
	}
	p.mu.Unlock()

	p.out.Halt()
	<-done

	// A clip that was mid-decode when the stop landed can reach the
	// output between the halt above and the worker's stop check.
	// Halting again after the worker has exited silences it.
	p.out.Halt()

	p.mu.Lock()
	// Drop anything that raced in while the worker was shutting down,
	// then let the next Enqueue start a fresh worker.
	p.queue = nil
	p.stopping = false
	p.mu.Unlock()
}

// run drains the queue. It exits when the queue is empty or a stop has
// been requested; Enqueue spawns a replacement when needed.
func (p *Player) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		p.mu.Lock()
		if p.stopping || len(p.queue) == 0 {
			p.running = false
			p.mu.Unlock()
			return
		}
		clip := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.play(clip, stop)
	}
}

func (p *Player) play(clip *audio.Clip, stop <-chan struct{}) {
	streamer, format, err := clip.Decode()
	if err != nil {
		// Corrupt buffer: skip it, keep the worker alive.
		log.Printf("playback: dropping undecodable clip: %v", err)
		return
	}
	defer streamer.Close()

	// Decoding can outlast a concurrent Stop. A clip started after the
	// output was halted would keep sounding with nothing left to
	// silence it, so it must not reach the output at all.
	select {
	case <-stop:
		return
	default:
	}

	finished := p.out.Play(streamer, format.SampleRate)
	select {
	case <-finished:
	case <-stop:
		// Halted mid-clip; the output was already silenced by Stop.
	}
}
