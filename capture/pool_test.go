package capture

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPoolCapsConcurrency(t *testing.T) {
	pool := NewPool(3)

	started := make(chan int, 4)
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		id := i
		go func() {
			defer wg.Done()
			_, _ = pool.Do(context.Background(), func() ([]byte, error) {
				started <- id
				<-release
				return nil, nil
			})
		}()
	}

	// Exactly 3 requests run concurrently.
	for i := 0; i < 3; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d captures started, want 3", i)
		}
	}
	select {
	case id := <-started:
		t.Fatalf("capture %d started with all slots busy", id)
	case <-time.After(50 * time.Millisecond):
	}

	// The 4th starts only after one completes.
	release <- struct{}{}
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("4th capture never started after a slot freed up")
	}

	close(release)
	wg.Wait()
}

func TestPoolDoAbortsOnCancelledWait(t *testing.T) {
	pool := NewPool(1)

	hold := make(chan struct{})
	go func() {
		_, _ = pool.Do(context.Background(), func() ([]byte, error) {
			<-hold
			return nil, nil
		})
	}()

	// Wait for the slot to be taken.
	deadline := time.Now().Add(2 * time.Second)
	for len(pool.slots) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first capture never took the slot")
		}
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.Do(ctx, func() ([]byte, error) { return nil, nil }); err == nil {
		t.Fatal("Do() succeeded with cancelled context and no free slot")
	}

	close(hold)
}
