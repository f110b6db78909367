package pipeline

import (
	"sync"
	"time"
)

// elapsedTimer tracks wall-clock batch time, sampled on a fixed short
// interval. The sampled value feeds the status endpoint only; no control
// decision reads it. Stop is safe to call more than once so every exit path
// of a batch can release the ticker.
type elapsedTimer struct {
	mu      sync.Mutex
	startAt time.Time
	elapsed time.Duration
	running bool
	done    chan struct{}
}

const sampleInterval = 100 * time.Millisecond

func (t *elapsedTimer) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.startAt = time.Now()
	t.elapsed = 0
	t.running = true
	done := make(chan struct{})
	t.done = done
	t.mu.Unlock()

	go func() {
		ticker := time.NewTicker(sampleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				t.mu.Lock()
				if t.running {
					t.elapsed = time.Since(t.startAt)
				}
				t.mu.Unlock()
			}
		}
	}()
}

func (t *elapsedTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.elapsed = time.Since(t.startAt)
	t.running = false
	close(t.done)
}

// Elapsed returns the latest sample: live during a batch, final afterwards.
func (t *elapsedTimer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// Running reports whether a batch is being timed.
func (t *elapsedTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
