package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/pinningd/internal/logfields"
)

// WorkerGroup tracks daemon-owned goroutines (triggered passes, servers) and
// gives shutdown a boundary: once stopping, no new worker starts.
type WorkerGroup struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	stopping bool
	running  int
}

// Go starts fn under name unless the group is stopping. A panic in fn is logged.
func (g *WorkerGroup) Go(name string, fn func()) bool {
	if fn == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopping {
		return false
	}
	g.running++
	g.wg.Add(1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Worker panicked", slog.String("worker", name), logfields.Error(fmt.Errorf("%v", r)))
			}
			g.mu.Lock()
			g.running--
			g.mu.Unlock()
			g.wg.Done()
		}()
		fn()
	}()
	return true
}

// Running reports how many workers have not returned yet.
func (g *WorkerGroup) Running() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// StopAndWait refuses new workers and waits for current ones, bounded by ctx.
func (g *WorkerGroup) StopAndWait(ctx context.Context) error {
	g.mu.Lock()
	g.stopping = true
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
