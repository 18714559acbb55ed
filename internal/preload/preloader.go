package preload

import (
	"context"
	"log"
	"sync"
	"time"
)

// Task is one independent background fetch feeding the cache.
type Task struct {
	Key   string
	TTL   time.Duration
	Fetch func(ctx context.Context) (any, error)
}

// Preloader fires a fixed set of fetches concurrently once per app
// session. Individual failures are logged and swallowed; preload is
// best-effort and never blocks or surfaces to navigation.
type Preloader struct {
	cache  *Cache
	tasks  []Task
	logger *log.Logger

	mu      sync.Mutex
	started bool
}

// NewPreloader builds a Preloader over cache with the given task set.
func NewPreloader(cache *Cache, tasks []Task, logger *log.Logger) *Preloader {
	return &Preloader{cache: cache, tasks: tasks, logger: logger}
}

// Start kicks off all tasks in the background and returns immediately.
// Repeated calls within one session are no-ops.
func (p *Preloader) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.run(ctx)
}

func (p *Preloader) run(ctx context.Context) {
	var wg sync.WaitGroup
	var failed int
	var cmu sync.Mutex
	for _, task := range p.tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			data, err := t.Fetch(ctx)
			if err != nil {
				cmu.Lock()
				failed++
				cmu.Unlock()
				p.logger.Printf("warn: preload %s failed: %v", t.Key, err)
				return
			}
			p.cache.Set(t.Key, data, t.TTL)
		}(task)
	}
	wg.Wait()
	p.logger.Printf("preload settled: %d tasks, %d failed", len(p.tasks), failed)
}

// Reset clears the session guard so a new sign-in preloads again.
// Clears the cache too; the two always reset together on logout.
func (p *Preloader) Reset() {
	p.mu.Lock()
	p.started = false
	p.mu.Unlock()
	p.cache.ClearAll()
}
