package chat

import (
	"sync"
	"time"

	"github.com/carebridge-dev/carebridge/shared/domain"
)

const DefaultProgressClearDelay = 2 * time.Second

// ProgressTracker keeps upload progress per file name. Entries are cleared a
// short delay after the last running batch finishes.
type ProgressTracker struct {
	clearDelay time.Duration

	mu         sync.Mutex
	files      map[string]int
	active     int
	generation uint64
	timer      *time.Timer
}

func NewProgressTracker(clearDelay time.Duration) *ProgressTracker {
	if clearDelay <= 0 {
		clearDelay = DefaultProgressClearDelay
	}
	return &ProgressTracker{clearDelay: clearDelay, files: make(map[string]int)}
}

// Begin marks a batch as running. Every Begin needs a matching Finish.
func (p *ProgressTracker) Begin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active++
	p.generation++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Set records percent for name, clamped to [0,100].
func (p *ProgressTracker) Set(name string, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[name] = percent
}

func (p *ProgressTracker) Fail(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[name] = domain.ProgressFailed
}

func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active > 0 {
		p.active--
	}
	if p.active > 0 {
		return
	}
	gen := p.generation
	p.timer = time.AfterFunc(p.clearDelay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.generation == gen && p.active == 0 {
			p.files = make(map[string]int)
		}
	})
}

func (p *ProgressTracker) Snapshot() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.files))
	for k, v := range p.files {
		out[k] = v
	}
	return out
}

// Stop cancels a pending clear.
func (p *ProgressTracker) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
