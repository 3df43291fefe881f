package chat

import (
	"sync"

	"github.com/google/uuid"
)

const PreviewPathPrefix = "/v1/previews/"

type Preview struct {
	MimeType string
	Data     []byte
}

// PreviewRegistry holds local copies of files still being uploaded so the UI
// can render them before the server URL is known.
type PreviewRegistry struct {
	mu    sync.RWMutex
	items map[string]Preview
}

func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{items: make(map[string]Preview)}
}

func (r *PreviewRegistry) Put(mimeType string, data []byte) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id] = Preview{MimeType: mimeType, Data: data}
	return id
}

func (r *PreviewRegistry) Get(id string) (Preview, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	return p, ok
}

func (r *PreviewRegistry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

func (r *PreviewRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func PreviewURL(id string) string { return PreviewPathPrefix + id }
