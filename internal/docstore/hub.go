package docstore

import "sync"

// hub tracks a version per collection and lets waiters block until the
// next change. Each version owns a channel that is closed when it is
// superseded.
type hub struct {
	mu     sync.Mutex
	topics map[string]*topic
}

type topic struct {
	version uint64
	changed chan struct{}
}

func newHub() *hub {
	return &hub{topics: make(map[string]*topic)}
}

func (h *hub) topic(collection string) *topic {
	t, ok := h.topics[collection]
	if !ok {
		t = &topic{changed: make(chan struct{})}
		h.topics[collection] = t
	}
	return t
}

// current returns the collection's version and a channel closed on the
// next publish.
func (h *hub) current(collection string) (uint64, <-chan struct{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.topic(collection)
	return t.version, t.changed
}

func (h *hub) publish(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := h.topic(collection)
	t.version++
	close(t.changed)
	t.changed = make(chan struct{})
}
