package live

import (
	"context"
	"fmt"
	"sync"

	"github.com/evcraddock/guestbook/internal/docstore"
)

type item struct {
	ID   string
	Name string
}

func (i item) Key() string { return i.ID }

var itemCodec = Codec[item]{
	Collection: "items",
	OrderBy:    "name",
	Table: Table[item]{
		SetID: func(i *item, id string) { i.ID = id },
		Fields: []Field[item]{
			{Name: "name", Apply: func(i *item, v any) { i.Name = docstore.AsString(v) }},
		},
	},
}

type listener struct {
	query      docstore.Query
	onSnapshot func([]docstore.Document)
	onError    func(error)
	stops      int
}

// fakeStore lets tests push snapshots and errors by hand.
type fakeStore struct {
	mu        sync.Mutex
	listeners []*listener
	docs      map[string]docstore.Document
	err       error
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]docstore.Document)}
}

func (s *fakeStore) Listen(q docstore.Query, onSnapshot func([]docstore.Document), onError func(error)) docstore.Unsubscribe {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &listener{query: q, onSnapshot: onSnapshot, onError: onError}
	s.listeners = append(s.listeners, l)
	return func() {
		s.mu.Lock()
		l.stops++
		s.mu.Unlock()
	}
}

func (s *fakeStore) listener(i int) *listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listeners[i]
}

func (s *fakeStore) listenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *fakeStore) Create(_ context.Context, _ string, fields map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.nextID++
	id := fmt.Sprintf("id-%d", s.nextID)
	s.docs[id] = docstore.Document{ID: id, Fields: fields}
	return id, nil
}

func (s *fakeStore) Update(_ context.Context, _, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("update %s: %w", id, docstore.ErrNotFound)
	}
	s.docs[id] = docstore.Document{ID: id, Fields: fields}
	return nil
}

func (s *fakeStore) Delete(_ context.Context, _, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.docs, id)
	return nil
}

func (s *fakeStore) Get(_ context.Context, _, id string) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return docstore.Document{}, s.err
	}
	d, ok := s.docs[id]
	if !ok {
		return docstore.Document{}, fmt.Errorf("get %s: %w", id, docstore.ErrNotFound)
	}
	return d, nil
}

func docs(names ...string) []docstore.Document {
	out := make([]docstore.Document, 0, len(names))
	for i, n := range names {
		out = append(out, docstore.Document{ID: fmt.Sprintf("d%d", i), Fields: map[string]any{"name": n}})
	}
	return out
}

type recordingObserver struct {
	mu        sync.Mutex
	snapshots []int
	failures  int
	commands  []string
}

func (o *recordingObserver) SnapshotApplied(_ string, count int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots = append(o.snapshots, count)
}

func (o *recordingObserver) SubscriptionFailed(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures++
}

func (o *recordingObserver) CommandFinished(_, op string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	status := "ok"
	if err != nil {
		status = "error"
	}
	o.commands = append(o.commands, op+":"+status)
}
