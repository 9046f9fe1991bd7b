package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/evcraddock/guestbook/internal/docstore"
)

// Session is the authentication collaborator. EnsureSessionReady must
// succeed before any subscription is opened.
type Session interface {
	EnsureSessionReady(ctx context.Context) error
}

// Subscriber is the lifecycle surface of a Repository.
type Subscriber interface {
	Collection() string
	Subscribe() docstore.Unsubscribe
	Reset()
	Loading() bool
	Err() string
	Watch() (<-chan Change, func())
}

// Manager starts and stops a set of repositories together.
type Manager struct {
	session Session
	repos   []Subscriber
}

// NewManager creates a manager over the given repositories.
func NewManager(session Session, repos ...Subscriber) *Manager {
	return &Manager{session: session, repos: repos}
}

// Start waits for a session and then subscribes every repository. The
// returned stop func unsubscribes each one exactly once and resets its
// cache; later calls do nothing. If the session cannot be established no
// repository is subscribed.
func (m *Manager) Start(ctx context.Context) (stop func(), err error) {
	if m.session != nil {
		if err := m.session.EnsureSessionReady(ctx); err != nil {
			return nil, fmt.Errorf("establishing session: %w", err)
		}
	}

	unsubs := make([]docstore.Unsubscribe, 0, len(m.repos))
	for _, r := range m.repos {
		unsubs = append(unsubs, r.Subscribe())
	}
	slog.Debug("subscriptions started", "count", len(unsubs))

	var once sync.Once
	return func() {
		once.Do(func() {
			for i, unsub := range unsubs {
				unsub()
				m.repos[i].Reset()
			}
			slog.Debug("subscriptions stopped", "count", len(unsubs))
		})
	}, nil
}

// WaitLoaded blocks until no repository is loading. It returns the
// subscription errors of any repository that failed, joined.
func (m *Manager) WaitLoaded(ctx context.Context) error {
	signal := make(chan struct{}, 1)
	done := make(chan struct{})
	defer close(done)

	for _, r := range m.repos {
		ch, cancel := r.Watch()
		defer cancel()
		go func() {
			for {
				select {
				case <-done:
					return
				case _, ok := <-ch:
					if !ok {
						return
					}
					select {
					case signal <- struct{}{}:
					default:
					}
				}
			}
		}()
	}

	for {
		if !m.anyLoading() {
			return m.errs()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-signal:
		}
	}
}

func (m *Manager) anyLoading() bool {
	for _, r := range m.repos {
		if r.Loading() {
			return true
		}
	}
	return false
}

func (m *Manager) errs() error {
	var errs []error
	for _, r := range m.repos {
		if msg := r.Err(); msg != "" {
			errs = append(errs, &SubscriptionError{Collection: r.Collection(), Message: msg})
		}
	}
	return errors.Join(errs...)
}
