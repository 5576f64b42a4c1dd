// Package lock provides keyed mutual exclusion for reservations and cancellations.
package lock

import (
	"context"
	"sync"
	"time"

	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/usecase/commands"
)

var ErrLockTimeout = errs.New("timed out waiting for lock")

// LocalLocker serializes holders of the same key within one process.
type LocalLocker struct {
	mu          sync.Mutex
	locks       map[string]*localEntry
	waitTimeout time.Duration
}

type localEntry struct {
	held chan struct{}
	refs int
}

func NewLocalLocker(waitTimeout time.Duration) *LocalLocker {
	return &LocalLocker{
		locks:       make(map[string]*localEntry),
		waitTimeout: waitTimeout,
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	e := l.ref(key)

	var timeout <-chan time.Time
	if l.waitTimeout > 0 {
		timer := time.NewTimer(l.waitTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case e.held <- struct{}{}:
	case <-ctx.Done():
		l.unref(key)
		return nil, ctx.Err()
	case <-timeout:
		l.unref(key)
		return nil, errs.Wrapf(ErrLockTimeout, "key %s", key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.held
			l.unref(key)
		})
	}, nil
}

func (l *LocalLocker) ref(key string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		e = &localEntry{held: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *LocalLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

var _ commands.Locker = (*LocalLocker)(nil)
