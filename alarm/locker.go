package alarm

import (
	"context"
	"sync"
)

// Locker serializes the read-modify-write sequence of a single device.
type Locker interface {
	Lock(ctx context.Context, deviceID string) (unlock func(), err error)
}

// LocalLocker is a Locker for a single process. Idle keys are released.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*deviceLock
}

type deviceLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*deviceLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, deviceID string) (func(), error) {
	l.mu.Lock()
	dl, ok := l.locks[deviceID]
	if !ok {
		dl = &deviceLock{ch: make(chan struct{}, 1)}
		l.locks[deviceID] = dl
	}
	dl.refs++
	l.mu.Unlock()

	select {
	case dl.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(deviceID, dl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-dl.ch
			l.release(deviceID, dl)
		})
	}, nil
}

func (l *LocalLocker) release(deviceID string, dl *deviceLock) {
	l.mu.Lock()
	dl.refs--
	if dl.refs == 0 {
		delete(l.locks, deviceID)
	}
	l.mu.Unlock()
}

// held reports the number of devices with a waiter or holder.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
