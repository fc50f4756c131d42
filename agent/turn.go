package agent

import (
	"sync"

	"github.com/tbxark/homi/types"
)

// TurnLock admits one turn per conversation key at a time. A second turn on a
// busy key fails instead of waiting.
type TurnLock struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewTurnLock() *TurnLock {
	return &TurnLock{active: make(map[string]struct{})}
}

// Acquire returns the release func of the turn, or types.ErrTurnInProgress.
func (l *TurnLock) Acquire(key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.active[key]; busy {
		return nil, types.ErrTurnInProgress
	}
	l.active[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, key)
			l.mu.Unlock()
		})
	}, nil
}
