package translation

import (
	"path/filepath"
	"sync"
)

// Locks hands out one mutex per resource path. Stores sharing a Locks value serialize their
// load-modify-save cycles on the same file. Processes are not coordinated.
type Locks struct {
	m sync.Map // map[string]*sync.Mutex
}

// NewLocks creates an empty lock registry.
func NewLocks() *Locks {
	return &Locks{}
}

var defaultLocks = NewLocks()

// For returns the mutex guarding path.
func (l *Locks) For(path string) *sync.Mutex {
	key := filepath.Clean(path)
	if mu, ok := l.m.Load(key); ok {
		return mu.(*sync.Mutex)
	}
	mu, _ := l.m.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
