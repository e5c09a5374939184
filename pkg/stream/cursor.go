package stream

import (
	"context"
	"sync"
)

// MemoryCursor keeps the cursor for the lifetime of the process only; a restart reads the
// stream from the beginning again.
type MemoryCursor struct {
	mu     sync.Mutex
	cursor string
}

func NewMemoryCursor() *MemoryCursor {
	return &MemoryCursor{cursor: StartCursor}
}

func (m *MemoryCursor) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor, nil
}

func (m *MemoryCursor) Save(_ context.Context, cursor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = cursor
	return nil
}
