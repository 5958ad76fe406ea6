package sheet

import (
	"context"
	"sync"
)

// MemoryStore keeps tables in process memory. It backs development runs and
// tests; FailAppends simulates an unreachable store.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string][][]string

	appendErr error
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string][][]string)}
}

// FailAppends makes every following AppendRows call return err. Pass nil to recover.
func (m *MemoryStore) FailAppends(err error) {
	m.mu.Lock()
	m.appendErr = err
	m.mu.Unlock()
}

// EnsureHeader implements Store.
func (m *MemoryStore) EnsureHeader(ctx context.Context, table string, header []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tables[table]) == 0 {
		m.tables[table] = [][]string{append([]string(nil), header...)}
	}
	return nil
}

// AppendRows implements Store.
func (m *MemoryStore) AppendRows(ctx context.Context, table string, rows [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.tables[table] = append(m.tables[table], copyRows(rows)...)
	return nil
}

// Values implements Store.
func (m *MemoryStore) Values(ctx context.Context, table string) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows, ok := m.tables[table]
	if !ok {
		return nil, ErrTableNotFound
	}
	return copyRows(rows), nil
}

// Overwrite implements Store.
func (m *MemoryStore) Overwrite(ctx context.Context, table string, body [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.tables[table]
	if !ok || len(rows) == 0 {
		return ErrTableNotFound
	}
	m.tables[table] = append([][]string{rows[0]}, copyRows(body)...)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }
