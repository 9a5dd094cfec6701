package repo

import (
	"context"
	"sync"
)

type memoryTable struct {
	rows   [][]string
	frozen int
}

// MemoryStore keeps tables in process. Used for tests and local runs.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*memoryTable
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]*memoryTable)}
}

func (s *MemoryStore) EnsureTable(_ context.Context, name string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; ok {
		return nil
	}
	s.tables[name] = &memoryTable{
		rows:   [][]string{normalizeRow(header, len(header))},
		frozen: 1,
	}
	return nil
}

func (s *MemoryStore) AppendRow(_ context.Context, name string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return ErrTableNotFound
	}
	t.rows = append(t.rows, normalizeRow(values, len(t.rows[0])))
	return nil
}

func (s *MemoryStore) ReadAll(_ context.Context, name string) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, ErrTableNotFound
	}
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (s *MemoryStore) WriteCell(_ context.Context, name string, row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return ErrTableNotFound
	}
	if err := checkCell(name, len(t.rows), row, col); err != nil {
		return err
	}
	if col >= len(t.rows[row]) {
		t.rows[row] = normalizeRow(t.rows[row], col+1)
	}
	t.rows[row][col] = value
	return nil
}
