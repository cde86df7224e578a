package paramsource

import (
	"context"
	"sort"
	"sync"
)

// MemorySource is an in-process source, used by tests and by callers that
// assemble parameters programmatically.
type MemorySource struct {
	label string
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource(label string) *MemorySource {
	return &MemorySource{label: label, files: make(map[string][]byte)}
}

func (s *MemorySource) Name() string { return s.label }

// Put stores a copy of data under file, replacing any previous content.
func (s *MemorySource) Put(file string, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	s.mu.Lock()
	s.files[file] = cp
	s.mu.Unlock()
}

// Remove deletes file from the source.
func (s *MemorySource) Remove(file string) {
	s.mu.Lock()
	delete(s.files, file)
	s.mu.Unlock()
}

func (s *MemorySource) Get(ctx context.Context, file string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.files[file]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(s.label, file)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the stored file names in lexical order.
func (s *MemorySource) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.files))
	for k := range s.files {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
