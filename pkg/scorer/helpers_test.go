package scorer

import (
	"context"
	"errors"
	"sync"

	"github.com/feiyue126/msgfplus/pkg/condition"
	"github.com/feiyue126/msgfplus/pkg/paramsource"
)

// countingSource wraps a MemorySource and records every Get.
type countingSource struct {
	*paramsource.MemorySource
	mu    sync.Mutex
	calls map[string]int
}

func newCountingSource(label string, names ...string) *countingSource {
	s := &countingSource{
		MemorySource: paramsource.NewMemorySource(label),
		calls:        make(map[string]int),
	}
	for _, n := range names {
		s.Put(n+ParamExt, []byte("params for "+n+" from "+label))
	}
	return s
}

func (s *countingSource) Get(ctx context.Context, file string) ([]byte, error) {
	s.mu.Lock()
	s.calls[file]++
	s.mu.Unlock()
	return s.MemorySource.Get(ctx, file)
}

func (s *countingSource) Calls(file string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[file]
}

func (s *countingSource) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// failingSource fails every read with a non-miss error.
type failingSource struct{}

func (failingSource) Name() string { return "failing" }

func (failingSource) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func representativeNames() []string {
	var names []string
	for _, k := range Representatives() {
		names = append(names, k.Name())
	}
	return names
}

// newTestResolver builds a resolver with an override and a builtin source.
func newTestResolver(override, builtin *countingSource) *Resolver {
	loader := NewLoader(nil, nil,
		Binding{Role: paramsource.RoleOverride, Source: override},
		Binding{Role: paramsource.RoleBuiltin, Source: builtin},
	)
	return NewResolver(loader)
}

func q(m condition.Method, i condition.Instrument, e condition.Enzyme, p condition.Protocol) condition.Query {
	return condition.Query{Method: m, Instrument: i, Enzyme: e, Protocol: p}
}

// blockingSource holds its first read until the reader's context ends, then
// serves every later read immediately.
type blockingSource struct {
	*paramsource.MemorySource
	entered chan struct{}
	once    sync.Once
	mu      sync.Mutex
	reads   int
}

func newBlockingSource(names ...string) *blockingSource {
	s := &blockingSource{
		MemorySource: paramsource.NewMemorySource("blocking"),
		entered:      make(chan struct{}),
	}
	for _, n := range names {
		s.Put(n+ParamExt, []byte("params for "+n))
	}
	return s
}

func (s *blockingSource) Get(ctx context.Context, file string) ([]byte, error) {
	s.mu.Lock()
	s.reads++
	first := s.reads == 1
	s.mu.Unlock()
	if first {
		s.once.Do(func() { close(s.entered) })
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.MemorySource.Get(ctx, file)
}
