package resultstore

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/g1o/QuasiRecomb/hmmlib"
)

// MemoryStore keeps encoded results in a map.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string][]byte
	summary map[string]Summary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = make(map[string][]byte)
	s.summary = make(map[string]Summary)
	return nil
}

func (s *MemoryStore) Save(_ context.Context, or *hmmlib.OptimalResult) error {
	payload, err := hmmlib.EncodeResult(or)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.results == nil {
		return errors.New("store is not initialized")
	}
	s.results[or.RunID] = payload
	s.summary[or.RunID] = summarize(or)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, runID string) (*hmmlib.OptimalResult, bool, error) {
	s.mu.RLock()
	payload, ok := s.results[runID]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	or, err := hmmlib.DecodeResult(payload)
	if err != nil {
		return nil, false, errors.Wrapf(err, "decode result %s", runID)
	}
	return or, true, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.summary))
	for _, v := range s.summary {
		out = append(out, v)
	}
	sortSummaries(out)
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
