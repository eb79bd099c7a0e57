package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"tensordep/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	registries  map[string]model.RegistrySnapshot
	activations map[string]model.ActivationSnapshot
	tensors     map[string]model.TensorSnapshot
	runs        map[string]model.RunSummary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	s.initialized = true
	s.registries = make(map[string]model.RegistrySnapshot)
	s.activations = make(map[string]model.ActivationSnapshot)
	s.tensors = make(map[string]model.TensorSnapshot)
	s.runs = make(map[string]model.RunSummary)
	return nil
}

func (s *MemoryStore) SaveRegistry(_ context.Context, registry model.RegistrySnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	registry.Codes = append([]model.CodeRecord(nil), registry.Codes...)
	s.registries[registry.ID] = registry
	return nil
}

func (s *MemoryStore) GetRegistry(_ context.Context, id string) (model.RegistrySnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	registry, ok := s.registries[id]
	if !ok {
		return model.RegistrySnapshot{}, false, nil
	}
	registry.Codes = append([]model.CodeRecord(nil), registry.Codes...)
	return registry, true, nil
}

func copyNodes(nodes map[string][]int) map[string][]int {
	copied := make(map[string][]int, len(nodes))
	for path, indices := range nodes {
		copied[path] = append([]int(nil), indices...)
	}
	return copied
}

func (s *MemoryStore) SaveActivation(_ context.Context, activation model.ActivationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	activation.Nodes = copyNodes(activation.Nodes)
	s.activations[activation.RegistryID] = activation
	return nil
}

func (s *MemoryStore) GetActivation(_ context.Context, registryID string) (model.ActivationSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activation, ok := s.activations[registryID]
	if !ok {
		return model.ActivationSnapshot{}, false, nil
	}
	activation.Nodes = copyNodes(activation.Nodes)
	return activation, true, nil
}

func copyCells(cells []model.TensorCell) []model.TensorCell {
	copied := make([]model.TensorCell, len(cells))
	for i, c := range cells {
		copied[i] = model.TensorCell{Coords: append([]int(nil), c.Coords...), Value: c.Value}
	}
	return copied
}

func (s *MemoryStore) SaveTensor(_ context.Context, tensor model.TensorSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	tensor.Cells = copyCells(tensor.Cells)
	s.tensors[tensor.ID] = tensor
	return nil
}

func (s *MemoryStore) GetTensor(_ context.Context, id string) (model.TensorSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tensor, ok := s.tensors[id]
	if !ok {
		return model.TensorSnapshot{}, false, nil
	}
	tensor.Cells = copyCells(tensor.Cells)
	return tensor, true, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.RunID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (model.RunSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	return run, ok, nil
}

// ListRuns returns run summaries oldest first.
func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func sortRuns(runs []model.RunSummary) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC != runs[j].CreatedAtUTC {
			return runs[i].CreatedAtUTC < runs[j].CreatedAtUTC
		}
		return runs[i].RunID < runs[j].RunID
	})
}
