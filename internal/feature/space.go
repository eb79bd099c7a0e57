package feature

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

var ErrRegistryFrozen = errors.New("feature registry is frozen")

const registryShards = 64

// CodeEntry is a registered code and the spaces it was hashed into.
type CodeEntry struct {
	Code   int64 `json:"code"`
	Spaces Space `json:"spaces"`
}

type codeShard struct {
	mu    sync.Mutex
	codes map[int64]Space
}

type idShard struct {
	mu  sync.Mutex
	ids map[int]struct{}
}

// FeatureSpace hashes feature codes into the arc and labeled id spaces and
// records every code and id submitted while it is open. Adding is safe for
// concurrent use.
type FeatureSpace struct {
	arcSize     int
	labeledSize int
	frozen      atomic.Bool

	codes      [registryShards]codeShard
	arcIDs     [registryShards]idShard
	labeledIDs [registryShards]idShard
}

func NewFeatureSpace(arcSize, labeledSize int) (*FeatureSpace, error) {
	if arcSize <= 0 || labeledSize <= 0 {
		return nil, fmt.Errorf("space sizes must be positive: arc=%d labeled=%d", arcSize, labeledSize)
	}
	s := &FeatureSpace{arcSize: arcSize, labeledSize: labeledSize}
	for i := range s.codes {
		s.codes[i].codes = make(map[int64]Space)
		s.arcIDs[i].ids = make(map[int]struct{})
		s.labeledIDs[i].ids = make(map[int]struct{})
	}
	return s, nil
}

// Size returns the number of ids in space.
func (s *FeatureSpace) Size(space Space) int {
	if space == LabeledSpace {
		return s.labeledSize
	}
	return s.arcSize
}

// ID hashes code into space.
func (s *FeatureSpace) ID(space Space, code int64) int {
	return HashCode(code, s.Size(space))
}

func (s *FeatureSpace) AddArc(code int64, value float64, fv *Vector) {
	s.Add(ArcSpace, code, value, fv)
}

func (s *FeatureSpace) AddLabeled(code int64, value float64, fv *Vector) {
	s.Add(LabeledSpace, code, value, fv)
}

// Add appends (id, value) to fv and, while the registry is open, records
// code and id.
func (s *FeatureSpace) Add(space Space, code int64, value float64, fv *Vector) {
	id := s.ID(space, code)
	if fv != nil {
		fv.Add(id, value)
	}
	if s.frozen.Load() {
		return
	}
	s.record(space, code, id)
}

func (s *FeatureSpace) record(space Space, code int64, id int) {
	cs := &s.codes[codeShardOf(code)]
	cs.mu.Lock()
	cs.codes[code] |= space
	cs.mu.Unlock()

	ids := &s.arcIDs
	if space == LabeledSpace {
		ids = &s.labeledIDs
	}
	is := &ids[id%registryShards]
	is.mu.Lock()
	is.ids[id] = struct{}{}
	is.mu.Unlock()
}

// Lookup returns the spaces code was registered in.
func (s *FeatureSpace) Lookup(code int64) (Space, bool) {
	cs := &s.codes[codeShardOf(code)]
	cs.mu.Lock()
	defer cs.mu.Unlock()
	spaces, ok := cs.codes[code]
	return spaces, ok
}

func codeShardOf(code int64) int {
	return int((uint64(code) * 0x9e3779b97f4a7c15) >> 58)
}

// Freeze stops registry growth. Hashing is unaffected.
func (s *FeatureSpace) Freeze() {
	s.frozen.Store(true)
}

func (s *FeatureSpace) Frozen() bool {
	return s.frozen.Load()
}

// EnsureOpen returns ErrRegistryFrozen once the registry is frozen.
func (s *FeatureSpace) EnsureOpen() error {
	if s.frozen.Load() {
		return ErrRegistryFrozen
	}
	return nil
}

func (s *FeatureSpace) NumCodes() int {
	n := 0
	for i := range s.codes {
		s.codes[i].mu.Lock()
		n += len(s.codes[i].codes)
		s.codes[i].mu.Unlock()
	}
	return n
}

func (s *FeatureSpace) NumIDs(space Space) int {
	ids := &s.arcIDs
	if space == LabeledSpace {
		ids = &s.labeledIDs
	}
	n := 0
	for i := range ids {
		ids[i].mu.Lock()
		n += len(ids[i].ids)
		ids[i].mu.Unlock()
	}
	return n
}

// Codes returns the registered codes in ascending order.
func (s *FeatureSpace) Codes() []CodeEntry {
	out := make([]CodeEntry, 0, s.NumCodes())
	for i := range s.codes {
		cs := &s.codes[i]
		cs.mu.Lock()
		for code, spaces := range cs.codes {
			out = append(out, CodeEntry{Code: code, Spaces: spaces})
		}
		cs.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Restore rebuilds a frozen space from a persisted code list.
func Restore(arcSize, labeledSize int, entries []CodeEntry) (*FeatureSpace, error) {
	s, err := NewFeatureSpace(arcSize, labeledSize)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Spaces&ArcSpace != 0 {
			s.record(ArcSpace, e.Code, s.ID(ArcSpace, e.Code))
		}
		if e.Spaces&LabeledSpace != 0 {
			s.record(LabeledSpace, e.Code, s.ID(LabeledSpace, e.Code))
		}
	}
	s.Freeze()
	return s, nil
}
