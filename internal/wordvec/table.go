package wordvec

import (
	"encoding/json"
	"fmt"
	"os"
)

type key struct {
	lang int
	id   int
}

// Table is an in-memory store of fixed-length word vectors per language.
type Table struct {
	dim     int
	vectors map[key][]float64
}

func NewTable(dim int) (*Table, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive: %d", dim)
	}
	return &Table{dim: dim, vectors: make(map[key][]float64)}, nil
}

func (t *Table) Dim() int { return t.dim }

func (t *Table) Len() int { return len(t.vectors) }

func (t *Table) Put(lang, id int, vec []float64) error {
	if len(vec) != t.dim {
		return fmt.Errorf("vector for lang %d word %d has %d values, want %d", lang, id, len(vec), t.dim)
	}
	t.vectors[key{lang: lang, id: id}] = append([]float64(nil), vec...)
	return nil
}

// WordVec returns the vector of word id in lang. The slice must not be
// modified.
func (t *Table) WordVec(lang, id int) ([]float64, bool) {
	vec, ok := t.vectors[key{lang: lang, id: id}]
	return vec, ok
}

type fileEntry struct {
	Lang   int       `json:"lang"`
	ID     int       `json:"id"`
	Vector []float64 `json:"vector"`
}

type fileTable struct {
	Dim     int         `json:"dim"`
	Vectors []fileEntry `json:"vectors"`
}

func Parse(data []byte) (*Table, error) {
	var raw fileTable
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode word vectors: %w", err)
	}
	t, err := NewTable(raw.Dim)
	if err != nil {
		return nil, err
	}
	for _, e := range raw.Vectors {
		if err := t.Put(e.Lang, e.ID, e.Vector); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
