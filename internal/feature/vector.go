package feature

// Entry is one active feature of an arc.
type Entry struct {
	ID    int     `json:"id"`
	Value float64 `json:"value"`
}

// Vector is a sparse feature vector. Duplicate ids are kept; consumers sum them.
type Vector struct {
	Entries []Entry `json:"entries"`
}

func (v *Vector) Add(id int, value float64) {
	v.Entries = append(v.Entries, Entry{ID: id, Value: value})
}

func (v *Vector) Len() int {
	if v == nil {
		return 0
	}
	return len(v.Entries)
}

// Dot scores the vector against a dense weight slice. Ids outside weights
// contribute nothing.
func (v *Vector) Dot(weights []float64) float64 {
	if v == nil {
		return 0
	}
	sum := 0.0
	for _, e := range v.Entries {
		if e.ID >= 0 && e.ID < len(weights) {
			sum += weights[e.ID] * e.Value
		}
	}
	return sum
}

// IDs returns the distinct ids in first-seen order.
func (v *Vector) IDs() []int {
	if v == nil {
		return nil
	}
	seen := make(map[int]struct{}, len(v.Entries))
	out := make([]int, 0, len(v.Entries))
	for _, e := range v.Entries {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e.ID)
	}
	return out
}
