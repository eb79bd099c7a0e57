package tensor

import (
	"fmt"
	"sort"

	"tensordep/internal/feature"
)

// Node is one factor of a low-rank tensor. Its index range is split into
// blocks; Bias holds the first index of every block. Nodes built with a bias
// cell reserve index 0 for it. Children further decompose the factor.
type Node struct {
	Name     string
	Size     int
	Bias     []int
	Children []*Node

	active []bool
}

func newNode(name string, withBias bool, blocks ...int) *Node {
	n := &Node{Name: name}
	offset := 0
	if withBias {
		offset = 1
	}
	for _, size := range blocks {
		n.Bias = append(n.Bias, offset)
		offset += size
	}
	n.Size = offset
	n.active = make([]bool, offset)
	return n
}

func (n *Node) add(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// Activate marks every id of fv as active.
func (n *Node) Activate(fv *feature.Vector) error {
	if fv == nil {
		return nil
	}
	for _, e := range fv.Entries {
		if err := n.activate(e.ID); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) activate(i int) error {
	if i < 0 || i >= n.Size {
		return fmt.Errorf("node %s: activation index %d outside [0,%d)", n.Name, i, n.Size)
	}
	n.active[i] = true
	return nil
}

func (n *Node) IsActive(i int) bool {
	return i >= 0 && i < n.Size && n.active[i]
}

func (n *Node) ActiveIndices() []int {
	out := make([]int, 0)
	for i, ok := range n.active {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

func (n *Node) NumActive() int {
	count := 0
	for _, ok := range n.active {
		if ok {
			count++
		}
	}
	return count
}

// Restore replaces the active set with indices.
func (n *Node) Restore(indices []int) error {
	active := make([]bool, n.Size)
	for _, i := range indices {
		if i < 0 || i >= n.Size {
			return fmt.Errorf("node %s: restored index %d outside [0,%d)", n.Name, i, n.Size)
		}
		active[i] = true
	}
	n.active = active
	return nil
}

// Walk visits n and its descendants depth first with their slash-joined
// paths.
func (n *Node) Walk(fn func(path string, node *Node)) {
	n.walk("", fn)
}

func (n *Node) walk(prefix string, fn func(string, *Node)) {
	path := n.Name
	if prefix != "" {
		path = prefix + "/" + n.Name
	}
	fn(path, n)
	for _, c := range n.Children {
		c.walk(path, fn)
	}
}

// ActiveSets returns the active indices of every node keyed by path.
func (n *Node) ActiveSets() map[string][]int {
	out := make(map[string][]int)
	n.Walk(func(path string, node *Node) {
		out[path] = node.ActiveIndices()
	})
	return out
}

// RestoreActive loads active sets produced by ActiveSets. Every node of the
// tree must be present.
func (n *Node) RestoreActive(sets map[string][]int) error {
	var err error
	seen := 0
	n.Walk(func(path string, node *Node) {
		if err != nil {
			return
		}
		indices, ok := sets[path]
		if !ok {
			err = fmt.Errorf("no active set for node %s", path)
			return
		}
		seen++
		err = node.Restore(indices)
	})
	if err != nil {
		return err
	}
	if seen != len(sets) {
		paths := make([]string, 0, len(sets))
		for p := range sets {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		return fmt.Errorf("active sets %v do not match the tree", paths)
	}
	return nil
}
