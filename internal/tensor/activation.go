package tensor

import (
	"fmt"
	"sync"

	"tensordep/internal/feature"
	"tensordep/internal/model"
)

// Activator marks, for the gold arcs of each observed instance, the factor
// cells the router will later write to.
type Activator struct {
	mu   sync.Mutex
	tree *Tree
	b    *feature.Builder
}

// NewActivator pairs a tree with the builder whose codes it will route.
// Direct builders go with Threeway and Multiway trees, cross-lingual
// builders with Hierarchical and TMultiway trees.
func NewActivator(tree *Tree, b *feature.Builder) (*Activator, error) {
	if err := CheckPairing(tree.Topology(), b.Config()); err != nil {
		return nil, err
	}
	return &Activator{tree: tree, b: b}, nil
}

// CheckPairing reports a configuration error when the feature mode cannot
// produce codes the topology understands.
func CheckPairing(t Topology, cfg feature.Config) error {
	if cfg.Direct == t.CrossLingual() {
		mode := "cross-lingual"
		if cfg.Direct {
			mode = "direct"
		}
		return fmt.Errorf("%w: %s features with %s topology", ErrTopologyMismatch, mode, t)
	}
	return nil
}

func (a *Activator) Tree() *Tree {
	return a.tree
}

// Observe activates the cells used by every gold arc of inst.
func (a *Activator) Observe(inst model.Instance) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	if a.tree.Config.LearnLabel && inst.Labels == nil {
		return fmt.Errorf("labels are learned but the instance has none")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.tree.Topology() {
	case Threeway:
		return a.threeway(inst)
	case Multiway:
		return a.multiway(inst)
	case Hierarchical:
		return a.hierarchical(inst)
	case TMultiway:
		return a.tmultiway(inst)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedTopology, a.tree.Topology())
}

// activation collects the first error of a sequence of node activations.
type activation struct {
	err error
}

func (s *activation) on(n *Node, fv *feature.Vector) {
	if s.err != nil || n == nil {
		return
	}
	s.err = n.Activate(fv)
}

func (s *activation) onErr(n *Node, fv *feature.Vector, err error) {
	if s.err != nil {
		return
	}
	if err != nil {
		s.err = err
		return
	}
	s.on(n, fv)
}

func goldLabel(inst model.Instance, i int) int {
	if inst.Labels == nil {
		return -1
	}
	return inst.Labels[i]
}

func (a *Activator) threeway(inst model.Instance) error {
	t, b := a.tree, a.b
	var s activation
	for i := 1; i < inst.Len(); i++ {
		h := inst.Heads[i]
		s.on(t.Head, b.ThreewayPOSFeatures(inst, h, t.Head.Bias))
		s.on(t.Mod, b.ThreewayPOSFeatures(inst, i, t.Mod.Bias))
		s.on(t.Dist, b.DirDistFeatures(feature.BinDist(h-i), t.Dist.Bias))
		if t.Label != nil {
			s.on(t.Label, b.LabelFeatures(inst.Labels[i], t.Label.Bias))
		}
	}
	return s.err
}

func (a *Activator) multiway(inst model.Instance) error {
	t, b := a.tree, a.b
	var s activation
	for i := 0; i < inst.Len(); i++ {
		pp, np := feature.ContextPOS(inst, i)
		s.on(t.HeadCtx, b.ContextFeatures(pp, np, t.HeadCtx.Bias))
		if i == 0 {
			continue
		}
		h := inst.Heads[i]
		s.on(t.Head, b.POSFeatures(inst.POS[h], t.Head.Bias))
		s.on(t.Mod, b.POSFeatures(inst.POS[i], t.Mod.Bias))
		s.on(t.ModCtx, b.ContextFeatures(pp, np, t.ModCtx.Bias))
		s.on(t.Dist, b.DirDistFeatures(feature.BinDist(h-i), t.Dist.Bias))
		if t.Label != nil {
			s.on(t.Label, b.LabelFeatures(inst.Labels[i], t.Label.Bias))
		}
	}
	return s.err
}

// lexical activates the embedding and trained-word cells of every token;
// the root never modifies.
func (a *Activator) lexical(inst model.Instance, s *activation) {
	t := a.tree
	if t.HeadLex == nil {
		return
	}
	for i := 0; i < inst.Len(); i++ {
		fv := a.b.LexicalFeatures(inst, i, t.HeadLex.Bias)
		s.on(t.HeadLex, fv)
		if i > 0 {
			s.on(t.ModLex, fv)
		}
	}
}

// typedArcs activates the typed context cells of every token and the
// POS and distance cells of every gold arc, then hands each arc to perArc.
func (a *Activator) typedArcs(inst model.Instance, s *activation, perArc func(h, m, bin int)) {
	t, b := a.tree, a.b
	for i := 0; i < inst.Len() && s.err == nil; i++ {
		pp, np := feature.ContextPOS(inst, i)
		fv, err := b.ContextTypoFeatures(pp, np, inst.Lang, t.HeadCtx.Bias)
		s.onErr(t.HeadCtx, fv, err)
		if i == 0 {
			continue
		}
		s.on(t.ModCtx, fv)

		h := inst.Heads[i]
		bin := feature.BinDist(h - i)
		s.on(t.Head, b.POSFeatures(inst.POS[h], t.Head.Bias))
		s.on(t.Mod, b.POSFeatures(inst.POS[i], t.Mod.Bias))
		fv, err = b.DirDistTypoFeatures(bin, inst.Lang, t.Dist.Bias)
		s.onErr(t.Dist, fv, err)
		perArc(h, i, bin)
	}
}

func (a *Activator) hierarchical(inst model.Instance) error {
	t, b := a.tree, a.b
	var s activation
	a.lexical(inst, &s)
	a.typedArcs(inst, &s, func(h, m, bin int) {
		hp, mp := inst.POS[h], inst.POS[m]
		if t.SVO != nil {
			lbl := inst.Labels[m]
			if _, _, ok := feature.SVOTemplate(hp, mp, lbl); ok {
				fv, err := b.SVOFeatures(hp, mp, lbl, bin, inst.Lang, t.SVO.Bias)
				s.onErr(t.SVO, fv, err)
			}
			s.on(t.Label, b.LabelFeatures(lbl, t.Label.Bias))
		}
		fv, err := b.TypoFeatures(hp, mp, bin, inst.Lang, t.Typo.Bias)
		s.onErr(t.Typo, fv, err)
	})
	return s.err
}

func (a *Activator) tmultiway(inst model.Instance) error {
	t, b := a.tree, a.b
	var s activation
	a.lexical(inst, &s)
	a.typedArcs(inst, &s, func(h, m, bin int) {
		lbl := goldLabel(inst, m)
		fv, err := b.AllTypoFeatures(inst.POS[h], inst.POS[m], lbl, bin, inst.Lang, t.Typo.Bias)
		s.onErr(t.Typo, fv, err)
		if lbl >= 0 {
			s.on(t.Label, b.LabelFeatures(lbl, t.Label.Bias))
		}
	})
	return s.err
}
