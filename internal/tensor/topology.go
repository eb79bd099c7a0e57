package tensor

import (
	"fmt"
	"strings"

	"tensordep/internal/feature"
	"tensordep/internal/typology"
)

// Topology selects the shape of the low-rank factorization.
type Topology int

const (
	Threeway Topology = iota + 1
	Multiway
	Hierarchical
	TMultiway
)

var topologyNames = map[Topology]string{
	Threeway:     "threeway",
	Multiway:     "multiway",
	Hierarchical: "hierarchical",
	TMultiway:    "tmultiway",
}

func (t Topology) String() string {
	if name, ok := topologyNames[t]; ok {
		return name
	}
	return fmt.Sprintf("topology(%d)", int(t))
}

func ParseTopology(name string) (Topology, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range topologyNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedTopology, name)
}

func (t Topology) Valid() bool {
	_, ok := topologyNames[t]
	return ok
}

// Modes is the number of coordinates a tensor entry carries.
func (t Topology) Modes() int {
	switch t {
	case Threeway:
		return 4
	case Multiway:
		return 6
	case Hierarchical:
		return 10
	case TMultiway:
		return 9
	}
	return 0
}

// CrossLingual reports whether the topology consumes codes carrying the
// typological class/family slot.
func (t Topology) CrossLingual() bool {
	return t == Hierarchical || t == TMultiway
}

// TreeConfig sizes the factor nodes of a tree.
type TreeConfig struct {
	Topology   Topology                      `json:"topology"`
	PosNum     int                           `json:"pos_num"`
	LabelNum   int                           `json:"label_num"`
	ClassNum   int                           `json:"class_num"`
	FamilyNum  int                           `json:"family_num"`
	Values     [typology.NumFeatureTypes]int `json:"values"`
	EmbDim     int                           `json:"emb_dim"`
	TransNum   int                           `json:"trans_num"`
	LearnLabel bool                          `json:"learn_label"`
	Lexical    bool                          `json:"lexical"`
}

func (c TreeConfig) Validate() error {
	if !c.Topology.Valid() {
		return fmt.Errorf("%w: %d", ErrUnsupportedTopology, int(c.Topology))
	}
	if c.PosNum <= 0 {
		return fmt.Errorf("pos_num must be positive, got %d", c.PosNum)
	}
	if (c.LearnLabel || c.Topology == TMultiway) && c.LabelNum <= 0 {
		return fmt.Errorf("label_num must be positive, got %d", c.LabelNum)
	}
	if !c.Topology.CrossLingual() {
		return nil
	}
	if c.ClassNum <= 0 || c.FamilyNum <= 0 {
		return fmt.Errorf("%s topology needs class and family counts, got %d and %d", c.Topology, c.ClassNum, c.FamilyNum)
	}
	for ft, v := range c.Values {
		if v <= 0 {
			return fmt.Errorf("%s topology needs a value count for %s", c.Topology, typology.FeatureType(ft))
		}
	}
	if c.Lexical && c.EmbDim <= 0 && c.TransNum <= 0 {
		return fmt.Errorf("lexical factors need emb_dim or trans_num")
	}
	return nil
}

// TreeConfigFor fills the typology-dependent sizes from table.
func TreeConfigFor(t Topology, cfg feature.Config, table feature.Typology) TreeConfig {
	tc := TreeConfig{
		Topology:   t,
		PosNum:     cfg.PosNum,
		LabelNum:   cfg.LabelNum,
		LearnLabel: cfg.LearnLabel,
		Lexical:    cfg.Lexical && t.CrossLingual(),
	}
	if table != nil {
		tc.ClassNum = table.ClassNum()
		tc.FamilyNum = table.FamilyNum()
		for ft := range tc.Values {
			tc.Values[ft] = table.NumberOfValues(typology.FeatureType(ft))
		}
	}
	return tc
}

// Tree is a factor tree with direct handles on the nodes each coordinate
// role indexes. Handles of roles the topology lacks are nil.
type Tree struct {
	Config TreeConfig
	Root   *Node

	Head    *Node
	Mod     *Node
	HeadCtx *Node
	ModCtx  *Node
	Dist    *Node
	Label   *Node
	SVO     *Node
	Typo    *Node
	HeadLex *Node
	ModLex  *Node
}

// NewTree builds the factor tree of cfg.Topology. Biases are fixed here and
// only the active sets change afterwards.
func NewTree(cfg TreeConfig) (*Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Tree{Config: cfg}
	switch cfg.Topology {
	case Threeway:
		t.buildThreeway()
	case Multiway:
		t.buildMultiway()
	case Hierarchical:
		t.buildHierarchical()
	case TMultiway:
		t.buildTMultiway()
	}
	return t, nil
}

func (t *Tree) Topology() Topology {
	return t.Config.Topology
}

func (t *Tree) buildThreeway() {
	c := t.Config
	p := c.PosNum
	t.Head = newNode("head", true, p, p, p, p*p, p*p)
	t.Mod = newNode("mod", true, p, p, p, p*p, p*p)
	t.Dist = newNode("dist", true, 2*feature.DistanceMagnitudes)
	if c.LearnLabel {
		t.Label = newNode("label", true, c.LabelNum)
	}
	t.Root = newNode("root", false).add(t.Head, t.Mod, t.Dist, t.Label)
}

func (t *Tree) buildMultiway() {
	c := t.Config
	p := c.PosNum
	t.Head = newNode("head", true, p)
	t.Mod = newNode("mod", true, p)
	t.HeadCtx = newNode("head_ctx", true, p, p)
	t.ModCtx = newNode("mod_ctx", true, p, p)
	t.Dist = newNode("dist", true, 2*feature.DistanceMagnitudes)
	if c.LearnLabel {
		t.Label = newNode("label", true, c.LabelNum)
	}
	t.Root = newNode("root", false).add(t.Head, t.Mod, t.HeadCtx, t.ModCtx, t.Dist, t.Label)
}

// typedContext is a context node crossing left and right POS with the
// language class and family.
func typedContext(name string, c TreeConfig) *Node {
	p := c.PosNum
	return newNode(name, true, c.ClassNum, c.FamilyNum, c.ClassNum*p, c.FamilyNum*p, c.ClassNum*p, c.FamilyNum*p)
}

func typedDistance(c TreeConfig) *Node {
	d := feature.DistanceMagnitudes
	return newNode("dist", true, c.ClassNum, c.FamilyNum, d, c.ClassNum*2*d, c.FamilyNum*2*d)
}

func (t *Tree) buildLexical() {
	c := t.Config
	if !c.Lexical {
		return
	}
	t.HeadLex = newNode("head_lex", true, c.EmbDim, c.TransNum)
	t.ModLex = newNode("mod_lex", true, c.EmbDim, c.TransNum)
}

func (t *Tree) buildHierarchical() {
	c := t.Config
	v := c.Values
	t.HeadCtx = typedContext("head_ctx", c)
	t.ModCtx = typedContext("mod_ctx", c)
	t.Dist = typedDistance(c)
	t.Head = newNode("head", true, c.PosNum)
	t.Mod = newNode("mod", true, c.PosNum)
	t.Typo = newNode("typo", false,
		v[typology.Prep]*2, v[typology.Prep]*2, v[typology.Gen]*2, v[typology.Adj]*2,
	).add(t.Head, t.Mod, t.Dist)

	arc := t.Typo
	if c.LearnLabel {
		t.Label = newNode("label", true, c.LabelNum)
		t.SVO = newNode("arc", false,
			v[typology.SV]*4, v[typology.SV]*4, v[typology.VO]*4, v[typology.VO]*4,
		).add(t.Label, t.Typo)
		arc = t.SVO
	}
	delexical := newNode("delexical", false).add(t.HeadCtx, t.ModCtx, arc)

	t.buildLexical()
	if !c.Lexical {
		t.Root = delexical
		return
	}
	lexical := newNode("lexical", false).add(t.HeadLex, t.ModLex)
	t.Root = newNode("root", false).add(lexical, delexical)
}

func (t *Tree) buildTMultiway() {
	c := t.Config
	v := c.Values
	t.Head = newNode("head", true, c.PosNum)
	t.Mod = newNode("mod", true, c.PosNum)
	t.HeadCtx = typedContext("head_ctx", c)
	t.ModCtx = typedContext("mod_ctx", c)
	t.Typo = newNode("typo", true,
		v[typology.SV]*4, v[typology.SV]*4, v[typology.VO]*4, v[typology.VO]*4,
		v[typology.Prep]*2, v[typology.Prep]*2, v[typology.Gen]*2, v[typology.Adj]*2,
	)
	t.Dist = typedDistance(c)
	t.Label = newNode("label", true, c.LabelNum)
	t.buildLexical()
	t.Root = newNode("root", false).add(t.Head, t.Mod, t.HeadCtx, t.ModCtx, t.Typo, t.Dist, t.Label, t.HeadLex, t.ModLex)
}
