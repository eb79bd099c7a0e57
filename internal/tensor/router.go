package tensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"tensordep/internal/feature"
)

// PruneThreshold is the magnitude at or below which a learned weight is not
// written to the tensor.
const PruneThreshold = 1e-8

// coords are the factor indices of one code. -1 leaves a mode unconstrained.
type coords struct {
	head, mod, hc, mc, dist, label, svo, typo, hl, ml int
}

type routeFunc func(s *step) coords

// Stats summarises one routing pass.
type Stats struct {
	Codes   int `json:"codes"`
	Written int `json:"written"`
	Pruned  int `json:"pruned"`
	Skipped int `json:"skipped"`
}

// Router redistributes learned weights into the factor cells of a tree.
type Router struct {
	tree   *Tree
	codec  feature.Codec
	space  *feature.FeatureSpace
	typo   feature.Typology
	logger *slog.Logger
	routes map[feature.Template]routeFunc
}

type Option func(*Router)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRouter builds the dispatch table of the tree's topology. typo is
// required for cross-lingual topologies.
func NewRouter(tree *Tree, codec feature.Codec, space *feature.FeatureSpace, typo feature.Typology, opts ...Option) (*Router, error) {
	if tree == nil || space == nil {
		return nil, errors.New("router needs a tree and a feature space")
	}
	r := &Router{tree: tree, codec: codec, space: space, typo: typo, logger: slog.Default()}
	switch tree.Topology() {
	case Threeway:
		r.routes = threewayRoutes()
	case Multiway:
		r.routes = multiwayRoutes()
	case Hierarchical:
		r.routes = hierarchicalRoutes()
	case TMultiway:
		r.routes = tmultiwayRoutes()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTopology, tree.Topology())
	}
	if tree.Topology().CrossLingual() && typo == nil {
		return nil, fmt.Errorf("%s topology needs a typology table", tree.Topology())
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Routes reports whether the topology has a mapping for t.
func (r *Router) Routes(t feature.Template) bool {
	_, ok := r.routes[t]
	return ok
}

// Route visits every registered code once, in ascending order, and writes
// its learned weight into sink. Codes whose template has no mapping are
// skipped. A code that decodes outside the active cells of the tree, or
// whose weight is missing, stops the pass.
func (r *Router) Route(ctx context.Context, w Weights, sink *LowRankParam) (Stats, error) {
	var stats Stats
	if !r.space.Frozen() {
		return stats, ErrRegistryOpen
	}
	if sink.Modes() != r.tree.Topology().Modes() {
		return stats, fmt.Errorf("%w: sink has %d modes, %s needs %d", ErrTopologyMismatch, sink.Modes(), r.tree.Topology(), r.tree.Topology().Modes())
	}

	for i, e := range r.space.Codes() {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}
		stats.Codes++

		tmpl := r.codec.TemplateOf(e.Code)
		route, ok := r.routes[tmpl]
		if !ok {
			stats.Skipped++
			continue
		}

		space := feature.LabeledSpace
		if e.Spaces&feature.ArcSpace != 0 {
			space = feature.ArcSpace
		}
		id := r.space.ID(space, e.Code)
		value, ok := w.Weight(space, id)
		if !ok {
			return stats, &RouteError{Code: e.Code, Template: tmpl, Role: space.String() + " weight", Index: id, Size: r.space.Size(space), Err: ErrMissingWeight}
		}

		c, err := r.coords(e.Code, tmpl, route)
		if err != nil {
			return stats, err
		}
		if math.Abs(value) <= PruneThreshold {
			stats.Pruned++
			continue
		}
		if err := sink.PutEntry(r.entry(c), value); err != nil {
			return stats, err
		}
		stats.Written++
	}

	r.logger.Info("tensor routed",
		"topology", r.tree.Topology().String(),
		"codes", stats.Codes,
		"written", stats.Written,
		"pruned", stats.Pruned,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// Coordinates decodes code into the entry coordinates of the tree's
// topology. The boolean is false when the template has no mapping.
func (r *Router) Coordinates(code int64) ([]int, bool, error) {
	tmpl := r.codec.TemplateOf(code)
	route, ok := r.routes[tmpl]
	if !ok {
		return nil, false, nil
	}
	c, err := r.coords(code, tmpl, route)
	if err != nil {
		return nil, true, err
	}
	return r.entry(c), true, nil
}

// Decode splits code with the arity its template has under the tree's
// topology: typed templates carry the class/family slot in cross-lingual
// topologies.
func (r *Router) Decode(code int64) (feature.Decoded, error) {
	tmpl := r.codec.TemplateOf(code)
	info, ok := tmpl.Info()
	if !ok {
		return feature.Decoded{}, &RouteError{Code: code, Template: tmpl, Err: ErrTopologyMismatch}
	}
	arity := info.Arity
	if r.typed(info) {
		arity = arity.WithTypology()
	}
	d, err := r.codec.Decode(code, arity)
	if err != nil {
		return feature.Decoded{}, &RouteError{Code: code, Template: tmpl, Err: fmt.Errorf("%w: %v", ErrTopologyMismatch, err)}
	}
	return d, nil
}

func (r *Router) typed(info feature.TemplateInfo) bool {
	return info.Typed && r.tree.Topology().CrossLingual()
}

func (r *Router) coords(code int64, tmpl feature.Template, route routeFunc) (coords, error) {
	d, err := r.Decode(code)
	if err != nil {
		return coords{}, err
	}

	s := &step{r: r, d: d, cf: -1}
	if info, _ := tmpl.Info(); r.typed(info) {
		s.classFamily()
	}
	c := route(s)
	if s.err != nil {
		return coords{}, s.err
	}
	if !r.tree.Config.LearnLabel {
		c.label = -1
		c.svo = -1
	}
	if err := r.check(code, tmpl, c); err != nil {
		return coords{}, err
	}
	return c, nil
}

func (r *Router) check(code int64, tmpl feature.Template, c coords) error {
	t := r.tree
	for _, role := range []struct {
		name string
		node *Node
		idx  int
	}{
		{"head", t.Head, c.head},
		{"mod", t.Mod, c.mod},
		{"head_ctx", t.HeadCtx, c.hc},
		{"mod_ctx", t.ModCtx, c.mc},
		{"dist", t.Dist, c.dist},
		{"label", t.Label, c.label},
		{"svo", t.SVO, c.svo},
		{"typo", t.Typo, c.typo},
		{"head_lex", t.HeadLex, c.hl},
		{"mod_lex", t.ModLex, c.ml},
	} {
		if role.idx < 0 {
			continue
		}
		if role.node == nil {
			if role.idx == 0 {
				continue
			}
			return &RouteError{Code: code, Template: tmpl, Role: role.name, Index: role.idx, Err: ErrTopologyMismatch}
		}
		if !role.node.IsActive(role.idx) {
			return &RouteError{Code: code, Template: tmpl, Role: role.name, Index: role.idx, Size: role.node.Size, Err: ErrInactiveCoordinate}
		}
	}
	return nil
}

// entry orders c the way the topology's tensor expects.
func (r *Router) entry(c coords) []int {
	switch r.tree.Topology() {
	case Threeway:
		return []int{c.head, c.mod, c.dist, c.label}
	case Multiway:
		return []int{c.head, c.mod, c.hc, c.mc, c.dist, c.label}
	case Hierarchical:
		return []int{c.head, c.mod, c.hc, c.mc, c.dist, c.label, c.svo, c.typo, c.hl, c.ml}
	default:
		return []int{c.head, c.mod, c.hc, c.mc, c.dist, c.label, c.typo, c.hl, c.ml}
	}
}

// step derives the indices of one decoded code. The first failure is kept
// in err and later derivations return 0.
type step struct {
	r   *Router
	d   feature.Decoded
	cf  int
	err error
}

func (s *step) fail(role string, idx int, err error) int {
	if s.err == nil {
		s.err = &RouteError{Code: s.d.Code, Template: s.d.Template, Role: role, Index: idx, Err: err}
	}
	return 0
}

// arg returns positional argument i, which must be a shifted id.
func (s *step) arg(i int) int {
	x := s.d.Args[i]
	if x < 1 {
		return s.fail(fmt.Sprintf("argument %d", i), x, ErrTopologyMismatch)
	}
	return x
}

func (s *step) classFamily() {
	last := len(s.d.Args) - 1
	x := s.d.Args[last]
	cfg := s.r.tree.Config
	if x < 1 || x > cfg.ClassNum+cfg.FamilyNum {
		s.fail("class/family", x, ErrTopologyMismatch)
		return
	}
	s.cf = x - 1
}

func (s *step) pos(n *Node, i int) int {
	return n.Bias[0] + s.arg(i) - 1
}

// pair is the composite index of two POS arguments within a block.
func (s *step) pair(n *Node, block, i, j int) int {
	return n.Bias[block] + (s.arg(i)-1)*s.r.tree.Config.PosNum + s.arg(j) - 1
}

func (s *step) ctx(n *Node, block, i int) int {
	return n.Bias[block] + s.arg(i) - 1
}

// typedCtx crosses a context POS argument with the class/family index.
func (s *step) typedCtx(n *Node, block, i int) int {
	return n.Bias[block] + s.cf*s.r.tree.Config.PosNum + s.arg(i) - 1
}

func (s *step) directDist() int {
	if s.d.Distance == 0 {
		return 0
	}
	return s.r.tree.Dist.Bias[0] + s.d.Distance - 1
}

func (s *step) typedDist() int {
	dist := s.r.tree.Dist
	if s.d.Distance == 0 {
		return dist.Bias[0] + s.cf
	}
	return dist.Bias[3] + s.cf*2*feature.DistanceMagnitudes + s.d.Distance - 1
}

func (s *step) bareDist() int {
	if s.d.Distance == 0 {
		return 0
	}
	if s.d.Distance > feature.DistanceMagnitudes {
		return s.fail("dist", s.d.Distance, ErrTopologyMismatch)
	}
	return s.r.tree.Dist.Bias[2] + s.d.Distance - 1
}

func (s *step) label() int {
	if s.d.Label == 0 {
		return 0
	}
	if s.r.tree.Label == nil {
		return s.fail("label", s.d.Label, ErrTopologyMismatch)
	}
	return s.r.tree.Label.Bias[0] + s.d.Label - 1
}

// lex indexes a block of a lexical node by a shifted word argument.
func (s *step) lex(n *Node, role string, block, i int) int {
	if n == nil {
		return s.fail(role, s.d.Args[i], ErrTopologyMismatch)
	}
	return n.Bias[block] + s.arg(i) - 1
}

// wordOrder validates a selective code and returns its typological value
// and direction.
func (s *step) wordOrder() (v, dir int) {
	ft, _ := feature.WordOrderFeature(s.d.Template)
	v = s.arg(0) - 1
	if n := s.r.typo.NumberOfValues(ft); v >= n {
		s.fail(ft.String()+" value", v, ErrTopologyMismatch)
	}
	if s.d.Distance != 1 && s.d.Distance != 2 {
		s.fail("direction", s.d.Distance, ErrTopologyMismatch)
	}
	return v, s.d.Distance - 1
}

// svoCode validates the label of a subject/object code and returns its
// composite word-order index.
func (s *step) svoCode() int {
	v, dir := s.wordOrder()
	lbl := s.d.Label - 1
	switch s.d.Template {
	case feature.SV_NOUN, feature.SV_PRON:
		if lbl != feature.LabelSbj && lbl != feature.LabelSbjPass {
			return s.fail("label", lbl, ErrTopologyMismatch)
		}
	default:
		if lbl != feature.LabelDobj && lbl != feature.LabelIobj {
			return s.fail("label", lbl, ErrTopologyMismatch)
		}
	}
	return feature.SVOCode(v, dir, feature.SVOSecondary(lbl))
}

func (s *step) typoCode() int {
	v, dir := s.wordOrder()
	return feature.TypoCode(v, dir)
}

// filler sets the indices a template constrains on top of a base.
type filler func(s *step, t *Tree, c *coords)

func table(base func(*step) coords, fills map[feature.Template]filler) map[feature.Template]routeFunc {
	out := make(map[feature.Template]routeFunc, len(fills))
	for tmpl, fill := range fills {
		out[tmpl] = func(s *step) coords {
			c := base(s)
			fill(s, s.r.tree, &c)
			return c
		}
	}
	return out
}
