package tensor

import "tensordep/internal/feature"

// Hierarchical routes subject/object codes to the arc node and the other
// word-order codes to the typo node. Word-order codes leave the POS and
// distance modes unconstrained.
func hierarchicalRoutes() map[feature.Template]routeFunc {
	typed := func(s *step) coords {
		return coords{dist: s.typedDist(), label: s.label(), svo: -1, typo: -1}
	}
	bare := func(s *step) coords {
		return coords{dist: s.bareDist(), label: s.label(), svo: -1, typo: -1}
	}
	svo := func(*step) coords {
		return coords{head: -1, mod: -1, dist: -1, label: -1, typo: -1}
	}
	typo := func(s *step) coords {
		return coords{head: -1, mod: -1, dist: -1, label: s.label(), svo: -1}
	}

	svoFills := make(map[feature.Template]filler)
	for _, tmpl := range svoTemplates() {
		block, _ := feature.SVOBlock(tmpl)
		svoFills[tmpl] = func(s *step, t *Tree, c *coords) {
			if t.SVO == nil {
				c.svo = s.fail("svo", 0, ErrTopologyMismatch)
				return
			}
			c.svo = t.SVO.Bias[block] + s.svoCode()
		}
	}
	typoFills := make(map[feature.Template]filler)
	for _, tmpl := range typoTemplates() {
		block, _ := feature.TypoBlock(tmpl)
		typoFills[tmpl] = func(s *step, t *Tree, c *coords) {
			c.typo = t.Typo.Bias[block] + s.typoCode()
		}
	}

	return merge(
		table(typed, typedFills()),
		table(bare, bareFills()),
		table(svo, svoFills),
		table(typo, typoFills),
	)
}
