package tensor

import "tensordep/internal/feature"

// TMultiway routes every word-order code to the single typo node: four
// subject/object blocks followed by four adposition, genitive and
// adjective blocks. Other codes sit on its bias cell.
func tmultiwayRoutes() map[feature.Template]routeFunc {
	typed := func(s *step) coords {
		return coords{dist: s.typedDist(), label: s.label(), svo: -1}
	}
	bare := func(s *step) coords {
		return coords{dist: s.bareDist(), label: s.label(), svo: -1}
	}
	svo := func(*step) coords {
		return coords{svo: -1}
	}
	typo := func(s *step) coords {
		return coords{label: s.label(), svo: -1}
	}

	svoFills := make(map[feature.Template]filler)
	for _, tmpl := range svoTemplates() {
		block, _ := feature.SVOBlock(tmpl)
		svoFills[tmpl] = func(s *step, t *Tree, c *coords) {
			c.typo = t.Typo.Bias[block] + s.svoCode()
		}
	}
	typoFills := make(map[feature.Template]filler)
	for _, tmpl := range typoTemplates() {
		block, _ := feature.TypoBlock(tmpl)
		typoFills[tmpl] = func(s *step, t *Tree, c *coords) {
			c.typo = t.Typo.Bias[len(svoTemplates())+block] + s.typoCode()
		}
	}

	return merge(
		table(typed, typedFills()),
		table(bare, bareFills()),
		table(svo, svoFills),
		table(typo, typoFills),
	)
}
