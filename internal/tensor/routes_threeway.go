package tensor

import "tensordep/internal/feature"

// Threeway folds the context POS of head and modifier into their own nodes
// as left and right POS pairs (blocks 3 and 4).
func threewayRoutes() map[feature.Template]routeFunc {
	base := func(s *step) coords {
		return coords{hc: -1, mc: -1, dist: s.directDist(), label: s.label(), svo: -1, typo: -1, hl: -1, ml: -1}
	}
	return table(base, map[feature.Template]filler{
		feature.ATTDIST: func(*step, *Tree, *coords) {},
		feature.HP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
		},
		feature.MP: func(s *step, t *Tree, c *coords) {
			c.mod = s.pos(t.Mod, 0)
		},
		feature.HP_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pos(t.Mod, 1)
		},
		feature.HPp_HP_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pair(t.Head, 3, 0, 1)
			c.mod = s.pos(t.Mod, 2)
		},
		feature.HP_HPn_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pair(t.Head, 4, 0, 1)
			c.mod = s.pos(t.Mod, 2)
		},
		feature.HP_MPp_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pair(t.Mod, 3, 1, 2)
		},
		feature.HP_MP_MPn: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pair(t.Mod, 4, 1, 2)
		},
		feature.HPp_HP_MP_MPn: func(s *step, t *Tree, c *coords) {
			c.head = s.pair(t.Head, 3, 0, 1)
			c.mod = s.pair(t.Mod, 4, 2, 3)
		},
		feature.HP_HPn_MP_MPn: func(s *step, t *Tree, c *coords) {
			c.head = s.pair(t.Head, 4, 0, 1)
			c.mod = s.pair(t.Mod, 4, 2, 3)
		},
		feature.HP_HPn_MPp_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pair(t.Head, 4, 0, 1)
			c.mod = s.pair(t.Mod, 3, 2, 3)
		},
		feature.HPp_HP_MPp_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pair(t.Head, 3, 0, 1)
			c.mod = s.pair(t.Mod, 3, 2, 3)
		},
	})
}
