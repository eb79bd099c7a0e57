package tensor

import "tensordep/internal/feature"

// Multiway keeps context POS in separate head and modifier context nodes:
// block 0 is the left neighbour, block 1 the right one.
func multiwayRoutes() map[feature.Template]routeFunc {
	base := func(s *step) coords {
		return coords{dist: s.directDist(), label: s.label(), svo: -1, typo: -1, hl: -1, ml: -1}
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
			c.head = s.pos(t.Head, 1)
			c.mod = s.pos(t.Mod, 2)
			c.hc = s.ctx(t.HeadCtx, 0, 0)
		},
		feature.HP_HPn_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pos(t.Mod, 2)
			c.hc = s.ctx(t.HeadCtx, 1, 1)
		},
		feature.HP_MPp_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pos(t.Mod, 2)
			c.mc = s.ctx(t.ModCtx, 0, 1)
		},
		feature.HP_MP_MPn: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pos(t.Mod, 1)
			c.mc = s.ctx(t.ModCtx, 1, 2)
		},
		feature.HPp_HP_MP_MPn: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 1)
			c.mod = s.pos(t.Mod, 2)
			c.hc = s.ctx(t.HeadCtx, 0, 0)
			c.mc = s.ctx(t.ModCtx, 1, 3)
		},
		feature.HP_HPn_MP_MPn: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pos(t.Mod, 2)
			c.hc = s.ctx(t.HeadCtx, 1, 1)
			c.mc = s.ctx(t.ModCtx, 1, 3)
		},
		feature.HP_HPn_MPp_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pos(t.Mod, 3)
			c.hc = s.ctx(t.HeadCtx, 1, 1)
			c.mc = s.ctx(t.ModCtx, 0, 2)
		},
		feature.HPp_HP_MPp_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 1)
			c.mod = s.pos(t.Mod, 3)
			c.hc = s.ctx(t.HeadCtx, 0, 0)
			c.mc = s.ctx(t.ModCtx, 0, 2)
		},
	})
}
