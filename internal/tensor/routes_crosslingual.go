package tensor

import "tensordep/internal/feature"

// Cross-lingual codes carry a trailing class/family slot. Context POS is
// crossed with it in blocks 2 (left) and 4 (right) of the context nodes,
// and distance-suffixed codes land in the typed distance blocks.

func typedFills() map[feature.Template]filler {
	return map[feature.Template]filler{
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
			c.hc = s.typedCtx(t.HeadCtx, 2, 0)
		},
		feature.HP_HPn_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pos(t.Mod, 2)
			c.hc = s.typedCtx(t.HeadCtx, 4, 1)
		},
		feature.HP_MPp_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pos(t.Mod, 2)
			c.mc = s.typedCtx(t.ModCtx, 2, 1)
		},
		feature.HP_MP_MPn: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pos(t.Mod, 1)
			c.mc = s.typedCtx(t.ModCtx, 4, 2)
		},
		feature.HPp_HP_MP_MPn: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 1)
			c.mod = s.pos(t.Mod, 2)
			c.hc = s.typedCtx(t.HeadCtx, 2, 0)
			c.mc = s.typedCtx(t.ModCtx, 4, 3)
		},
		feature.HP_HPn_MP_MPn: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pos(t.Mod, 2)
			c.hc = s.typedCtx(t.HeadCtx, 4, 1)
			c.mc = s.typedCtx(t.ModCtx, 4, 3)
		},
		feature.HP_HPn_MPp_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pos(t.Mod, 3)
			c.hc = s.typedCtx(t.HeadCtx, 4, 1)
			c.mc = s.typedCtx(t.ModCtx, 2, 2)
		},
		feature.HPp_HP_MPp_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 1)
			c.mod = s.pos(t.Mod, 3)
			c.hc = s.typedCtx(t.HeadCtx, 2, 0)
			c.mc = s.typedCtx(t.ModCtx, 2, 2)
		},

		feature.HEAD_EMB: func(s *step, t *Tree, c *coords) {
			c.hl = s.lex(t.HeadLex, "head_lex", 0, 0)
		},
		feature.MOD_EMB: func(s *step, t *Tree, c *coords) {
			c.ml = s.lex(t.ModLex, "mod_lex", 0, 0)
		},
		feature.HW_HP_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 1)
			c.mod = s.pos(t.Mod, 2)
			c.hl = s.lex(t.HeadLex, "head_lex", 1, 0)
		},
		feature.HW_MP: func(s *step, t *Tree, c *coords) {
			c.mod = s.pos(t.Mod, 1)
			c.hl = s.lex(t.HeadLex, "head_lex", 1, 0)
		},
		feature.MW_HP_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 1)
			c.mod = s.pos(t.Mod, 2)
			c.ml = s.lex(t.ModLex, "mod_lex", 1, 0)
		},
		feature.MW_HP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 1)
			c.ml = s.lex(t.ModLex, "mod_lex", 1, 0)
		},
	}
}

// bareFills cover the templates keyed by undirected distance, which carry
// no class/family slot.
func bareFills() map[feature.Template]filler {
	return map[feature.Template]filler{
		feature.DIST: func(s *step, _ *Tree, _ *coords) {
			if s.d.Distance == 0 {
				s.fail("dist", 0, ErrTopologyMismatch)
			}
		},
		feature.B_HP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
		},
		feature.B_MP: func(s *step, t *Tree, c *coords) {
			c.mod = s.pos(t.Mod, 0)
		},
		feature.B_HP_MP: func(s *step, t *Tree, c *coords) {
			c.head = s.pos(t.Head, 0)
			c.mod = s.pos(t.Mod, 1)
		},
		feature.B_HEAD_EMB: func(s *step, t *Tree, c *coords) {
			c.hl = s.lex(t.HeadLex, "head_lex", 0, 0)
			c.label = 0
		},
		feature.B_MOD_EMB: func(s *step, t *Tree, c *coords) {
			c.ml = s.lex(t.ModLex, "mod_lex", 0, 0)
			c.label = 0
		},
	}
}

func svoTemplates() []feature.Template {
	return []feature.Template{feature.SV_NOUN, feature.SV_PRON, feature.VO_NOUN, feature.VO_PRON}
}

func typoTemplates() []feature.Template {
	return []feature.Template{feature.ADP_NOUN, feature.ADP_PRON, feature.GEN, feature.ADJ}
}

func merge(tables ...map[feature.Template]routeFunc) map[feature.Template]routeFunc {
	out := make(map[feature.Template]routeFunc)
	for _, t := range tables {
		for k, v := range t {
			out[k] = v
		}
	}
	return out
}
