package feature

// addDelexical emits the POS, context, distance and lexical templates
// without any typological slot.
func (b *Builder) addDelexical(a *arc, labeled bool) {
	c := b.codec

	a.add(c.PackP(ATTDIST, 0)|a.attDist, 1)

	a.both(c.PackP(HP, a.hp), 1)
	a.both(c.PackP(MP, a.mp), 1)
	a.both(c.PackPP(HP_MP, a.hp, a.mp), 1)

	a.both(c.PackPPP(HPp_HP_MP, a.hpp, a.hp, a.mp), 1)
	a.both(c.PackPPP(HP_HPn_MP, a.hp, a.hpn, a.mp), 1)
	a.both(c.PackPPP(HP_MPp_MP, a.hp, a.mpp, a.mp), 1)
	a.both(c.PackPPP(HP_MP_MPn, a.hp, a.mp, a.mpn), 1)

	a.both(c.PackPPPP(HPp_HP_MP_MPn, a.hpp, a.hp, a.mp, a.mpn), 1)
	a.both(c.PackPPPP(HP_HPn_MP_MPn, a.hp, a.hpn, a.mp, a.mpn), 1)
	a.both(c.PackPPPP(HP_HPn_MPp_MP, a.hp, a.hpn, a.mpp, a.mp), 1)
	a.both(c.PackPPPP(HPp_HP_MPp_MP, a.hpp, a.hp, a.mpp, a.mp), 1)

	for _, bp := range a.bps {
		a.add(c.PackPPP(HP_BP_MP, a.hp, bp, a.mp), 1)
	}

	for i, v := range a.hvec {
		a.both(c.PackW(HEAD_EMB, int64(i+1)), v)
	}
	for i, v := range a.mvec {
		code := c.PackW(MOD_EMB, int64(i+1))
		if labeled {
			a.add(code, v)
		}
		a.add(code|a.attDist, v)
	}

	if a.htrans > 0 {
		a.both(c.PackWPP(HW_HP_MP, a.htrans, a.hp, a.mp), 1)
		a.both(c.PackWP(HW_MP, a.htrans, a.mp), 1)
	}
	if a.mtrans > 0 {
		a.both(c.PackWPP(MW_HP_MP, a.mtrans, a.hp, a.mp), 1)
		a.both(c.PackWP(MW_HP, a.mtrans, a.hp), 1)
	}
}
