package feature

// addSupervised emits word-identity templates for instances of the target
// language, where gold trees are available for the language itself.
func (b *Builder) addSupervised(a *arc) {
	c := b.codec
	hw := int64(a.inst.Forms[a.h] + 1)
	mw := int64(a.inst.Forms[a.m] + 1)

	a.both(c.PackW(L_CORE_HEAD_WORD, hw), 1)
	a.both(c.PackW(L_CORE_MOD_WORD, mw), 1)
	a.both(c.PackWW(L_HW_MW, hw, mw), 1)
	a.both(c.PackP(L_CORE_HEAD_POS, a.hp), 1)
	a.both(c.PackP(L_CORE_MOD_POS, a.mp), 1)
	a.both(c.PackPP(L_HP_MP, a.hp, a.mp), 1)

	for _, bp := range a.bps {
		a.both(c.PackPPP(L_HP_BP_MP, a.hp, bp, a.mp), 1)
	}

	a.both(c.PackPPPP(L_HPp_HP_MP_MPn, a.hpp, a.hp, a.mp, a.mpn), 1)
	a.both(c.PackPPP(L_HP_MP_MPn, a.hp, a.mp, a.mpn), 1)
	a.both(c.PackPPP(L_HPp_HP_MP, a.hpp, a.hp, a.mp), 1)
	a.both(c.PackPPP(L_HPp_MP_MPn, a.hpp, a.mp, a.mpn), 1)
	a.both(c.PackPPP(L_HPp_HP_MPn, a.hpp, a.hp, a.mpn), 1)

	a.both(c.PackPPPP(L_HP_HPn_MPp_MP, a.hp, a.hpn, a.mpp, a.mp), 1)
	a.both(c.PackPPP(L_HP_MPp_MP, a.hp, a.mpp, a.mp), 1)
	a.both(c.PackPPP(L_HP_HPn_MP, a.hp, a.hpn, a.mp), 1)
	a.both(c.PackPPP(L_HPn_MPp_MP, a.hpn, a.mpp, a.mp), 1)
	a.both(c.PackPPP(L_HP_HPn_MPp, a.hp, a.hpn, a.mpp), 1)

	a.both(c.PackPPPP(L_HPp_HP_MPp_MP, a.hpp, a.hp, a.mpp, a.mp), 1)
	a.both(c.PackPPPP(L_HP_HPn_MP_MPn, a.hp, a.hpn, a.mp, a.mpn), 1)

	a.both(c.PackWWPP(L_HW_MW_HP_MP, hw, mw, a.hp, a.mp), 1)
	a.both(c.PackWPP(L_MW_HP_MP, mw, a.hp, a.mp), 1)
	a.both(c.PackWPP(L_HW_HP_MP, hw, a.hp, a.mp), 1)
	a.both(c.PackWP(L_MW_HP, mw, a.hp), 1)
	a.both(c.PackWP(L_HW_MP, hw, a.mp), 1)
	a.both(c.PackWP(L_HW_HP, hw, a.hp), 1)
	a.both(c.PackWP(L_MW_MP, mw, a.mp), 1)
}
