package feature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashCodeKnownValues(t *testing.T) {
	require.Equal(t, 0, HashCode(0, 1000))
	require.Equal(t, 31, HashCode(1, 1000))
	// -1 mixes to 0xffffffff00000000 before the multiply.
	require.Equal(t, 176, HashCode(-1, 1000))
}

func TestHashCodeRange(t *testing.T) {
	for _, n := range []int{1, 7, 1 << 20, DefaultSpaceSize} {
		for _, code := range []int64{0, 1, -1, 42, -42, math.MaxInt64, math.MinInt64, math.MinInt64 + 1, 0x7fffffff00000000} {
			id := HashCode(code, n)
			require.GreaterOrEqual(t, id, 0, "code %d n %d", code, n)
			require.Less(t, id, n, "code %d n %d", code, n)
		}
	}
}

func TestHashCodeDeterministic(t *testing.T) {
	c := MustCodec(testWidths())
	code := c.PackPP(HP_MP, 5, 9) | 3
	first := HashCode(code, DefaultSpaceSize)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, HashCode(code, DefaultSpaceSize))
	}
}
