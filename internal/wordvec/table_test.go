package wordvec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutAndLookup(t *testing.T) {
	table, err := NewTable(2)
	require.NoError(t, err)

	vec := []float64{0.5, -1}
	require.NoError(t, table.Put(0, 7, vec))
	vec[0] = 99

	got, ok := table.WordVec(0, 7)
	require.True(t, ok)
	require.Equal(t, []float64{0.5, -1}, got)

	_, ok = table.WordVec(1, 7)
	require.False(t, ok)

	require.Error(t, table.Put(0, 8, []float64{1}))
}

func TestParse(t *testing.T) {
	table, err := Parse([]byte(`{"dim":3,"vectors":[{"lang":1,"id":2,"vector":[1,2,3]}]}`))
	require.NoError(t, err)
	require.Equal(t, 3, table.Dim())
	require.Equal(t, 1, table.Len())

	_, err = Parse([]byte(`{"dim":0}`))
	require.Error(t, err)
}
