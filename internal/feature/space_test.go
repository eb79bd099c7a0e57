package feature

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureSpaceRecordsWhileOpen(t *testing.T) {
	s, err := NewFeatureSpace(1000, 500)
	require.NoError(t, err)
	require.NoError(t, s.EnsureOpen())

	fv := &Vector{}
	s.AddArc(1, 1, fv)
	s.AddLabeled(1, 1, fv)
	s.AddArc(2, 0.5, fv)

	require.Equal(t, 2, s.NumCodes())
	require.Equal(t, 2, s.NumIDs(ArcSpace))
	require.Equal(t, 1, s.NumIDs(LabeledSpace))
	require.Equal(t, []CodeEntry{
		{Code: 1, Spaces: ArcSpace | LabeledSpace},
		{Code: 2, Spaces: ArcSpace},
	}, s.Codes())
	require.Equal(t, 3, fv.Len())
	require.Equal(t, []int{31, 62}, fv.IDs())
}

func TestFeatureSpaceFreezeStopsGrowth(t *testing.T) {
	s, err := NewFeatureSpace(1000, 1000)
	require.NoError(t, err)
	s.AddArc(7, 1, nil)
	s.Freeze()

	require.True(t, s.Frozen())
	require.True(t, errors.Is(s.EnsureOpen(), ErrRegistryFrozen))

	fv := &Vector{}
	s.AddArc(8, 1, fv)
	require.Equal(t, 1, s.NumCodes())
	require.Equal(t, []int{HashCode(8, 1000)}, fv.IDs())
}

func TestFeatureSpaceConcurrentAdd(t *testing.T) {
	s, err := NewFeatureSpace(DefaultSpaceSize, DefaultSpaceSize)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				s.AddArc(int64(i), 1, nil)
				if i%2 == w%2 {
					s.AddLabeled(int64(i), 1, nil)
				}
			}
		}(w)
	}
	wg.Wait()

	codes := s.Codes()
	require.Len(t, codes, 500)
	for i, e := range codes {
		require.Equal(t, int64(i), e.Code)
		require.Equal(t, ArcSpace|LabeledSpace, e.Spaces)
	}
}

func TestRestoreRebuildsFrozenSpace(t *testing.T) {
	s, err := NewFeatureSpace(97, 89)
	require.NoError(t, err)
	for _, code := range []int64{-5, 3, 1 << 40} {
		s.AddArc(code, 1, nil)
	}
	s.AddLabeled(3, 1, nil)

	restored, err := Restore(97, 89, s.Codes())
	require.NoError(t, err)
	require.True(t, restored.Frozen())
	require.Equal(t, s.Codes(), restored.Codes())
	require.Equal(t, s.NumIDs(ArcSpace), restored.NumIDs(ArcSpace))
	require.Equal(t, s.NumIDs(LabeledSpace), restored.NumIDs(LabeledSpace))
}

func TestNewFeatureSpaceRejectsEmptySizes(t *testing.T) {
	_, err := NewFeatureSpace(0, 10)
	require.Error(t, err)
}

func TestSpaceLookup(t *testing.T) {
	s, err := NewFeatureSpace(1000, 500)
	require.NoError(t, err)
	s.AddArc(7, 1, nil)
	s.AddLabeled(7, 1, nil)
	s.AddLabeled(9, 1, nil)

	spaces, ok := s.Lookup(7)
	require.True(t, ok)
	require.Equal(t, ArcSpace|LabeledSpace, spaces)
	spaces, ok = s.Lookup(9)
	require.True(t, ok)
	require.Equal(t, LabeledSpace, spaces)
	_, ok = s.Lookup(8)
	require.False(t, ok)
}
