package history

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func declareAll(t *testing.T, s *Store, histories ...string) {
	t.Helper()
	for _, x := range histories {
		require.NoError(t, s.Declare(h(t, x)))
	}
}

func TestSetEnergy(t *testing.T) {
	s := NewStore()
	declareAll(t, s, "01")

	assert.Equal(t, Energy(0), s.Energy(h(t, "01")))
	require.NoError(t, s.SetEnergy(h(t, "01"), 42))
	assert.Equal(t, Energy(42), s.Energy(h(t, "01")))
	assert.Equal(t, Energy(0), s.Energy(h(t, "0")), "energy is not inherited by prefixes")

	require.NoError(t, s.SetEnergy(h(t, "01"), 7))
	assert.Equal(t, Energy(7), s.Energy(h(t, "01")))
}

func TestSetEnergy_Errors(t *testing.T) {
	s := NewStore()
	declareAll(t, s, "0")

	assert.ErrorIs(t, s.SetEnergy(h(t, "1"), 5), ErrUnknownHistory)
	assert.ErrorIs(t, s.SetEnergy(h(t, "0"), 0), ErrInvalidNumber)
	assert.ErrorIs(t, s.SetEnergy(nil, 5), ErrInvalidHistory)
	assert.Equal(t, Energy(0), s.Energy(h(t, "0")))
}

func TestEnergy_UnknownHistory(t *testing.T) {
	s := NewStore()
	assert.Equal(t, Energy(0), s.Energy(h(t, "0")))
	assert.Equal(t, Energy(0), s.Energy(nil))
}

func TestPropagation_Closure(t *testing.T) {
	for _, target := range []string{"0", "1", "2"} {
		t.Run("set on "+target, func(t *testing.T) {
			s := NewStore()
			declareAll(t, s, "0", "1", "2")
			require.NoError(t, s.SetEnergy(h(t, "0"), 1))
			require.NoError(t, s.Equate(h(t, "0"), h(t, "1")))
			require.NoError(t, s.Equate(h(t, "1"), h(t, "2")))

			require.NoError(t, s.SetEnergy(h(t, target), 99))

			for _, x := range []string{"0", "1", "2"} {
				assert.Equal(t, Energy(99), s.Energy(h(t, x)), "history %s", x)
			}
			assert.False(t, s.Equivalent(h(t, "0"), h(t, "2")), "classes are not flattened")
		})
	}
}

func TestPropagation_CycleSafe(t *testing.T) {
	s := NewStore()
	declareAll(t, s, "0", "1", "2", "3")
	require.NoError(t, s.SetEnergy(h(t, "0"), 10))
	require.NoError(t, s.Equate(h(t, "0"), h(t, "1")))
	require.NoError(t, s.Equate(h(t, "1"), h(t, "2")))
	require.NoError(t, s.Equate(h(t, "2"), h(t, "0")))

	writes := map[NodeID]int{}
	start, _ := s.lookup(h(t, "1"))
	n := s.walk(start, func(id NodeID) { writes[id]++ })

	assert.Equal(t, 3, n)
	for id, count := range writes {
		assert.Equal(t, 1, count, "node %d visited more than once", id)
	}

	require.NoError(t, s.SetEnergy(h(t, "2"), 77))
	for _, x := range []string{"0", "1", "2"} {
		assert.Equal(t, Energy(77), s.Energy(h(t, x)))
	}
	assert.Equal(t, Energy(0), s.Energy(h(t, "3")), "outside the class")
	assert.Equal(t, 3, s.ClassSize(h(t, "0")))
	assert.Equal(t, 1, s.ClassSize(h(t, "3")))
	assert.Equal(t, 0, s.ClassSize(h(t, "33")))
}

func TestMean(t *testing.T) {
	tests := []struct {
		a, b Energy
		want Energy
	}{
		{10, 20, 15},
		{3, 4, 3},
		{4, 3, 3},
		{3, 5, 4},
		{1, 1, 1},
		{1, 2, 1},
		{7, 7, 7},
		{0, 9, 4},
		{math.MaxUint64, math.MaxUint64, math.MaxUint64},
		{math.MaxUint64, math.MaxUint64 - 1, math.MaxUint64 - 1},
		{math.MaxUint64, 1, 1 << 63},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Mean(tt.a, tt.b), "Mean(%d, %d)", tt.a, tt.b)
	}
}

func TestEquate_MergesEnergy(t *testing.T) {
	tests := []struct {
		name   string
		ea, eb Energy
		want   Energy
	}{
		{"only a", 5, 0, 5},
		{"only b", 0, 8, 8},
		{"both even sum", 10, 20, 15},
		{"both odd sum", 3, 4, 3},
		{"both odd", 3, 5, 4},
		{"max", math.MaxUint64, math.MaxUint64, math.MaxUint64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			declareAll(t, s, "0", "1")
			if tt.ea != 0 {
				require.NoError(t, s.SetEnergy(h(t, "0"), tt.ea))
			}
			if tt.eb != 0 {
				require.NoError(t, s.SetEnergy(h(t, "1"), tt.eb))
			}

			require.NoError(t, s.Equate(h(t, "0"), h(t, "1")))

			assert.Equal(t, tt.want, s.Energy(h(t, "0")))
			assert.Equal(t, tt.want, s.Energy(h(t, "1")))
			assert.True(t, s.Equivalent(h(t, "0"), h(t, "1")))
			assert.True(t, s.Equivalent(h(t, "1"), h(t, "0")))
		})
	}
}

func TestEquate_PropagatesThroughBothClasses(t *testing.T) {
	s := NewStore()
	declareAll(t, s, "00", "01", "10", "11")
	require.NoError(t, s.SetEnergy(h(t, "00"), 10))
	require.NoError(t, s.Equate(h(t, "00"), h(t, "01")))
	require.NoError(t, s.SetEnergy(h(t, "10"), 30))
	require.NoError(t, s.Equate(h(t, "10"), h(t, "11")))

	require.NoError(t, s.Equate(h(t, "01"), h(t, "11")))

	for _, x := range []string{"00", "01", "10", "11"} {
		assert.Equal(t, Energy(20), s.Energy(h(t, x)), "history %s", x)
	}
}

func TestEquate_NoEnergyRejected(t *testing.T) {
	s := NewStore()
	declareAll(t, s, "0", "1")

	assert.ErrorIs(t, s.Equate(h(t, "0"), h(t, "1")), ErrNoEnergy)
	assert.False(t, s.Equivalent(h(t, "0"), h(t, "1")))
	assert.Equal(t, int64(0), s.Stats().Edges)
}

func TestEquate_Noops(t *testing.T) {
	s := NewStore()
	declareAll(t, s, "0", "1")

	// Self-equate never fails, even without energy.
	require.NoError(t, s.Equate(h(t, "0"), h(t, "0")))
	assert.Equal(t, int64(0), s.Stats().Edges)

	require.NoError(t, s.SetEnergy(h(t, "0"), 4))
	require.NoError(t, s.Equate(h(t, "0"), h(t, "1")))
	require.NoError(t, s.SetEnergy(h(t, "1"), 6))
	assert.Equal(t, Energy(6), s.Energy(h(t, "0")))

	// Already equal: no new edge and no re-averaging.
	require.NoError(t, s.Equate(h(t, "1"), h(t, "0")))
	assert.Equal(t, int64(1), s.Stats().Edges)
	assert.Equal(t, Energy(6), s.Energy(h(t, "0")))
}

func TestEquate_UnknownHistory(t *testing.T) {
	s := NewStore()
	declareAll(t, s, "0")
	require.NoError(t, s.SetEnergy(h(t, "0"), 1))

	assert.ErrorIs(t, s.Equate(h(t, "0"), h(t, "1")), ErrUnknownHistory)
	assert.ErrorIs(t, s.Equate(h(t, "2"), h(t, "0")), ErrUnknownHistory)
	assert.ErrorIs(t, s.Equate(h(t, "0"), nil), ErrInvalidHistory)
	assert.Equal(t, int64(0), s.Stats().Edges)
}

func TestRemove_SeversEdges(t *testing.T) {
	s := NewStore()
	declareAll(t, s, "012", "1", "2")
	require.NoError(t, s.SetEnergy(h(t, "01"), 3))
	require.NoError(t, s.SetEnergy(h(t, "2"), 5))
	require.NoError(t, s.Equate(h(t, "01"), h(t, "1")))
	require.NoError(t, s.Equate(h(t, "012"), h(t, "2")))
	// Edge with both endpoints inside the removed subtree.
	require.NoError(t, s.Equate(h(t, "01"), h(t, "012")))
	require.Equal(t, int64(3), s.Stats().Edges)
	require.Equal(t, Energy(4), s.Energy(h(t, "2")))

	require.NoError(t, s.Remove(h(t, "01")))

	assert.Equal(t, int64(0), s.Stats().Edges)
	one, _ := s.lookup(h(t, "1"))
	two, _ := s.lookup(h(t, "2"))
	assert.Empty(t, s.nodes[one].edges)
	assert.Empty(t, s.nodes[two].edges)

	// Outside endpoints keep their energy and stay usable.
	assert.Equal(t, Energy(4), s.Energy(h(t, "1")))
	require.NoError(t, s.SetEnergy(h(t, "1"), 9))
	assert.Equal(t, Energy(4), s.Energy(h(t, "2")))
}

func TestRemove_ReusedSlotHasNoStaleEdges(t *testing.T) {
	s := NewStore()
	declareAll(t, s, "0", "1")
	require.NoError(t, s.SetEnergy(h(t, "0"), 2))
	require.NoError(t, s.Equate(h(t, "0"), h(t, "1")))

	require.NoError(t, s.Remove(h(t, "0")))
	declareAll(t, s, "2")

	assert.False(t, s.Equivalent(h(t, "1"), h(t, "2")))
	assert.Equal(t, Energy(0), s.Energy(h(t, "2")))
	require.NoError(t, s.SetEnergy(h(t, "1"), 8))
	assert.Equal(t, Energy(0), s.Energy(h(t, "2")))
}

func TestScenario_EndToEnd(t *testing.T) {
	s := NewStore()
	declareAll(t, s, "012")

	assert.True(t, s.Valid(h(t, "0")))
	assert.True(t, s.Valid(h(t, "01")))
	assert.True(t, s.Valid(h(t, "012")))
	assert.False(t, s.Valid(h(t, "0120")))

	require.NoError(t, s.SetEnergy(h(t, "0"), 10))
	assert.ErrorIs(t, s.SetEnergy(h(t, "1"), 20), ErrUnknownHistory)
	declareAll(t, s, "1")
	require.NoError(t, s.SetEnergy(h(t, "1"), 20))

	require.NoError(t, s.Equate(h(t, "0"), h(t, "1")))
	assert.Equal(t, Energy(15), s.Energy(h(t, "0")))
	assert.Equal(t, Energy(15), s.Energy(h(t, "1")))

	require.NoError(t, s.Remove(h(t, "0")))
	assert.False(t, s.Valid(h(t, "0")))
	assert.False(t, s.Valid(h(t, "01")))
	assert.False(t, s.Valid(h(t, "012")))
	assert.Equal(t, Energy(15), s.Energy(h(t, "1")))

	require.NoError(t, s.SetEnergy(h(t, "1"), 20))
	assert.Equal(t, Energy(20), s.Energy(h(t, "1")))
	assert.Equal(t, Energy(0), s.Energy(h(t, "0")))
}

func TestDeepHistory(t *testing.T) {
	s := NewStore()
	deep := make(History, 100000)
	for i := range deep {
		deep[i] = Symbol(i % Alphabet)
	}

	require.NoError(t, s.Declare(deep))
	assert.True(t, s.Valid(deep))
	assert.Equal(t, int64(len(deep)), s.Stats().Nodes)

	require.NoError(t, s.Remove(deep[:1]))
	assert.Equal(t, int64(0), s.Stats().Nodes)
}
