package modifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_BuiltinKinds(t *testing.T) {
	assert.InDelta(t, 15.0, Multiply(1.5).Apply(10), 1e-9)
	assert.InDelta(t, 12.5, Add(2.5).Apply(10), 1e-9)
	assert.InDelta(t, 1.0, QualityClamp(2).Apply(0.8), 1e-9)
	assert.InDelta(t, 0.0, QualityClamp(-1).Apply(0.8), 1e-9)
	assert.InDelta(t, 0.4, QualityClamp(0.5).Apply(0.8), 1e-9)
	assert.InDelta(t, 0.7, Weather("RAINY", 0.7).Apply(1), 1e-9)
	assert.InDelta(t, 1.2, Time("dawn", 1.2).Apply(1), 1e-9)
}

func TestCombine_SumsStrength(t *testing.T) {
	got, err := Combine(Multiply(1.2), Multiply(0.3))
	require.NoError(t, err)
	assert.InDelta(t, 1.5, got.Strength, 1e-9)

	_, err = Combine(Multiply(1), Add(1))
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
}

func TestRegistry_CustomKind(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("floor", func(m Modifier, v float64) float64 {
		if v < m.Strength {
			return m.Strength
		}
		return v
	}))
	require.ErrorIs(t, r.Register("floor", func(Modifier, float64) float64 { return 0 }), ErrDuplicate)
	require.ErrorIs(t, r.Register(KindAdd, func(Modifier, float64) float64 { return 0 }), ErrDuplicate)

	v, err := r.Apply(Modifier{Kind: "floor", Strength: 0.25}, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-9)

	assert.True(t, r.Known("floor"))
	assert.Equal(t, Kind("floor"), r.Kinds()[5])
}

func TestRegistry_ApplyAllSkipsUnknown(t *testing.T) {
	r := NewRegistry()
	v, err := r.ApplyAll(2, []Modifier{Multiply(3), {Kind: "mystery", Strength: 9}, Add(1)})
	assert.InDelta(t, 7.0, v, 1e-9)
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestProduct(t *testing.T) {
	assert.InDelta(t, 1.0, Product(nil), 1e-9)
	assert.InDelta(t, 0.6, Product([]Modifier{Weather("STORMY", 0.5), Multiply(1.2)}), 1e-9)
}
