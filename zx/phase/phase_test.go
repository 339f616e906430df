package phase_test

import (
	"testing"

	"github.com/2x3systems/gozx/zx/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	assert.Equal(t, "1/2", phase.New(5, 2).String())
	assert.Equal(t, "7/4", phase.New(-1, 4).String())
	assert.Equal(t, "0", phase.New(4, 1).String())
	assert.True(t, phase.New(6, 3).IsZero())
	assert.True(t, phase.New(2, 4).Equal(phase.Half))
	assert.True(t, phase.Sym("a", 0, 3).IsZero())

	num, den, ok := phase.New(9, 6).Frac()
	require.True(t, ok)
	assert.Equal(t, [2]int64{3, 2}, [2]int64{num, den})

	_, _, ok = phase.Param("a").Frac()
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	for _, tc := range []struct {
		p                        phase.Phase
		pauli, proper, clifford bool
	}{
		{phase.Zero, true, false, true},
		{phase.One, true, false, true},
		{phase.Half, false, true, true},
		{phase.ThreeHalfs, false, true, true},
		{phase.Quarter, false, false, false},
		{phase.Param("a"), false, false, false},
		{phase.MustParse("a + 1/2"), false, false, false},
	} {
		assert.Equal(t, tc.pauli, tc.p.IsPauli(), tc.p.String())
		assert.Equal(t, tc.proper, tc.p.IsProperClifford(), tc.p.String())
		assert.Equal(t, tc.clifford, tc.p.IsClifford(), tc.p.String())
	}
}

func TestArith(t *testing.T) {
	a := phase.Param("a")
	assert.True(t, a.Add(a.Neg()).IsZero())
	assert.True(t, a.Sub(a).IsZero())
	assert.True(t, phase.ThreeHalfs.Add(phase.Half).IsZero())
	assert.Equal(t, "2*a", a.Add(a).String())

	p := phase.MustParse("1/2*a - b + 3/2")
	assert.Equal(t, []string{"a", "b"}, p.Params())
	assert.True(t, p.Const().Equal(phase.ThreeHalfs))
	assert.Equal(t, "-a + 2*b + 1", p.Scale(-2, 1).String())
	assert.True(t, p.Scale(0, 1).IsZero())

	// the constant stays reduced mod 2, coefficients do not
	assert.Equal(t, "1", phase.ThreeHalfs.Scale(2, 1).String())
	assert.Equal(t, "3*a", phase.Sym("a", 3, 1).String())

	num, den := p.Coef("a")
	assert.Equal(t, [2]int64{1, 2}, [2]int64{num, den})
	num, den = p.Coef("c")
	assert.Equal(t, [2]int64{0, 1}, [2]int64{num, den})
}

func TestParse(t *testing.T) {
	for _, str := range []string{
		"0",
		"1/4",
		"7/4",
		"a",
		"-a",
		"2*x",
		"1/2*a - b + 3/2",
		"theta + 1",
	} {
		p, err := phase.Parse(str)
		require.NoError(t, err, str)
		assert.Equal(t, str, p.String())
	}

	assert.True(t, phase.MustParse("-1/4").Equal(phase.New(7, 4)))
	assert.True(t, phase.MustParse("a/2").Equal(phase.Sym("a", 1, 2)))
	assert.True(t, phase.MustParse("3/4 t").Equal(phase.Sym("t", 3, 4)))
	assert.True(t, phase.MustParse("b + a - b").Equal(phase.Param("a")))

	for _, bad := range []string{"", "1/0", "+", "a/0", "1 +", "1.5"} {
		_, err := phase.Parse(bad)
		assert.ErrorIs(t, err, phase.ErrBadPhase, bad)
	}
}

func TestFloat(t *testing.T) {
	p := phase.MustParse("a + 1/2")
	f, err := p.Float(map[string]float64{"a": 1})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, f, 1e-12)

	_, err = p.Float(nil)
	assert.ErrorIs(t, err, phase.ErrUnboundParam)

	assert.InDelta(t, 3.141592653589793/4, phase.Quarter.Radians(), 1e-12)
}
