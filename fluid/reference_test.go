// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams(w, h, jacobi uint32) Params {
	p := Params{Width: w, Height: h, JacobiIters: jacobi}
	p.Dt = 0.1
	p.Fade = 0.995
	p.DyeRadius = 0.15
	p.Impulse = 25.0
	p.Clamp()
	return p
}

func runReference(t *testing.T, p Params, steps int) (vel, dye []float32) {
	t.Helper()
	rf := NewReference(&p)
	require.NoError(t, rf.Init())
	for range steps {
		require.NoError(t, rf.Step())
	}
	vel, dye, err := rf.Fields()
	require.NoError(t, err)
	return vel, dye
}

func TestInitDeterministic(t *testing.T) {
	p := testParams(32, 32, 5)
	va, da := runReference(t, p, 0)
	vb, db := runReference(t, p, 0)
	assert.Equal(t, va, vb)
	assert.Equal(t, da, db)
	assert.Equal(t, 1024*2, len(va))
	assert.Equal(t, 1024, len(da))

	// dye is seeded inside the radius only, peaked near the center
	st := ComputeStats(va, da, 32, 32)
	assert.Greater(t, st.DyeTotal, float32(0))
	assert.Less(t, st.DyeFootprint, float32(1))
	center := da[16*32+16]
	assert.Greater(t, center, float32(0.8))
}

func TestEdgeVelocityZero(t *testing.T) {
	p := testParams(32, 32, 5)
	vel, _ := runReference(t, p, 5)
	w, h := 32, 32
	for x := 0; x < w; x++ {
		for _, y := range []int{0, h - 1} {
			id := y*w + x
			assert.Zero(t, vel[id*2], "x=%d y=%d", x, y)
			assert.Zero(t, vel[id*2+1], "x=%d y=%d", x, y)
		}
	}
	for y := 0; y < h; y++ {
		for _, x := range []int{0, w - 1} {
			id := y*w + x
			assert.Zero(t, vel[id*2], "x=%d y=%d", x, y)
			assert.Zero(t, vel[id*2+1], "x=%d y=%d", x, y)
		}
	}
	st := ComputeStats(vel, make([]float32, w*h), w, h)
	assert.Greater(t, st.MaxSpeed, float32(0))
	assert.False(t, math32.IsNaN(st.MaxSpeed))
	assert.False(t, math32.IsInf(st.MaxSpeed, 0))
}

// TestJacobiMonotonic verifies that more pressure iterations do not
// produce a worse divergence result, for a fixed seed and step count.
func TestJacobiMonotonic(t *testing.T) {
	const tol = 1e-3
	var prev float32
	for i, jacobi := range []uint32{5, 20, 60} {
		p := testParams(32, 32, jacobi)
		vel, dye := runReference(t, p, 3)
		st := ComputeStats(vel, dye, 32, 32)
		if i > 0 {
			assert.LessOrEqual(t, st.MaxDivergence, prev+tol, "jacobi_iters=%d", jacobi)
		}
		prev = st.MaxDivergence
	}
}

// TestDyeBounded verifies that with fade < 1 the total dye converges to
// a bounded value instead of diverging over long runs.
func TestDyeBounded(t *testing.T) {
	if testing.Short() {
		t.Skip("long run")
	}
	p := testParams(32, 32, 10)
	p.Fade = 0.99

	rf := NewReference(&p)
	require.NoError(t, rf.Init())
	var at100 float32
	for i := 1; i <= 150; i++ {
		require.NoError(t, rf.Step())
		if i == 100 {
			_, dye, err := rf.Fields()
			require.NoError(t, err)
			at100 = ComputeStats(make([]float32, 1024*2), dye, 32, 32).DyeTotal
		}
	}
	_, dye, err := rf.Fields()
	require.NoError(t, err)
	at150 := ComputeStats(make([]float32, 1024*2), dye, 32, 32).DyeTotal

	assert.False(t, math32.IsNaN(at150))
	assert.Less(t, at150, float32(1024))
	assert.LessOrEqual(t, at150, at100*1.25+1e-3)
}

func TestStepStability(t *testing.T) {
	p := testParams(48, 32, 30)
	vel, dye := runReference(t, p, 4)
	for i, v := range vel {
		require.False(t, math32.IsNaN(v) || math32.IsInf(v, 0), "vel[%d]", i)
	}
	for i, d := range dye {
		require.False(t, math32.IsNaN(d) || math32.IsInf(d, 0), "dye[%d]", i)
	}
}
