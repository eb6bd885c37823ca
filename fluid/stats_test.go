// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStatsZero(t *testing.T) {
	w, h := 8, 8
	st := ComputeStats(make([]float32, w*h*2), make([]float32, w*h), w, h)
	assert.Zero(t, st.AvgSpeed)
	assert.Zero(t, st.MaxSpeed)
	assert.Zero(t, st.AvgDivergence)
	assert.Zero(t, st.MaxDivergence)
	assert.Zero(t, st.DyeFootprint)
	assert.Zero(t, st.DyeTotal)
}

func TestComputeStatsKnownField(t *testing.T) {
	// vx = x, vy = 0: interior divergence 0.5*((x+1)-(x-1)) = 1,
	// edge columns see a clamped one-sided difference of 0.5.
	w, h := 4, 4
	vel := make([]float32, w*h*2)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			vel[(y*w+x)*2] = float32(x)
		}
	}
	dye := make([]float32, w*h)
	dye[0] = 0.5
	dye[1] = 0.25
	dye[2] = 0.005 // below the footprint threshold

	st := ComputeStats(vel, dye, w, h)
	assert.Equal(t, float32(3), st.MaxSpeed)
	assert.Equal(t, float32(1.5), st.AvgSpeed)
	assert.Equal(t, float32(1), st.MaxDivergence)
	// per row: 0.5, 1, 1, 0.5
	assert.InDelta(t, 0.75, st.AvgDivergence, 1e-6)
	assert.InDelta(t, 0.755, st.DyeTotal, 1e-6)
	assert.Equal(t, float32(2)/float32(16), st.DyeFootprint)
}
