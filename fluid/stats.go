// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"cogentcore.org/core/math32"
)

// Stats are scalar summaries of the final velocity and dye fields,
// computed host-side from the read-back data. The divergence numbers
// are recomputed here with the same central-difference formula as the
// divergence kernel, as an independent check on the GPU-side solve.
type Stats struct {
	// AvgSpeed is the mean velocity magnitude over all cells.
	AvgSpeed float32 `json:"avg_speed"`

	// MaxSpeed is the maximum velocity magnitude.
	MaxSpeed float32 `json:"max_speed"`

	// AvgDivergence is the mean absolute divergence, recomputed host-side.
	AvgDivergence float32 `json:"avg_divergence"`

	// MaxDivergence is the maximum absolute divergence, recomputed host-side.
	MaxDivergence float32 `json:"max_divergence"`

	// DyeFootprint is the fraction of cells with dye above 0.01.
	DyeFootprint float32 `json:"dye_footprint"`

	// DyeTotal is the sum of all dye values.
	DyeTotal float32 `json:"dye_total"`
}

// ComputeStats derives [Stats] from a velocity field (len cells*2,
// interleaved x,y) and a dye field (len cells) over a w x h grid.
func ComputeStats(vel, dye []float32, w, h int) Stats {
	var st Stats
	cells := w * h
	if cells == 0 {
		return st
	}

	var sumSpeed float32
	for i := 0; i < cells; i++ {
		s := math32.Sqrt(vel[i*2]*vel[i*2] + vel[i*2+1]*vel[i*2+1])
		sumSpeed += s
		st.MaxSpeed = math32.Max(st.MaxSpeed, s)
	}
	st.AvgSpeed = sumSpeed / float32(cells)

	var sumDiv float32
	for y := 0; y < h; y++ {
		ym, yp := clampi(y-1, h), clampi(y+1, h)
		for x := 0; x < w; x++ {
			xm, xp := clampi(x-1, w), clampi(x+1, w)
			vl := vel[(y*w+xm)*2]
			vr := vel[(y*w+xp)*2]
			vb := vel[(ym*w+x)*2+1]
			vt := vel[(yp*w+x)*2+1]
			d := math32.Abs(0.5 * ((vr - vl) + (vt - vb)))
			sumDiv += d
			st.MaxDivergence = math32.Max(st.MaxDivergence, d)
		}
	}
	st.AvgDivergence = sumDiv / float32(cells)

	var total float32
	nonzero := 0
	for _, d := range dye {
		total += d
		if d > 0.01 {
			nonzero++
		}
	}
	st.DyeTotal = total
	st.DyeFootprint = float32(nonzero) / float32(cells)
	return st
}
