// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fluid implements a stable-fluids simulation over a 2D grid:
// semi-Lagrangian advection of velocity and dye, a Jacobi pressure solve,
// and pressure projection, with host-side statistics on the results.
//
// The kernel pipeline exists on two execution substrates with one
// numerical contract: WGSL compute shaders dispatched by [Sim], and Go
// reference kernels run by [Reference]. The reference substrate makes the
// numerics testable without a GPU and independently checks GPU results.
package fluid

import (
	"cogentcore.org/core/math32"
)

// Params are the simulation parameters, immutable for the duration of
// one request and passed as a uniform block to every kernel.
// The layout must match the WGSL Params struct exactly: 32 bytes,
// with a pad word keeping the float block 16-byte aligned.
type Params struct {
	// Width is the grid width in cells.
	Width uint32

	// Height is the grid height in cells.
	Height uint32

	// JacobiIters is the number of pressure relaxation iterations per step.
	JacobiIters uint32

	pad0 uint32

	// Dt is the time step for advection back-tracing.
	Dt float32

	// Fade is the per-step dye decay multiplier.
	Fade float32

	// DyeRadius is the normalized radius of the initial dye blob and of
	// the sustained center forcing region.
	DyeRadius float32

	// Impulse is the strength of the initial vortex and center forcing.
	Impulse float32
}

// Defaults sets the default parameter values.
func (p *Params) Defaults() {
	p.Dt = 0.1
	p.Fade = 0.995
	p.JacobiIters = 30
	p.DyeRadius = 0.15
	p.Impulse = 25.0
}

// Clamp constrains all parameters to their valid execution ranges:
// width and height at least 16, dt at least 1e-4, fade in [0.8, 1],
// and jacobi iterations in [5, 120].
func (p *Params) Clamp() {
	p.Width = max(p.Width, 16)
	p.Height = max(p.Height, 16)
	p.Dt = math32.Max(p.Dt, 1e-4)
	p.Fade = math32.Clamp(p.Fade, 0.8, 1.0)
	p.JacobiIters = math32.Clamp(p.JacobiIters, 5, 120)
}

// Cells returns the total number of grid cells.
func (p *Params) Cells() int {
	return int(p.Width) * int(p.Height)
}
