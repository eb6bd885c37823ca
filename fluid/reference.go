// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"runtime"
	"sync"

	"cogentcore.org/core/math32"
)

// Reference is the CPU [Simulator]: the same kernel pipeline as [Sim],
// expressed as Go kernels over flat []float32 fields and run as a
// parallel-for over grid rows. It is the testing substrate for the
// numerics and an independent check on the GPU results.
type Reference struct {
	// Params are the immutable per-request simulation parameters.
	Params Params

	// Velocity is the double-buffered velocity field, len cells*2,
	// interleaved x,y per cell.
	Velocity DoubleBuffer[[]float32]

	// Dye is the double-buffered dye field, len cells.
	Dye DoubleBuffer[[]float32]

	// Pressure is the ping-pong pressure field, len cells.
	Pressure DoubleBuffer[[]float32]

	// Divergence is the divergence field, len cells.
	Divergence []float32
}

// NewReference returns a new CPU simulator for the given (already
// clamped) parameters, with all fields allocated and zero.
func NewReference(p *Params) *Reference {
	cells := p.Cells()
	rf := &Reference{Params: *p}
	rf.Velocity.Slots[0] = make([]float32, cells*2)
	rf.Velocity.Slots[1] = make([]float32, cells*2)
	rf.Dye.Slots[0] = make([]float32, cells)
	rf.Dye.Slots[1] = make([]float32, cells)
	rf.Pressure.Slots[0] = make([]float32, cells)
	rf.Pressure.Slots[1] = make([]float32, cells)
	rf.Divergence = make([]float32, cells)
	return rf
}

func (rf *Reference) Backend() string { return "cpu/reference" }

func (rf *Reference) Release() {}

// parallelRows runs fn for every row in [0, height), sharded over
// GOMAXPROCS goroutines. fn must only write cells of its own row.
func parallelRows(height int, fn func(y int)) {
	nt := min(runtime.GOMAXPROCS(0), height)
	chunk := (height + nt - 1) / nt
	var wg sync.WaitGroup
	for start := 0; start < height; start += chunk {
		end := min(start+chunk, height)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := start; y < end; y++ {
				fn(y)
			}
		}()
	}
	wg.Wait()
}

// clampi clamps a neighbor index to [0, n-1], repeating the boundary
// cell rather than wrapping.
func clampi(x, n int) int {
	return math32.Clamp(x, 0, n-1)
}

// Init seeds the velocity and dye current slots, deterministically for
// the given (width, height, dye_radius, impulse).
func (rf *Reference) Init() error {
	p := &rf.Params
	w, h := int(p.Width), int(p.Height)
	vel, dye := rf.Velocity.Current(), rf.Dye.Current()
	parallelRows(h, func(y int) {
		for x := 0; x < w; x++ {
			u := (float32(x) + 0.5) / float32(w)
			v := (float32(y) + 0.5) / float32(h)
			cx, cy := u-0.5, v-0.5
			r := math32.Sqrt(cx*cx + cy*cy)
			id := y*w + x
			damp := p.Impulse * math32.Exp(-30.0*r*r)
			vel[id*2] = -cy * damp
			vel[id*2+1] = cx * damp
			if r <= p.DyeRadius {
				dye[id] = 1.0 - r/math32.Max(p.DyeRadius, 0.01)
			} else {
				dye[id] = 0
			}
		}
	})
	return nil
}

// sampleField bilinearly samples an nc-component field at pos, with the
// sample position clamped to [0, dim-1.001] in each dimension.
func sampleField(src []float32, w, h, nc int, px, py float32, out []float32) {
	x := math32.Clamp(px, 0, float32(w)-1.001)
	y := math32.Clamp(py, 0, float32(h)-1.001)
	x0 := int(math32.Floor(x))
	y0 := int(math32.Floor(y))
	fx := x - math32.Floor(x)
	fy := y - math32.Floor(y)
	x1 := clampi(x0+1, w)
	y1 := clampi(y0+1, h)
	x0 = clampi(x0, w)
	y0 = clampi(y0, h)
	for c := 0; c < nc; c++ {
		a := src[(y0*w+x0)*nc+c]
		b := src[(y0*w+x1)*nc+c]
		cc := src[(y1*w+x0)*nc+c]
		d := src[(y1*w+x1)*nc+c]
		top := a + (b-a)*fx
		bot := cc + (d-cc)*fx
		out[c] = top + (bot-top)*fy
	}
}

// advectVelocity back-traces each interior cell along the velocity
// field, samples with mild damping, and adds the sustained tangential
// center forcing. Edge cells are forced to zero (no-flux boundary).
func (rf *Reference) advectVelocity(src, dst []float32) {
	p := &rf.Params
	w, h := int(p.Width), int(p.Height)
	cw, ch := float32(w)*0.5, float32(h)*0.5
	norm := math32.Max(float32(min(w, h)), 1)
	parallelRows(h, func(y int) {
		var sv [2]float32
		for x := 0; x < w; x++ {
			id := y*w + x
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				dst[id*2] = 0
				dst[id*2+1] = 0
				continue
			}
			px, py := float32(x), float32(y)
			bx := px - p.Dt*src[id*2]
			by := py - p.Dt*src[id*2+1]
			sampleField(src, w, h, 2, bx, by, sv[:])
			vx := sv[0] * 0.999
			vy := sv[1] * 0.999
			relx, rely := px-cw, py-ch
			r := math32.Sqrt(relx*relx+rely*rely) / norm
			if r <= p.DyeRadius {
				tx := -rely + 1e-4
				ty := relx
				tl := math32.Sqrt(tx*tx + ty*ty)
				falloff := 1.0 - r/math32.Max(p.DyeRadius, 1e-3)
				f := p.Impulse * p.Dt * falloff / tl
				vx += tx * f
				vy += ty * f
			}
			dst[id*2] = vx
			dst[id*2+1] = vy
		}
	})
}

// divergence computes central-difference divergence of vel into div,
// with neighbor indices clamped at the grid bounds.
func (rf *Reference) divergence(vel, div []float32) {
	w, h := int(rf.Params.Width), int(rf.Params.Height)
	parallelRows(h, func(y int) {
		ym, yp := clampi(y-1, h), clampi(y+1, h)
		for x := 0; x < w; x++ {
			xm, xp := clampi(x-1, w), clampi(x+1, w)
			vl := vel[(y*w+xm)*2]
			vr := vel[(y*w+xp)*2]
			vb := vel[(ym*w+x)*2+1]
			vt := vel[(yp*w+x)*2+1]
			div[y*w+x] = 0.5 * ((vr - vl) + (vt - vb))
		}
	})
}

// jacobi runs one pressure relaxation pass from src into dst.
func (rf *Reference) jacobi(src, div, dst []float32) {
	w, h := int(rf.Params.Width), int(rf.Params.Height)
	parallelRows(h, func(y int) {
		ym, yp := clampi(y-1, h), clampi(y+1, h)
		for x := 0; x < w; x++ {
			xm, xp := clampi(x-1, w), clampi(x+1, w)
			pl := src[y*w+xm]
			pr := src[y*w+xp]
			pb := src[ym*w+x]
			pt := src[yp*w+x]
			dst[y*w+x] = (pl + pr + pb + pt - div[y*w+x]) * 0.25
		}
	})
}

// project subtracts the central-difference pressure gradient from vel,
// forcing edge cells to exactly zero velocity.
func (rf *Reference) project(vel, pressure, dst []float32) {
	w, h := int(rf.Params.Width), int(rf.Params.Height)
	parallelRows(h, func(y int) {
		ym, yp := clampi(y-1, h), clampi(y+1, h)
		for x := 0; x < w; x++ {
			id := y*w + x
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				dst[id*2] = 0
				dst[id*2+1] = 0
				continue
			}
			xm, xp := clampi(x-1, w), clampi(x+1, w)
			gx := (pressure[y*w+xp] - pressure[y*w+xm]) * 0.5
			gy := (pressure[yp*w+x] - pressure[ym*w+x]) * 0.5
			dst[id*2] = vel[id*2] - gx
			dst[id*2+1] = vel[id*2+1] - gy
		}
	})
}

// advectDye back-traces each cell along the post-projection velocity
// and bilinearly samples the dye field there.
func (rf *Reference) advectDye(vel, src, dst []float32) {
	p := &rf.Params
	w, h := int(p.Width), int(p.Height)
	parallelRows(h, func(y int) {
		var sv [1]float32
		for x := 0; x < w; x++ {
			id := y*w + x
			bx := float32(x) - p.Dt*vel[id*2]
			by := float32(y) - p.Dt*vel[id*2+1]
			sampleField(src, w, h, 1, bx, by, sv[:])
			dst[id] = sv[0]
		}
	})
}

// fadeDye decays the dye field and adds the constant center source term.
func (rf *Reference) fadeDye(src, dst []float32) {
	p := &rf.Params
	w, h := int(p.Width), int(p.Height)
	parallelRows(h, func(y int) {
		v := (float32(y) + 0.5) / float32(h)
		cy := v - 0.5
		for x := 0; x < w; x++ {
			u := (float32(x) + 0.5) / float32(w)
			cx := u - 0.5
			r := math32.Sqrt(cx*cx + cy*cy)
			var source float32
			if r <= p.DyeRadius*0.4 {
				source = 0.02
			}
			dst[y*w+x] = src[y*w+x]*p.Fade + source
		}
	})
}

// Step advances the simulation one step, in the same stage order and
// with the same buffer-role bookkeeping as the GPU driver.
func (rf *Reference) Step() error {
	rf.Pressure.Reset()
	clear(rf.Pressure.Slots[0])
	clear(rf.Pressure.Slots[1])

	rf.advectVelocity(rf.Velocity.Current(), rf.Velocity.Scratch())
	rf.Velocity.Swap()

	rf.divergence(rf.Velocity.Current(), rf.Divergence)

	for range rf.Params.JacobiIters {
		rf.jacobi(rf.Pressure.Current(), rf.Divergence, rf.Pressure.Scratch())
		rf.Pressure.Swap()
	}

	rf.project(rf.Velocity.Current(), rf.Pressure.Current(), rf.Velocity.Scratch())
	rf.Velocity.Swap()

	rf.advectDye(rf.Velocity.Current(), rf.Dye.Current(), rf.Dye.Scratch())
	rf.Dye.Swap()

	rf.fadeDye(rf.Dye.Current(), rf.Dye.Scratch())
	rf.Dye.Swap()
	return nil
}

// Fields returns copies of the current velocity and dye fields.
func (rf *Reference) Fields() (vel, dye []float32, err error) {
	vel = make([]float32, len(rf.Velocity.Current()))
	copy(vel, rf.Velocity.Current())
	dye = make([]float32, len(rf.Dye.Current()))
	copy(dye, rf.Dye.Current())
	return vel, dye, nil
}
