// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"cogentcore.org/core/base/errors"
	"cogentcore.org/gpusidecar/compute"
)

// Simulator runs the stable-fluids kernel pipeline on some execution
// substrate. [Sim] is the GPU implementation; [Reference] is the CPU one.
// Both honor the same per-step stage order and ping-pong bookkeeping.
type Simulator interface {
	// Backend identifies the execution substrate, e.g., "wgpu/vulkan".
	Backend() string

	// Init seeds the velocity and dye fields. Must be called exactly
	// once, before the first Step.
	Init() error

	// Step advances the simulation by one step:
	// clear pressure, advect velocity, divergence, jacobi xN,
	// project, advect dye, fade.
	Step() error

	// Fields reads back the current velocity (cells*2) and dye (cells)
	// fields, blocking until the data is host-visible.
	Fields() (vel, dye []float32, err error)

	// Release frees all resources. No field survives the request.
	Release()
}

// Sim is the GPU [Simulator]: it owns a compute [System] with the seven
// kernel pipelines and a [Grid] of field buffers, and sequences kernel
// dispatches per step. The host side is single-threaded; all parallelism
// is in the data-parallel dispatches, which are encoded in strict program
// order on one queue timeline so each stage is a barrier for the next.
type Sim struct {
	// Params are the immutable per-request simulation parameters.
	Params Params

	sys  *compute.System
	grid *Grid

	init      *compute.ComputePipeline
	advectVel *compute.ComputePipeline
	diverge   *compute.ComputePipeline
	jacobi    *compute.ComputePipeline
	project   *compute.ComputePipeline
	advectDye *compute.ComputePipeline
	fade      *compute.ComputePipeline

	// zeros is reused to clear the pressure slots each step.
	zeros []byte
}

// NewSim returns a new GPU simulator for the given (already clamped)
// parameters, with its own device, pipelines, and field buffers.
func NewSim(gp *compute.GPU, p *Params) (*Sim, error) {
	sy, err := compute.NewSystem(gp, "fluid")
	if err != nil {
		return nil, err
	}
	sm := &Sim{Params: *p, sys: sy}
	sm.grid, err = NewGrid(sy, p)
	if err != nil {
		sm.Release()
		return nil, err
	}
	pls := []struct {
		pl   **compute.ComputePipeline
		name string
		wgsl string
	}{
		{&sm.init, "fluid-init", initWGSL},
		{&sm.advectVel, "fluid-advect-vel", advectVelWGSL},
		{&sm.diverge, "fluid-divergence", divergenceWGSL},
		{&sm.jacobi, "fluid-jacobi", jacobiWGSL},
		{&sm.project, "fluid-project", projectWGSL},
		{&sm.advectDye, "fluid-advect-dye", advectDyeWGSL},
		{&sm.fade, "fluid-fade", fadeWGSL},
	}
	for _, c := range pls {
		*c.pl, err = sy.AddPipeline(c.name, c.wgsl, "main")
		if err != nil {
			sm.Release()
			return nil, err
		}
	}
	sm.zeros = make([]byte, p.Cells()*float32Size)
	return sm, nil
}

// Backend returns the adapter backend identity string.
func (sm *Sim) Backend() string {
	return sm.sys.GPU().Backend()
}

// warps returns the 2D workgroup counts for the 8x8 kernel grids.
func (sm *Sim) warps() (nx, ny int) {
	return compute.Warps(int(sm.Params.Width), 8), compute.Warps(int(sm.Params.Height), 8)
}

// Init dispatches the init kernel once, seeding the current velocity
// and dye slots, and waits for it to complete.
func (sm *Sim) Init() error {
	nx, ny := sm.warps()
	if err := sm.sys.Begin(); err != nil {
		return err
	}
	err := sm.sys.Dispatch(sm.init, nx, ny, 1,
		sm.grid.Params, sm.grid.Velocity.Current(), sm.grid.Dye.Current())
	if err != nil {
		return err
	}
	if err := sm.sys.Submit(); err != nil {
		return err
	}
	sm.sys.WaitDone()
	return nil
}

// Step runs one full simulation step. All seven stages are recorded on
// one command encoder; buffer roles are swapped after every pass that
// writes a new field version, and the pressure parity is re-anchored to
// slot 0 so the Jacobi output slot follows the iteration-count parity
// (even count: slot 0; odd: slot 1).
func (sm *Sim) Step() error {
	gd := sm.grid
	nx, ny := sm.warps()

	// both pressure slots start every solve at zero; stale pressure from
	// the previous step must not leak into this one. Queue writes land
	// before subsequently submitted command buffers.
	gd.Pressure.Reset()
	if err := gd.Pressure.Slots[0].SetFromBytes(sm.zeros); err != nil {
		return err
	}
	if err := gd.Pressure.Slots[1].SetFromBytes(sm.zeros); err != nil {
		return err
	}

	if err := sm.sys.Begin(); err != nil {
		return err
	}
	dispatch := func(pl *compute.ComputePipeline, bufs ...*compute.Buffer) error {
		return sm.sys.Dispatch(pl, nx, ny, 1, bufs...)
	}

	if err := dispatch(sm.advectVel, gd.Params, gd.Velocity.Current(), gd.Velocity.Scratch()); err != nil {
		return err
	}
	gd.Velocity.Swap()

	if err := dispatch(sm.diverge, gd.Params, gd.Velocity.Current(), gd.Divergence); err != nil {
		return err
	}

	for range sm.Params.JacobiIters {
		if err := dispatch(sm.jacobi, gd.Params, gd.Pressure.Current(), gd.Divergence, gd.Pressure.Scratch()); err != nil {
			return err
		}
		gd.Pressure.Swap()
	}

	if err := dispatch(sm.project, gd.Params, gd.Velocity.Current(), gd.Pressure.Current(), gd.Velocity.Scratch()); err != nil {
		return err
	}
	gd.Velocity.Swap()

	if err := dispatch(sm.advectDye, gd.Params, gd.Velocity.Current(), gd.Dye.Current(), gd.Dye.Scratch()); err != nil {
		return err
	}
	gd.Dye.Swap()

	if err := dispatch(sm.fade, gd.Params, gd.Dye.Current(), gd.Dye.Scratch()); err != nil {
		return err
	}
	gd.Dye.Swap()

	if gd.Velocity.CurrentIndex() != 0 || gd.Dye.CurrentIndex() != 0 {
		return errors.New("fluid.Sim Step: buffer roles did not return to slot 0")
	}
	return sm.sys.Submit()
}

// Fields copies the current velocity and dye buffers to host-visible
// memory and returns them, waiting (bounded) for the mapping to resolve.
func (sm *Sim) Fields() (vel, dye []float32, err error) {
	gd := sm.grid
	cells := sm.Params.Cells()
	if err = sm.sys.Begin(); err != nil {
		return nil, nil, err
	}
	if err = sm.sys.CopyToRead(gd.Velocity.Current(), gd.Dye.Current()); err != nil {
		return nil, nil, err
	}
	if err = sm.sys.Submit(); err != nil {
		return nil, nil, err
	}

	vel = make([]float32, cells*2)
	dye = make([]float32, cells)
	if err = gd.Velocity.Current().ReadSync(); err != nil {
		return nil, nil, err
	}
	if err = compute.ReadBufferTo(gd.Velocity.Current(), vel); err != nil {
		return nil, nil, err
	}
	if err = gd.Dye.Current().ReadSync(); err != nil {
		return nil, nil, err
	}
	if err = compute.ReadBufferTo(gd.Dye.Current(), dye); err != nil {
		return nil, nil, err
	}
	return vel, dye, nil
}

func (sm *Sim) Release() {
	if sm.grid != nil {
		sm.grid.Release()
		sm.grid = nil
	}
	if sm.sys != nil {
		sm.sys.Release()
		sm.sys = nil
	}
}
