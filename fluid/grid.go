// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"unsafe"

	"cogentcore.org/gpusidecar/compute"
)

// DoubleBuffer is an explicit two-slot ping-pong buffer: one slot is the
// current input of a pipeline stage, the other is the scratch output.
// Swap after every pass that writes a new version of the field, so no
// dispatch ever reads and writes the same buffer. The slot holding the
// latest data is always Current; it is never inferred from iteration
// counts elsewhere.
type DoubleBuffer[T any] struct {
	// Slots are the two buffers; index 0 is current after [DoubleBuffer.Reset].
	Slots [2]T

	current int
}

// Current returns the slot holding the latest version of the field,
// used as the input of the next stage.
func (db *DoubleBuffer[T]) Current() T { return db.Slots[db.current] }

// Scratch returns the slot to write the next version of the field into.
func (db *DoubleBuffer[T]) Scratch() T { return db.Slots[1-db.current] }

// CurrentIndex returns the index (0 or 1) of the current slot.
func (db *DoubleBuffer[T]) CurrentIndex() int { return db.current }

// Swap makes the scratch slot current, after a pass has written it.
func (db *DoubleBuffer[T]) Swap() { db.current = 1 - db.current }

// Reset makes slot 0 current again, e.g., at the start of a solve whose
// iteration parity is defined relative to slot 0.
func (db *DoubleBuffer[T]) Reset() { db.current = 0 }

// Grid holds the GPU field buffers for one simulation request:
// double-buffered velocity and dye, single-buffer divergence,
// ping-pong pressure, and the uniform parameter block. All field
// buffers are sized exactly cells (x2 for the 2-component velocity),
// allocated fresh per request and released with it.
type Grid struct {
	// Params is the uniform parameter block, set once per request.
	Params *compute.Buffer

	// Velocity is the double-buffered 2-component velocity field.
	Velocity DoubleBuffer[*compute.Buffer]

	// Dye is the double-buffered dye scalar field.
	Dye DoubleBuffer[*compute.Buffer]

	// Pressure is the ping-pong pressure field for the Jacobi solve.
	Pressure DoubleBuffer[*compute.Buffer]

	// Divergence is the single divergence buffer, recomputed each step.
	Divergence *compute.Buffer
}

const (
	float32Size = int(unsafe.Sizeof(float32(0)))
	vec2Size    = 2 * float32Size
)

// NewGrid allocates all field buffers for the given parameters on the
// given system, and uploads the parameter block. Velocity and dye
// current slots are configured for readback.
func NewGrid(sy *compute.System, p *Params) (*Grid, error) {
	cells := p.Cells()
	gd := &Grid{}

	var err error
	if gd.Params, err = sy.NewUniformBuffer("fluid-params", int(unsafe.Sizeof(Params{}))); err != nil {
		return nil, err
	}
	if err = compute.SetBufferFrom(gd.Params, []Params{*p}); err != nil {
		return nil, err
	}

	alloc := func(label string, size int) *compute.Buffer {
		if err != nil {
			return nil
		}
		var b *compute.Buffer
		b, err = sy.NewStorageBuffer(label, size)
		return b
	}
	gd.Velocity.Slots[0] = alloc("vel-a", cells*vec2Size)
	gd.Velocity.Slots[1] = alloc("vel-b", cells*vec2Size)
	gd.Dye.Slots[0] = alloc("dye-a", cells*float32Size)
	gd.Dye.Slots[1] = alloc("dye-b", cells*float32Size)
	gd.Pressure.Slots[0] = alloc("pressure-a", cells*float32Size)
	gd.Pressure.Slots[1] = alloc("pressure-b", cells*float32Size)
	gd.Divergence = alloc("div", cells*float32Size)
	if err != nil {
		return nil, err
	}

	// readback always happens from the current slots, which the step
	// sequence returns to slot 0 at the end of every step.
	if err = gd.Velocity.Slots[0].ConfigReadBuffer(); err != nil {
		return nil, err
	}
	if err = gd.Dye.Slots[0].ConfigReadBuffer(); err != nil {
		return nil, err
	}
	return gd, nil
}

func (gd *Grid) Release() {
	for _, b := range []*compute.Buffer{
		gd.Params,
		gd.Velocity.Slots[0], gd.Velocity.Slots[1],
		gd.Dye.Slots[0], gd.Dye.Slots[1],
		gd.Pressure.Slots[0], gd.Pressure.Slots[1],
		gd.Divergence,
	} {
		if b != nil {
			b.Release()
		}
	}
}
