// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"encoding/binary"
	"math"
	"testing"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParamsLayout pins the uniform block layout to the WGSL Params
// struct: 32 bytes, three u32 fields, one pad word, then four f32.
func TestParamsLayout(t *testing.T) {
	assert.Equal(t, uintptr(32), unsafe.Sizeof(Params{}))

	p := Params{Width: 48, Height: 32, JacobiIters: 30}
	p.Dt = 0.1
	p.Fade = 0.995
	p.DyeRadius = 0.15
	p.Impulse = 25.0

	b := wgpu.ToBytes([]Params{p})
	require.Equal(t, 32, len(b))

	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(b[off:]) }
	f32 := func(off int) float32 { return math.Float32frombits(u32(off)) }

	assert.Equal(t, uint32(48), u32(0))
	assert.Equal(t, uint32(32), u32(4))
	assert.Equal(t, uint32(30), u32(8))
	assert.Equal(t, float32(0.1), f32(16))
	assert.Equal(t, float32(0.995), f32(20))
	assert.Equal(t, float32(0.15), f32(24))
	assert.Equal(t, float32(25.0), f32(28))
}

func TestParamsClamp(t *testing.T) {
	p := Params{Width: 1, Height: 1000, JacobiIters: 300}
	p.Dt = 0
	p.Fade = 2
	p.Clamp()
	assert.Equal(t, uint32(16), p.Width)
	assert.Equal(t, uint32(1000), p.Height)
	assert.Equal(t, uint32(120), p.JacobiIters)
	assert.Equal(t, float32(1e-4), p.Dt)
	assert.Equal(t, float32(1.0), p.Fade)

	p = Params{Width: 64, Height: 64, JacobiIters: 1}
	p.Dt = -5
	p.Fade = 0.1
	p.Clamp()
	assert.Equal(t, uint32(5), p.JacobiIters)
	assert.Equal(t, float32(1e-4), p.Dt)
	assert.Equal(t, float32(0.8), p.Fade)
	assert.Equal(t, 4096, p.Cells())
}
