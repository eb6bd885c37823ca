// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package smoke implements the backend smoke verifier: a minimal
// add-one compute kernel over n floats whose output is checked against
// the closed-form expectation. It is independent of the fluid pipeline
// and shares only the compute backend primitives with it.
package smoke

import (
	"time"

	"cogentcore.org/gpusidecar/compute"
)

// MinN is the floor applied to requested sizes.
const MinN = 64

// FallbackSizes are the sweep sizes used when a sweep request lists none.
var FallbackSizes = []uint32{1024, 4096, 16384, 65536}

// Result reports one smoke run: the verification verdict, timing,
// and a small sample of the output for eyeballing.
type Result struct {
	// Ok is true if every element matched within tolerance.
	Ok bool `json:"ok"`

	// Backend identifies the execution substrate.
	Backend string `json:"backend"`

	// N is the (clamped) number of elements.
	N uint32 `json:"n"`

	// ElapsedMS is the wall-clock time for the run, including device setup.
	ElapsedMS float64 `json:"elapsed_ms"`

	// Sample is [out[0], out[1], out[10], out[n-1]].
	Sample [4]float32 `json:"sample"`

	// MismatchCount is the number of elements off by more than [Tolerance].
	MismatchCount uint32 `json:"mismatch_count"`

	// MaxAbsError is the largest absolute element error.
	MaxAbsError float32 `json:"max_abs_error"`
}

// params is the smoke kernel uniform block: 16 bytes, n plus padding.
type params struct {
	N    uint32
	pad0 uint32
	pad1 uint32
	pad2 uint32
}

// shaderWGSL adds 1.0 to each in-range element of the data buffer.
const shaderWGSL = `
struct Params {
  n: u32,
  _pad0: u32,
  _pad1: u32,
  _pad2: u32,
};
@group(0) @binding(0) var<uniform> p: Params;
@group(0) @binding(1) var<storage, read_write> data: array<f32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
  let i = gid.x;
  if (i < p.n) {
    data[i] = data[i] + 1.0;
  }
}
`

// Run executes one smoke run of (clamped) size n on the GPU, with a
// fresh device per run so sweep runs are isolated from each other.
func Run(gp *compute.GPU, n uint32) (*Result, error) {
	t0 := time.Now()
	n = max(n, MinN)

	sy, err := compute.NewSystem(gp, "smoke")
	if err != nil {
		return nil, err
	}
	defer sy.Release()

	src := make([]float32, n)
	for i := range src {
		src[i] = float32(i)
	}

	data, err := sy.NewStorageBuffer("smoke-data", int(n)*4)
	if err != nil {
		return nil, err
	}
	if err := compute.SetBufferFrom(data, src); err != nil {
		return nil, err
	}
	if err := data.ConfigReadBuffer(); err != nil {
		return nil, err
	}
	pbuf, err := sy.NewUniformBuffer("smoke-params", 16)
	if err != nil {
		return nil, err
	}
	if err := compute.SetBufferFrom(pbuf, []params{{N: n}}); err != nil {
		return nil, err
	}

	pl, err := sy.AddPipeline("smoke", shaderWGSL, "main")
	if err != nil {
		return nil, err
	}

	if err := sy.Begin(); err != nil {
		return nil, err
	}
	if err := sy.Dispatch(pl, compute.Warps(int(n), 64), 1, 1, pbuf, data); err != nil {
		return nil, err
	}
	if err := sy.CopyToRead(data); err != nil {
		return nil, err
	}
	if err := sy.Submit(); err != nil {
		return nil, err
	}

	out := make([]float32, n)
	if err := data.ReadSync(); err != nil {
		return nil, err
	}
	if err := compute.ReadBufferTo(data, out); err != nil {
		return nil, err
	}

	res := newResult(gp.Backend(), out)
	res.ElapsedMS = float64(time.Since(t0)) / float64(time.Millisecond)
	return res, nil
}

// RunCPU executes one smoke run of (clamped) size n on the CPU
// reference substrate, exercising the same verification path.
func RunCPU(n uint32) *Result {
	t0 := time.Now()
	n = max(n, MinN)
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i) + 1.0
	}
	res := newResult("cpu/reference", out)
	res.ElapsedMS = float64(time.Since(t0)) / float64(time.Millisecond)
	return res
}

func newResult(backend string, out []float32) *Result {
	n := len(out)
	res := &Result{Backend: backend, N: uint32(n)}
	res.Sample = [4]float32{out[0], out[1], out[min(10, n-1)], out[n-1]}
	res.MismatchCount, res.MaxAbsError = Verify(out)
	res.Ok = res.MismatchCount == 0 && res.MaxAbsError <= Tolerance
	return res
}
