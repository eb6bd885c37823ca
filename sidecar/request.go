// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sidecar implements the one-shot request/response protocol:
// a single JSON request selects either the smoke verifier or the fluid
// simulation, and a single JSON response reports the results.
package sidecar

import (
	"encoding/json"
	"fmt"
	"strings"

	"cogentcore.org/gpusidecar/fluid"
)

// Commands accepted in the request "cmd" field.
const (
	CmdSmoke      = "smoke"
	CmdSmokeSweep = "smoke_sweep"
	CmdFluidInit  = "fluid_init"
	CmdFluidStep  = "fluid_step"
)

// Request is the single structured command consumed per invocation.
// Fields not present in the JSON keep their defaults; all values are
// clamped to valid ranges before execution.
type Request struct {
	// Cmd selects the workload: smoke, smoke_sweep, fluid_init, fluid_step.
	Cmd string `json:"cmd"`

	// N is the smoke element count (floored to 64).
	N uint32 `json:"n"`

	// Sizes are the smoke_sweep element counts; if empty, the
	// [smoke.FallbackSizes] are used.
	Sizes []uint32 `json:"sizes"`

	// Width and Height are the fluid grid dimensions (floored to 16).
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`

	// Steps is the number of fluid simulation steps (at least 1).
	Steps uint32 `json:"steps"`

	// Dt is the advection time step (at least 1e-4).
	Dt float32 `json:"dt"`

	// Fade is the dye decay multiplier (clamped to [0.8, 1]).
	Fade float32 `json:"fade"`

	// JacobiIters is the pressure iteration count (clamped to [5, 120]).
	JacobiIters uint32 `json:"jacobi_iters"`

	// DyeRadius is the dye / forcing radius.
	DyeRadius float32 `json:"dye_radius"`

	// Impulse is the vortex / forcing strength.
	Impulse float32 `json:"impulse"`
}

// Defaults sets the default field values, which JSON fields present in
// the request then override.
func (rq *Request) Defaults() {
	rq.Steps = 1
	rq.Dt = 0.1
	rq.Fade = 0.995
	rq.JacobiIters = 30
	rq.DyeRadius = 0.15
	rq.Impulse = 25.0
}

// ParseRequest parses a request from the given JSON input. Empty input
// defaults to a smoke request with n=1024. An unknown command or
// malformed JSON is a fatal request error.
func ParseRequest(data []byte) (*Request, error) {
	rq := &Request{}
	rq.Defaults()
	if strings.TrimSpace(string(data)) == "" {
		rq.Cmd = CmdSmoke
		rq.N = 1024
		return rq, nil
	}
	if err := json.Unmarshal(data, rq); err != nil {
		return nil, fmt.Errorf("invalid JSON request: %w", err)
	}
	switch rq.Cmd {
	case CmdSmoke, CmdSmokeSweep, CmdFluidInit, CmdFluidStep:
		return rq, nil
	default:
		return nil, fmt.Errorf("unknown command %q", rq.Cmd)
	}
}

// FluidParams returns the clamped simulation parameters for this request.
func (rq *Request) FluidParams() fluid.Params {
	p := fluid.Params{
		Width:       rq.Width,
		Height:      rq.Height,
		JacobiIters: rq.JacobiIters,
		Dt:          rq.Dt,
		Fade:        rq.Fade,
		DyeRadius:   rq.DyeRadius,
		Impulse:     rq.Impulse,
	}
	p.Clamp()
	return p
}
