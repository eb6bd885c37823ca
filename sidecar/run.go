// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sidecar

import (
	"fmt"
	"math"
	"time"

	"cogentcore.org/gpusidecar/compute"
	"cogentcore.org/gpusidecar/fluid"
	"cogentcore.org/gpusidecar/smoke"
)

// Execution substrates selectable in [Config.Backend].
const (
	// BackendGPU runs the WebGPU compute pipelines (the default).
	BackendGPU = "gpu"

	// BackendCPU runs the CPU reference pipelines, for machines
	// without a usable adapter and for testing.
	BackendCPU = "cpu"
)

// Config is the per-process configuration, set from flags.
type Config struct {
	// Backend selects the execution substrate: [BackendGPU] or [BackendCPU].
	Backend string

	// ReadTimeout bounds GPU readback waits; a backend that does not
	// respond within it fails the request instead of hanging it.
	ReadTimeout time.Duration
}

// Defaults sets the default configuration values.
func (cfg *Config) Defaults() {
	cfg.Backend = BackendGPU
	cfg.ReadTimeout = compute.DefaultReadTimeout
}

// Run parses one request from the given input and executes it,
// returning the response object to emit. Any error is fatal for the
// request: the caller emits an [ErrorResponse] and exits non-zero.
func Run(cfg *Config, in []byte) (any, error) {
	rq, err := ParseRequest(in)
	if err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendGPU, BackendCPU:
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	switch rq.Cmd {
	case CmdSmoke:
		return cfg.runSmoke(rq.N)
	case CmdSmokeSweep:
		return cfg.runSweep(rq.Sizes)
	case CmdFluidInit:
		return cfg.runFluidInit(rq)
	default:
		return cfg.runFluidStep(rq)
	}
}

// newGPU acquires the GPU with the configured readback deadline.
func (cfg *Config) newGPU() (*compute.GPU, error) {
	gp, err := compute.NewGPU()
	if err != nil {
		return nil, fmt.Errorf("no GPU adapter: %w", err)
	}
	if cfg.ReadTimeout > 0 {
		gp.ReadTimeout = cfg.ReadTimeout
	}
	return gp, nil
}

func (cfg *Config) runSmoke(n uint32) (*smoke.Result, error) {
	if cfg.Backend == BackendCPU {
		return smoke.RunCPU(n), nil
	}
	gp, err := cfg.newGPU()
	if err != nil {
		return nil, err
	}
	defer gp.Release()
	return smoke.Run(gp, n)
}

func (cfg *Config) runSweep(sizes []uint32) (*SweepResponse, error) {
	if len(sizes) == 0 {
		sizes = smoke.FallbackSizes
	}
	resp := &SweepResponse{Ok: true}
	for _, n := range sizes {
		run, err := cfg.runSmoke(n)
		if err != nil {
			return nil, err
		}
		resp.Ok = resp.Ok && run.Ok
		resp.Backend = run.Backend
		resp.Runs = append(resp.Runs, run)
	}
	return resp, nil
}

// newSimulator returns a fluid [fluid.Simulator] on the configured
// substrate, along with a release function covering the GPU resources.
func (cfg *Config) newSimulator(p *fluid.Params) (fluid.Simulator, func(), error) {
	if cfg.Backend == BackendCPU {
		rf := fluid.NewReference(p)
		return rf, func() {}, nil
	}
	gp, err := cfg.newGPU()
	if err != nil {
		return nil, nil, err
	}
	sim, err := fluid.NewSim(gp, p)
	if err != nil {
		gp.Release()
		return nil, nil, err
	}
	return sim, func() { sim.Release(); gp.Release() }, nil
}

func (cfg *Config) runFluidInit(rq *Request) (*FluidInitResponse, error) {
	t0 := time.Now()
	p := rq.FluidParams()
	sim, release, err := cfg.newSimulator(&p)
	if err != nil {
		return nil, err
	}
	defer release()
	if err := sim.Init(); err != nil {
		return nil, err
	}
	return &FluidInitResponse{
		Ok:               true,
		Backend:          sim.Backend(),
		Width:            p.Width,
		Height:           p.Height,
		InitializedCells: uint32(p.Cells()),
		ElapsedMS:        float64(time.Since(t0)) / float64(time.Millisecond),
	}, nil
}

func (cfg *Config) runFluidStep(rq *Request) (*FluidStepResponse, error) {
	t0 := time.Now()
	p := rq.FluidParams()
	steps := max(rq.Steps, 1)
	sim, release, err := cfg.newSimulator(&p)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := sim.Init(); err != nil {
		return nil, err
	}
	for range steps {
		if err := sim.Step(); err != nil {
			return nil, err
		}
	}
	vel, dye, err := sim.Fields()
	if err != nil {
		return nil, err
	}
	st := fluid.ComputeStats(vel, dye, int(p.Width), int(p.Height))

	elapsed := time.Since(t0).Seconds()
	return &FluidStepResponse{
		Ok:        true,
		Backend:   sim.Backend(),
		Width:     p.Width,
		Height:    p.Height,
		Steps:     steps,
		ElapsedMS: elapsed * 1000,
		SPS:       float64(steps) / math.Max(elapsed, 1e-6),
		Stats:     st,
	}, nil
}
