// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sidecar

import (
	"bytes"
	"encoding/json"
	"testing"

	"cogentcore.org/gpusidecar/smoke"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cpuConfig() *Config {
	cfg := &Config{}
	cfg.Defaults()
	cfg.Backend = BackendCPU
	return cfg
}

func TestParseRequestEmpty(t *testing.T) {
	for _, in := range []string{"", "  \n"} {
		rq, err := ParseRequest([]byte(in))
		require.NoError(t, err)
		assert.Equal(t, CmdSmoke, rq.Cmd)
		assert.Equal(t, uint32(1024), rq.N)
	}
}

func TestParseRequestDefaults(t *testing.T) {
	rq, err := ParseRequest([]byte(`{"cmd": "fluid_step", "width": 64, "height": 64}`))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), rq.Steps)
	assert.Equal(t, float32(0.1), rq.Dt)
	assert.Equal(t, float32(0.995), rq.Fade)
	assert.Equal(t, uint32(30), rq.JacobiIters)
	assert.Equal(t, float32(0.15), rq.DyeRadius)
	assert.Equal(t, float32(25.0), rq.Impulse)
}

func TestParseRequestErrors(t *testing.T) {
	_, err := ParseRequest([]byte(`{"cmd": "warp_drive"}`))
	assert.ErrorContains(t, err, "unknown command")

	_, err = ParseRequest([]byte(`{"cmd": `))
	assert.ErrorContains(t, err, "invalid JSON request")
}

func TestFluidParamsClamped(t *testing.T) {
	rq, err := ParseRequest([]byte(`{"cmd": "fluid_step", "width": 1, "height": 3, "dt": 0, "fade": 7, "jacobi_iters": 1000}`))
	require.NoError(t, err)
	p := rq.FluidParams()
	assert.Equal(t, uint32(16), p.Width)
	assert.Equal(t, uint32(16), p.Height)
	assert.Equal(t, float32(1e-4), p.Dt)
	assert.Equal(t, float32(1.0), p.Fade)
	assert.Equal(t, uint32(120), p.JacobiIters)
}

func TestRunUnknownBackend(t *testing.T) {
	cfg := cpuConfig()
	cfg.Backend = "tpu"
	_, err := Run(cfg, nil)
	assert.ErrorContains(t, err, "unknown backend")
}

func TestRunSmoke(t *testing.T) {
	resp, err := Run(cpuConfig(), nil)
	require.NoError(t, err)
	res, ok := resp.(*smoke.Result)
	require.True(t, ok)
	assert.True(t, res.Ok)
	assert.Equal(t, uint32(1024), res.N)
	assert.Equal(t, [4]float32{1, 2, 11, 1024}, res.Sample)
	assert.Zero(t, res.MismatchCount)
}

func TestRunSweepFallback(t *testing.T) {
	resp, err := Run(cpuConfig(), []byte(`{"cmd": "smoke_sweep"}`))
	require.NoError(t, err)
	sw, ok := resp.(*SweepResponse)
	require.True(t, ok)
	assert.True(t, sw.Ok)
	require.Equal(t, len(smoke.FallbackSizes), len(sw.Runs))
	for i, run := range sw.Runs {
		assert.True(t, run.Ok)
		assert.Equal(t, smoke.FallbackSizes[i], run.N)
	}
}

func TestRunSweepSizes(t *testing.T) {
	resp, err := Run(cpuConfig(), []byte(`{"cmd": "smoke_sweep", "sizes": [64, 256]}`))
	require.NoError(t, err)
	sw := resp.(*SweepResponse)
	assert.True(t, sw.Ok)
	require.Equal(t, 2, len(sw.Runs))
	assert.Equal(t, uint32(64), sw.Runs[0].N)
	assert.Equal(t, uint32(256), sw.Runs[1].N)
}

func TestRunFluidInit(t *testing.T) {
	resp, err := Run(cpuConfig(), []byte(`{"cmd": "fluid_init", "width": 32, "height": 32}`))
	require.NoError(t, err)
	fi, ok := resp.(*FluidInitResponse)
	require.True(t, ok)
	assert.True(t, fi.Ok)
	assert.Equal(t, "cpu/reference", fi.Backend)
	assert.Equal(t, uint32(32*32), fi.InitializedCells)
}

func TestRunFluidStep(t *testing.T) {
	in := []byte(`{"cmd": "fluid_step", "width": 32, "height": 32, "steps": 5, "jacobi_iters": 5}`)
	resp, err := Run(cpuConfig(), in)
	require.NoError(t, err)
	fs, ok := resp.(*FluidStepResponse)
	require.True(t, ok)
	assert.True(t, fs.Ok)
	assert.Equal(t, uint32(5), fs.Steps)
	assert.Greater(t, fs.MaxSpeed, float32(0))
	assert.Greater(t, fs.DyeTotal, float32(0))
	assert.Greater(t, fs.SPS, float64(0))
}

// The fluid_step response inlines the statistics fields at the top level.
func TestWriteResponse(t *testing.T) {
	in := []byte(`{"cmd": "fluid_step", "width": 16, "height": 16, "steps": 1, "jacobi_iters": 5}`)
	resp, err := Run(cpuConfig(), in)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, resp))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	for _, key := range []string{"ok", "backend", "width", "height", "steps",
		"elapsed_ms", "sps", "avg_speed", "max_speed", "avg_divergence",
		"max_divergence", "dye_footprint", "dye_total"} {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, true, m["ok"])
}

func TestErrorResponseShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResponse(&buf, NewErrorResponse(assert.AnError)))
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, false, m["ok"])
	assert.NotEmpty(t, m["error"])
}
