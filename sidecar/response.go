// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sidecar

import (
	"encoding/json"
	"fmt"
	"io"

	"cogentcore.org/gpusidecar/fluid"
	"cogentcore.org/gpusidecar/smoke"
)

// SweepResponse aggregates the individual smoke runs of a sweep;
// Ok is the logical AND of all run results.
type SweepResponse struct {
	Ok      bool            `json:"ok"`
	Backend string          `json:"backend"`
	Runs    []*smoke.Result `json:"runs"`
}

// FluidInitResponse reports a fluid_init command.
type FluidInitResponse struct {
	Ok               bool    `json:"ok"`
	Backend          string  `json:"backend"`
	Width            uint32  `json:"width"`
	Height           uint32  `json:"height"`
	InitializedCells uint32  `json:"initialized_cells"`
	ElapsedMS        float64 `json:"elapsed_ms"`
}

// FluidStepResponse reports a fluid_step command, with the field
// statistics of [fluid.Stats] inlined.
type FluidStepResponse struct {
	Ok      bool   `json:"ok"`
	Backend string `json:"backend"`
	Width   uint32 `json:"width"`
	Height  uint32 `json:"height"`
	Steps   uint32 `json:"steps"`

	// ElapsedMS is the total wall-clock time, including device setup.
	ElapsedMS float64 `json:"elapsed_ms"`

	// SPS is the simulation throughput in steps per second.
	SPS float64 `json:"sps"`

	fluid.Stats
}

// ErrorResponse is the single response emitted on any failure;
// the process then exits non-zero.
type ErrorResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error"`
}

// NewErrorResponse returns an [ErrorResponse] for the given error.
func NewErrorResponse(err error) *ErrorResponse {
	return &ErrorResponse{Error: fmt.Sprintf("%v", err)}
}

// WriteResponse writes the response as pretty-printed JSON.
func WriteResponse(w io.Writer, resp any) error {
	b, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
