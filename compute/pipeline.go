// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compute

import (
	"log/slog"
	"strings"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// ComputePipeline is a compiled compute shader with its pipeline and
// bind group layout, ready to dispatch on its owning [System].
type ComputePipeline struct {
	// unique name of this pipeline, used as the shader label.
	Name string

	// System that we belong to and that owns the device.
	System *System

	module   *wgpu.ShaderModule
	pipeline *wgpu.ComputePipeline
	layout   *wgpu.BindGroupLayout

	// bindGroups are cached by the set of bound buffers, so the
	// per-step dispatch loop does not allocate descriptors.
	bindGroups map[string]*wgpu.BindGroup
}

// AddPipeline compiles the given WGSL source and adds a new
// ComputePipeline with the given name and entry point to the system.
func (sy *System) AddPipeline(name, wgsl, entry string) (*ComputePipeline, error) {
	if pl, ok := sy.Pipelines[name]; ok {
		slog.Error("compute.System AddPipeline", "pipeline", name, "already exists in system", sy.Name)
		return pl, nil
	}
	dev := sy.device.Device
	module, err := dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: wgsl},
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	cp, err := dev.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: name,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: entry,
		},
	})
	if errors.Log(err) != nil {
		module.Release()
		return nil, err
	}
	pl := &ComputePipeline{
		Name:       name,
		System:     sy,
		module:     module,
		pipeline:   cp,
		layout:     cp.GetBindGroupLayout(0),
		bindGroups: make(map[string]*wgpu.BindGroup),
	}
	sy.Pipelines[name] = pl
	return pl, nil
}

// bindGroup returns a bind group for the given buffers, bound in
// @binding order, reusing a cached one for the same buffer set.
func (pl *ComputePipeline) bindGroup(bufs ...*Buffer) (*wgpu.BindGroup, error) {
	key := bindKey(bufs...)
	if bg, ok := pl.bindGroups[key]; ok {
		return bg, nil
	}
	entries := make([]wgpu.BindGroupEntry, len(bufs))
	for i, b := range bufs {
		entries[i] = wgpu.BindGroupEntry{
			Binding: uint32(i),
			Buffer:  b.buffer,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}
	bg, err := pl.System.device.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   pl.Name + ":" + key,
		Layout:  pl.layout,
		Entries: entries,
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	pl.bindGroups[key] = bg
	return bg, nil
}

// bindKey identifies a buffer set by the buffer labels, which must be
// unique within one System.
func bindKey(bufs ...*Buffer) string {
	labels := make([]string, len(bufs))
	for i, b := range bufs {
		labels[i] = b.Label
	}
	return strings.Join(labels, "+")
}

func (pl *ComputePipeline) Release() {
	for _, bg := range pl.bindGroups {
		bg.Release()
	}
	pl.bindGroups = nil
	if pl.layout != nil {
		pl.layout.Release()
		pl.layout = nil
	}
	if pl.pipeline != nil {
		pl.pipeline.Release()
		pl.pipeline = nil
	}
	if pl.module != nil {
		pl.module.Release()
		pl.module = nil
	}
}
