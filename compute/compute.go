// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compute

import (
	"math"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// System manages a set of [ComputePipeline]s and [Buffer]s that
// execute on a common device. Each System owns its own logical device,
// so separate Systems (and therefore separate requests) are isolated.
//
// Dispatches are recorded onto one command encoder between [System.Begin]
// and [System.Submit]; passes are encoded in strict program order on a
// single queue timeline, so each dispatch sees all writes of the previous
// one without any further synchronization.
type System struct {
	// optional name of this System.
	Name string

	// CommandEncoder is the encoder currently recording commands,
	// between [System.Begin] and [System.Submit].
	CommandEncoder *wgpu.CommandEncoder

	// logical device for this System, which we own.
	device *Device

	// gpu is our GPU device, which has adapter properties.
	gpu *GPU

	// Pipelines by name.
	Pipelines map[string]*ComputePipeline
}

// NewSystem returns a new System on the given GPU, with its own
// new device that is owned by the system.
func NewSystem(gp *GPU, name string) (*System, error) {
	dev, err := NewDevice(gp)
	if err != nil {
		return nil, err
	}
	sy := &System{Name: name, gpu: gp, device: dev}
	sy.Pipelines = make(map[string]*ComputePipeline)
	return sy, nil
}

func (sy *System) Device() *Device { return sy.device }
func (sy *System) GPU() *GPU       { return sy.gpu }

// WaitDone waits until the device is done with current processing steps.
func (sy *System) WaitDone() {
	sy.device.WaitDone()
}

func (sy *System) Release() {
	if sy.device == nil {
		return
	}
	sy.WaitDone()
	for _, pl := range sy.Pipelines {
		pl.Release()
	}
	sy.Pipelines = nil
	sy.device.Release()
	sy.device = nil
	sy.gpu = nil
}

// Begin creates a new command encoder that subsequent [System.Dispatch]
// and [System.CopyToRead] calls record onto. Call [System.Submit] to
// submit the recorded commands to the device queue.
func (sy *System) Begin() error {
	cmd, err := sy.device.Device.CreateCommandEncoder(nil)
	if errors.Log(err) != nil {
		return err
	}
	sy.CommandEncoder = cmd
	return nil
}

// Dispatch records one compute pass running the given pipeline over
// nx x ny x nz workgroups, with the given buffers bound in @binding order.
// Bind groups are cached per buffer set, so repeated dispatches with the
// same buffers do not allocate.
func (sy *System) Dispatch(pl *ComputePipeline, nx, ny, nz int, bufs ...*Buffer) error {
	bg, err := pl.bindGroup(bufs...)
	if err != nil {
		return err
	}
	pass := sy.CommandEncoder.BeginComputePass(nil)
	pass.SetPipeline(pl.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.DispatchWorkgroups(uint32(nx), uint32(ny), uint32(nz))
	pass.End()
	pass.Release()
	return nil
}

// CopyToRead records a copy of the given buffer into its readback
// buffer, which must have been configured with [Buffer.ConfigReadBuffer].
func (sy *System) CopyToRead(bufs ...*Buffer) error {
	for _, b := range bufs {
		if err := b.NilReadCheck(); errors.Log(err) != nil {
			return err
		}
		sy.CommandEncoder.CopyBufferToBuffer(b.buffer, 0, b.read, 0, uint64(b.Size))
	}
	return nil
}

// Submit finishes the current command encoder and submits the recorded
// commands to the device queue. It does not wait for completion.
func (sy *System) Submit() error {
	cmd := sy.CommandEncoder
	sy.CommandEncoder = nil
	cmdBuffer, err := cmd.Finish(nil)
	if errors.Log(err) != nil {
		return err
	}
	sy.device.Queue.Submit(cmdBuffer)
	cmdBuffer.Release()
	cmd.Release()
	return nil
}

// Warps returns the number of warps (work groups of compute threads)
// that is sufficient to compute n elements, given the specified number
// of threads per this dimension: Ceil(n / threads).
func Warps(n, threads int) int {
	return int(math.Ceil(float64(n) / float64(threads)))
}
