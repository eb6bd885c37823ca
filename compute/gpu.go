// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compute provides a minimal WebGPU compute backend:
// GPU and device acquisition, compute pipelines with cached bind groups,
// storage / uniform / readback buffers, and deadline-bounded readback
// synchronization.
package compute

import (
	"strings"
	"time"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// GPU represents the physical GPU hardware: the WebGPU instance and the
// adapter selected on it. Logical devices are created per [System], so
// independent systems are fully isolated from each other.
type GPU struct {
	// Instance represents the WebGPU system overall.
	Instance *wgpu.Instance

	// Adapter is the specific GPU hardware device being used.
	Adapter *wgpu.Adapter

	// Properties are the adapter properties, such as the name
	// and backend type, used for the backend identity string.
	Properties wgpu.AdapterInfo

	// ReadTimeout is the readback deadline inherited by devices
	// created on this GPU; [DefaultReadTimeout] by default.
	ReadTimeout time.Duration
}

// NewGPU returns a new GPU with a high-performance adapter requested
// from the instance. Returns an error if no adapter is available.
func NewGPU() (*GPU, error) {
	gp := &GPU{ReadTimeout: DefaultReadTimeout}
	gp.Instance = wgpu.CreateInstance(nil)
	adapter, err := gp.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		gp.Instance.Release()
		return nil, errors.Log(err)
	}
	gp.Adapter = adapter
	gp.Properties = adapter.GetInfo()
	return gp, nil
}

// Backend returns the backend identity string reported in responses,
// e.g., "wgpu/vulkan" or "wgpu/metal".
func (gp *GPU) Backend() string {
	return "wgpu/" + strings.ToLower(gp.Properties.BackendType.String())
}

// DeviceName returns the name of the adapter hardware.
func (gp *GPU) DeviceName() string {
	return gp.Properties.Name
}

func (gp *GPU) Release() {
	if gp.Adapter != nil {
		gp.Adapter.Release()
		gp.Adapter = nil
	}
	if gp.Instance != nil {
		gp.Instance.Release()
		gp.Instance = nil
	}
}
