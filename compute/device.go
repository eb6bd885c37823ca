// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compute

import (
	"time"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultReadTimeout is the default deadline for readback mapping waits.
// A backend that has not mapped a buffer within this window is treated
// as hung and the request fails with an error instead of blocking forever.
const DefaultReadTimeout = 30 * time.Second

// Device is a logical device and associated queue.
type Device struct {
	// Device is the logical device.
	Device *wgpu.Device

	// Queue is the command submission queue for this device.
	Queue *wgpu.Queue

	// ReadTimeout is the deadline applied to readback mapping waits,
	// [DefaultReadTimeout] unless set otherwise.
	ReadTimeout time.Duration
}

// NewDevice returns a new logical device on the given GPU.
func NewDevice(gp *GPU) (*Device, error) {
	wdev, err := gp.Adapter.RequestDevice(nil)
	if err != nil {
		return nil, errors.Log(err)
	}
	timeout := gp.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	dev := &Device{Device: wdev, Queue: wdev.GetQueue(), ReadTimeout: timeout}
	return dev, nil
}

// WaitDone waits until the device is done with all submitted work.
func (dv *Device) WaitDone() {
	if dv.Device == nil {
		return
	}
	dv.Device.Poll(true, nil)
}

func (dv *Device) Release() {
	if dv.Device == nil {
		return
	}
	dv.WaitDone()
	dv.Queue.Release()
	dv.Device.Release()
	dv.Device = nil
	dv.Queue = nil
}
