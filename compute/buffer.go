// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compute

import (
	"fmt"
	"time"

	"cogentcore.org/core/base/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// note: WriteBuffer is the preferred method for writing, so we only
// need to manage the readback direction here.

// Buffer is a GPU buffer with a unique label within its System,
// and an optional host-visible readback buffer.
type Buffer struct {
	// Label is the unique name of this buffer within its System.
	// It is used to identify the buffer in cached bind group keys.
	Label string

	// Size is the allocated size in bytes.
	Size int

	device *Device

	// buffer is the device-local buffer bound to shaders.
	buffer *wgpu.Buffer

	// read is the MapRead staging buffer, created by
	// [Buffer.ConfigReadBuffer] for buffers that are read back.
	read *wgpu.Buffer
}

// NewStorageBuffer returns a new storage buffer of the given size in
// bytes, usable as a copy source and destination.
func (sy *System) NewStorageBuffer(label string, size int) (*Buffer, error) {
	return sy.newBuffer(label, size,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
}

// NewUniformBuffer returns a new uniform buffer of the given size in bytes.
func (sy *System) NewUniformBuffer(label string, size int) (*Buffer, error) {
	return sy.newBuffer(label, size,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
}

func (sy *System) newBuffer(label string, size int, usage wgpu.BufferUsage) (*Buffer, error) {
	buf, err := sy.device.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(size),
		Usage: usage,
	})
	if errors.Log(err) != nil {
		return nil, err
	}
	return &Buffer{Label: label, Size: size, device: sy.device, buffer: buf}, nil
}

// ConfigReadBuffer configures a host-visible readback buffer for this
// buffer, so its contents can be copied back with [System.CopyToRead]
// and then mapped with [Buffer.ReadSync].
func (b *Buffer) ConfigReadBuffer() error {
	if b.read != nil {
		return nil
	}
	read, err := b.device.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: b.Label + "-read",
		Size:  uint64(b.Size),
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if errors.Log(err) != nil {
		return err
	}
	b.read = read
	return nil
}

// NilReadCheck returns an error if there is no readback buffer.
func (b *Buffer) NilReadCheck() error {
	if b.read == nil {
		return fmt.Errorf("compute.Buffer %q: readback buffer is nil: call ConfigReadBuffer", b.Label)
	}
	return nil
}

// SetBufferFrom copies the given values into the buffer, via the queue.
func SetBufferFrom[E any](b *Buffer, from []E) error {
	return b.SetFromBytes(wgpu.ToBytes(from))
}

// SetFromBytes copies the given bytes into the buffer, via the queue.
// The sizes must match exactly.
func (b *Buffer) SetFromBytes(from []byte) error {
	if len(from) != b.Size {
		err := fmt.Errorf("compute.Buffer SetFromBytes %q: size passed: %d != size allocated: %d", b.Label, len(from), b.Size)
		return errors.Log(err)
	}
	return errors.Log(b.device.Queue.WriteBuffer(b.buffer, 0, from))
}

// BufferMapAsyncError returns an error message if the status is not success.
func BufferMapAsyncError(status wgpu.BufferMapAsyncStatus) error {
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return errors.New("compute: BufferMapAsync was not successful: " + status.String())
	}
	return nil
}

// ReadSync maps the readback buffer, waiting on the device until the
// mapping resolves or the device [Device.ReadTimeout] deadline passes,
// whichever comes first. On success, call [ReadBufferTo] to copy the
// mapped bytes out, which also unmaps.
//
// The deadline means a hung backend fails the request with an error
// instead of stalling it indefinitely.
func (b *Buffer) ReadSync() error {
	if err := b.NilReadCheck(); errors.Log(err) != nil {
		return err
	}
	done := make(chan error, 1)
	err := b.read.MapAsync(wgpu.MapModeRead, 0, uint64(b.Size), func(status wgpu.BufferMapAsyncStatus) {
		done <- BufferMapAsyncError(status)
	})
	if errors.Log(err) != nil {
		return err
	}
	timeout := b.device.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	deadline := time.Now().Add(timeout)
	for {
		b.device.Device.Poll(false, nil)
		select {
		case err := <-done:
			return errors.Log(err)
		default:
		}
		if time.Now().After(deadline) {
			return errors.Log(fmt.Errorf("compute.Buffer ReadSync %q: readback did not complete within %v", b.Label, timeout))
		}
		time.Sleep(50 * time.Microsecond)
	}
}

// ReadBufferTo copies the mapped readback buffer contents into dest,
// and unmaps the readback buffer. [Buffer.ReadSync] must have
// succeeded first.
func ReadBufferTo[E any](b *Buffer, dest []E) error {
	db := wgpu.ToBytes(dest)
	if len(db) != b.Size {
		err := fmt.Errorf("compute.Buffer ReadBufferTo %q: dest size: %d != buffer size: %d", b.Label, len(db), b.Size)
		return errors.Log(err)
	}
	bm := b.read.GetMappedRange(0, uint(b.Size))
	copy(db, bm)
	b.read.Unmap()
	return nil
}

func (b *Buffer) Release() {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
	if b.read != nil {
		b.read.Release()
		b.read = nil
	}
}
