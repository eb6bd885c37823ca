// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command gpusidecar is a one-shot GPU compute diagnostic: it reads a
// single JSON request from stdin, runs the requested workload (smoke
// verifier or stable-fluids simulation), and prints one JSON response.
// On any failure it prints {"ok": false, "error": ...} and exits 1.
package main

import (
	"flag"
	"io"
	"os"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/gpusidecar/sidecar"
)

func main() {
	cfg := &sidecar.Config{}
	cfg.Defaults()
	flag.StringVar(&cfg.Backend, "backend", cfg.Backend, "execution substrate: gpu or cpu (reference)")
	flag.DurationVar(&cfg.ReadTimeout, "timeout", cfg.ReadTimeout, "deadline for GPU readback waits")
	flag.Parse()

	in, err := io.ReadAll(os.Stdin)
	if err == nil {
		var resp any
		if resp, err = sidecar.Run(cfg, in); err == nil {
			if err = sidecar.WriteResponse(os.Stdout, resp); err == nil {
				return
			}
		}
	}
	errors.Log(sidecar.WriteResponse(os.Stdout, sidecar.NewErrorResponse(err)))
	os.Exit(1)
}
