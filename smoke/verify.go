// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smoke

import (
	"cogentcore.org/core/math32"
)

// Tolerance is the maximum absolute element error accepted as a match.
const Tolerance = 1e-5

// Verify checks the smoke kernel output against the closed-form
// expectation out[i] == i+1, returning the number of elements off by
// more than [Tolerance] and the maximum absolute error.
func Verify(out []float32) (mismatchCount uint32, maxAbsError float32) {
	for i, v := range out {
		err := math32.Abs(v - (float32(i) + 1.0))
		if err > Tolerance {
			mismatchCount++
		}
		maxAbsError = math32.Max(maxAbsError, err)
	}
	return mismatchCount, maxAbsError
}
