// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fluid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDoubleBuffer(t *testing.T) {
	var db DoubleBuffer[string]
	db.Slots = [2]string{"a", "b"}

	assert.Equal(t, 0, db.CurrentIndex())
	assert.Equal(t, "a", db.Current())
	assert.Equal(t, "b", db.Scratch())

	db.Swap()
	assert.Equal(t, 1, db.CurrentIndex())
	assert.Equal(t, "b", db.Current())
	assert.Equal(t, "a", db.Scratch())

	db.Reset()
	assert.Equal(t, 0, db.CurrentIndex())
}

// The owner of a swap count N must land on slot N % 2, which is what
// anchors the pressure solve parity: an even iteration count reads the
// final pressure from slot 0, an odd count from slot 1.
func TestDoubleBufferParity(t *testing.T) {
	for _, n := range []int{5, 20, 30, 37, 120} {
		var db DoubleBuffer[int]
		db.Slots = [2]int{0, 1}
		for range n {
			db.Swap()
		}
		assert.Equal(t, n%2, db.CurrentIndex(), "swaps=%d", n)
		assert.Equal(t, n%2, db.Current(), "swaps=%d", n)
	}
}
