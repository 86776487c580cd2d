package kernel

import (
	"sync/atomic"

	"github.com/ember-gfx/ember-go/engine/worker"
)

// ForEach1D splits [0, count) into one contiguous slice per worker and runs
// fn over every slice in parallel, returning once all slices are done. With
// zero or one pool workers the whole range runs in a single call. fn must
// not write bytes outside its own slice.
//
// Parameters:
//   - p: the pool to fan out on
//   - count: the number of cells to cover
//   - fn: the kernel body, called with a half-open cell range
func ForEach1D(p worker.Pool, count int, fn func(start, end int)) {
	if count <= 0 {
		return
	}
	workers := p.Workers()
	if workers <= 1 {
		p.Launch(func(any, int) {
			fn(0, count)
		}, nil)
		return
	}
	chunk := (count + workers - 1) / workers
	p.Launch(func(_ any, index int) {
		start := index * chunk
		if start >= count {
			return
		}
		fn(start, min(start+chunk, count))
	}, nil)
}

// ForEach2D runs fn once per row of a width by height grid. Rows are claimed
// through a shared counter so uneven per-row cost still balances across
// workers. fn receives the full x span of one row and must not write outside
// that row.
//
// Parameters:
//   - p: the pool to fan out on
//   - width: the row length in cells
//   - height: the number of rows
//   - fn: the kernel body, called with a half-open x range and a row index
func ForEach2D(p worker.Pool, width, height int, fn func(xStart, xEnd, y int)) {
	if width <= 0 || height <= 0 {
		return
	}
	var next atomic.Int64
	p.Launch(func(any, int) {
		for {
			y := int(next.Add(1)) - 1
			if y >= height {
				return
			}
			fn(0, width, y)
		}
	}, nil)
}
