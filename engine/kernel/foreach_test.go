package kernel

import (
	"sync/atomic"
	"testing"

	"github.com/ember-gfx/ember-go/engine/worker"
)

func TestForEach1DCoversRangeExactlyOnce(t *testing.T) {
	p := worker.NewPool(worker.WithWorkers(4))
	defer p.Close()

	const n = 1003
	visits := make([]int32, n)
	ForEach1D(p, n, func(start, end int) {
		for i := start; i < end; i++ {
			visits[i]++
		}
	})

	for i, v := range visits {
		if v != 1 {
			t.Fatalf("cell %d visited %d times, want 1", i, v)
		}
	}
}

func TestForEach1DSlicesAreContiguous(t *testing.T) {
	p := worker.NewPool(worker.WithWorkers(4))
	defer p.Close()

	type span struct{ start, end int }
	spans := make([]span, 4)
	var calls atomic.Int32
	ForEach1D(p, 100, func(start, end int) {
		spans[calls.Add(1)-1] = span{start, end}
	})

	if got := calls.Load(); got != 4 {
		t.Fatalf("kernel body ran %d times, want 4", got)
	}
	covered := 0
	for _, s := range spans {
		if s.end <= s.start {
			t.Fatalf("empty slice [%d, %d)", s.start, s.end)
		}
		if s.start%25 != 0 || s.end-s.start != 25 {
			t.Fatalf("slice [%d, %d) is not a contiguous quarter", s.start, s.end)
		}
		covered += s.end - s.start
	}
	if covered != 100 {
		t.Fatalf("slices cover %d cells, want 100", covered)
	}
}

func TestForEach1DEmptyRange(t *testing.T) {
	p := worker.NewPool(worker.WithWorkers(2))
	defer p.Close()

	ForEach1D(p, 0, func(start, end int) {
		t.Errorf("kernel ran for empty range with [%d, %d)", start, end)
	})
	ForEach1D(p, -5, func(start, end int) {
		t.Errorf("kernel ran for negative range with [%d, %d)", start, end)
	})
}

func TestForEach1DInlinePool(t *testing.T) {
	p := worker.NewPool(worker.WithWorkers(0))
	defer p.Close()

	var spans [][2]int
	ForEach1D(p, 42, func(start, end int) {
		spans = append(spans, [2]int{start, end})
	})

	if len(spans) != 1 || spans[0] != [2]int{0, 42} {
		t.Fatalf("inline dispatch produced spans %v, want [[0 42]]", spans)
	}
}

func TestForEach2DVisitsEveryRowOnce(t *testing.T) {
	p := worker.NewPool(worker.WithWorkers(4))
	defer p.Close()

	const width, height = 7, 64
	rows := make([]atomic.Int32, height)
	ForEach2D(p, width, height, func(xStart, xEnd, y int) {
		if xStart != 0 || xEnd != width {
			t.Errorf("row %d got x span [%d, %d), want [0, %d)", y, xStart, xEnd, width)
		}
		rows[y].Add(1)
	})

	for y := range rows {
		if got := rows[y].Load(); got != 1 {
			t.Fatalf("row %d visited %d times, want 1", y, got)
		}
	}
}

func TestForEach2DEmptyGrid(t *testing.T) {
	p := worker.NewPool(worker.WithWorkers(2))
	defer p.Close()

	ForEach2D(p, 0, 8, func(xStart, xEnd, y int) {
		t.Error("kernel ran for zero-width grid")
	})
	ForEach2D(p, 8, 0, func(xStart, xEnd, y int) {
		t.Error("kernel ran for zero-height grid")
	})
}
