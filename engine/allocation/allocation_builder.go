package allocation

import (
	"fmt"

	"github.com/ember-gfx/ember-go/engine/report"
)

// AllocationBuilderOption is a functional option for configuring an
// allocation.
type AllocationBuilderOption func(*allocation)

// WithName labels the allocation in error reports.
//
// Parameters:
//   - name: the diagnostic label
//
// Returns:
//   - AllocationBuilderOption: the option to apply
func WithName(name string) AllocationBuilderOption {
	return func(a *allocation) {
		a.name = name
	}
}

// WithReporter routes the allocation's usage and resource errors to the
// given reporter instead of the process log.
//
// Parameters:
//   - r: the reporter to receive errors
//
// Returns:
//   - AllocationBuilderOption: the option to apply
func WithReporter(r report.Reporter) AllocationBuilderOption {
	return func(a *allocation) {
		if r != nil {
			a.reporter = r
		}
	}
}

// WithMipmapOnSync derives the texture's mip chain on the GPU after every
// upload. Only meaningful for texture-kind allocations whose type does not
// already store explicit mip levels.
//
// Returns:
//   - AllocationBuilderOption: the option to apply
func WithMipmapOnSync() AllocationBuilderOption {
	return func(a *allocation) {
		a.mipmapOnSync = true
	}
}

// WithInitialData fills the CPU buffer at construction. The allocation
// remains deferred, so the first sync uploads the data. Panics when the data
// length does not match the allocation's byte size.
//
// Parameters:
//   - data: the initial bytes, exactly the allocation's byte size
//
// Returns:
//   - AllocationBuilderOption: the option to apply
func WithInitialData(data []byte) AllocationBuilderOption {
	return func(a *allocation) {
		if len(data) != len(a.data) {
			panic(fmt.Sprintf("initial data is %d bytes, allocation needs %d", len(data), len(a.data)))
		}
		copy(a.data, data)
	}
}
