package worker

// PoolBuilderOption is a functional option applied to a pool during construction via NewPool.
type PoolBuilderOption func(*pool)

// WithWorkers overrides the worker count. Zero is allowed and makes every
// launch run inline on the caller, which single-core hosts and tests use.
//
// Parameters:
//   - n: the number of persistent workers, must not be negative
//
// Returns:
//   - PoolBuilderOption: a function that applies the worker count option to a pool
func WithWorkers(n int) PoolBuilderOption {
	return func(p *pool) {
		if n < 0 {
			panic("worker pool count must not be negative")
		}
		p.count = n
	}
}
