package window

import "sync"

// ContextManager reference-counts users of a shared platform layer so that
// initialization runs once before the first user and teardown runs once after
// the last. GLFW must not be terminated while any window is alive, and the
// count makes that explicit instead of leaving it to creation order.
type ContextManager struct {
	// mu serializes count changes and the init/term hooks.
	mu sync.Mutex

	// count is the number of active retains.
	count int

	// init runs when the count rises from zero.
	init func() error

	// term runs when the count falls back to zero.
	term func()
}

// NewContextManager creates a manager around the given platform hooks.
// Panics if either hook is nil.
//
// Parameters:
//   - init: called when the first user retains the layer
//   - term: called when the last user releases it
//
// Returns:
//   - *ContextManager: the manager, with no users retained yet
func NewContextManager(init func() error, term func()) *ContextManager {
	if init == nil || term == nil {
		panic("window: context manager requires init and term hooks")
	}
	return &ContextManager{
		init: init,
		term: term,
	}
}

// Retain registers one more user of the platform layer, running the init hook
// when the count rises from zero. If init fails the count stays at zero and
// the next Retain tries again.
//
// Returns:
//   - error: the init hook's error, or nil
func (m *ContextManager) Retain() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count == 0 {
		if err := m.init(); err != nil {
			return err
		}
	}
	m.count++
	return nil
}

// Release unregisters one user, running the teardown hook when the count
// falls back to zero. Panics when called more times than Retain succeeded.
func (m *ContextManager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.count == 0 {
		panic("window: context manager released more times than retained")
	}
	m.count--
	if m.count == 0 {
		m.term()
	}
}

// Active returns the current number of retained users.
//
// Returns:
//   - int: users holding the platform layer open
func (m *ContextManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}
