package window

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetainInitializesOnce(t *testing.T) {
	inits, terms := 0, 0
	m := NewContextManager(
		func() error { inits++; return nil },
		func() { terms++ },
	)

	assert.NoError(t, m.Retain())
	assert.NoError(t, m.Retain())
	assert.NoError(t, m.Retain())
	assert.Equal(t, 1, inits)
	assert.Equal(t, 3, m.Active())
	assert.Zero(t, terms)
}

func TestReleaseTearsDownAfterLastUser(t *testing.T) {
	inits, terms := 0, 0
	m := NewContextManager(
		func() error { inits++; return nil },
		func() { terms++ },
	)

	assert.NoError(t, m.Retain())
	assert.NoError(t, m.Retain())

	m.Release()
	assert.Zero(t, terms)
	m.Release()
	assert.Equal(t, 1, terms)
	assert.Zero(t, m.Active())
}

func TestRetainAfterTeardownReinitializes(t *testing.T) {
	inits, terms := 0, 0
	m := NewContextManager(
		func() error { inits++; return nil },
		func() { terms++ },
	)

	assert.NoError(t, m.Retain())
	m.Release()
	assert.NoError(t, m.Retain())
	m.Release()

	assert.Equal(t, 2, inits)
	assert.Equal(t, 2, terms)
}

func TestFailedInitLeavesNoUsers(t *testing.T) {
	attempts := 0
	m := NewContextManager(
		func() error {
			attempts++
			if attempts == 1 {
				return errors.New("display unavailable")
			}
			return nil
		},
		func() {},
	)

	assert.Error(t, m.Retain())
	assert.Zero(t, m.Active())

	// The failure does not poison the manager.
	assert.NoError(t, m.Retain())
	assert.Equal(t, 1, m.Active())
}

func TestReleaseWithoutRetainPanics(t *testing.T) {
	m := NewContextManager(func() error { return nil }, func() {})
	assert.Panics(t, func() { m.Release() })
}

func TestNilHooksPanic(t *testing.T) {
	assert.Panics(t, func() { NewContextManager(nil, func() {}) })
	assert.Panics(t, func() { NewContextManager(func() error { return nil }, nil) })
}

func TestConcurrentRetainRelease(t *testing.T) {
	var mu sync.Mutex
	inits, terms := 0, 0
	m := NewContextManager(
		func() error { mu.Lock(); inits++; mu.Unlock(); return nil },
		func() { mu.Lock(); terms++; mu.Unlock() },
	)

	// Hold one retain so init runs exactly once across the churn below.
	assert.NoError(t, m.Retain())

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if err := m.Retain(); err == nil {
					m.Release()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, m.Active())
	m.Release()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, inits)
	assert.Equal(t, 1, terms)
}
