package credentials

import (
	"context"
	"fmt"
	"sync"
)

// Memoized caches the value produced by fetch after the first successful Get.
// Invalidate drops the cached value so the next Get fetches again, for when
// the upstream rejects a key that has been rotated out from under us.
type Memoized struct {
	fetch func(ctx context.Context) (string, error)

	mutex    sync.Mutex
	value    string
	hasValue bool
}

func NewMemoized(fetch func(ctx context.Context) (string, error)) *Memoized {
	return &Memoized{
		fetch: fetch,
	}
}

// NewStatic wraps a fixed key, for when the credential comes straight from
// config rather than a secret store.
func NewStatic(key string) *Memoized {
	return NewMemoized(func(ctx context.Context) (string, error) {
		return key, nil
	})
}

func (m *Memoized) Get(ctx context.Context) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.hasValue {
		return m.value, nil
	}

	value, err := m.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch credential: %w", err)
	}

	m.value = value
	m.hasValue = true

	return value, nil
}

func (m *Memoized) Invalidate() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.value = ""
	m.hasValue = false
}
