package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrBackendUnavailable is returned when no embedding backend can be used.
var ErrBackendUnavailable = errors.New("embedding backend unavailable")

// Embedder turns texts into dense vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbedderFactory constructs an embedder. It runs at most once per LazyBackend.
type EmbedderFactory func() (Embedder, error)

// LazyBackend holds a process-wide embedder that is built on first use.
// Concurrent first callers block until the single initialisation finishes;
// an initialisation failure is kept and returned to every later caller.
type LazyBackend struct {
	once     sync.Once
	factory  EmbedderFactory
	embedder Embedder
	err      error
	attempts atomic.Int32
}

// NewLazyBackend wraps a factory. A nil factory yields a permanently unavailable backend.
func NewLazyBackend(factory EmbedderFactory) *LazyBackend {
	return &LazyBackend{factory: factory}
}

// NewStaticBackend returns a backend that is already initialised with embedder.
func NewStaticBackend(embedder Embedder) *LazyBackend {
	return NewLazyBackend(func() (Embedder, error) { return embedder, nil })
}

// Get returns the embedder, initialising it if needed.
func (b *LazyBackend) Get() (Embedder, error) {
	if b == nil {
		return nil, ErrBackendUnavailable
	}

	b.once.Do(func() {
		b.attempts.Add(1)
		if b.factory == nil {
			b.err = ErrBackendUnavailable
			return
		}

		embedder, err := b.factory()
		switch {
		case err != nil:
			b.err = fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		case embedder == nil:
			b.err = ErrBackendUnavailable
		default:
			b.embedder = embedder
		}
	})

	return b.embedder, b.err
}

// Attempts returns how many times initialisation ran. It is never above one.
func (b *LazyBackend) Attempts() int {
	if b == nil {
		return 0
	}
	return int(b.attempts.Load())
}
