// Package hook holds ordered callbacks that run after a record has been
// rebuilt from a storage row.
package hook

import (
	"context"
	"sync"
)

// Func may modify rec; row is the raw row it was built from.
type Func[T, R any] func(ctx context.Context, rec *T, row *R) error

type List[T, R any] struct {
	mu  sync.RWMutex
	fns []Func[T, R]
}

func (l *List[T, R]) Register(fn Func[T, R]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.fns = append(l.fns, fn)
}

func (l *List[T, R]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.fns)
}

// Run calls the hooks in registration order and stops at the first error.
func (l *List[T, R]) Run(ctx context.Context, rec *T, row *R) error {
	l.mu.RLock()
	fns := l.fns
	l.mu.RUnlock()

	for _, fn := range fns {
		if err := fn(ctx, rec, row); err != nil {
			return err
		}
	}

	return nil
}
