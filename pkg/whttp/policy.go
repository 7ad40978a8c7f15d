package whttp

import (
	"context"
	"time"
)

// Policy is applied uniformly to every call made to an external
// collaborator. A zero Timeout means the call may block until its parent
// context ends.
type Policy struct {
	Timeout time.Duration
}

func (p Policy) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, p.Timeout)
}

// Call runs fn under the policy.
func Call[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := p.Context(ctx)
	defer cancel()

	return fn(ctx)
}
