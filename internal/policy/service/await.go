package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultUpstreamTimeout bounds each external call when neither the request
// nor the service configure a timeout.
const DefaultUpstreamTimeout = 5 * time.Second

// await runs fn with a deadline of d. Running out of time yields
// ErrUpstreamTimeout; cancellation of ctx by the caller is returned as
// context.Canceled.
func await[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, upstreamErr(ctx, d)
	}

	callCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(callCtx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && callCtx.Err() != nil && errors.Is(r.err, callCtx.Err()) {
			return zero, upstreamErr(ctx, d)
		}
		return r.v, r.err
	case <-callCtx.Done():
		return zero, upstreamErr(ctx, d)
	}
}

func upstreamErr(ctx context.Context, d time.Duration) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}
	return fmt.Errorf("%w after %s", ErrUpstreamTimeout, d)
}
