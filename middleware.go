package bulkhead

import "context"

// Pattern: Decorator — the bulkhead wraps a call the same way other
// resilience decorators do, so it composes into a chain where order
// determines execution semantics.

// Middleware wraps a function call with additional behavior.
// Each middleware receives the next function in the chain and returns a
// wrapped version.
type Middleware[T any] func(next func(context.Context) (T, error)) func(context.Context) (T, error)

// Chain composes multiple middlewares into a single middleware.
// Middlewares are applied in order: the first middleware is the outermost
// wrapper.
//
// Chain(a, b, c) produces a(b(c(next))) — a is outermost, c is innermost.
// Chain() with zero middlewares returns an identity middleware that passes
// through to next.
func Chain[T any](middlewares ...Middleware[T]) Middleware[T] {
	return func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}

		return next
	}
}

// Wrap returns a middleware that guards next with b: the call is admitted
// through [Bulkhead.Acquire] (with opts applied per call) and the slot is
// released when next returns. Rejections short-circuit the chain with the
// sentinel rejection error.
func Wrap[T any](b *Bulkhead, opts ...AcquireOption) Middleware[T] {
	return func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
		return func(ctx context.Context) (T, error) {
			return Do[T](ctx, b, next, opts...)
		}
	}
}
