package bulkhead

import "context"

// Do is the generic companion of [Bulkhead.Run] for functions that return a
// value: it acquires a slot, invokes fn, and releases the slot on every exit
// path. On admission failure it returns the zero value of T and the sentinel
// rejection error without invoking fn.
//
//nolint:ireturn // generic type parameter T, not an interface
func Do[T any](
	ctx context.Context,
	b *Bulkhead,
	fn func(context.Context) (T, error),
	opts ...AcquireOption,
) (T, error) {
	token, err := b.Acquire(ctx, opts...)
	if err != nil {
		var zero T

		return zero, err
	}

	defer token.Release()

	return fn(ctx)
}
