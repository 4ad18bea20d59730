package audit

import "context"

// NewAsyncLogger creates a logger whose writes are buffered and flushed to
// storage in batches (default AsyncOptions) rather than one storage call per
// event. Each Log call still waits until its batch is flushed and returns the
// storage error. Returns both the logger and a cleanup function that must be
// called during shutdown to drain the buffer.
// bufferSize determines memory usage vs throughput tradeoff (typical: 1000-10000).
func NewAsyncLogger(storage Storage, bufferSize int, opts ...Option) (Logger, func(context.Context) error) {
	async := newAsyncStorage(storage, bufferSize, AsyncOptions{})
	logger := NewLogger(async, opts...)

	closeFunc := func(ctx context.Context) error {
		if closer, ok := async.(interface{ Close() error }); ok {
			done := make(chan error, 1)
			go func() { done <- closer.Close() }()
			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}

	return logger, closeFunc
}
