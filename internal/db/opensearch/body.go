package opensearch

import (
	"context"
	"io"
)

// cancelBody releases the per-request timeout once the body is consumed.
type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err //nolint:wrapcheck // transparent body
}
