package s3nodes

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
)

// ObjectReader is an io.ReadCloser implementation for an S3 Object.
// The object is requested on the first Read.
type ObjectReader struct {
	ctx    context.Context
	api    ObjectAPI
	bucket string
	key    string
	body   io.ReadCloser
	closed bool
	logger *slog.Logger
}

// Read is the io.Reader implementation for the ObjectReader.
//
// It returns an fs.ErrNotExists if the object doesn't exist in the given bucket.
// And returns an io.EOF when all bytes are read.
func (r *ObjectReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, fs.ErrClosed
	}

	if r.body == nil {
		r.logger.DebugContext(r.ctx, "getting object", slog.String("bucket", r.bucket), slog.String("key", r.key))

		body, err := r.api.GetObject(r.ctx, r.bucket, r.key)
		if err != nil {
			return 0, err
		}

		r.body = body
	}

	return r.body.Read(p)
}

// Close releases the connection of the underlying response.
func (r *ObjectReader) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true
	if r.body == nil {
		return nil
	}

	return r.body.Close()
}
