package s3nodes

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
)

// ObjectWriter buffers everything written to it and stores it as one object
// when closed.
type ObjectWriter struct {
	ctx         context.Context
	api         ObjectAPI
	bucket      string
	key         string
	contentType string
	logger      *slog.Logger

	buf    bytes.Buffer
	closed bool
}

type ObjectWriterOption func(*ObjectWriter)

func ObjectWriterOptions(ops ...ObjectWriterOption) ObjectWriterOption {
	return func(w *ObjectWriter) {
		for _, op := range ops {
			op(w)
		}
	}
}

// Write is the io.Writer implementation of the ObjectWriter
func (w *ObjectWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fs.ErrClosed
	}

	return w.buf.Write(p)
}

// Close uploads the buffered bytes. Closing twice is a no-op.
func (w *ObjectWriter) Close() error {
	if w.closed {
		return nil
	}

	w.closed = true

	w.logger.DebugContext(w.ctx, "put object",
		slog.String("bucket", w.bucket),
		slog.String("key", w.key),
		slog.Int("size", w.buf.Len()),
		slog.String("content_type", w.contentType),
	)

	err := w.api.PutObject(w.ctx, w.bucket, w.key, w.buf.Bytes(), w.contentType)
	if err != nil {
		w.logger.DebugContext(w.ctx, "put object failed", slog.String("key", w.key), slog.Any("error", err))
	}

	return err
}

/*
 * Options
 */

// WithWriterContentType sets the content type stored with the object
func WithWriterContentType(contentType string) ObjectWriterOption {
	return func(w *ObjectWriter) {
		w.contentType = contentType
	}
}
