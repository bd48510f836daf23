package s3nodes

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"strings"
)

// Bucket is an abstraction to interact with objects in your S3 bucket
type Bucket struct {
	name     string
	endpoint string
	secure   bool
	logger   *slog.Logger
	api      ObjectAPI
}

// OpenBucket returns a bucket to interact with.
func OpenBucket(ctx context.Context, name string, opts ...BucketOption) (*Bucket, error) {
	builder := newBucketBuilder()
	BucketOptions(opts...)(builder)

	return builder.Build(ctx, name)
}

// Exists returns a a boolean indicating whether the requested object exists.
func (b *Bucket) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := b.api.HeadObject(ctx, b.name, key)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return exists, err
}

// List returns the details of at most limit objects whose key starts with prefix.
// A limit of zero or less lists every object.
func (b *Bucket) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	b.logger.DebugContext(ctx, "listing objects",
		slog.String("bucket", b.name), slog.String("prefix", prefix), slog.Int("limit", limit),
	)

	objs, err := b.api.ListObjects(ctx, b.name, prefix, limit)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(objs) > limit {
		objs = objs[:limit]
	}

	return objs, nil
}

// NewReader returns a new ObjectReader to do io.Reader opperations with your s3 object
func (b *Bucket) NewReader(ctx context.Context, key string) io.ReadCloser {
	return &ObjectReader{
		ctx:    ctx,
		api:    b.api,
		bucket: b.name,
		key:    key,
		logger: b.logger,
	}
}

// ReadAll reads all the bytes of the given object
func (b *Bucket) ReadAll(ctx context.Context, key string) ([]byte, error) {
	rd := b.NewReader(ctx, key)
	defer rd.Close()

	return io.ReadAll(rd)
}

// NewWriter returns a new ObjectWriter to do io.Write opparations with your s3 object
func (b *Bucket) NewWriter(ctx context.Context, key string, opts ...ObjectWriterOption) io.WriteCloser {
	wr := &ObjectWriter{
		ctx:    ctx,
		api:    b.api,
		bucket: b.name,
		key:    key,
		logger: b.logger,
	}

	ObjectWriterOptions(opts...)(wr)

	return wr
}

// WriteAll writes all the given bytes into the given object
func (b *Bucket) WriteAll(ctx context.Context, key string, p []byte, opts ...ObjectWriterOption) (int, error) {
	wr := b.NewWriter(ctx, key, opts...)

	n, err := wr.Write(p)
	if err != nil {
		return n, err
	}

	return n, wr.Close()
}

// WriteFrom writes all the bytes from the reader into the given object
func (b *Bucket) WriteFrom(ctx context.Context, key string, from io.Reader, opts ...ObjectWriterOption) (int64, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(from); err != nil {
		return 0, err
	}

	n, err := b.WriteAll(ctx, key, buf.Bytes(), opts...)

	return int64(n), err
}

// ObjectURL returns the path-style url of the given object.
func (b *Bucket) ObjectURL(key string) string {
	scheme := "http"
	if b.secure {
		scheme = "https"
	}

	return scheme + "://" + b.endpoint + "/" + b.name + "/" + strings.TrimPrefix(key, "/")
}

// Name returns the specified bucket's name
func (b *Bucket) Name() string {
	return b.name
}
