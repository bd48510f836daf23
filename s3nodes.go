package s3nodes

import (
	"context"
	"errors"
	"io"
	"time"
)

const (
	DefaultRegion = "us-east-1"

	ContentTypePNG = "image/png"
)

var (
	ErrNoBucketName   = errors.New("bucket name is required")
	ErrNoEndpoint     = errors.New("profile has no endpoint")
	ErrBucketNotExist = errors.New("bucket does not exist")
)

// ObjectInfo describes a single stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
	ETag         string
}

// ObjectAPI is the set of storage calls a Bucket makes. Each method issues a
// single request against the provider.
//
// GetObject and HeadObject report a missing object with fs.ErrNotExist.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket, region string) error
	HeadObject(ctx context.Context, bucket, key string) (bool, error)
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error
	ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]ObjectInfo, error)
}
