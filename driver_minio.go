package s3nodes

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type minioAPI struct {
	cli *minio.Client
}

// NewMinioAPI returns an ObjectAPI that uses the given minio client.
func NewMinioAPI(cli *minio.Client) ObjectAPI {
	return &minioAPI{cli: cli}
}

func newMinioAPI(b *bucketBuilder) (*minioAPI, error) {
	// minio refuses to create a bucket outside the client's region
	region := b.region
	if b.createIfNotExist && b.createRegion != "" {
		region = b.createRegion
	}

	options := &minio.Options{
		Creds:        credentials.NewStaticV4(b.accessKey, b.secretKey, ""),
		Secure:       b.secure,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	}

	if b.httpClient != nil && b.httpClient.Transport != nil {
		options.Transport = b.httpClient.Transport
	}

	cli, err := minio.New(b.endpoint, options)
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	return &minioAPI{cli: cli}, nil
}

func (m *minioAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return m.cli.BucketExists(ctx, bucket)
}

func (m *minioAPI) MakeBucket(ctx context.Context, bucket, region string) error {
	return m.cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}

func (m *minioAPI) HeadObject(ctx context.Context, bucket, key string) (bool, error) {
	if _, err := m.cli.StatObject(ctx, bucket, key, minio.StatObjectOptions{}); err != nil {
		if isMinioNotFound(err) {
			return false, notExist("head", bucket, key)
		}

		return false, err
	}

	return true, nil
}

func (m *minioAPI) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := m.cli.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}

	// the request is only sent on first use, stat surfaces a missing object here
	if _, err := obj.Stat(); err != nil {
		obj.Close()

		if isMinioNotFound(err) {
			return nil, notExist("get", bucket, key)
		}

		return nil, err
	}

	return obj, nil
}

func (m *minioAPI) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := m.cli.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})

	return err
}

func (m *minioAPI) ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]ObjectInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	if limit > 0 && limit < 1000 {
		opts.MaxKeys = limit
	}

	var objs []ObjectInfo
	for obj := range m.cli.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, obj.Err
		}

		info := ObjectInfo{
			Key:  obj.Key,
			Size: obj.Size,
			ETag: obj.ETag,
		}

		if !obj.LastModified.IsZero() {
			modified := obj.LastModified
			info.LastModified = &modified
		}

		objs = append(objs, info)
		if limit > 0 && len(objs) >= limit {
			break
		}
	}

	return objs, nil
}

func isMinioNotFound(err error) bool {
	res := minio.ToErrorResponse(err)
	switch res.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}

	return res.StatusCode == http.StatusNotFound
}
