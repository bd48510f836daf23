package s3nodes

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const awsGlobalEndpoint = "s3.amazonaws.com"

type awsAPI struct {
	cli *s3.Client
}

// NewAWSAPI returns an ObjectAPI that uses the given s3 client.
func NewAWSAPI(cli *s3.Client) ObjectAPI {
	return &awsAPI{cli: cli}
}

func newAWSAPI(ctx context.Context, b *bucketBuilder) (*awsAPI, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(b.region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(b.accessKey, b.secretKey, "")),
		config.WithRetryer(func() aws.Retryer {
			return aws.NopRetryer{}
		}),
	}

	if b.httpClient != nil {
		opts = append(opts, config.WithHTTPClient(b.httpClient))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// S3-compatible stores reject the default trailing checksums.
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired

		if b.endpoint == awsGlobalEndpoint && b.secure {
			return
		}

		o.BaseEndpoint = aws.String(b.baseURL())
		o.UsePathStyle = true
	})

	return &awsAPI{cli: cli}, nil
}

func (a *awsAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	_, err := a.cli.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: &bucket,
	})
	if err != nil {
		if isAWSNotFound(err) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (a *awsAPI) MakeBucket(ctx context.Context, bucket, region string) error {
	input := &s3.CreateBucketInput{
		Bucket: &bucket,
	}

	if region != "" && region != DefaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}

	_, err := a.cli.CreateBucket(ctx, input)

	return err
}

func (a *awsAPI) HeadObject(ctx context.Context, bucket, key string) (bool, error) {
	_, err := a.cli.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		if isAWSNotFound(err) {
			return false, notExist("head", bucket, key)
		}

		return false, err
	}

	return true, nil
}

func (a *awsAPI) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	res, err := a.cli.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		if isAWSNotFound(err) {
			return nil, notExist("get", bucket, key)
		}

		return nil, err
	}

	return res.Body, nil
}

func (a *awsAPI) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	}

	if contentType != "" {
		input.ContentType = &contentType
	}

	_, err := a.cli.PutObject(ctx, input)

	return err
}

func (a *awsAPI) ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: &bucket,
		Prefix: &prefix,
	}

	if limit > 0 && limit < 1000 {
		input.MaxKeys = aws.Int32(int32(limit))
	}

	var objs []ObjectInfo

	pages := s3.NewListObjectsV2Paginator(a.cli, input)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		for _, obj := range page.Contents {
			objs = append(objs, ObjectInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: obj.LastModified,
				ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
			})

			if limit > 0 && len(objs) >= limit {
				return objs, nil
			}
		}
	}

	return objs, nil
}

func isAWSNotFound(err error) bool {
	var apiError smithy.APIError
	if !errors.As(err, &apiError) {
		return false
	}

	switch apiError.(type) {
	case *types.NotFound, *types.NoSuchKey, *types.NoSuchBucket:
		return true
	}

	switch apiError.ErrorCode() {
	case "NotFound", "NoSuchKey", "NoSuchBucket":
		return true
	default:
		return false
	}
}

func notExist(op, bucket, key string) error {
	return &fs.PathError{Op: op, Path: bucket + "/" + key, Err: fs.ErrNotExist}
}
