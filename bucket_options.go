package s3nodes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jobstoit/s3nodes/profile"
)

type bucketBuilder struct {
	createIfNotExist bool
	createRegion     string
	skipExistsCheck  bool
	api              ObjectAPI
	logger           *slog.Logger

	// client options
	driver     profile.Driver
	endpoint   string
	secure     bool
	region     string
	accessKey  string
	secretKey  string
	httpClient *http.Client
}

func newBucketBuilder() *bucketBuilder {
	return &bucketBuilder{
		driver: profile.DriverAWS,
		secure: true,
		region: DefaultRegion,
		logger: slog.New(slog.DiscardHandler),
	}
}

type BucketOption func(*bucketBuilder)

// BucketOptions bundles bucket options
func BucketOptions(opts ...BucketOption) BucketOption {
	return func(b *bucketBuilder) {
		for _, op := range opts {
			op(b)
		}
	}
}

func (b *bucketBuilder) Build(ctx context.Context, name string) (*Bucket, error) {
	if name == "" {
		return nil, ErrNoBucketName
	}

	api := b.api
	if api == nil {
		var err error
		if api, err = b.newAPI(ctx); err != nil {
			return nil, err
		}
	}

	if b.skipExistsCheck && !b.createIfNotExist {
		return b.bucket(name, api), nil
	}

	exists, err := api.BucketExists(ctx, name)
	if err != nil {
		return nil, err
	}

	if !exists {
		if !b.createIfNotExist {
			return nil, fmt.Errorf("%w: '%s'", ErrBucketNotExist, name)
		}

		region := b.createRegion
		if region == "" {
			region = b.region
		}

		b.logger.DebugContext(ctx, "creating missing bucket", slog.String("bucket", name), slog.String("region", region))

		if err := api.MakeBucket(ctx, name, region); err != nil {
			return nil, fmt.Errorf("creating missing bucket '%s': %w", name, err)
		}
	}

	return b.bucket(name, api), nil
}

func (b *bucketBuilder) bucket(name string, api ObjectAPI) *Bucket {
	return &Bucket{
		name:     name,
		api:      api,
		endpoint: b.endpoint,
		secure:   b.secure,
		logger:   b.logger,
	}
}

func (b *bucketBuilder) newAPI(ctx context.Context) (ObjectAPI, error) {
	if b.endpoint == "" {
		return nil, ErrNoEndpoint
	}

	switch b.driver {
	case profile.DriverMinio:
		return newMinioAPI(b)
	case profile.DriverAWS, "":
		return newAWSAPI(ctx, b)
	default:
		return nil, fmt.Errorf("unknown storage driver '%s'", b.driver)
	}
}

func (b *bucketBuilder) baseURL() string {
	if b.secure {
		return "https://" + b.endpoint
	}

	return "http://" + b.endpoint
}

// splitEndpoint removes a scheme from the endpoint. An explicit scheme
// overrides the secure flag.
func splitEndpoint(endpoint string, secure bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(endpoint[len("https://"):], "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(endpoint[len("http://"):], "/"), false
	default:
		return strings.TrimSuffix(endpoint, "/"), secure
	}
}

// WithBucketAPI directly sets the storage api for the bucket.
func WithBucketAPI(api ObjectAPI) BucketOption {
	return func(b *bucketBuilder) {
		b.api = api
	}
}

// WithBucketProfile configures the endpoint, credentials, region and driver from a profile.
// Only works if the api is not already provided.
func WithBucketProfile(p profile.Profile) BucketOption {
	return func(b *bucketBuilder) {
		WithBucketHost(p.Endpoint, p.Region, p.Secure)(b)
		WithBucketCredentials(p.AccessKey, p.SecretKey)(b)

		if p.Driver != "" {
			b.driver = p.Driver
		}
	}
}

// WithBucketHost sets the endpoint, region and whether TLS is used.
// A "http://" or "https://" prefix on the endpoint takes precedence over secure.
// Only works if the api is not already provided.
func WithBucketHost(endpoint, region string, secure bool) BucketOption {
	return func(b *bucketBuilder) {
		b.endpoint, b.secure = splitEndpoint(endpoint, secure)

		if region != "" {
			b.region = region
		}
	}
}

// WithBucketCredentials sets the access key and secret key for the client.
// Only works if the api is not already provided.
func WithBucketCredentials(accessKey, secretKey string) BucketOption {
	return func(b *bucketBuilder) {
		b.accessKey = accessKey
		b.secretKey = secretKey
	}
}

// WithBucketDriver selects the client library.
// Only works if the api is not already provided.
func WithBucketDriver(driver profile.Driver) BucketOption {
	return func(b *bucketBuilder) {
		b.driver = driver
	}
}

// WithBucketHTTPClient sets the http client the storage client sends requests with.
// Only works if the api is not already provided.
func WithBucketHTTPClient(cli *http.Client) BucketOption {
	return func(b *bucketBuilder) {
		b.httpClient = cli
	}
}

// WithBucketCreateIfNotExists will create the bucket if it doesn't already exist.
// The bucket is created in region, or in the client's region when region is empty.
func WithBucketCreateIfNotExists(region string) BucketOption {
	return func(b *bucketBuilder) {
		b.createIfNotExist = true
		b.createRegion = region
	}
}

// WithBucketSkipExistsCheck opens the bucket without asking the provider
// whether it exists. A missing bucket then surfaces on the first object call
// as fs.ErrNotExist. It has no effect together with WithBucketCreateIfNotExists.
func WithBucketSkipExistsCheck() BucketOption {
	return func(b *bucketBuilder) {
		b.skipExistsCheck = true
	}
}

// WithBucketLogger sets the default logger for any opperation.
// Setting the logger provides debug logs.
func WithBucketLogger(logger *slog.Logger) BucketOption {
	return func(b *bucketBuilder) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}

		b.logger = logger
	}
}
