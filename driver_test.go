package s3nodes_test

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobstoit/s3nodes"
	"github.com/jobstoit/s3nodes/profile"
)

func driverProfile(srv string, driver profile.Driver) profile.Profile {
	return profile.Profile{
		Name:      "fake",
		Endpoint:  srv,
		AccessKey: "access_key",
		SecretKey: "secret_key",
		Region:    "us-east-1",
		Driver:    driver,
	}
}

func TestDrivers(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	for _, driver := range []profile.Driver{profile.DriverAWS, profile.DriverMinio} {
		t.Run(string(driver), func(t *testing.T) {
			ctx := context.Background()

			t.Run("missing bucket without create", func(t *testing.T) {
				_, srv := newFakeS3(t)

				_, err := s3nodes.OpenBucket(ctx, "images",
					s3nodes.WithBucketProfile(driverProfile(srv.URL, driver)),
					s3nodes.WithBucketHTTPClient(srv.Client()),
				)
				require.ErrorIs(t, err, s3nodes.ErrBucketNotExist)
			})

			t.Run("creates missing bucket", func(t *testing.T) {
				fake, srv := newFakeS3(t)

				bucket, err := s3nodes.OpenBucket(ctx, "images",
					s3nodes.WithBucketProfile(driverProfile(srv.URL, driver)),
					s3nodes.WithBucketHTTPClient(srv.Client()),
					s3nodes.WithBucketCreateIfNotExists("eu-west-1"),
				)
				require.NoError(t, err)
				assert.Equal(t, "images", bucket.Name())
				assert.Contains(t, fake.locations["images"], "eu-west-1")
			})

			t.Run("write read list", func(t *testing.T) {
				fake, srv := newFakeS3(t, "images")
				fake.put("images", "other/a.png", []byte("aaa"))

				bucket, err := s3nodes.OpenBucket(ctx, "images",
					s3nodes.WithBucketProfile(driverProfile(srv.URL, driver)),
					s3nodes.WithBucketHTTPClient(srv.Client()),
				)
				require.NoError(t, err)

				payload := []byte("\x89PNG not really")
				_, err = bucket.WriteAll(ctx, "comfyui/image.png", payload, s3nodes.WithWriterContentType(s3nodes.ContentTypePNG))
				require.NoError(t, err)

				stored, ok := fake.object("images", "comfyui/image.png")
				require.True(t, ok)
				assert.Equal(t, payload, stored.body)
				assert.Equal(t, s3nodes.ContentTypePNG, stored.contentType)
				assert.Equal(t, 1, fake.requestCount(http.MethodPut))

				got, err := bucket.ReadAll(ctx, "comfyui/image.png")
				require.NoError(t, err)
				assert.Equal(t, payload, got)

				exists, err := bucket.Exists(ctx, "comfyui/image.png")
				require.NoError(t, err)
				assert.True(t, exists)

				exists, err = bucket.Exists(ctx, "comfyui/nope.png")
				require.NoError(t, err)
				assert.False(t, exists)

				objs, err := bucket.List(ctx, "comfyui/", 100)
				require.NoError(t, err)
				require.Len(t, objs, 1)
				assert.Equal(t, "comfyui/image.png", objs[0].Key)
				assert.Equal(t, int64(len(payload)), objs[0].Size)
				assert.Equal(t, "fake-etag", objs[0].ETag)
				assert.NotNil(t, objs[0].LastModified)

				all, err := bucket.List(ctx, "", 0)
				require.NoError(t, err)
				assert.Len(t, all, 2)

				limited, err := bucket.List(ctx, "", 1)
				require.NoError(t, err)
				assert.Len(t, limited, 1)
			})

			t.Run("missing bucket without exists check", func(t *testing.T) {
				fake, srv := newFakeS3(t)

				bucket, err := s3nodes.OpenBucket(ctx, "images",
					s3nodes.WithBucketProfile(driverProfile(srv.URL, driver)),
					s3nodes.WithBucketHTTPClient(srv.Client()),
					s3nodes.WithBucketSkipExistsCheck(),
				)
				require.NoError(t, err)
				assert.Zero(t, fake.bucketRequests(http.MethodHead, "images"))

				_, err = bucket.ReadAll(ctx, "a.png")
				assert.ErrorIs(t, err, fs.ErrNotExist)
				assert.Zero(t, fake.bucketRequests(http.MethodHead, "images"))
			})

			t.Run("missing object", func(t *testing.T) {
				_, srv := newFakeS3(t, "images")

				bucket, err := s3nodes.OpenBucket(ctx, "images",
					s3nodes.WithBucketProfile(driverProfile(srv.URL, driver)),
					s3nodes.WithBucketHTTPClient(srv.Client()),
				)
				require.NoError(t, err)

				rd := bucket.NewReader(ctx, "missing.png")
				defer rd.Close()

				_, err = io.ReadAll(rd)
				assert.ErrorIs(t, err, fs.ErrNotExist)
			})
		})
	}
}

func TestUnknownDriver(t *testing.T) {
	_, err := s3nodes.OpenBucket(context.Background(), "images",
		s3nodes.WithBucketHost("localhost:9000", "", false),
		s3nodes.WithBucketDriver("ftp"),
	)
	assert.ErrorContains(t, err, "unknown storage driver")
}

func TestNoEndpoint(t *testing.T) {
	_, err := s3nodes.OpenBucket(context.Background(), "images",
		s3nodes.WithBucketCredentials("a", "b"),
	)
	assert.ErrorIs(t, err, s3nodes.ErrNoEndpoint)
}

func TestInjectedClients(t *testing.T) {
	ctx := context.Background()

	clients := map[string]func(t *testing.T, srv string, hc *http.Client) s3nodes.ObjectAPI{
		"aws": func(_ *testing.T, srv string, hc *http.Client) s3nodes.ObjectAPI {
			return s3nodes.NewAWSAPI(s3.New(s3.Options{
				Region:                     "us-east-1",
				Credentials:                credentials.NewStaticCredentialsProvider("access_key", "secret_key", ""),
				BaseEndpoint:               aws.String(srv),
				UsePathStyle:               true,
				HTTPClient:                 hc,
				Retryer:                    aws.NopRetryer{},
				RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
				ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
			}))
		},
		"minio": func(t *testing.T, srv string, hc *http.Client) s3nodes.ObjectAPI {
			cli, err := minio.New(strings.TrimPrefix(srv, "http://"), &minio.Options{
				Creds:        miniocreds.NewStaticV4("access_key", "secret_key", ""),
				Region:       "us-east-1",
				BucketLookup: minio.BucketLookupPath,
				Transport:    hc.Transport,
			})
			require.NoError(t, err)

			return s3nodes.NewMinioAPI(cli)
		},
	}

	for name, newAPI := range clients {
		t.Run(name, func(t *testing.T) {
			fake, srv := newFakeS3(t, "images")
			fake.put("images", "in/a.png", []byte("stored"))

			bucket, err := s3nodes.OpenBucket(ctx, "images",
				s3nodes.WithBucketAPI(newAPI(t, srv.URL, srv.Client())),
				s3nodes.WithBucketHost(srv.URL, "us-east-1", false),
			)
			require.NoError(t, err)

			got, err := bucket.ReadAll(ctx, "in/a.png")
			require.NoError(t, err)
			assert.Equal(t, []byte("stored"), got)

			_, err = bucket.WriteAll(ctx, "out/b.png", []byte("written"))
			require.NoError(t, err)

			stored, ok := fake.object("images", "out/b.png")
			require.True(t, ok)
			assert.Equal(t, []byte("written"), stored.body)
		})
	}
}
