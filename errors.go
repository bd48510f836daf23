package s3nodes

import (
	"errors"
	"io/fs"

	"github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"
)

// IsProviderError reports whether err came back from the storage provider,
// as opposed to a local configuration or encoding failure.
func IsProviderError(err error) bool {
	if err == nil {
		return false
	}

	var apiError smithy.APIError
	if errors.As(err, &apiError) {
		return true
	}

	var minioError minio.ErrorResponse
	if errors.As(err, &minioError) {
		return true
	}

	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrBucketNotExist)
}
