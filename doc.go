// Package s3nodes is a thin layer on S3-compatible object storage used by the
// image pipeline nodes.
//
// A bucket is opened from a resolved connection profile and can be further
// configured with the "WithBucket..." options
//
//	bucket, err := s3nodes.OpenBucket(ctx, "my-bucket-name", s3nodes.WithBucketProfile(p))
//
// There is an ObjectReader to read an object with a single GET request.
//
//	rd := bucket.NewReader(ctx, "path/to/image.png")
//	defer rd.Close()
//
//	_, err := io.Copy(os.Stdout, rd)
//
// And there is an ObjectWriter that buffers and uploads the object with a single PUT.
// Note The writer MUST close to save the object.
//
//	wr := bucket.NewWriter(ctx, "path/to/image.png", s3nodes.WithWriterContentType(s3nodes.ContentTypePNG))
//
//	if _, err := wr.Write(data); err != nil {
//	  return err
//	}
//
//	if err := wr.Close(); err != nil {
//	  return err
//	}
//
// Two drivers are available: the AWS SDK (default) and minio-go, selected by
// the profile's driver field. The AWS driver sends each request once; the
// minio driver keeps minio-go's default retry policy.
package s3nodes
