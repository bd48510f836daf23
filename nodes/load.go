package nodes

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/jobstoit/s3nodes"
	"github.com/jobstoit/s3nodes/raster"
)

// LoadImage downloads an object and decodes it into an image and mask.
type LoadImage struct {
	env *env
}

type loadParams struct {
	Profile   string `node:"profile"`
	Bucket    string `node:"bucket" validate:"required"`
	ObjectKey string `node:"object_key" validate:"required"`
}

func (n *LoadImage) Spec() Spec {
	return Spec{
		Type:        "LoadImageFromS3",
		DisplayName: "📁 Load Image from S3",
		Category:    Category,
		Description: "Load images from S3-compatible storage using config profiles",
		Required: []Input{
			n.env.profileInput(),
			{Name: "bucket", Kind: KindString, Default: "", Tooltip: "S3 bucket name"},
			{Name: "object_key", Kind: KindString, Default: "", Tooltip: "S3 object key (full path)"},
		},
		Outputs: n.outputs(),
	}
}

func (n *LoadImage) outputs() []Output {
	return []Output{
		{Name: "IMAGE", Kind: KindImage},
		{Name: "MASK", Kind: KindMask},
	}
}

func (n *LoadImage) Run(ctx context.Context, in Inputs) (Outputs, error) {
	const node = "LoadImageFromS3"

	p := loadParams{
		Profile:   in.String("profile", ""),
		Bucket:    in.String("bucket", ""),
		ObjectKey: in.String("object_key", ""),
	}

	if msg := validateParams(p); msg != "" {
		return nil, inputError(node, msg)
	}

	batch, mask, err := n.load(ctx, p)
	if err != nil {
		return nil, operationError(node, "load image", err)
	}

	return Outputs{batch, mask}, nil
}

func (n *LoadImage) load(ctx context.Context, p loadParams) (raster.Batch, raster.Mask, error) {
	key, prof, err := n.env.store.Open(p.Profile)
	if err != nil {
		return nil, raster.Mask{}, err
	}

	bucket, err := n.env.openBucket(ctx, p.Bucket, prof, s3nodes.WithBucketSkipExistsCheck())
	if err != nil {
		return nil, raster.Mask{}, err
	}

	data, err := bucket.ReadAll(ctx, p.ObjectKey)
	if err != nil {
		return nil, raster.Mask{}, err
	}

	n.env.logger.InfoContext(ctx, "loaded image",
		slog.String("profile", key),
		slog.String("bucket", p.Bucket),
		slog.String("key", p.ObjectKey),
		slog.Int("size", len(data)),
	)

	return raster.Decode(bytes.NewReader(data))
}
