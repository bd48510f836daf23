package nodes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jobstoit/s3nodes"
	"github.com/jobstoit/s3nodes/raster"
)

const timestampLayout = "20060102_150405"

// SaveImage uploads every frame of an image batch as a PNG.
type SaveImage struct {
	env *env
}

type saveParams struct {
	Images         raster.Batch   `node:"images" validate:"required,min=1"`
	Profile        string         `node:"profile"`
	Bucket         string         `node:"bucket" validate:"required"`
	Prefix         string         `node:"prefix"`
	FilenamePrefix string         `node:"filename_prefix" validate:"required"`
	CustomRegion   string         `node:"custom_region"`
	Prompt         any            `node:"prompt"`
	ExtraPNGInfo   map[string]any `node:"extra_pnginfo"`
}

// SavedObject describes one uploaded frame.
type SavedObject struct {
	Filename    string `json:"filename"`
	ObjectKey   string `json:"object_key"`
	URL         string `json:"url"`
	Bucket      string `json:"bucket"`
	Profile     string `json:"profile"`
	Timestamp   string `json:"timestamp"`
	BatchNumber int    `json:"batch_number"`
}

func (n *SaveImage) Spec() Spec {
	return Spec{
		Type:        "SaveImageToS3",
		DisplayName: "💾 Save Image to S3",
		Category:    Category,
		Description: "Save images to S3-compatible storage using config profiles",
		Required: []Input{
			{Name: "images", Kind: KindImage, Tooltip: "Images to be saved"},
			n.env.profileInput(),
			{Name: "bucket", Kind: KindString, Default: "", Tooltip: "S3 bucket name"},
			{Name: "prefix", Kind: KindString, Default: "comfyui/", Tooltip: "Object key prefix"},
			{Name: "filename_prefix", Kind: KindString, Default: "image", Tooltip: "Filename prefix"},
		},
		Optional: []Input{
			{Name: "custom_region", Kind: KindString, Default: "", Tooltip: "Override region from profile (optional)"},
		},
		Hidden: []Input{
			{Name: "prompt", Kind: KindPrompt},
			{Name: "extra_pnginfo", Kind: KindPNGInfo},
		},
		Outputs:    n.outputs(),
		OutputNode: true,
	}
}

func (n *SaveImage) outputs() []Output {
	return []Output{{Name: "result", Kind: KindString}}
}

func (n *SaveImage) params(in Inputs) (saveParams, error) {
	images, err := in.Images("images")
	if err != nil {
		return saveParams{}, err
	}

	extra, err := in.Map("extra_pnginfo")
	if err != nil {
		return saveParams{}, err
	}

	return saveParams{
		Images:         images,
		Profile:        in.String("profile", ""),
		Bucket:         in.String("bucket", ""),
		Prefix:         in.String("prefix", "comfyui/"),
		FilenamePrefix: in.String("filename_prefix", "image"),
		CustomRegion:   in.String("custom_region", ""),
		Prompt:         in["prompt"],
		ExtraPNGInfo:   extra,
	}, nil
}

func (n *SaveImage) Run(ctx context.Context, in Inputs) (Outputs, error) {
	const node = "SaveImageToS3"

	p, err := n.params(in)
	if err != nil {
		return nil, inputError(node, err.Error())
	}

	if msg := validateParams(p); msg != "" {
		return nil, inputError(node, msg)
	}

	saved, err := n.save(ctx, p)
	if err != nil {
		return nil, operationError(node, "save images", err)
	}

	out, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return nil, operationError(node, "save images", err)
	}

	return Outputs{string(out)}, nil
}

func (n *SaveImage) save(ctx context.Context, p saveParams) ([]SavedObject, error) {
	key, prof, err := n.env.store.Open(p.Profile)
	if err != nil {
		return nil, err
	}

	region := p.CustomRegion
	if region == "" {
		region = prof.Region
	}

	if region == "" {
		region = s3nodes.DefaultRegion
	}

	bucket, err := n.env.openBucket(ctx, p.Bucket, prof, s3nodes.WithBucketCreateIfNotExists(region))
	if err != nil {
		return nil, err
	}

	timestamp := n.env.now().Format(timestampLayout)
	meta := raster.Metadata{Prompt: p.Prompt, Extra: p.ExtraPNGInfo}

	saved := make([]SavedObject, 0, len(p.Images))
	for i, frame := range p.Images {
		filename := fmt.Sprintf("%s_%s_%04d.png", p.FilenamePrefix, timestamp, i)
		objectKey := joinKey(p.Prefix, filename)

		var buf bytes.Buffer
		if err := raster.EncodePNG(&buf, frame, meta); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}

		if _, err := bucket.WriteAll(ctx, objectKey, buf.Bytes(), s3nodes.WithWriterContentType(s3nodes.ContentTypePNG)); err != nil {
			return nil, err
		}

		n.env.logger.InfoContext(ctx, "saved image",
			slog.String("profile", key),
			slog.String("bucket", p.Bucket),
			slog.String("key", objectKey),
			slog.Int("size", buf.Len()),
		)

		saved = append(saved, SavedObject{
			Filename:    filename,
			ObjectKey:   objectKey,
			URL:         bucket.ObjectURL(objectKey),
			Bucket:      p.Bucket,
			Profile:     key,
			Timestamp:   timestamp,
			BatchNumber: i,
		})
	}

	return saved, nil
}

// joinKey puts filename under prefix, ignoring trailing slashes on the prefix.
func joinKey(prefix, filename string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return filename
	}

	return prefix + "/" + filename
}
