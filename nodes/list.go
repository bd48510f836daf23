package nodes

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jobstoit/s3nodes"
)

const (
	defaultMaxObjects = 100
	maxMaxObjects     = 1000
)

// ListObjects lists the objects under a prefix.
type ListObjects struct {
	env *env
}

type listParams struct {
	Profile    string `node:"profile"`
	Bucket     string `node:"bucket" validate:"required"`
	Prefix     string `node:"prefix"`
	MaxObjects int    `node:"max_objects" validate:"min=1,max=1000"`
}

// ListedObject is one entry of the listing output.
type ListedObject struct {
	ObjectName   string  `json:"object_name"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified"`
	ETag         string  `json:"etag"`
}

func (n *ListObjects) Spec() Spec {
	profile := n.env.profileInput()
	profile.Tooltip = ""

	return Spec{
		Type:        "ListS3Objects",
		DisplayName: "📋 List S3 Objects",
		Category:    Category,
		Description: "List objects in S3 bucket using config profiles",
		Required: []Input{
			profile,
			{Name: "bucket", Kind: KindString, Default: ""},
		},
		Optional: []Input{
			{Name: "prefix", Kind: KindString, Default: "", Tooltip: "Filter objects by prefix"},
			{
				Name:    "max_objects",
				Kind:    KindInt,
				Default: defaultMaxObjects,
				Min:     intPtr(1),
				Max:     intPtr(maxMaxObjects),
				Tooltip: "Maximum objects to return",
			},
		},
		Outputs: n.outputs(),
	}
}

func (n *ListObjects) outputs() []Output {
	return []Output{{Name: "objects_list", Kind: KindString}}
}

func (n *ListObjects) Run(ctx context.Context, in Inputs) (Outputs, error) {
	const node = "ListS3Objects"

	maxObjects, err := in.Int("max_objects", defaultMaxObjects)
	if err != nil {
		return nil, inputError(node, err.Error())
	}

	p := listParams{
		Profile:    in.String("profile", ""),
		Bucket:     in.String("bucket", ""),
		Prefix:     in.String("prefix", ""),
		MaxObjects: maxObjects,
	}

	if msg := validateParams(p); msg != "" {
		return nil, inputError(node, msg)
	}

	listed, err := n.list(ctx, p)
	if err != nil {
		return nil, operationError(node, "list objects", err)
	}

	out, err := json.MarshalIndent(listed, "", "  ")
	if err != nil {
		return nil, operationError(node, "list objects", err)
	}

	return Outputs{string(out)}, nil
}

func (n *ListObjects) list(ctx context.Context, p listParams) ([]ListedObject, error) {
	_, prof, err := n.env.store.Open(p.Profile)
	if err != nil {
		return nil, err
	}

	bucket, err := n.env.openBucket(ctx, p.Bucket, prof, s3nodes.WithBucketSkipExistsCheck())
	if err != nil {
		return nil, err
	}

	objs, err := bucket.List(ctx, p.Prefix, p.MaxObjects)
	if err != nil {
		return nil, err
	}

	listed := make([]ListedObject, 0, len(objs))
	for _, obj := range objs {
		entry := ListedObject{
			ObjectName: obj.Key,
			Size:       obj.Size,
			ETag:       obj.ETag,
		}

		if obj.LastModified != nil {
			modified := obj.LastModified.Format(time.RFC3339)
			entry.LastModified = &modified
		}

		listed = append(listed, entry)
	}

	return listed, nil
}
