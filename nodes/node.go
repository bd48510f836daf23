// Package nodes implements the storage nodes offered to the image pipeline
// host: saving and loading images, listing objects and showing the config.
//
// Every node resolves its profile from the config file on each run and makes
// blocking calls against the storage provider. Failures never escape as
// panics; Registry.Execute turns them into a message for the user.
package nodes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobstoit/s3nodes"
	"github.com/jobstoit/s3nodes/profile"
	"github.com/jobstoit/s3nodes/raster"
)

const Category = "s3_storage"

// Kind is the host's type name for a node input or output.
type Kind string

const (
	KindImage   Kind = "IMAGE"
	KindMask    Kind = "MASK"
	KindString  Kind = "STRING"
	KindInt     Kind = "INT"
	KindBoolean Kind = "BOOLEAN"
	KindChoice  Kind = "COMBO"
	KindPrompt  Kind = "PROMPT"
	KindPNGInfo Kind = "EXTRA_PNGINFO"
)

// Input declares one node parameter.
type Input struct {
	Name    string   `json:"name"`
	Kind    Kind     `json:"kind"`
	Default any      `json:"default,omitempty"`
	Choices []string `json:"choices,omitempty"`
	Min     *int     `json:"min,omitempty"`
	Max     *int     `json:"max,omitempty"`
	Tooltip string   `json:"tooltip,omitempty"`
}

// Output declares one node result.
type Output struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Spec is what the host needs to show and wire a node.
type Spec struct {
	Type        string   `json:"type"`
	DisplayName string   `json:"display_name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Required    []Input  `json:"required"`
	Optional    []Input  `json:"optional,omitempty"`
	Hidden      []Input  `json:"hidden,omitempty"`
	Outputs     []Output `json:"outputs"`
	OutputNode  bool     `json:"output_node"`
}

// Inputs carries the values the host passes to a node run, keyed by input name.
type Inputs map[string]any

// Outputs holds the node results in the order of Spec.Outputs.
type Outputs []any

// Node is a single operation the host can invoke.
type Node interface {
	Spec() Spec
	Run(ctx context.Context, in Inputs) (Outputs, error)
}

// BucketOpener opens the bucket a node works on.
type BucketOpener func(ctx context.Context, name string, opts ...s3nodes.BucketOption) (*s3nodes.Bucket, error)

type env struct {
	store      *profile.Store
	open       BucketOpener
	bucketOpts []s3nodes.BucketOption
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures the nodes of a Registry.
type Option func(*env)

// WithLogger sets the logger for node runs and storage calls.
func WithLogger(logger *slog.Logger) Option {
	return func(e *env) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithBucketOpener replaces s3nodes.OpenBucket.
func WithBucketOpener(open BucketOpener) Option {
	return func(e *env) {
		if open != nil {
			e.open = open
		}
	}
}

// WithBucketOptions appends options to every bucket a node opens.
func WithBucketOptions(opts ...s3nodes.BucketOption) Option {
	return func(e *env) {
		e.bucketOpts = append(e.bucketOpts, opts...)
	}
}

// WithClock sets the time source used for saved file names.
func WithClock(now func() time.Time) Option {
	return func(e *env) {
		if now != nil {
			e.now = now
		}
	}
}

func (e *env) openBucket(ctx context.Context, name string, p profile.Profile, opts ...s3nodes.BucketOption) (*s3nodes.Bucket, error) {
	all := make([]s3nodes.BucketOption, 0, len(opts)+len(e.bucketOpts)+2)
	all = append(all, s3nodes.WithBucketProfile(p), s3nodes.WithBucketLogger(e.logger))
	all = append(all, opts...)
	all = append(all, e.bucketOpts...)

	return e.open(ctx, name, all...)
}

func (e *env) profileInput() Input {
	choices := e.store.Choices()

	return Input{
		Name:    "profile",
		Kind:    KindChoice,
		Choices: choices,
		Default: choices[0],
		Tooltip: "S3 profile from config file",
	}
}

func intPtr(i int) *int { return &i }

func (in Inputs) String(name, def string) string {
	if v, ok := in[name].(string); ok {
		return v
	}

	return def
}

func (in Inputs) Int(name string, def int) (int, error) {
	switch v := in[name].(type) {
	case nil:
		return def, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a whole number", name)
		}

		return int(v), nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", name, v)
	}
}

func (in Inputs) Bool(name string, def bool) bool {
	if v, ok := in[name].(bool); ok {
		return v
	}

	return def
}

func (in Inputs) Images(name string) (raster.Batch, error) {
	switch v := in[name].(type) {
	case nil:
		return nil, nil
	case raster.Batch:
		return v, nil
	case []raster.Frame:
		return raster.Batch(v), nil
	case raster.Frame:
		return raster.Batch{v}, nil
	default:
		return nil, fmt.Errorf("%s must be an image batch, got %T", name, v)
	}
}

func (in Inputs) Map(name string) (map[string]any, error) {
	switch v := in[name].(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("%s must be a mapping, got %T", name, v)
	}
}
