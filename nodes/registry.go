package nodes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobstoit/s3nodes"
	"github.com/jobstoit/s3nodes/profile"
)

// Registry holds the nodes exposed to the host, in registration order.
type Registry struct {
	env     *env
	order   []string
	nodes   map[string]Node
	outputs map[string][]Output
}

type storageNode interface {
	Node
	outputs() []Output
}

// Result is the outcome of one node execution as handed back to the host.
type Result struct {
	Outputs Outputs
	Error   string
}

// Failed reports whether the run ended in an error.
func (r Result) Failed() bool {
	return r.Error != ""
}

// NewRegistry returns a registry with every storage node, all reading
// profiles from store.
func NewRegistry(store *profile.Store, opts ...Option) *Registry {
	e := &env{
		store:  store,
		open:   s3nodes.OpenBucket,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}

	for _, op := range opts {
		op(e)
	}

	r := &Registry{
		env:     e,
		nodes:   map[string]Node{},
		outputs: map[string][]Output{},
	}

	r.register("SaveImageToS3", &SaveImage{env: e})
	r.register("LoadImageFromS3", &LoadImage{env: e})
	r.register("ListS3Objects", &ListObjects{env: e})
	r.register("S3ConfigInfo", &ConfigInfo{env: e})

	return r
}

// register does not call n.Spec, which would seed the config file.
func (r *Registry) register(name string, n storageNode) {
	r.order = append(r.order, name)
	r.nodes[name] = n
	r.outputs[name] = n.outputs()
}

// Names returns the node type names.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Node returns the node registered under name.
func (r *Registry) Node(name string) (Node, bool) {
	n, ok := r.nodes[name]

	return n, ok
}

// Specs returns the spec of every node.
func (r *Registry) Specs() []Spec {
	specs := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.nodes[name].Spec())
	}

	return specs
}

// DisplayNames maps node type names to their display names.
func (r *Registry) DisplayNames() map[string]string {
	names := make(map[string]string, len(r.order))
	for _, spec := range r.Specs() {
		names[spec.Type] = spec.DisplayName
	}

	return names
}

// Execute runs the named node. It never panics: any failure is returned as
// the result's error message, and nodes whose outputs are all strings also
// carry the message as their output.
func (r *Registry) Execute(ctx context.Context, name string, in Inputs) (res Result) {
	n, ok := r.nodes[name]
	if !ok {
		return Result{Error: fmt.Sprintf("unknown node '%s'", name)}
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.env.logger.ErrorContext(ctx, "node panicked", slog.String("node", name), slog.Any("panic", rec))
			res = failed(r.outputs[name], fmt.Sprintf("%s failed unexpectedly: %v", name, rec))
		}
	}()

	out, err := n.Run(ctx, in)
	if err != nil {
		msg := err.Error()

		var nerr *Error
		if errors.As(err, &nerr) {
			msg = nerr.Message
		}

		r.env.logger.WarnContext(ctx, "node failed", slog.String("node", name), slog.Any("error", err))

		return failed(r.outputs[name], msg)
	}

	return Result{Outputs: out}
}

func failed(outputs []Output, msg string) Result {
	res := Result{Error: msg}

	for _, o := range outputs {
		if o.Kind != KindString {
			return res
		}
	}

	res.Outputs = make(Outputs, len(outputs))
	for i := range res.Outputs {
		res.Outputs[i] = msg
	}

	return res
}
