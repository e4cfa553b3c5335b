package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"fetchd/internal/fileset"
	"fetchd/internal/jobs"
	"fetchd/internal/options"
	"fetchd/internal/services"
	"fetchd/internal/variant"
)

// Request is one decoded call.
type Request struct {
	Method string
	Params []variant.Value
}

// Method executes one named call.
type Method interface {
	Execute(ctx context.Context, req *Request, env *Env) (variant.Value, error)
}

// MethodFunc adapts a function to Method.
type MethodFunc func(ctx context.Context, req *Request, env *Env) (variant.Value, error)

// Execute calls f.
func (f MethodFunc) Execute(ctx context.Context, req *Request, env *Env) (variant.Value, error) {
	return f(ctx, req, env)
}

// FeatureLister reports compiled-in features in display order.
type FeatureLister interface {
	EnabledFeatures() []string
}

// Env carries the collaborators handlers need. It is built once at startup
// and passed explicitly to every call.
type Env struct {
	Registry *jobs.Registry
	Files    fileset.Provider
	Features FeatureLister
	Version  string
	Options  *options.Validator
	// Defaults is the per-task overlay every new task starts from.
	Defaults options.Values
	Logger   *slog.Logger
}

// Methods maps call names to handlers. It is populated at startup and only
// read afterwards.
type Methods struct {
	byName map[string]Method
}

// NewMethods returns an empty method table.
func NewMethods() *Methods {
	return &Methods{byName: make(map[string]Method)}
}

// Register binds name to method. Registering a name twice panics.
func (m *Methods) Register(name string, method Method) {
	if name == "" || method == nil {
		panic("rpc: empty method registration")
	}
	if _, dup := m.byName[name]; dup {
		panic(fmt.Sprintf("rpc: method %s registered twice", name))
	}
	m.byName[name] = method
}

// Lookup resolves name.
func (m *Methods) Lookup(name string) (Method, bool) {
	method, ok := m.byName[name]
	return method, ok
}

// Names returns every registered name, sorted.
func (m *Methods) Names() []string {
	names := make([]string, 0, len(m.byName))
	for name := range m.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NoSuchMethodError is the failure for an unregistered name.
type NoSuchMethodError struct {
	Name string
}

func (e *NoSuchMethodError) Error() string {
	return "No such method: " + e.Name
}

// Is matches services.ErrDispatch.
func (e *NoSuchMethodError) Is(target error) bool {
	return target == services.ErrDispatch
}

// NoSuchMethod is the fallback used when a name does not resolve.
var NoSuchMethod Method = MethodFunc(func(_ context.Context, req *Request, _ *Env) (variant.Value, error) {
	return variant.Null(), &NoSuchMethodError{Name: req.Method}
})
