package rpc

import (
	"context"
	"fmt"
	"log/slog"

	"fetchd/internal/logging"
	"fetchd/internal/services"
	"fetchd/internal/variant"
)

// Dispatcher runs calls against a method table. Handler failures never escape
// Dispatch; they become fault responses.
type Dispatcher struct {
	methods *Methods
	env     *Env
	logger  *slog.Logger
}

// NewDispatcher binds methods to env and registers system.multicall and
// system.listMethods on the table.
func NewDispatcher(methods *Methods, env *Env) *Dispatcher {
	if methods == nil {
		methods = StandardMethods()
	}
	if env == nil {
		env = &Env{}
	}
	d := &Dispatcher{
		methods: methods,
		env:     env,
		logger:  logging.NewComponentLogger(env.Logger, "rpc"),
	}
	methods.Register(MethodMulticall, &multicall{dispatcher: d})
	methods.Register(MethodListMethods, MethodFunc(func(context.Context, *Request, *Env) (variant.Value, error) {
		return variant.TextList(methods.Names()...), nil
	}))
	return d
}

// Methods exposes the bound method table.
func (d *Dispatcher) Methods() *Methods {
	return d.methods
}

// Dispatch executes req and returns its response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (resp Response) {
	if req == nil {
		return Fault(services.Wrap(services.ErrValidation, "rpc", "dispatch", "empty request", nil))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithMethod(ctx, req.Method)
	logger := logging.WithContext(ctx, d.logger)

	method, ok := d.methods.Lookup(req.Method)
	if !ok {
		method = NoSuchMethod
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := services.Wrap(services.ErrDispatch, "rpc", req.Method, fmt.Sprintf("handler panic: %v", rec), nil)
			logging.ErrorWithContext(logger, "rpc handler panicked", "rpc_panic",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "report this as a bug with the request that triggered it"),
			)
			resp = Fault(err)
		}
	}()

	value, err := method.Execute(ctx, req, d.env)
	if err != nil {
		logger.Debug("rpc call faulted",
			logging.String(logging.FieldEventType, "rpc_fault"),
			logging.String("kind", services.Kind(err)),
			logging.Error(err),
		)
		return Fault(err)
	}
	logger.Debug("rpc call completed",
		logging.String(logging.FieldEventType, "rpc_success"),
		logging.Int("params", len(req.Params)),
	)
	return Success(value)
}
