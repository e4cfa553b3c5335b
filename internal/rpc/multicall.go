package rpc

import (
	"context"

	"fetchd/internal/services"
	"fetchd/internal/variant"
)

type multicall struct {
	dispatcher *Dispatcher
}

// Execute runs every descriptor in order. Each slot holds either a
// one-element list with the call's result or a fault struct; one slot's
// failure never affects another.
func (m *multicall) Execute(ctx context.Context, req *Request, _ *Env) (variant.Value, error) {
	if len(req.Params) == 0 {
		return variant.Null(), invalid(MethodMulticall, "missing call list")
	}
	calls, err := req.Params[0].AsList()
	if err != nil {
		return variant.Null(), services.Wrap(services.ErrValidation, "rpc", MethodMulticall, "call list", err)
	}
	results := variant.List()
	for _, desc := range calls {
		if err := results.Append(m.slot(ctx, desc)); err != nil {
			return variant.Null(), err
		}
	}
	return results, nil
}

func (m *multicall) slot(ctx context.Context, desc variant.Value) variant.Value {
	if !desc.IsMap() {
		return faultValue(invalid(MethodMulticall, "call descriptor must be a struct"))
	}
	rawName, ok := desc.Get("methodName")
	if !ok {
		return faultValue(invalid(MethodMulticall, "missing methodName"))
	}
	name, err := rawName.AsText()
	if err != nil {
		return faultValue(services.Wrap(services.ErrValidation, "rpc", MethodMulticall, "methodName", err))
	}
	if name == MethodMulticall {
		return faultValue(services.Wrap(services.ErrDispatch, "rpc", MethodMulticall, "recursive system.multicall forbidden", nil))
	}
	rawParams, ok := desc.Get("params")
	if !ok {
		return faultValue(invalid(MethodMulticall, "missing params"))
	}
	params, err := rawParams.AsList()
	if err != nil {
		return faultValue(services.Wrap(services.ErrValidation, "rpc", MethodMulticall, "params", err))
	}

	resp := m.dispatcher.Dispatch(ctx, &Request{Method: name, Params: params})
	if resp.IsFault() {
		return resp.Value
	}
	return variant.List(resp.Value)
}
