package rpc

import (
	"errors"

	"fetchd/internal/variant"
)

// FaultCode is the only fault code produced by the dispatch layer.
const FaultCode = 1

// Response is the outcome of one dispatched call: Code 0 with the handler's
// value, or Code 1 with a fault struct.
type Response struct {
	Code  int
	Value variant.Value
}

// Success wraps a handler result.
func Success(v variant.Value) Response {
	return Response{Code: 0, Value: v}
}

// Fault converts err into a fault response.
func Fault(err error) Response {
	return Response{Code: FaultCode, Value: faultValue(err)}
}

func faultValue(err error) variant.Value {
	fault := variant.Map()
	fault.MustSet("faultCode", variant.Int(FaultCode))
	fault.MustSet("faultString", variant.Text(faultMessage(err)))
	return fault
}

func faultMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	var nsm *NoSuchMethodError
	if errors.As(err, &nsm) {
		return nsm.Error()
	}
	return err.Error()
}

// IsFault reports whether r carries a fault.
func (r Response) IsFault() bool {
	return r.Code != 0
}

// FaultString returns the fault message, or "" for a success.
func (r Response) FaultString() string {
	if !r.IsFault() {
		return ""
	}
	member, _ := r.Value.Get("faultString")
	text, _ := member.AsText()
	return text
}
