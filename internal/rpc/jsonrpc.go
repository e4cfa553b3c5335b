package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"

	"fetchd/internal/services"
	"fetchd/internal/variant"
)

type jsonRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  *variant.Value  `json:"result,omitempty"`
	Error   *jsonError      `json:"error,omitempty"`
}

// ParseJSONRequest decodes one JSON-RPC 2.0 request object and returns the
// call with the caller's id (null when absent).
func ParseJSONRequest(data []byte) (*Request, json.RawMessage, error) {
	var envelope jsonRequest
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, nil, services.Wrap(services.ErrValidation, "rpc", "json request", "malformed request object", err)
	}
	id := envelope.ID
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	if envelope.Method == "" {
		return nil, id, services.Wrap(services.ErrValidation, "rpc", "json request", "missing method", nil)
	}
	req := &Request{Method: envelope.Method}
	if len(bytes.TrimSpace(envelope.Params)) == 0 {
		return req, id, nil
	}
	params, err := variant.ParseJSON(envelope.Params)
	if err != nil {
		return nil, id, services.Wrap(services.ErrValidation, "rpc", envelope.Method, "params", err)
	}
	if params.IsNull() {
		return req, id, nil
	}
	items, err := params.AsList()
	if err != nil {
		return nil, id, services.Wrap(services.ErrValidation, "rpc", envelope.Method, "params must be an array", err)
	}
	req.Params = items
	return req, id, nil
}

// SplitJSONBatch reports whether data is a JSON-RPC batch and, if so, returns
// its elements.
func SplitJSONBatch(data []byte) ([]json.RawMessage, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false, nil
	}
	var batch []json.RawMessage
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return nil, true, services.Wrap(services.ErrValidation, "rpc", "json batch", "malformed batch", err)
	}
	if len(batch) == 0 {
		return nil, true, services.Wrap(services.ErrValidation, "rpc", "json batch", "empty batch", nil)
	}
	return batch, true, nil
}

// JSON renders r as a JSON-RPC 2.0 response object.
func (r Response) JSON(id json.RawMessage) ([]byte, error) {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	out := jsonResponse{JSONRPC: "2.0", ID: id}
	if r.IsFault() {
		out.Error = &jsonError{Code: FaultCode, Message: r.FaultString()}
	} else {
		value := r.Value
		out.Result = &value
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode json response: %w", err)
	}
	return data, nil
}
