package rpc

import (
	"encoding/base64"
	"fmt"
	"strings"

	"fetchd/internal/jobs"
	"fetchd/internal/options"
	"fetchd/internal/services"
	"fetchd/internal/variant"
)

func invalid(method, message string) error {
	return services.Wrap(services.ErrValidation, "rpc", method, message, nil)
}

// param returns positional parameter i, or false when absent.
func param(req *Request, i int) (variant.Value, bool) {
	if i < 0 || i >= len(req.Params) {
		return variant.Null(), false
	}
	return req.Params[i], true
}

func requireText(req *Request, i int, what string) (string, error) {
	v, ok := param(req, i)
	if !ok {
		return "", invalid(req.Method, fmt.Sprintf("missing %s", what))
	}
	s, err := v.AsText()
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "rpc", req.Method, what, err)
	}
	return s, nil
}

func requireInt(req *Request, i int, what string) (int64, error) {
	v, ok := param(req, i)
	if !ok {
		return 0, invalid(req.Method, fmt.Sprintf("missing %s", what))
	}
	n, err := v.AsInt()
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "rpc", req.Method, what, err)
	}
	return n, nil
}

func requireGID(req *Request, i int) (jobs.GID, error) {
	raw, err := requireText(req, i, "gid")
	if err != nil {
		return 0, err
	}
	return jobs.ParseGID(raw)
}

func textList(req *Request, v variant.Value, what string) ([]string, error) {
	items, err := v.AsList()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "rpc", req.Method, what, err)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, err := item.AsText()
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "rpc", req.Method, fmt.Sprintf("%s[%d]", what, i), err)
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeBase64(req *Request, raw, what string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, raw)
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "rpc", req.Method, what+" is not valid base64", err)
	}
	return data, nil
}

// rawOptions turns an options struct into a string map; every member must be
// Text.
func rawOptions(req *Request, v variant.Value) (map[string]string, error) {
	members, err := v.AsMap()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "rpc", req.Method, "options", err)
	}
	raw := make(map[string]string, len(members))
	for _, key := range v.Keys() {
		s, err := members[key].AsText()
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "rpc", req.Method,
				fmt.Sprintf("invalid value for option %q", key), err)
		}
		raw[key] = s
	}
	return raw, nil
}

func validateOptions(req *Request, env *Env, c options.Context, v variant.Value) (options.Values, error) {
	raw, err := rawOptions(req, v)
	if err != nil {
		return nil, err
	}
	validator := env.Options
	if validator == nil {
		validator = options.NewValidator()
	}
	return validator.Validate(c, raw)
}

// taskOptions builds the overlay for a new task from the defaults and the
// optional options struct at index i.
func taskOptions(req *Request, env *Env, i int) (options.Values, error) {
	v, ok := param(req, i)
	if !ok {
		return env.Defaults.Clone(), nil
	}
	changes, err := validateOptions(req, env, options.Task, v)
	if err != nil {
		return nil, err
	}
	return env.Defaults.Overlay(changes), nil
}

// position reads the optional insert position at index i; -1 means append.
func position(req *Request, i int) (int, error) {
	v, ok := param(req, i)
	if !ok {
		return -1, nil
	}
	n, err := v.AsInt()
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "rpc", req.Method, "position", err)
	}
	if n < 0 {
		return 0, services.Wrap(services.ErrInvalidArgument, "rpc", req.Method,
			fmt.Sprintf("position %d is negative", n), nil)
	}
	return int(n), nil
}

func enqueue(env *Env, pos int, tasks ...*jobs.Task) ([]jobs.GID, error) {
	if pos < 0 {
		ids := make([]jobs.GID, 0, len(tasks))
		for _, t := range tasks {
			ids = append(ids, env.Registry.AddPending(t))
		}
		return ids, nil
	}
	return env.Registry.InsertPending(pos, tasks...)
}
