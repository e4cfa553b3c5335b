package options

import (
	"sort"
	"strconv"
)

// Values holds canonical option values keyed by option name.
type Values map[string]string

// Get returns the value for name or "" when unset.
func (v Values) Get(name string) string {
	if v == nil {
		return ""
	}
	return v[name]
}

// Has reports whether name is set.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// Int64 parses the canonical integer stored under name.
func (v Values) Int64(name string) (int64, bool) {
	raw, ok := v[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Clone returns an independent copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Merge writes every entry of overlay into v.
func (v Values) Merge(overlay Values) {
	for k, val := range overlay {
		v[k] = val
	}
}

// Overlay returns a copy of v with overlay applied on top.
func (v Values) Overlay(overlay Values) Values {
	out := v.Clone()
	out.Merge(overlay)
	return out
}

// Keys returns the option names in v, sorted.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
