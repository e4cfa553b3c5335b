package options

import (
	"fmt"
	"sort"

	"fetchd/internal/services"
)

// Validator turns raw option maps into canonical Values.
type Validator struct{}

// NewValidator returns a Validator over the built-in option table.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks every entry of raw against context c. Either every entry is
// accepted and the canonical Values are returned, or an error naming the first
// offending key (in sorted order) is returned and nothing is produced.
//
// Keys outside the context's allow-list fail with services.ErrNotAllowed;
// values that do not parse fail with services.ErrValidation.
func (v *Validator) Validate(c Context, raw map[string]string) (Values, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Values, len(raw))
	for _, key := range keys {
		def, ok := definitions[key]
		if !ok {
			return nil, services.Wrap(services.ErrNotAllowed, "options", c.String(),
				fmt.Sprintf("unknown option %q", key), nil)
		}
		if def.context != c {
			return nil, services.Wrap(services.ErrNotAllowed, "options", c.String(),
				fmt.Sprintf("option %q is not allowed here (%s option)", key, def.context), nil)
		}
		value, err := def.parse(raw[key])
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "options", c.String(),
				fmt.Sprintf("invalid value %q for option %q", raw[key], key), nil)
		}
		out[key] = value
	}
	return out, nil
}
