package options

import (
	"errors"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

type parser func(raw string) (string, error)

var errMalformed = errors.New("malformed value")

const (
	kibi = 1024
	mebi = 1024 * 1024
)

// ParseSize converts a byte-size literal with an optional K or M suffix
// (1K = 1024, 1M = 1048576) into a byte count.
func ParseSize(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, errMalformed
	}
	multiplier := int64(1)
	switch s[len(s)-1] {
	case 'K', 'k':
		multiplier = kibi
		s = s[:len(s)-1]
	case 'M', 'm':
		multiplier = mebi
		s = s[:len(s)-1]
	}
	if s == "" || !allDigits(s) {
		return 0, errMalformed
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errMalformed
	}
	if n > math.MaxInt64/multiplier {
		return 0, errMalformed
	}
	return n * multiplier, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func sizeValue(raw string) (string, error) {
	n, err := ParseSize(raw)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

func intRange(min, max int64) parser {
	return func(raw string) (string, error) {
		s := strings.TrimSpace(raw)
		if s == "" || !allDigits(strings.TrimPrefix(s, "-")) {
			return "", errMalformed
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < min || n > max {
			return "", errMalformed
		}
		return strconv.FormatInt(n, 10), nil
	}
}

func enumValue(allowed ...string) parser {
	return func(raw string) (string, error) {
		s := strings.TrimSpace(raw)
		for _, candidate := range allowed {
			if s == candidate {
				return s, nil
			}
		}
		return "", errMalformed
	}
}

func ratioValue(raw string) (string, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return "", errMalformed
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func pathValue(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errMalformed
	}
	return filepath.Clean(s), nil
}

func fileNameValue(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "." || s == ".." || strings.ContainsRune(s, 0) {
		return "", errMalformed
	}
	return s, nil
}
