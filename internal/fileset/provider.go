package fileset

import (
	"path/filepath"
	"strings"

	"fetchd/internal/options"
)

// Provider builds file sets from caller input. Option values are the
// validated per-task overlay (dir and out are honoured).
type Provider interface {
	FromURIs(uris []string, opts options.Values) (Set, error)
	FromTorrent(data []byte, uris []string, opts options.Values) (Set, error)
	FromMetalink(data []byte, opts options.Values) ([]Set, error)
}

// DefaultFileName is used when a URI path carries no usable file name.
const DefaultFileName = "index.html"

// Resolver is the built-in Provider.
type Resolver struct {
	// DefaultDir is used when the overlay carries no dir option.
	DefaultDir string
}

// NewResolver returns a Resolver that places files under defaultDir.
func NewResolver(defaultDir string) *Resolver {
	return &Resolver{DefaultDir: defaultDir}
}

func (r *Resolver) dir(opts options.Values) string {
	if dir := opts.Get(options.Dir); dir != "" {
		return dir
	}
	if r.DefaultDir != "" {
		return r.DefaultDir
	}
	return "."
}

// safeJoin joins relative path elements under dir, rejecting elements that
// would escape it.
func safeJoin(dir string, elems ...string) (string, bool) {
	parts := []string{dir}
	for _, elem := range elems {
		for _, seg := range strings.Split(strings.ReplaceAll(elem, "\\", "/"), "/") {
			switch seg {
			case "", ".":
				continue
			case "..":
				return "", false
			}
			parts = append(parts, seg)
		}
	}
	if len(parts) == 1 {
		return "", false
	}
	return filepath.Join(parts...), true
}
