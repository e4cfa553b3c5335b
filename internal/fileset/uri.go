package fileset

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"fetchd/internal/options"
	"fetchd/internal/services"
)

var supportedSchemes = map[string]struct{}{
	"http":  {},
	"https": {},
	"ftp":   {},
	"sftp":  {},
}

// FromURIs builds a single-entry Set whose URIs are mirrors of one file.
func (r *Resolver) FromURIs(uris []string, opts options.Values) (Set, error) {
	if len(uris) == 0 {
		return Set{}, services.Wrap(services.ErrValidation, "fileset", "uri", "no URI given", nil)
	}
	accepted := make([]string, 0, len(uris))
	for _, raw := range uris {
		if err := checkURI(raw); err != nil {
			return Set{}, services.Wrap(services.ErrValidation, "fileset", "uri",
				fmt.Sprintf("invalid URI %q", raw), err)
		}
		accepted = append(accepted, strings.TrimSpace(raw))
	}

	name := opts.Get(options.Out)
	if name == "" {
		name = fileNameFromURI(accepted[0])
	}
	dir := r.dir(opts)
	target, ok := safeJoin(dir, name)
	if !ok {
		return Set{}, services.Wrap(services.ErrValidation, "fileset", "uri",
			fmt.Sprintf("unsafe output name %q", name), nil)
	}
	return Set{
		Kind:    KindURI,
		Dir:     dir,
		Name:    name,
		Entries: []Entry{{Path: target, URIs: accepted}},
	}, nil
}

func checkURI(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme == "" {
		return fmt.Errorf("missing scheme")
	}
	if _, ok := supportedSchemes[strings.ToLower(u.Scheme)]; !ok {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func fileNameFromURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return DefaultFileName
	}
	if u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return DefaultFileName
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." || base == ".." {
		return DefaultFileName
	}
	return base
}
