package fileset

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fetchd/internal/options"
	"fetchd/internal/services"
)

// metalinkDocument covers both the 3.0 (files/file, resources/url) and the
// RFC 5854 (file, url) layouts.
type metalinkDocument struct {
	XMLName xml.Name       `xml:"metalink"`
	Files   []metalinkFile `xml:"file"`
	Legacy  []metalinkFile `xml:"files>file"`
}

type metalinkFile struct {
	Name      string        `xml:"name,attr"`
	Size      string        `xml:"size"`
	URLs      []metalinkURL `xml:"url"`
	Resources []metalinkURL `xml:"resources>url"`
}

type metalinkURL struct {
	Type       string `xml:"type,attr"`
	Priority   string `xml:"priority,attr"`
	Preference string `xml:"preference,attr"`
	Value      string `xml:",chardata"`
}

// rank orders URLs: lower is better. RFC 5854 priority is 1 (best) to
// 999999; 3.0 preference is 0 to 100 (best).
func (u metalinkURL) rank() int {
	if p, err := strconv.Atoi(strings.TrimSpace(u.Priority)); err == nil {
		return p
	}
	if p, err := strconv.Atoi(strings.TrimSpace(u.Preference)); err == nil {
		return 1000000 - p
	}
	return 999999
}

// FromMetalink returns one Set per file entry, in document order.
func (r *Resolver) FromMetalink(data []byte, opts options.Values) ([]Set, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, services.Wrap(services.ErrValidation, "fileset", "metalink", "empty document", nil)
	}
	var doc metalinkDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "fileset", "metalink", "undecodable document", err)
	}
	files := append(doc.Legacy, doc.Files...)
	if len(files) == 0 {
		return nil, services.Wrap(services.ErrValidation, "fileset", "metalink", "no file entries", nil)
	}

	dir := r.dir(opts)
	sets := make([]Set, 0, len(files))
	for _, file := range files {
		set, err := file.toSet(dir)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "fileset", "metalink",
				fmt.Sprintf("file %q", file.Name), err)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func (f metalinkFile) toSet(dir string) (Set, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return Set{}, fmt.Errorf("missing name")
	}
	target, ok := safeJoin(dir, name)
	if !ok {
		return Set{}, fmt.Errorf("unsafe name")
	}
	var length int64
	if s := strings.TrimSpace(f.Size); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return Set{}, fmt.Errorf("bad size %q", s)
		}
		length = n
	}

	candidates := append(append([]metalinkURL(nil), f.Resources...), f.URLs...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].rank() < candidates[j].rank()
	})
	entry := Entry{Path: target, Length: length}
	for _, candidate := range candidates {
		raw := strings.TrimSpace(candidate.Value)
		if candidate.Type == "bittorrent" || checkURI(raw) != nil {
			continue
		}
		entry.URIs = append(entry.URIs, raw)
	}
	if len(entry.URIs) == 0 {
		return Set{}, fmt.Errorf("no usable URL")
	}
	return Set{Kind: KindMetalink, Dir: dir, Name: name, Entries: []Entry{entry}}, nil
}
