package fileset

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jackpal/bencode-go"

	"fetchd/internal/options"
	"fetchd/internal/services"
)

// FromTorrent decodes BitTorrent metainfo. Extra uris act as web seeds: a URI
// ending in "/" has the file's relative path appended, otherwise it is used
// as-is for single-file torrents and ignored for multi-file ones.
func (r *Resolver) FromTorrent(data []byte, uris []string, opts options.Values) (Set, error) {
	meta, err := decodeMetainfo(data)
	if err != nil {
		return Set{}, services.Wrap(services.ErrValidation, "fileset", "torrent", "undecodable metainfo", err)
	}
	for _, raw := range uris {
		if err := checkURI(raw); err != nil {
			return Set{}, services.Wrap(services.ErrValidation, "fileset", "torrent",
				fmt.Sprintf("invalid web seed %q", raw), err)
		}
	}

	dir := r.dir(opts)
	set := Set{Kind: KindTorrent, Dir: dir, Name: meta.name}
	if len(meta.files) == 0 {
		target, ok := safeJoin(dir, meta.name)
		if !ok {
			return Set{}, services.Wrap(services.ErrValidation, "fileset", "torrent",
				fmt.Sprintf("unsafe name %q", meta.name), nil)
		}
		entry := Entry{Path: target, Length: meta.length}
		for _, seed := range uris {
			if strings.HasSuffix(seed, "/") {
				entry.URIs = append(entry.URIs, seed+meta.name)
			} else {
				entry.URIs = append(entry.URIs, seed)
			}
		}
		set.Entries = []Entry{entry}
		return set, nil
	}

	for _, file := range meta.files {
		rel := strings.Join(file.path, "/")
		target, ok := safeJoin(dir, meta.name, rel)
		if !ok {
			return Set{}, services.Wrap(services.ErrValidation, "fileset", "torrent",
				fmt.Sprintf("unsafe path %q", rel), nil)
		}
		entry := Entry{Path: target, Length: file.length}
		for _, seed := range uris {
			if strings.HasSuffix(seed, "/") {
				entry.URIs = append(entry.URIs, seed+meta.name+"/"+rel)
			}
		}
		set.Entries = append(set.Entries, entry)
	}
	return set, nil
}

type metainfo struct {
	name   string
	length int64
	files  []metainfoFile
}

type metainfoFile struct {
	path   []string
	length int64
}

func decodeMetainfo(data []byte) (metainfo, error) {
	if len(data) == 0 {
		return metainfo{}, fmt.Errorf("empty input")
	}
	raw, err := bencode.Decode(bytes.NewReader(data))
	if err != nil {
		return metainfo{}, err
	}
	root, ok := raw.(map[string]interface{})
	if !ok {
		return metainfo{}, fmt.Errorf("top level is not a dictionary")
	}
	info, ok := root["info"].(map[string]interface{})
	if !ok {
		return metainfo{}, fmt.Errorf("missing info dictionary")
	}
	name, ok := info["name"].(string)
	if !ok || name == "" {
		return metainfo{}, fmt.Errorf("missing name")
	}
	meta := metainfo{name: name}

	if files, ok := info["files"].([]interface{}); ok {
		for i, item := range files {
			file, err := decodeMetainfoFile(item)
			if err != nil {
				return metainfo{}, fmt.Errorf("file %d: %w", i, err)
			}
			meta.files = append(meta.files, file)
		}
		if len(meta.files) == 0 {
			return metainfo{}, fmt.Errorf("empty file list")
		}
		return meta, nil
	}

	length, ok := info["length"].(int64)
	if !ok || length < 0 {
		return metainfo{}, fmt.Errorf("missing length")
	}
	meta.length = length
	return meta, nil
}

func decodeMetainfoFile(item interface{}) (metainfoFile, error) {
	dict, ok := item.(map[string]interface{})
	if !ok {
		return metainfoFile{}, fmt.Errorf("not a dictionary")
	}
	length, ok := dict["length"].(int64)
	if !ok || length < 0 {
		return metainfoFile{}, fmt.Errorf("missing length")
	}
	segments, ok := dict["path"].([]interface{})
	if !ok || len(segments) == 0 {
		return metainfoFile{}, fmt.Errorf("missing path")
	}
	file := metainfoFile{length: length}
	for _, seg := range segments {
		s, ok := seg.(string)
		if !ok || s == "" {
			return metainfoFile{}, fmt.Errorf("bad path segment")
		}
		file.path = append(file.path, s)
	}
	return file, nil
}
