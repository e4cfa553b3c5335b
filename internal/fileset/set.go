package fileset

// Kind names the source a Set was built from.
type Kind string

const (
	KindURI      Kind = "uri"
	KindTorrent  Kind = "torrent"
	KindMetalink Kind = "metalink"
)

// Entry is one output file with the URIs it can be fetched from.
type Entry struct {
	Path   string
	Length int64
	URIs   []string
}

// Set is the file/URI metadata attached to a single task.
type Set struct {
	Kind    Kind
	Dir     string
	Name    string
	Entries []Entry
}

// FirstURI returns the first remaining URI of the first entry, or "".
func (s Set) FirstURI() string {
	for _, entry := range s.Entries {
		if len(entry.URIs) > 0 {
			return entry.URIs[0]
		}
	}
	return ""
}

// TotalLength sums the known entry lengths.
func (s Set) TotalLength() int64 {
	var total int64
	for _, entry := range s.Entries {
		total += entry.Length
	}
	return total
}

// Paths lists entry paths in order.
func (s Set) Paths() []string {
	paths := make([]string, 0, len(s.Entries))
	for _, entry := range s.Entries {
		paths = append(paths, entry.Path)
	}
	return paths
}

// Clone returns a deep copy.
func (s Set) Clone() Set {
	out := s
	if s.Entries != nil {
		out.Entries = make([]Entry, len(s.Entries))
		for i, entry := range s.Entries {
			entry.URIs = append([]string(nil), entry.URIs...)
			out.Entries[i] = entry
		}
	}
	return out
}
