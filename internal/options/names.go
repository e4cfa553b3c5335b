package options

import "sort"

// Recognized option names.
const (
	Dir                     = "dir"
	Out                     = "out"
	FileAllocation          = "file-allocation"
	Split                   = "split"
	MaxConnectionPerServer  = "max-connection-per-server"
	MaxDownloadLimit        = "max-download-limit"
	MaxUploadLimit          = "max-upload-limit"
	BTMaxPeers              = "bt-max-peers"
	BTRequestPeerSpeedLimit = "bt-request-peer-speed-limit"
	SeedRatio               = "seed-ratio"

	MaxOverallDownloadLimit = "max-overall-download-limit"
	MaxOverallUploadLimit   = "max-overall-upload-limit"
	MaxConcurrentDownloads  = "max-concurrent-downloads"
)

// Context selects the allow-list a validation runs against.
type Context int

const (
	// Task covers options accepted when adding or changing a single job.
	Task Context = iota
	// Global covers process-wide options.
	Global
)

func (c Context) String() string {
	switch c {
	case Task:
		return "task"
	case Global:
		return "global"
	default:
		return "unknown"
	}
}

type definition struct {
	name    string
	context Context
	parse   parser
}

var definitions = func() map[string]definition {
	defs := []definition{
		{Dir, Task, pathValue},
		{Out, Task, fileNameValue},
		{FileAllocation, Task, enumValue("none", "prealloc", "falloc", "trunc")},
		{Split, Task, intRange(1, 16)},
		{MaxConnectionPerServer, Task, intRange(1, 16)},
		{MaxDownloadLimit, Task, sizeValue},
		{MaxUploadLimit, Task, sizeValue},
		{BTMaxPeers, Task, intRange(0, 65535)},
		{BTRequestPeerSpeedLimit, Task, sizeValue},
		{SeedRatio, Task, ratioValue},
		{MaxOverallDownloadLimit, Global, sizeValue},
		{MaxOverallUploadLimit, Global, sizeValue},
		{MaxConcurrentDownloads, Global, intRange(1, 1024)},
	}
	out := make(map[string]definition, len(defs))
	for _, def := range defs {
		out[def.name] = def
	}
	return out
}()

// Names returns the option names recognized in c, sorted.
func Names(c Context) []string {
	names := make([]string, 0, len(definitions))
	for name, def := range definitions {
		if def.context == c {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Allowed reports whether name may be supplied in context c.
func Allowed(c Context, name string) bool {
	def, ok := definitions[name]
	return ok && def.context == c
}
