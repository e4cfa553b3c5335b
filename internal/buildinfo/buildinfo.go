// Package buildinfo reports the version and the compiled-in feature set.
package buildinfo

import "runtime/debug"

// Version is overridden at link time with -ldflags "-X fetchd/internal/buildinfo.Version=...".
var Version = "dev"

// Feature names in the order they are reported.
const (
	FeatureAsyncDNS   = "Async DNS"
	FeatureBitTorrent = "BitTorrent"
	FeatureHTTPS      = "HTTPS"
	FeatureMetalink   = "Metalink"
	FeatureXMLRPC     = "XML-RPC"
	FeatureJSONRPC    = "JSON-RPC"
	FeatureSFTP       = "SFTP"
)

// Info lists enabled features; it satisfies the rpc feature lister.
type Info struct {
	features []string
}

// Default returns the feature set of this build.
func Default() Info {
	return New(FeatureAsyncDNS, FeatureBitTorrent, FeatureHTTPS, FeatureMetalink, FeatureXMLRPC, FeatureJSONRPC, FeatureSFTP)
}

// New builds an Info with the given features, dropping duplicates.
func New(features ...string) Info {
	seen := make(map[string]struct{}, len(features))
	out := make([]string, 0, len(features))
	for _, f := range features {
		if _, ok := seen[f]; ok || f == "" {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return Info{features: out}
}

// EnabledFeatures returns the feature list in report order.
func (i Info) EnabledFeatures() []string {
	return append([]string(nil), i.features...)
}

// ResolvedVersion returns Version, falling back to the module version
// recorded by the Go toolchain when the binary was built without ldflags.
func ResolvedVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
