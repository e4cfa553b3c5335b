package main

import (
	"path/filepath"
	"strings"
)

// taskStatus mirrors a status map. Integers arrive as decimal strings.
type taskStatus struct {
	GID             string       `json:"gid"`
	Status          string       `json:"status"`
	ErrorCode       string       `json:"errorCode,omitempty"`
	TotalLength     string       `json:"totalLength"`
	CompletedLength string       `json:"completedLength"`
	UploadLength    string       `json:"uploadLength"`
	DownloadSpeed   string       `json:"downloadSpeed"`
	UploadSpeed     string       `json:"uploadSpeed"`
	Dir             string       `json:"dir"`
	Files           []statusFile `json:"files"`
	FollowedBy      []string     `json:"followedBy,omitempty"`
	BelongsTo       string       `json:"belongsTo,omitempty"`
}

type statusFile struct {
	Index  string   `json:"index"`
	Path   string   `json:"path"`
	Length string   `json:"length,omitempty"`
	URIs   []string `json:"uris,omitempty"`
}

// name is the first file's base name, or the gid when there are no files.
func (s taskStatus) name() string {
	for _, f := range s.Files {
		if base := filepath.Base(f.Path); base != "" && base != "." {
			if len(s.Files) > 1 {
				return base + " (+" + formatCount(len(s.Files)-1) + " more)"
			}
			return base
		}
	}
	return "GID " + s.GID
}

type versionInfo struct {
	Version         string   `json:"version"`
	EnabledFeatures []string `json:"enabledFeatures"`
}

type globalStat struct {
	NumActive     string `json:"numActive"`
	NumWaiting    string `json:"numWaiting"`
	NumStopped    string `json:"numStopped"`
	DownloadSpeed string `json:"downloadSpeed"`
	UploadSpeed   string `json:"uploadSpeed"`
	DownloadLimit string `json:"downloadLimit"`
	UploadLimit   string `json:"uploadLimit"`
}

// parseOptionPairs turns key=value arguments into an option map.
func parseOptionPairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &optionPairError{pair: pair}
		}
		out[key] = value
	}
	return out, nil
}

type optionPairError struct {
	pair string
}

func (e *optionPairError) Error() string {
	return "invalid option " + strings.TrimSpace(e.pair) + ": expected key=value"
}
