package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func bencodeString(s string) string {
	return fmt.Sprintf("%d:%s", len(s), s)
}

// TorrentBytes returns single-file metainfo for name.
func TorrentBytes(name string, length int64) []byte {
	info := "d" +
		bencodeString("length") + fmt.Sprintf("i%de", length) +
		bencodeString("name") + bencodeString(name) +
		bencodeString("piece length") + "i262144e" +
		bencodeString("pieces") + bencodeString(strings.Repeat("a", 20)) +
		"e"
	return []byte("d" + bencodeString("announce") + bencodeString("http://tracker.invalid/announce") +
		bencodeString("info") + info + "e")
}

// MetalinkBytes returns a 3.0 metalink document with one file per name, each
// served from http://localhost/<name>.
func MetalinkBytes(names ...string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<metalink version="3.0" xmlns="http://www.metalinker.org/"><files>`)
	for _, name := range names {
		fmt.Fprintf(&b, `<file name="%s"><resources><url type="http" preference="100">http://localhost/%s</url></resources></file>`, name, name)
	}
	b.WriteString(`</files></metalink>`)
	return []byte(b.String())
}
