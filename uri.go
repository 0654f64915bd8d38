package vhttpd

import (
	"net/url"
	"path/filepath"
	"strings"
)

const defaultIndex = "index.html"

// ResolvePath turns a request-target into a slash-separated path relative to
// the content root. It reports false for anything that is not origin-form, that
// fails percent-decoding, or that would climb above the root. "/" resolves to
// index.html.
//
// This is a pure function; it never touches the filesystem.
func ResolvePath(target string) (string, bool) {
	path, _ := splitTarget(target)
	if !strings.HasPrefix(path, "/") {
		return "", false
	}

	decoded, err := url.PathUnescape(path[1:])
	if err != nil {
		return "", false
	}

	clean, ok := CleanComponents(decoded)
	if !ok {
		return "", false
	}
	if clean == "" {
		return defaultIndex, true
	}
	return clean, true
}

// CleanComponents normalizes a relative path component by component. It
// rejects a root or volume prefix, backslashes, NUL bytes and any ".." that
// pops past the start.
func CleanComponents(p string) (string, bool) {
	if strings.HasPrefix(p, "/") || strings.ContainsAny(p, "\\\x00") {
		return "", false
	}
	if filepath.VolumeName(p) != "" {
		return "", false
	}

	parts := make([]string, 0, 4)
	for _, part := range splitPath(p) {
		switch part {
		case ".":
		case "..":
			if len(parts) == 0 {
				return "", false
			}
			parts = parts[:len(parts)-1]
		default:
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "/"), true
}

// splitPath splits the path into segments, skipping empty ones
func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			if start < i {
				parts = append(parts, path[start:i])
			}
			start = i + 1
		}
	}
	if start < len(path) {
		parts = append(parts, path[start:])
	}
	return parts
}
