// Package pathtree implements absolute-path normalization and the
// in-memory directory tree the shell's pwd/cd/ls/mkdir builtins walk,
// ported from the reference system's fs_path.c / fs/dir.c segment-based
// algorithms (the C original this spec was distilled from) rather than
// from anything in the Go teacher tree, which has no filesystem at all.
package pathtree

import (
	"fmt"
	"strings"

	"tinykernel/internal/kconfig"
	"tinykernel/internal/kerr"
)

// Normalize collapses "." segments, resolves ".." against the preceding
// segment (absolute paths clamp at root; relative paths retain a leading
// ".."), and serializes the result with a leading "/" iff path was
// absolute. An empty normalized relative path becomes ".".
func Normalize(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("pathtree: %w: empty path", kerr.ErrArgument)
	}

	isAbsolute := path[0] == '/'
	var segments []string

	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "." {
			continue
		}
		if seg == ".." {
			if len(segments) > 0 && segments[len(segments)-1] != ".." {
				segments = segments[:len(segments)-1]
				continue
			}
			if isAbsolute {
				continue
			}
			segments = append(segments, "..")
			continue
		}
		segments = append(segments, seg)
	}

	var out string
	if isAbsolute {
		out = "/" + strings.Join(segments, "/")
	} else if len(segments) == 0 {
		out = "."
	} else {
		out = strings.Join(segments, "/")
	}

	if len(out) > kconfig.PathMaxLen {
		return "", fmt.Errorf("pathtree: %w: normalized path exceeds %d bytes", kerr.ErrArgument, kconfig.PathMaxLen)
	}
	return out, nil
}

// Resolve normalizes path against cwd: an absolute path normalizes on its
// own, an empty path normalizes cwd, and anything else is normalized
// after joining cwd and path.
func Resolve(cwd, path string) (string, error) {
	normCwd, err := Normalize(cwd)
	if err != nil {
		return "", err
	}
	if normCwd == "" || normCwd[0] != '/' {
		return "", fmt.Errorf("pathtree: %w: cwd %q is not absolute", kerr.ErrArgument, cwd)
	}

	if path == "" {
		return Normalize(normCwd)
	}
	if path[0] == '/' {
		return Normalize(path)
	}

	if normCwd == "/" {
		return Normalize("/" + path)
	}
	return Normalize(normCwd + "/" + path)
}
