package sxfst

import (
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
)

// ExpandHome expands ~ to its proper path, where appropriate.
func ExpandHome(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		usr, err := user.Current()
		if err != nil {
			return path, pfx.Err(err)
		}
		path = filepath.Join(usr.HomeDir, (path)[2:])
	}

	return path, nil
}

// FilterPaths keeps the paths containing every one of the given substrings.
// Directory traversal is left to the caller; this only narrows a list that
// has already been discovered.
func FilterPaths(paths []string, contains ...string) []string {
	out := make([]string, 0, len(paths))

Outer:
	for _, p := range paths {
		for _, c := range contains {
			if !strings.Contains(p, c) {
				continue Outer
			}
		}
		out = append(out, p)
	}

	return out
}

// ExpandPaths applies ExpandHome to every path.
func ExpandPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		expanded, err := ExpandHome(p)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}

	return out, nil
}
