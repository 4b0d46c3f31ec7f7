// Package files holds the local filesystem helpers used around a transfer:
// path expansion, size calculation and file type labels.
package files

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a leading ~, any $HOME, and makes the result absolute.
func ExpandPath(input string) (string, error) {
	p := input
	switch {
	case p == "~":
		home, err := os.UserHomeDir()
		if err == nil {
			p = home
		}
	case strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`):
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[2:])
		}
	case strings.Contains(p, "$HOME"):
		if home := os.Getenv("HOME"); home != "" {
			p = strings.ReplaceAll(p, "$HOME", home)
		}
	}
	return filepath.Abs(p)
}

// BaseName returns the last element of a path written with either separator,
// so paths announced by a peer on another OS still map to a local file name.
func BaseName(p string) string {
	p = strings.TrimRight(p, `/\`)
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		p = p[i+1:]
	}
	if p == "" || p == "." || p == ".." {
		return "download"
	}
	return p
}

// DownloadPath is where an incoming artifact announced as remotePath is written.
func DownloadPath(dir, remotePath string) string {
	return filepath.Join(dir, BaseName(remotePath))
}
