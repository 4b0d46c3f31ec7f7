//go:build !unix

package files

import "io/fs"

type fileKey struct{}

func keyOf(fs.FileInfo) (fileKey, bool) {
	return fileKey{}, false
}
