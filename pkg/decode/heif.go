package decode

import (
	"path/filepath"
	"strings"
)

// IsHeifFamily reports whether path names a HEIF-family file by
// extension. Only these sources warrant the container-level
// primary-item transform check.
func IsHeifFamily(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".heic", ".heif":
		return true
	}
	return false
}
