package driver

import (
	"fmt"
	"path/filepath"
	"strings"
)

// supported base extensions, after stripping a compression extension.
var supportedExtensions = map[string]bool{
	".har":  true,
	".sl4":  true,
	".harx": true,
}

// compressionExtensions recognized on binary inputs.
var compressionExtensions = []string{".gz", ".bz2", ".xz", ".zst"}

// validateDSN checks that every semicolon-separated path in the DSN
// carries a supported extension.
func validateDSN(dsn string) error {
	if strings.TrimSpace(dsn) == "" {
		return ErrEmptyDSN
	}
	for _, path := range strings.Split(dsn, ";") {
		path = strings.TrimSpace(path)
		if path == "" {
			return ErrEmptyDSN
		}
		if !isSupportedPath(path) {
			return fmt.Errorf("%w: %s", ErrUnsupportedPath, path)
		}
	}
	return nil
}

// isSupportedPath checks the extension, looking through a trailing
// compression extension.
func isSupportedPath(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range compressionExtensions {
		if strings.HasSuffix(name, ext) {
			name = strings.TrimSuffix(name, ext)
			break
		}
	}
	return supportedExtensions[filepath.Ext(name)]
}
