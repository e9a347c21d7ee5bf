package pathid

import (
	"path/filepath"
	"strings"
)

// AnonymizeFile renders a file path for display without revealing the
// name: the extension survives, the stem is replaced with a short
// identity fragment.
func AnonymizeFile(path string) string {
	ext := filepath.Ext(path)
	id, err := ForFile(path)
	if err != nil {
		return "<unresolvable>" + ext
	}
	return strings.TrimPrefix(id, FilePrefix)[:8] + ext
}

// AnonymizePath renders a folder path for display as a short identity
// fragment.
func AnonymizePath(path string) string {
	id, err := ForFolder(path)
	if err != nil {
		return "<unresolvable>"
	}
	return strings.TrimPrefix(id, FolderPrefix)[:8]
}
