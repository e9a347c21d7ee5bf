package pathid

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
)

// FilePrefix and FolderPrefix tag identities by kind so the two hash
// schemes can never collide in the history store.
const (
	FilePrefix   = "file_"
	FolderPrefix = "folder_"
)

// digestSize is the truncated BLAKE2b output length in bytes.
const digestSize = 16

// ForFile returns the identity for a video file path. Only the filename
// stem participates in the hash: renaming the parent folder or swapping
// the container extension keeps the identity stable, while files with
// the same stem in different folders share one. That aliasing is
// accepted in exchange for survival across folder reorganization.
func ForFile(path string) (string, error) {
	normalized, err := normalize(path)
	if err != nil {
		return "", err
	}
	base := filepath.Base(filepath.FromSlash(normalized))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return "", fmt.Errorf("path %q has no filename stem", path)
	}
	return FilePrefix + digest(stem), nil
}

// ForFolder returns the identity for a folder path. The full normalized
// path participates in the hash, so two folders with the same name in
// different locations get distinct identities.
func ForFolder(path string) (string, error) {
	normalized, err := normalize(path)
	if err != nil {
		return "", err
	}
	return FolderPrefix + digest(normalized), nil
}

// IsFileID reports whether id carries the file identity prefix.
func IsFileID(id string) bool { return strings.HasPrefix(id, FilePrefix) }

// IsFolderID reports whether id carries the folder identity prefix.
func IsFolderID(id string) bool { return strings.HasPrefix(id, FolderPrefix) }

// normalize converts a path to its canonical hashing form: absolute,
// cleaned, NFC-composed, forward slashes, and case-folded on platforms
// whose default filesystems are case-insensitive.
func normalize(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path must not be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}
	normalized := norm.NFC.String(filepath.ToSlash(abs))
	if caseInsensitiveFS {
		normalized = strings.ToLower(normalized)
	}
	return normalized, nil
}

var caseInsensitiveFS = runtime.GOOS == "windows" || runtime.GOOS == "darwin"

func digest(input string) string {
	h, err := blake2b.New(digestSize, nil)
	if err != nil {
		// Unreachable: New only fails for oversized keys.
		panic(err)
	}
	h.Write([]byte(input))
	return hex.EncodeToString(h.Sum(nil))
}
