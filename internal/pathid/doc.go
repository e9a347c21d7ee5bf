// Package pathid derives stable identities for files and folders. File
// identities hash the filename stem only, so a file keeps its history
// entry when it moves between folders or changes container extension.
// Folder identities hash the full normalized path. Both are short
// BLAKE2b digests rendered as hex with a kind prefix.
package pathid
