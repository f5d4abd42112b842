// Package cache implements the incremental compile cache: composite and
// per-module fingerprints over source file content, a pipe-separated
// manifest of cached build artifacts, and eviction of the oldest entries by
// creation time once a configured entry count is exceeded (spec.md §4.13, §6 "Cache manifest").
// Grounded on original_source/src/common/cache_manager.hpp; no teacher Go
// analogue exists, since kanso compiles a single contract with no
// incremental build concept.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// computeFileHash returns the hex-encoded SHA-256 of a file's contents.
func computeFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// computeCompilerHash hashes the running compiler binary itself, so a
// rebuilt compiler invalidates every cache entry (cache_manager.hpp's
// compute_compiler_hash).
func computeCompilerHash() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", err
	}
	return computeFileHash(path)
}

// CompilerVersion is the compiler's self-reported version string, baked in
// at link time the way the teacher's build embeds its own version.
var CompilerVersion = "dev"

// fingerprintOf computes the composite fingerprint spec.md §4.13 defines:
// SHA-256 over the sorted sequence of "path:file_sha256\n" lines for files,
// plus "target:…\n", "opt:…\n", "version:…\n", "compiler:compiler_sha256\n".
// hashes maps file path to its already-computed SHA-256, so the same
// per-file hashes can be reused for both the composite and per-module
// fingerprints without re-reading files from disk.
func fingerprintOf(files []string, hashes map[string]string, target string, optLevel int, compilerHash string) string {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	var b strings.Builder
	for _, path := range sorted {
		fmt.Fprintf(&b, "path:%s:%s\n", path, hashes[path])
	}
	fmt.Fprintf(&b, "target:%s\n", target)
	fmt.Fprintf(&b, "opt:%d\n", optLevel)
	fmt.Fprintf(&b, "version:%s\n", CompilerVersion)
	fmt.Fprintf(&b, "compiler:%s\n", compilerHash)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// hashFiles computes the SHA-256 of every file in files, keyed by path.
// A file that cannot be read is recorded as an empty hash rather than
// aborting the whole fingerprint computation, since a deleted source file
// between the caller's listing and this read should show up as "changed",
// not as a crash.
func hashFiles(files []string) map[string]string {
	hashes := make(map[string]string, len(files))
	for _, path := range files {
		h, err := computeFileHash(path)
		if err != nil {
			h = ""
		}
		hashes[path] = h
	}
	return hashes
}
