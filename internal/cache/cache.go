package cache

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cm-lang/cmc/internal/cmerrors"
)

// Config mirrors cache_manager.hpp's CacheConfig.
type Config struct {
	Dir        string
	MaxEntries int
	Enabled    bool
}

// DefaultConfig matches the teacher-source defaults (cache_dir=".cm-cache",
// max_entries=100, enabled=true).
func DefaultConfig() Config {
	return Config{Dir: ".cm-cache", MaxEntries: 100, Enabled: true}
}

// Stats mirrors cache_manager.hpp's CacheStats.
type Stats struct {
	TotalEntries   int
	TotalSizeBytes int64
	HitCount       int
	MissCount      int
}

// Cache is the incremental build cache, carried explicitly by the caller
// (the cmd/cmc driver) rather than as package-level state, so a single
// process can in principle manage more than one cache directory and so
// hit/miss counters aren't shared mutable globals.
type Cache struct {
	config Config

	hits   int
	misses int
}

// New builds a Cache from config, filling in DefaultConfig's values for any
// zero field.
func New(config Config) *Cache {
	if config.Dir == "" {
		config.Dir = DefaultConfig().Dir
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultConfig().MaxEntries
	}
	if !config.Enabled {
		config.Enabled = DefaultConfig().Enabled
	}
	return &Cache{config: config}
}

func (c *Cache) manifestPath() string { return filepath.Join(c.config.Dir, "manifest.txt") }
func (c *Cache) objectsDir() string   { return filepath.Join(c.config.Dir, "objects") }
func (c *Cache) modulesDir() string   { return filepath.Join(c.config.Dir, "modules") }

func (c *Cache) ensureDirs() error {
	if err := os.MkdirAll(c.config.Dir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(c.objectsDir(), 0o755); err != nil {
		return err
	}
	return os.MkdirAll(c.modulesDir(), 0o755)
}

func cacheErr(code, message string, err error) error {
	return cmerrors.New(cmerrors.CacheError, cmerrors.LevelError, code, "", message).WithErr(err)
}

// ComputeFingerprint computes the composite fingerprint over files, the
// compiler's own binary hash, target, and optimization level (spec.md
// §4.13), returning the per-file hashes alongside since Store needs them
// too and re-hashing would be wasted work.
func (c *Cache) ComputeFingerprint(files []string, target string, optLevel int) (string, map[string]string, error) {
	hashes := hashFiles(files)
	compilerHash, err := computeCompilerHash()
	if err != nil {
		compilerHash = ""
	}
	fp := fingerprintOf(files, hashes, target, optLevel, compilerHash)
	return fp, hashes, nil
}

// Lookup returns the cached entry for fingerprint if one exists and its
// recorded object file is still present on disk.
func (c *Cache) Lookup(fingerprint string) (Entry, bool, error) {
	if !c.config.Enabled {
		return Entry{}, false, nil
	}
	entries, err := loadManifest(c.manifestPath())
	if err != nil {
		return Entry{}, false, cacheErr("MIR0300", "failed to read cache manifest", err)
	}
	e, ok := entries[fingerprint]
	if !ok {
		c.misses++
		return Entry{}, false, nil
	}
	if _, statErr := os.Stat(filepath.Join(c.objectsDir(), e.ObjectFile)); statErr != nil {
		c.misses++
		return Entry{}, false, nil
	}
	c.hits++
	return e, true, nil
}

// mostRecentEntryFor returns the newest entry matching (target, optLevel),
// by CreatedAt, the baseline detect_changed_files/detect_changed_modules
// compare against.
func mostRecentEntryFor(entries map[string]Entry, target string, optLevel int) (Entry, bool) {
	var best Entry
	found := false
	for _, e := range entries {
		if e.Target != target || e.OptLevel != optLevel {
			continue
		}
		if !found || e.CreatedAt > best.CreatedAt {
			best = e
			found = true
		}
	}
	return best, found
}

// DetectChangedFiles compares currentFiles' hashes against the most recent
// entry for (target, optLevel); every new, removed, or content-mismatched
// path is returned. With no prior entry, every file counts as changed
// (spec.md §4.13).
func (c *Cache) DetectChangedFiles(currentFiles []string, target string, optLevel int) ([]string, error) {
	entries, err := loadManifest(c.manifestPath())
	if err != nil {
		return nil, cacheErr("MIR0300", "failed to read cache manifest", err)
	}
	prev, ok := mostRecentEntryFor(entries, target, optLevel)
	current := hashFiles(currentFiles)
	if !ok {
		return sortedKeys(current), nil
	}
	return diffHashes(prev.SourceHashes, current), nil
}

// diffHashes returns every key in current that is absent from prev or whose
// value differs, plus every key in prev that current no longer has, sorted
// for deterministic output.
func diffHashes(prev, current map[string]string) []string {
	var changed []string
	for path, hash := range current {
		if prevHash, ok := prev[path]; !ok || prevHash != hash {
			changed = append(changed, path)
		}
	}
	for path := range prev {
		if _, ok := current[path]; !ok {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	return changed
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store copies objectFile into the cache's object directory under entry's
// recorded filename, records entry in the manifest, and evicts the oldest
// entries beyond MaxEntries.
func (c *Cache) Store(fingerprint, objectFile string, entry Entry) error {
	if !c.config.Enabled {
		return nil
	}
	if err := c.ensureDirs(); err != nil {
		return cacheErr("MIR0301", "failed to create cache directory", err)
	}
	if entry.Fingerprint == "" {
		entry.Fingerprint = fingerprint
	}
	if entry.CreatedAt == "" {
		entry.CreatedAt = currentTimestamp()
	}
	if entry.CompilerVersion == "" {
		entry.CompilerVersion = CompilerVersion
	}

	dest := filepath.Join(c.objectsDir(), entry.ObjectFile)
	if err := copyFile(objectFile, dest); err != nil {
		return cacheErr("MIR0302", "failed to copy object into cache", err)
	}

	entries, err := loadManifest(c.manifestPath())
	if err != nil {
		return cacheErr("MIR0300", "failed to read cache manifest", err)
	}
	entries[fingerprint] = entry
	c.evictOldEntries(entries)

	if err := saveManifest(c.manifestPath(), entries); err != nil {
		return cacheErr("MIR0303", "failed to write cache manifest", err)
	}
	return nil
}

// evictOldEntries drops the oldest entries (by CreatedAt) beyond
// config.MaxEntries, removing both the manifest row and its object file, in
// place on entries.
func (c *Cache) evictOldEntries(entries map[string]Entry) {
	if len(entries) <= c.config.MaxEntries {
		return
	}
	ordered := make([]Entry, 0, len(entries))
	for _, e := range entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].CreatedAt < ordered[j].CreatedAt })

	excess := len(ordered) - c.config.MaxEntries
	for i := 0; i < excess; i++ {
		e := ordered[i]
		os.Remove(filepath.Join(c.objectsDir(), e.ObjectFile))
		delete(entries, e.Fingerprint)
	}
}

// GetStats reports the cache's current size and this Cache value's
// in-process hit/miss counters.
func (c *Cache) GetStats() (Stats, error) {
	entries, err := loadManifest(c.manifestPath())
	if err != nil {
		return Stats{}, cacheErr("MIR0300", "failed to read cache manifest", err)
	}
	var size int64
	filepath.Walk(c.objectsDir(), func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return Stats{
		TotalEntries:   len(entries),
		TotalSizeBytes: size,
		HitCount:       c.hits,
		MissCount:      c.misses,
	}, nil
}

// GetAllEntries returns every manifest entry, keyed by fingerprint.
func (c *Cache) GetAllEntries() (map[string]Entry, error) {
	entries, err := loadManifest(c.manifestPath())
	if err != nil {
		return nil, cacheErr("MIR0300", "failed to read cache manifest", err)
	}
	return entries, nil
}

// Clear removes the entire cache directory tree.
func (c *Cache) Clear() error {
	if err := os.RemoveAll(c.config.Dir); err != nil {
		return cacheErr("MIR0304", "failed to clear cache directory", err)
	}
	return nil
}

// Dir returns the configured cache directory.
func (c *Cache) Dir() string { return c.config.Dir }

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
