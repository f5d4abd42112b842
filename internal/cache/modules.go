package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ComputeModuleFingerprints computes a per-module fingerprint (SHA-256 over
// that module's own files only, in the same composite form Fingerprint
// uses) for each entry of moduleFiles, keyed by module name.
func (c *Cache) ComputeModuleFingerprints(moduleFiles map[string][]string, target string, optLevel int) (map[string]string, error) {
	compilerHash, _ := computeCompilerHash()
	result := make(map[string]string, len(moduleFiles))
	for name, files := range moduleFiles {
		hashes := hashFiles(files)
		result[name] = fingerprintOf(files, hashes, target, optLevel, compilerHash)
	}
	return result, nil
}

// DetectChangedModules compares the current module fingerprints against the
// most recent manifest entry for (target, optLevel), returning the names of
// modules that are new, removed, or whose fingerprint changed.
func (c *Cache) DetectChangedModules(moduleFiles map[string][]string, target string, optLevel int) ([]string, error) {
	current, err := c.ComputeModuleFingerprints(moduleFiles, target, optLevel)
	if err != nil {
		return nil, err
	}
	entries, err := loadManifest(c.manifestPath())
	if err != nil {
		return nil, cacheErr("MIR0300", "failed to read cache manifest", err)
	}
	prev, ok := mostRecentEntryFor(entries, target, optLevel)
	if !ok {
		return sortedKeys(current), nil
	}
	return DetectChangedModuleFingerprints(prev.ModuleFingerprints, current), nil
}

// DetectChangedModuleFingerprints directly compares two fingerprint maps,
// the static overload cache_manager.hpp exposes alongside the instance
// method above, for callers that already have both fingerprint sets on
// hand and don't want a manifest lookup.
func DetectChangedModuleFingerprints(prev, current map[string]string) []string {
	return diffHashes(prev, current)
}

// modulesSubdir returns the directory holding module artifacts cached
// under the given overall fingerprint, named by the fingerprint's prefix
// (cache_manager.hpp's "cache/modules/<fp_prefix>/").
func (c *Cache) modulesSubdir(fingerprint string) string {
	prefix := fingerprint
	if len(prefix) > 12 {
		prefix = prefix[:12]
	}
	return filepath.Join(c.modulesDir(), prefix)
}

// StoreModuleObject caches moduleName's compiled objectFile under
// fingerprint's module subdirectory, with a sidecar .meta file recording
// the module's own fingerprint for later lookup.
func (c *Cache) StoreModuleObject(fingerprint, moduleName, moduleFingerprint, objectFile string) error {
	if !c.config.Enabled {
		return nil
	}
	dir := c.modulesSubdir(fingerprint)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return cacheErr("MIR0301", "failed to create module cache directory", err)
	}

	objName := moduleName + ".o"
	if err := copyFile(objectFile, filepath.Join(dir, objName)); err != nil {
		return cacheErr("MIR0302", "failed to copy module object into cache", err)
	}

	meta := fmt.Sprintf("module=%s\nfingerprint=%s\nobject=%s\n", moduleName, moduleFingerprint, objName)
	metaPath := filepath.Join(dir, moduleName+".meta")
	if err := os.WriteFile(metaPath, []byte(meta), 0o644); err != nil {
		return cacheErr("MIR0303", "failed to write module cache metadata", err)
	}
	return nil
}

// readModuleMeta parses a .meta sidecar file's module=/fingerprint=/
// object= keys.
func readModuleMeta(path string) (module, fingerprint, object string, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", "", false
	}
	for _, line := range strings.Split(string(data), "\n") {
		k, v, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		switch k {
		case "module":
			module = v
		case "fingerprint":
			fingerprint = v
		case "object":
			object = v
		}
	}
	return module, fingerprint, object, module != ""
}

// LookupModuleObject searches every cached module subdirectory for a
// moduleName entry whose recorded fingerprint matches moduleFingerprint,
// mirroring cache_manager.hpp's lookup_module_object (which is keyed by
// module name and module fingerprint alone, not the overall fingerprint).
func (c *Cache) LookupModuleObject(moduleName, moduleFingerprint string) (string, bool, error) {
	entries, err := os.ReadDir(c.modulesDir())
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, cacheErr("MIR0300", "failed to list module cache", err)
	}
	for _, sub := range entries {
		if !sub.IsDir() {
			continue
		}
		metaPath := filepath.Join(c.modulesDir(), sub.Name(), moduleName+".meta")
		module, fp, object, ok := readModuleMeta(metaPath)
		if !ok || module != moduleName || fp != moduleFingerprint {
			continue
		}
		return filepath.Join(c.modulesDir(), sub.Name(), object), true, nil
	}
	return "", false, nil
}

// GetCachedModuleObjects returns every module object cached under
// fingerprint's subdirectory, keyed by module name.
func (c *Cache) GetCachedModuleObjects(fingerprint string) (map[string]string, error) {
	dir := c.modulesSubdir(fingerprint)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, cacheErr("MIR0300", "failed to list module cache", err)
	}

	result := map[string]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".meta") {
			continue
		}
		module, _, object, ok := readModuleMeta(filepath.Join(dir, e.Name()))
		if !ok {
			continue
		}
		result[module] = filepath.Join(dir, object)
	}
	return result, nil
}
