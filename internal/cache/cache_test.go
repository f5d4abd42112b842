package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestStoreThenLookupIsAHitWithZeroChangedFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.cm")
	b := filepath.Join(dir, "b.cm")
	writeFile(t, a, "module a")
	writeFile(t, b, "module b")

	c := New(Config{Dir: filepath.Join(dir, ".cm-cache")})
	fp, hashes, err := c.ComputeFingerprint([]string{a, b}, "js", 2)
	require.NoError(t, err)

	obj := filepath.Join(dir, "out.o")
	writeFile(t, obj, "compiled bytes")

	err = c.Store(fp, obj, Entry{
		Fingerprint:  fp,
		Target:       "js",
		OptLevel:     2,
		ObjectFile:   "out.o",
		SourceHashes: hashes,
	})
	require.NoError(t, err)

	entry, hit, err := c.Lookup(fp)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "js", entry.Target)
	assert.Equal(t, 2, entry.OptLevel)

	changed, err := c.DetectChangedFiles([]string{a, b}, "js", 2)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestChangingOneFileReportsOnlyThatFileChanged(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.cm")
	b := filepath.Join(dir, "b.cm")
	writeFile(t, a, "module a v1")
	writeFile(t, b, "module b v1")

	c := New(Config{Dir: filepath.Join(dir, ".cm-cache")})
	fp, hashes, err := c.ComputeFingerprint([]string{a, b}, "interp", 0)
	require.NoError(t, err)

	obj := filepath.Join(dir, "out.o")
	writeFile(t, obj, "bytes")
	require.NoError(t, c.Store(fp, obj, Entry{
		Target: "interp", OptLevel: 0, ObjectFile: "out.o", SourceHashes: hashes,
	}))

	writeFile(t, a, "module a v2")

	changed, err := c.DetectChangedFiles([]string{a, b}, "interp", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, changed)
}

func TestDetectChangedModulesReportsOnlyTheEditedModule(t *testing.T) {
	dir := t.TempDir()
	mA1 := filepath.Join(dir, "mod_a_1.cm")
	mA2 := filepath.Join(dir, "mod_a_2.cm")
	mB1 := filepath.Join(dir, "mod_b_1.cm")
	writeFile(t, mA1, "a1")
	writeFile(t, mA2, "a2")
	writeFile(t, mB1, "b1")

	moduleFiles := map[string][]string{
		"mod_a": {mA1, mA2},
		"mod_b": {mB1},
	}

	c := New(Config{Dir: filepath.Join(dir, ".cm-cache")})
	modFps, err := c.ComputeModuleFingerprints(moduleFiles, "js", 1)
	require.NoError(t, err)

	fp, hashes, err := c.ComputeFingerprint([]string{mA1, mA2, mB1}, "js", 1)
	require.NoError(t, err)
	obj := filepath.Join(dir, "out.o")
	writeFile(t, obj, "bytes")
	require.NoError(t, c.Store(fp, obj, Entry{
		Target: "js", OptLevel: 1, ObjectFile: "out.o",
		SourceHashes: hashes, ModuleFingerprints: modFps,
	}))

	writeFile(t, mB1, "b1-modified")

	changed, err := c.DetectChangedModules(moduleFiles, "js", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"mod_b"}, changed)
}

func TestDetectChangedModuleFingerprintsStaticOverload(t *testing.T) {
	prev := map[string]string{"a": "111", "b": "222"}
	current := map[string]string{"a": "111", "b": "333", "c": "444"}

	changed := DetectChangedModuleFingerprints(prev, current)
	assert.Equal(t, []string{"b", "c"}, changed)
}

func TestStoreModuleObjectThenLookupByFingerprint(t *testing.T) {
	dir := t.TempDir()
	c := New(Config{Dir: filepath.Join(dir, ".cm-cache")})

	obj := filepath.Join(dir, "mod.o")
	writeFile(t, obj, "module bytes")

	require.NoError(t, c.StoreModuleObject("overallfp123456", "mod_a", "modfp-abc", obj))

	path, ok, err := c.LookupModuleObject("mod_a", "modfp-abc")
	require.NoError(t, err)
	require.True(t, ok)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "module bytes", string(data))

	objects, err := c.GetCachedModuleObjects("overallfp123456")
	require.NoError(t, err)
	assert.Contains(t, objects, "mod_a")
}

func TestEvictOldEntriesKeepsOnlyMaxEntries(t *testing.T) {
	dir := t.TempDir()
	c := New(Config{Dir: filepath.Join(dir, ".cm-cache"), MaxEntries: 2})

	for i := 0; i < 3; i++ {
		src := filepath.Join(dir, "a.cm")
		writeFile(t, src, "content"+string(rune('0'+i)))
		fp, hashes, err := c.ComputeFingerprint([]string{src}, "js", 0)
		require.NoError(t, err)
		obj := filepath.Join(dir, "out.o")
		writeFile(t, obj, "bytes")
		require.NoError(t, c.Store(fp, obj, Entry{
			Target: "js", OptLevel: 0, ObjectFile: "out.o", SourceHashes: hashes,
			CreatedAt: padTimestamp(i),
		}))
	}

	entries, err := c.GetAllEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// padTimestamp produces strictly increasing, lexicographically sortable
// fake timestamps for the eviction-order test above.
func padTimestamp(i int) string {
	return "2020-01-0" + string(rune('1'+i)) + "T00:00:00"
}

func TestQuickCheckMissesWhenFileSizeChanges(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.cm")
	writeFile(t, src, "v1")

	c := New(Config{Dir: filepath.Join(dir, ".cm-cache")})
	fp, hashes, err := c.ComputeFingerprint([]string{src}, "js", 0)
	require.NoError(t, err)
	obj := filepath.Join(dir, "out.o")
	writeFile(t, obj, "bytes")
	require.NoError(t, c.Store(fp, obj, Entry{Target: "js", OptLevel: 0, ObjectFile: "out.o", SourceHashes: hashes}))
	require.NoError(t, c.SaveQuickCheck(src, "js", 0, fp, "out.o", []string{src}))

	result, err := c.QuickCheck(src, "js", 0)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	writeFile(t, src, "v1-but-longer-now")
	result, err = c.QuickCheck(src, "js", 0)
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestClearRemovesCacheDirectory(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, ".cm-cache")
	c := New(Config{Dir: cacheDir})
	require.NoError(t, os.MkdirAll(cacheDir, 0o755))

	require.NoError(t, c.Clear())
	_, err := os.Stat(cacheDir)
	assert.True(t, os.IsNotExist(err))
}
