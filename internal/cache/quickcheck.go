package cache

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// QuickCheckResult is the outcome of QuickCheck (cache_manager.hpp's
// QuickCheckResult).
type QuickCheckResult struct {
	Valid       bool
	Fingerprint string
	ObjectFile  string
	Target      string
}

// quickCheckRecord is one remembered (input, target, opt) -> (mtime, size,
// fingerprint, object) mapping, used to skip SHA-256 hashing entirely when
// an input file's mtime and size haven't moved since the last compile.
type quickCheckRecord struct {
	inputFile   string
	target      string
	optLevel    int
	mtimeNs     int64
	size        int64
	fingerprint string
	objectFile  string
}

func (c *Cache) quickCheckPath() string { return filepath.Join(c.config.Dir, "quickcheck.txt") }

func quickCheckKey(inputFile, target string, optLevel int) string {
	return inputFile + "\x00" + target + "\x00" + strconv.Itoa(optLevel)
}

func (c *Cache) loadQuickCheckRecords() (map[string]quickCheckRecord, error) {
	records := map[string]quickCheckRecord{}
	data, err := os.ReadFile(c.quickCheckPath())
	if os.IsNotExist(err) {
		return records, nil
	}
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) != 6 {
			continue
		}
		opt, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		mtime, err := strconv.ParseInt(fields[3], 10, 64)
		if err != nil {
			continue
		}
		size, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			continue
		}
		r := quickCheckRecord{
			inputFile:   fields[0],
			optLevel:    opt,
			target:      fields[2],
			mtimeNs:     mtime,
			size:        size,
			fingerprint: fields[5],
		}
		records[quickCheckKey(r.inputFile, r.target, r.optLevel)] = r
	}
	return records, nil
}

// QuickCheck determines whether inputFile's cache entry is still valid
// using only its mtime and size, skipping the SHA-256 recomputation
// DetectChangedFiles performs (cache_manager.hpp: "skip ImportPreprocessor
// + SHA-256 calculation").
func (c *Cache) QuickCheck(inputFile, target string, optLevel int) (QuickCheckResult, error) {
	records, err := c.loadQuickCheckRecords()
	if err != nil {
		return QuickCheckResult{}, cacheErr("MIR0300", "failed to read quick-check records", err)
	}
	rec, ok := records[quickCheckKey(inputFile, target, optLevel)]
	if !ok {
		c.misses++
		return QuickCheckResult{}, nil
	}

	info, err := os.Stat(inputFile)
	if err != nil {
		c.misses++
		return QuickCheckResult{}, nil
	}
	if info.ModTime().UnixNano() != rec.mtimeNs || info.Size() != rec.size {
		c.misses++
		return QuickCheckResult{}, nil
	}

	entries, err := loadManifest(c.manifestPath())
	if err != nil {
		return QuickCheckResult{}, cacheErr("MIR0300", "failed to read cache manifest", err)
	}
	e, ok := entries[rec.fingerprint]
	if !ok {
		c.misses++
		return QuickCheckResult{}, nil
	}
	if _, statErr := os.Stat(filepath.Join(c.objectsDir(), e.ObjectFile)); statErr != nil {
		c.misses++
		return QuickCheckResult{}, nil
	}

	c.hits++
	return QuickCheckResult{Valid: true, Fingerprint: rec.fingerprint, ObjectFile: e.ObjectFile, Target: target}, nil
}

// SaveQuickCheck records inputFile's current mtime and size against
// fingerprint/objectFile for a future QuickCheck. sourceFiles is accepted
// to mirror cache_manager.hpp's signature but only inputFile's own stat is
// tracked; the full dependency set is still validated the slow way by
// DetectChangedFiles on a quick-check miss.
func (c *Cache) SaveQuickCheck(inputFile, target string, optLevel int, fingerprint, objectFile string, sourceFiles []string) error {
	if !c.config.Enabled {
		return nil
	}
	info, err := os.Stat(inputFile)
	if err != nil {
		return cacheErr("MIR0305", "failed to stat quick-check input file", err)
	}

	records, err := c.loadQuickCheckRecords()
	if err != nil {
		return cacheErr("MIR0300", "failed to read quick-check records", err)
	}
	records[quickCheckKey(inputFile, target, optLevel)] = quickCheckRecord{
		inputFile:   inputFile,
		target:      target,
		optLevel:    optLevel,
		mtimeNs:     info.ModTime().UnixNano(),
		size:        info.Size(),
		fingerprint: fingerprint,
		objectFile:  objectFile,
	}

	var b strings.Builder
	b.WriteString("# quick-check cache: input|opt|target|mtime_ns|size|fingerprint\n")
	for _, r := range records {
		b.WriteString(strings.Join([]string{
			r.inputFile,
			strconv.Itoa(r.optLevel),
			r.target,
			strconv.FormatInt(r.mtimeNs, 10),
			strconv.FormatInt(r.size, 10),
			r.fingerprint,
		}, "|"))
		b.WriteByte('\n')
	}

	if err := os.MkdirAll(c.config.Dir, 0o755); err != nil {
		return cacheErr("MIR0301", "failed to create cache directory", err)
	}
	if err := os.WriteFile(c.quickCheckPath(), []byte(b.String()), 0o644); err != nil {
		return cacheErr("MIR0303", "failed to write quick-check records", err)
	}
	return nil
}
