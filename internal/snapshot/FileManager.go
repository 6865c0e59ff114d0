package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"ringsync/internal/models"
	"ringsync/internal/providers"
	"ringsync/internal/snapshot/interfaces"
	"ringsync/internal/structures"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

var ErrSnapshotExists = errors.New("snapshot already exists")

// FileManager reads and writes snapshot files in a single directory.
// Written files are never modified, except that a same-day window may be
// replaced by a later run on that day.
type FileManager struct {
	dir        string
	compress   bool
	compressor interfaces.CompressorInterface
	metrics    providers.MetricsProviderInterface
	logger     providers.Logger
}

func NewFileManager(conf *structures.Config, compressor interfaces.CompressorInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) interfaces.FileManagerInterface {
	return &FileManager{
		dir:        conf.Snapshot.Dir,
		compress:   conf.Snapshot.Compress,
		compressor: compressor,
		metrics:    metrics,
		logger:     logger,
	}
}

func (f *FileManager) fileName(dateRange models.DateRange) string {
	name := dateRange.FileName()
	if f.compress {
		name = strings.TrimSuffix(name, models.SnapshotExt) + models.CompressedExt
	}
	return name
}

// existing returns the path of a snapshot for dateRange in either encoding.
func (f *FileManager) existing(dateRange models.DateRange) (string, bool) {
	base := strings.TrimSuffix(dateRange.FileName(), models.SnapshotExt)
	for _, ext := range []string{models.SnapshotExt, models.CompressedExt} {
		path := filepath.Join(f.dir, base+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Save writes the snapshot atomically and returns its path.
func (f *FileManager) Save(dateRange models.DateRange, snapshot models.Snapshot) (string, error) {
	start := time.Now()
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return "", err
	}

	fileName := filepath.Join(f.dir, f.fileName(dateRange))
	stale := ""
	if prev, ok := f.existing(dateRange); ok {
		if !dateRange.SameDay() {
			return "", fmt.Errorf("%w: %s", ErrSnapshotExists, prev)
		}
		f.logger.Warnf(providers.TypeSnapshot, "Replacing same-day snapshot %s", prev)
		if prev != fileName {
			stale = prev
		}
	}

	data, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		return "", err
	}
	if f.compress {
		data, err = f.compressor.Compress(data)
		if err != nil {
			return "", err
		}
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return "", err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return "", err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return "", err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return "", err
	}

	if err = os.Rename(tmpFile, fileName); err != nil {
		os.Remove(tmpFile)
		return "", err
	}
	if stale != "" {
		os.Remove(stale)
	}

	f.metrics.ObservePersistenceDuration(time.Since(start))
	return fileName, nil
}

// Load reads a snapshot by file name (relative to the snapshot dir) or path.
func (f *FileManager) Load(name string) (models.Snapshot, error) {
	path := name
	if filepath.Base(name) == name {
		path = filepath.Join(f.dir, name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(path, models.CompressedExt) {
		data, err = f.compressor.Decompress(data)
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", path, err)
		}
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if snapshot == nil {
		snapshot = models.Snapshot{}
	}
	return snapshot, nil
}

// List returns snapshot file names sorted lexicographically, which for the
// YYYY-MM-DD naming is chronological. Anything else in the directory is ignored.
func (f *FileManager) List() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.MkdirAll(f.dir, 0755)
		}
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := models.ParseSnapshotName(entry.Name()); !ok {
			f.logger.Debugf(providers.TypeSnapshot, "Skipping non-snapshot file %s", entry.Name())
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Close releases the compressor's encoder and decoder.
func (f *FileManager) Close() {
	f.compressor.Close()
}
