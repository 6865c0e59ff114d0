package testutil

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"ringsync/internal/models"
	"ringsync/internal/providers"
	"sort"
	"strings"
	"sync"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (e LogEntry) Message() string {
	return fmt.Sprintf(e.Format, e.Args...)
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns the number of entries at level whose rendered message contains substr.
func (m *MockLogger) Count(level, substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level && strings.Contains(e.Message(), substr) {
			n++
		}
	}
	return n
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closed       int
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() { m.Closed++ }

// FetchCall captures one MockApiClient.Fetch invocation.
type FetchCall struct {
	Category models.Category
	Params   url.Values
}

// MockApiClient implements client.ApiClientInterface. Responses and Errors
// are keyed by category; a category with neither yields an empty list.
type MockApiClient struct {
	mu        sync.Mutex
	Responses map[models.Category][]models.Record
	Errors    map[models.Category]error
	Calls     []FetchCall
}

func (m *MockApiClient) Fetch(_ context.Context, category models.Category, params url.Values) ([]models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, FetchCall{Category: category, Params: params})
	if err, ok := m.Errors[category]; ok {
		return nil, err
	}
	records := m.Responses[category]
	if records == nil {
		return []models.Record{}, nil
	}
	return records, nil
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
}

// MockFileManager implements interfaces.FileManagerInterface over an
// in-memory set of snapshots keyed by file name.
type MockFileManager struct {
	mu        sync.Mutex
	Snapshots map[string]models.Snapshot
	LoadErrs  map[string]error
	Saved     []models.DateRange
}

func NewMockFileManager() *MockFileManager {
	return &MockFileManager{Snapshots: map[string]models.Snapshot{}, LoadErrs: map[string]error{}}
}

func (m *MockFileManager) Save(dateRange models.DateRange, snapshot models.Snapshot) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Snapshots[dateRange.FileName()] = snapshot
	m.Saved = append(m.Saved, dateRange)
	return dateRange.FileName(), nil
}

func (m *MockFileManager) Load(name string) (models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.LoadErrs[name]; ok {
		return nil, err
	}
	snap, ok := m.Snapshots[name]
	if !ok {
		return nil, fmt.Errorf("snapshot %s: %w", name, os.ErrNotExist)
	}
	return snap, nil
}

func (m *MockFileManager) Close() {}

func (m *MockFileManager) List() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.Snapshots)+len(m.LoadErrs))
	for name := range m.Snapshots {
		names = append(names, name)
	}
	for name := range m.LoadErrs {
		if _, dup := m.Snapshots[name]; !dup {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
