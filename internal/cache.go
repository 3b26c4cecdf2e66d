package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const cacheVersion = "1.0"

// Cache entry kinds
const (
	CacheKindUnread     = "unread"
	CacheKindTranscript = "transcript"
)

// CacheManager keeps the last unread list per business and the last
// transcript per conversation, so views can render stale data when the
// backend is unreachable.
type CacheManager struct {
	cacheDir string
}

// CacheMetadata stores metadata about the cache
type CacheMetadata struct {
	CacheVersion string    `json:"cache_version" yaml:"cache_version"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

// CacheIndexEntry describes one cached file
type CacheIndexEntry struct {
	Kind      string    `yaml:"kind"`
	Key       string    `yaml:"key"`
	File      string    `yaml:"file"`
	Count     int       `yaml:"count"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// CacheIndex is the YAML index of everything cached
type CacheIndex struct {
	Entries  []CacheIndexEntry `yaml:"entries"`
	Metadata CacheMetadata     `yaml:"metadata"`
}

// UnreadSnapshot is the cached unread list of one business account
type UnreadSnapshot struct {
	BusinessID ID              `yaml:"business_id"`
	FetchedAt  time.Time       `yaml:"fetched_at"`
	Items      []UnreadSummary `yaml:"items"`
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cacheDir string) *CacheManager {
	return &CacheManager{
		cacheDir: cacheDir,
	}
}

// EnsureCacheDir ensures the cache directory exists
func (cm *CacheManager) EnsureCacheDir() error {
	if err := os.MkdirAll(cm.cacheDir, 0755); err != nil {
		return &StorageError{Path: cm.cacheDir, Op: "mkdir", Err: err}
	}
	return nil
}

// GetCacheDir returns the cache directory path
func (cm *CacheManager) GetCacheDir() string {
	return cm.cacheDir
}

// GetIndexPath returns the path to the cache index YAML file
func (cm *CacheManager) GetIndexPath() string {
	return filepath.Join(cm.cacheDir, "index.yaml")
}

// GetUnreadPath returns the path of a business's cached unread list
func (cm *CacheManager) GetUnreadPath(businessID ID) string {
	return filepath.Join(cm.cacheDir, fmt.Sprintf("unread_%s.yaml", safeName(string(businessID))))
}

// GetTranscriptPath returns the path of a conversation's cached transcript
func (cm *CacheManager) GetTranscriptPath(a, b ID) string {
	key := strings.ReplaceAll(ConversationKey(a, b), ":", "_")
	return filepath.Join(cm.cacheDir, fmt.Sprintf("transcript_%s.json", safeName(key)))
}

// LoadIndex loads the cache index
func (cm *CacheManager) LoadIndex() (*CacheIndex, error) {
	indexPath := cm.GetIndexPath()
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, err
	}

	var index CacheIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, &StorageError{Path: indexPath, Op: "decode", Err: err}
	}

	return &index, nil
}

// SaveIndex saves the cache index
func (cm *CacheManager) SaveIndex(index *CacheIndex) error {
	if err := cm.EnsureCacheDir(); err != nil {
		return err
	}

	indexPath := cm.GetIndexPath()
	data, err := yaml.Marshal(index)
	if err != nil {
		return &StorageError{Path: indexPath, Op: "encode", Err: err}
	}

	if err := os.WriteFile(indexPath, data, 0644); err != nil {
		return &StorageError{Path: indexPath, Op: "write", Err: err}
	}
	return nil
}

// SaveUnread caches the unread list of a business account
func (cm *CacheManager) SaveUnread(businessID ID, items []UnreadSummary) error {
	if err := cm.EnsureCacheDir(); err != nil {
		return err
	}

	snapshot := UnreadSnapshot{
		BusinessID: businessID,
		FetchedAt:  time.Now(),
		Items:      items,
	}
	path := cm.GetUnreadPath(businessID)
	data, err := yaml.Marshal(&snapshot)
	if err != nil {
		return &StorageError{Path: path, Op: "encode", Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}

	return cm.updateIndex(CacheKindUnread, string(businessID), path, len(items))
}

// LoadUnread returns the cached unread list, or nil when none is cached
func (cm *CacheManager) LoadUnread(businessID ID) (*UnreadSnapshot, error) {
	path := cm.GetUnreadPath(businessID)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}

	var snapshot UnreadSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, &StorageError{Path: path, Op: "decode", Err: err}
	}
	return &snapshot, nil
}

// SaveTranscript caches a conversation transcript
func (cm *CacheManager) SaveTranscript(transcript *Transcript) error {
	if err := cm.EnsureCacheDir(); err != nil {
		return err
	}

	path := cm.GetTranscriptPath(transcript.SenderID, transcript.ReceiverID)
	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return &StorageError{Path: path, Op: "encode", Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}

	return cm.updateIndex(CacheKindTranscript, transcript.Key(), path, len(transcript.Messages))
}

// LoadTranscript returns the cached transcript between a and b, or nil when
// none is cached
func (cm *CacheManager) LoadTranscript(a, b ID) (*Transcript, error) {
	path := cm.GetTranscriptPath(a, b)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}

	var transcript Transcript
	if err := json.Unmarshal(data, &transcript); err != nil {
		return nil, &StorageError{Path: path, Op: "decode", Err: err}
	}
	return &transcript, nil
}

// updateIndex adds or replaces the index entry for kind/key
func (cm *CacheManager) updateIndex(kind, key, path string, count int) error {
	now := time.Now()
	index, err := cm.LoadIndex()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			LogWarn("Cache index unreadable, rebuilding: %v", err)
		}
		index = &CacheIndex{
			Entries: make([]CacheIndexEntry, 0),
			Metadata: CacheMetadata{
				CacheVersion: cacheVersion,
				CreatedAt:    now,
			},
		}
	}
	index.Metadata.UpdatedAt = now

	entry := CacheIndexEntry{
		Kind:      kind,
		Key:       key,
		File:      filepath.Base(path),
		Count:     count,
		UpdatedAt: now,
	}

	found := false
	for i, existing := range index.Entries {
		if existing.Kind == kind && existing.Key == key {
			index.Entries[i] = entry
			found = true
			break
		}
	}
	if !found {
		index.Entries = append(index.Entries, entry)
	}

	return cm.SaveIndex(index)
}

// ClearCache removes every cached file and the index
func (cm *CacheManager) ClearCache() error {
	indexPath := cm.GetIndexPath()

	index, err := cm.LoadIndex()
	if err == nil {
		for _, entry := range index.Entries {
			_ = os.Remove(filepath.Join(cm.cacheDir, entry.File))
		}
	}

	if err := os.Remove(indexPath); err != nil && !os.IsNotExist(err) {
		return &StorageError{Path: indexPath, Op: "remove", Err: err}
	}

	return nil
}

// safeName keeps ids usable as file name fragments
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}
