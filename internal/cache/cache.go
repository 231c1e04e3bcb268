// Package cache is a content-addressed byte store with a memory tier and a
// gob-encoded disk tier under the user cache directory. Artwork bytes and
// lyrics text share one store, separated by namespace.
package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	storeVersion = 1
	cacheDirName = "pixwatch"

	// namespaces used by the fetch pipeline
	NamespaceArtwork = "artwork"
	NamespaceLyrics  = "lyrics"
)

var (
	ErrMiss    = errors.New("cache miss")
	ErrExpired = errors.New("cache expired")
	ErrCorrupt = errors.New("cache corrupt")
)

type entry struct {
	Version   uint8
	Payload   []byte
	CreatedAt int64
	ExpiresAt int64
}

type Store struct {
	basePath string
	mu       sync.RWMutex
	mem      map[string]*entry
}

var (
	globalStore     *Store
	globalStoreOnce sync.Once
)

// GetGlobal returns the process-wide store. Falls back to memory-only when
// no cache directory can be resolved.
func GetGlobal() *Store {
	globalStoreOnce.Do(func() {
		store, err := New()
		if err != nil {
			store = &Store{mem: make(map[string]*entry)}
		}
		globalStore = store
	})
	return globalStore
}

func New() (*Store, error) {
	dir, err := cacheDirectory()
	if err != nil {
		return nil, err
	}
	return NewAt(dir)
}

// NewAt opens a store rooted at an explicit directory.
func NewAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Store{
		basePath: dir,
		mem:      make(map[string]*entry),
	}, nil
}

func cacheDirectory() (string, error) {
	// xdg cache home takes priority
	xdgCache := os.Getenv("XDG_CACHE_HOME")
	if xdgCache != "" {
		return filepath.Join(xdgCache, cacheDirName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".cache", cacheDirName), nil
}

// Key derives a stable content address from the given parts.
func Key(parts ...string) string {
	joined := strings.ToLower(strings.Join(parts, "|"))
	hash := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(hash[:16])
}

func (s *Store) Dir() string {
	return s.basePath
}

func (s *Store) filePath(namespace, key string) string {
	if s.basePath == "" {
		return ""
	}
	return filepath.Join(s.basePath, namespace, key+".bin")
}

func (s *Store) Get(namespace, key string) ([]byte, error) {
	if namespace == "" || key == "" {
		return nil, ErrMiss
	}

	memKey := namespace + "/" + key

	s.mu.RLock()
	e, exists := s.mem[memKey]
	s.mu.RUnlock()

	if exists {
		if e.ExpiresAt > time.Now().Unix() {
			return e.Payload, nil
		}
		s.mu.Lock()
		delete(s.mem, memKey)
		s.mu.Unlock()
	}

	if s.basePath == "" {
		return nil, ErrMiss
	}

	filePath := s.filePath(namespace, key)
	e, err := readFromDisk(filePath)
	if err != nil {
		return nil, err
	}

	if e.ExpiresAt <= time.Now().Unix() {
		_ = os.Remove(filePath)
		return nil, ErrExpired
	}

	s.mu.Lock()
	s.mem[memKey] = e
	s.mu.Unlock()

	return e.Payload, nil
}

func (s *Store) Put(namespace, key string, payload []byte, ttl time.Duration) error {
	if namespace == "" || key == "" {
		return errors.New("invalid cache key")
	}

	now := time.Now().Unix()
	e := &entry{
		Version:   storeVersion,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now + int64(ttl/time.Second),
	}

	s.mu.Lock()
	s.mem[namespace+"/"+key] = e
	s.mu.Unlock()

	if s.basePath == "" {
		return nil
	}

	filePath := s.filePath(namespace, key)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return writeToDisk(filePath, e)
}

func (s *Store) Delete(namespace, key string) error {
	if namespace == "" || key == "" {
		return errors.New("invalid cache key")
	}

	s.mu.Lock()
	delete(s.mem, namespace+"/"+key)
	s.mu.Unlock()

	if s.basePath == "" {
		return nil
	}

	err := os.Remove(s.filePath(namespace, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func readFromDisk(filePath string) (*entry, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, err
	}
	defer file.Close()

	var e entry
	if err := gob.NewDecoder(file).Decode(&e); err != nil {
		// undecodable entries count as misses and are removed
		_ = os.Remove(filePath)
		return nil, ErrCorrupt
	}

	if e.Version != storeVersion {
		_ = os.Remove(filePath)
		return nil, ErrCorrupt
	}

	return &e, nil
}

func writeToDisk(filePath string, e *entry) error {
	// write to temp file first, then rename for atomicity
	tmpPath := filePath + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(file).Encode(e); err != nil {
		file.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, filePath)
}

func (s *Store) Clear() error {
	s.mu.Lock()
	s.mem = make(map[string]*entry)
	s.mu.Unlock()

	if s.basePath == "" {
		return nil
	}

	return s.walkEntries(func(filePath string) {
		_ = os.Remove(filePath)
	})
}

// Prune removes expired and unreadable entries, returning how many.
func (s *Store) Prune() (int, error) {
	if s.basePath == "" {
		return 0, nil
	}

	pruned := 0
	now := time.Now().Unix()
	err := s.walkEntries(func(filePath string) {
		e, err := readFromDisk(filePath)
		if err != nil {
			_ = os.Remove(filePath)
			pruned++
			return
		}
		if e.ExpiresAt <= now {
			_ = os.Remove(filePath)
			pruned++
		}
	})
	return pruned, err
}

func (s *Store) Stats() (count int, sizeBytes int64, err error) {
	if s.basePath == "" {
		return 0, 0, nil
	}

	err = s.walkEntries(func(filePath string) {
		info, err := os.Stat(filePath)
		if err != nil {
			return
		}
		count++
		sizeBytes += info.Size()
	})
	return count, sizeBytes, err
}

func (s *Store) walkEntries(fn func(filePath string)) error {
	namespaces, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, ns := range namespaces {
		if !ns.IsDir() {
			continue
		}
		dir := filepath.Join(s.basePath, ns.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".bin") {
				continue
			}
			fn(filepath.Join(dir, f.Name()))
		}
	}
	return nil
}
