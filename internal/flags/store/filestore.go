package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
)

// debounceDelay batches bursts of filesystem events into one change signal.
const debounceDelay = 100 * time.Millisecond

// FileStore persists overrides as a flat JSON object, one entry per key.
// Writes are atomic (temp file + rename). The containing directory is
// watched with fsnotify so writes by other processes surface on Changes;
// this process's own writes are recognized by content hash and suppressed,
// since Set and Delete already signal directly.
type FileStore struct {
	path      string
	fsWatcher *fsnotify.Watcher

	mu        sync.Mutex
	lastWrite uint64 // xxhash of the bytes this process last wrote
	closed    bool

	changes  chan struct{}
	stop     chan struct{}
	debounce *time.Timer
}

// NewFileStore opens (or creates the directory for) the JSON store at path
// and starts watching it for external changes.
func NewFileStore(path string) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: watcher: %w", err)
	}
	// Watch the directory, not the file: atomic rename-replace would
	// otherwise drop the watch.
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("store: watch %s: %w", dir, err)
	}

	s := &FileStore{
		path:      path,
		fsWatcher: fsw,
		changes:   make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}

	go s.run()
	return s, nil
}

func (s *FileStore) Get(key string) (string, bool, error) {
	data, err := s.readAll()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readAllLocked()
	if err != nil {
		return err
	}
	data[key] = value
	if err := s.writeAllLocked(data); err != nil {
		return err
	}
	s.signalLocked()
	return nil
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readAllLocked()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	if err := s.writeAllLocked(data); err != nil {
		return err
	}
	s.signalLocked()
	return nil
}

func (s *FileStore) Keys(prefix string) ([]string, error) {
	data, err := s.readAll()
	if err != nil {
		return nil, err
	}
	var keys []string
	for k := range data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *FileStore) Changes() <-chan struct{} {
	return s.changes
}

func (s *FileStore) Close() error {
	close(s.stop)
	return s.fsWatcher.Close()
}

func (s *FileStore) readAll() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAllLocked()
}

func (s *FileStore) readAllLocked() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", s.path, err)
	}
	data := make(map[string]string)
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileStore) writeAllLocked(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".overrides-*")
	if err != nil {
		return fmt.Errorf("store: temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("store: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: replace %s: %w", s.path, err)
	}

	s.lastWrite = xxhash.Sum64(raw)
	return nil
}

// run turns raw filesystem events into debounced change signals, dropping
// events caused by this process's own writes.
func (s *FileStore) run() {
	defer func() {
		s.mu.Lock()
		s.closed = true
		if s.debounce != nil {
			s.debounce.Stop()
		}
		s.mu.Unlock()
		close(s.changes)
	}()

	base := filepath.Base(s.path)
	for {
		select {
		case <-s.stop:
			return
		case event, ok := <-s.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}

			s.mu.Lock()
			if s.debounce != nil {
				s.debounce.Stop()
			}
			s.debounce = time.AfterFunc(debounceDelay, s.maybeSignal)
			s.mu.Unlock()
		case _, ok := <-s.fsWatcher.Errors:
			if !ok {
				return
			}
			// Keep watching; a missed event degrades to a stale read
		}
	}
}

// maybeSignal fires a change signal unless the file still holds the bytes
// this process last wrote.
func (s *FileStore) maybeSignal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if raw, err := os.ReadFile(s.path); err == nil && xxhash.Sum64(raw) == s.lastWrite {
		return
	}
	s.signalLocked()
}

func (s *FileStore) signalLocked() {
	if s.closed {
		return
	}
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
