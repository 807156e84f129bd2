package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS overrides (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLiteStore persists overrides in a single-table SQLite database. It
// serves installs that already share a CareGuide database between tools;
// FileStore remains the default backend. External writes are detected by
// watching the database file (and its WAL) with fsnotify.
type SQLiteStore struct {
	db        *sql.DB
	path      string
	fsWatcher *fsnotify.Watcher

	changes  chan struct{}
	stop     chan struct{}
	debounce *time.Timer
	mu       sync.Mutex
	closed   bool
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		db.Close()
		return nil, fmt.Errorf("store: watch %s: %w", dir, err)
	}

	s := &SQLiteStore{
		db:        db,
		path:      path,
		fsWatcher: fsw,
		changes:   make(chan struct{}, 1),
		stop:      make(chan struct{}),
	}

	go s.run()
	return s, nil
}

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM overrides WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO overrides (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	s.signal()
	return nil
}

func (s *SQLiteStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM overrides WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	s.signal()
	return nil
}

func (s *SQLiteStore) Keys(prefix string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT key FROM overrides WHERE key LIKE ? ESCAPE '\'`, likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("store: keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("store: keys: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) Changes() <-chan struct{} {
	return s.changes
}

func (s *SQLiteStore) Close() error {
	close(s.stop)
	s.fsWatcher.Close()
	return s.db.Close()
}

// run debounces filesystem events on the database file into change signals.
// Own writes also show up here; the flags layer dedupes by resolved value,
// so the duplicate signal is harmless.
func (s *SQLiteStore) run() {
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
			// The WAL and SHM files change on every commit too.
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}

			s.mu.Lock()
			if s.debounce != nil {
				s.debounce.Stop()
			}
			s.debounce = time.AfterFunc(debounceDelay, s.signal)
			s.mu.Unlock()
		case _, ok := <-s.fsWatcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (s *SQLiteStore) signal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// likePrefix escapes LIKE metacharacters so prefix matches literally.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
