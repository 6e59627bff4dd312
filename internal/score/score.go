// Package score persists per-player high scores.
package score

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"

	"github.com/tomz197/galaxyblaster/internal/loop/config"
)

// ErrInvalidUser is returned for empty or oversized user names.
var ErrInvalidUser = errors.New("invalid user name")

const (
	// LocalUser is the key used by the single-player binary.
	LocalUser = "local"
	// AnonymousUser keys logins that carry no user name.
	AnonymousUser = "anonymous"
)

// Entry is one row of the leaderboard.
type Entry struct {
	User  string `json:"user"`
	Score int    `json:"score"`
}

// Store keeps the best score per user.
type Store interface {
	Best(user string) (int, error)
	Submit(user string, score int) (bool, error)
	Top(n int) ([]Entry, error)
}

// ValidateUser trims the name and rejects empty or oversized ones.
func ValidateUser(user string) (string, error) {
	user = strings.TrimSpace(user)
	if user == "" || len(user) > config.MaxUsernameLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidUser, user)
	}
	return user, nil
}

// UserKey maps a login name to a valid store key. Names that fit are only
// trimmed; longer ones keep a prefix and get a hash suffix so distinct names
// keep distinct records.
func UserKey(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return AnonymousUser
	}
	if len(name) <= config.MaxUsernameLength {
		return name
	}
	suffix := fmt.Sprintf("~%06x", xxhash.Sum64String(name)&0xffffff)
	prefix := name[:config.MaxUsernameLength-len(suffix)]
	for !utf8.ValidString(prefix) {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix + suffix
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu     sync.RWMutex
	scores map[string]int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scores: make(map[string]int)}
}

// Best returns the user's best score, or 0 if none is recorded.
func (m *MemoryStore) Best(user string) (int, error) {
	user, err := ValidateUser(user)
	if err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scores[user], nil
}

// Submit records score if it beats the user's best and reports whether it did.
func (m *MemoryStore) Submit(user string, score int) (bool, error) {
	user, err := ValidateUser(user)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if score <= m.scores[user] {
		return false, nil
	}
	m.scores[user] = score
	return true, nil
}

// Top returns the n best entries.
func (m *MemoryStore) Top(n int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return top(m.scores, n), nil
}

// FileStore is a Store backed by a JSON file. A missing or malformed file
// reads as empty. Several processes may share the file; each picks up the
// others' writes on its next read.
type FileStore struct {
	mu      sync.Mutex
	path    string
	log     *log.Logger
	scores  map[string]int
	loaded  bool
	modTime time.Time
}

// NewFileStore creates a FileStore at path. The file is read lazily.
func NewFileStore(path string, logger *log.Logger) *FileStore {
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{path: path, log: logger}
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

// load reads the file on first use and again whenever another process has
// replaced it. Must hold mu.
func (f *FileStore) load() {
	info, statErr := os.Stat(f.path)
	if f.loaded && (statErr != nil || info.ModTime().Equal(f.modTime)) {
		return
	}
	f.loaded = true
	f.scores = make(map[string]int)
	if statErr == nil {
		f.modTime = info.ModTime()
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.log.Warn("reading high scores", "path", f.path, "err", err)
		}
		return
	}
	if err := json.Unmarshal(data, &f.scores); err != nil {
		f.log.Warn("ignoring malformed high score file", "path", f.path, "err", err)
		f.scores = make(map[string]int)
	}
}

// Best returns the user's best score from the file, or 0 if none is recorded.
func (f *FileStore) Best(user string) (int, error) {
	user, err := ValidateUser(user)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.load()
	return f.scores[user], nil
}

// Submit records score if it beats the user's best and writes the file.
func (f *FileStore) Submit(user string, score int) (bool, error) {
	user, err := ValidateUser(user)
	if err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.load()

	prev, had := f.scores[user]
	if score <= prev {
		return false, nil
	}
	f.scores[user] = score
	if err := f.write(); err != nil {
		if had {
			f.scores[user] = prev
		} else {
			delete(f.scores, user)
		}
		return false, err
	}
	return true, nil
}

// Top returns the n best entries in the file.
func (f *FileStore) Top(n int) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.load()
	return top(f.scores, n), nil
}

// write replaces the file atomically via a temp file in the same directory.
func (f *FileStore) write() error {
	data, err := json.MarshalIndent(f.scores, "", "  ")
	if err != nil {
		return fmt.Errorf("encode high scores: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create score dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".scores-*.json")
	if err != nil {
		return fmt.Errorf("create temp score file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write high scores: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close high scores: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace high scores: %w", err)
	}
	return nil
}

// top returns the n best entries, highest first, ties by user name.
// n <= 0 returns every entry.
func top(scores map[string]int, n int) []Entry {
	entries := make([]Entry, 0, len(scores))
	for u, s := range scores {
		entries = append(entries, Entry{User: u, Score: s})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.User, b.User)
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// UserStore binds a Store to one user so a game can load and save its record.
type UserStore struct {
	store Store
	user  string
}

// ForUser returns the game-facing view of store for user, keyed by UserKey.
func ForUser(store Store, user string) *UserStore {
	return &UserStore{store: store, user: UserKey(user)}
}

// User returns the store key the records are kept under.
func (u *UserStore) User() string { return u.user }

// Load returns the user's best score.
func (u *UserStore) Load() (int, error) {
	return u.store.Best(u.user)
}

// Save submits score; a score below the record is not an error.
func (u *UserStore) Save(score int) error {
	_, err := u.store.Submit(u.user, score)
	return err
}
