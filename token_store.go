package voteclient

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-errors"
)

// Storage keys, mirrored from the browser dashboard's persisted state.
const (
	StorageKeyAuthToken    = "authToken"
	StorageKeyRefreshToken = "refreshToken"
)

// MemoryTokenStore keeps credentials in process memory. Useful for tests and
// short-lived tooling where persistence across restarts is not wanted.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	token   string
	refresh string
}

var _ RefreshTokenStore = (*MemoryTokenStore)(nil)

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Get() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.refresh = ""
	return nil
}

func (s *MemoryTokenStore) GetRefresh() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh, nil
}

func (s *MemoryTokenStore) SetRefresh(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = token
	return nil
}

// FileTokenStore persists credentials as a small JSON document, the durable
// analogue of the dashboard's local storage. A missing file reads as "no
// token"; writes create the parent directory and use owner-only permissions.
type FileTokenStore struct {
	path string

	mu    sync.RWMutex
	creds map[string]string
}

var _ RefreshTokenStore = (*FileTokenStore)(nil)

func NewFileTokenStore(path string) (*FileTokenStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("token store file path is required", errors.CategoryBadInput)
	}

	s := &FileTokenStore{
		path:  path,
		creds: make(map[string]string),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileTokenStore) Get() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds[StorageKeyAuthToken], nil
}

func (s *FileTokenStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[StorageKeyAuthToken] = token
	return s.persistLocked()
}

func (s *FileTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, StorageKeyAuthToken)
	delete(s.creds, StorageKeyRefreshToken)
	return s.persistLocked()
}

func (s *FileTokenStore) GetRefresh() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds[StorageKeyRefreshToken], nil
}

func (s *FileTokenStore) SetRefresh(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[StorageKeyRefreshToken] = token
	return s.persistLocked()
}

func (s *FileTokenStore) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, errors.CategoryInternal, "unable to read token store file")
	}
	if len(b) == 0 {
		return nil
	}

	decoded := map[string]string{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to decode token store file")
	}
	for k, v := range decoded {
		if v != "" {
			s.creds[k] = v
		}
	}
	return nil
}

func (s *FileTokenStore) persistLocked() error {
	b, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to encode token store file")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to create token store dir")
	}
	if err := os.WriteFile(s.path, b, 0o600); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to write token store file")
	}
	return nil
}
