// Package session holds the auth cookies the backend client sends with
// every request.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/giftwise/giftwise/internal/utils"
)

// Cookie names, shared with the web panel.
const (
	CookieToken = "authToken"
	CookieUser  = "userId"
	CookieOrg   = "organizationId"
)

// AuthCookies lists every cookie cleared when the session expires.
var AuthCookies = []string{CookieToken, CookieUser, CookieOrg}

// ErrNoSession is returned by Load when no token is stored.
var ErrNoSession = errors.New("not logged in (run 'giftwise login')")

// Session is the read-only identity passed to services.
type Session struct {
	Token          string
	UserID         string
	OrganizationID string
}

func (s Session) Valid() bool {
	return s.Token != "" && s.UserID != "" && s.OrganizationID != ""
}

// Store persists auth cookies.
type Store interface {
	Load() (Session, error)
	Save(s Session) error
	// Clear removes every auth cookie.
	Clear() error
}

// FileStore keeps cookies as a JSON object in a file, guarded by a lock file
// so concurrent giftwise processes do not clobber each other.
type FileStore struct {
	path string
	lock *utils.FileLock
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: utils.NewFileLock(path)}
}

func (f *FileStore) readCookies() (map[string]string, error) {
	cookies := map[string]string{}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return cookies, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return cookies, nil
	}
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", f.path, err)
	}
	return cookies, nil
}

func (f *FileStore) writeCookies(cookies map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) Load() (Session, error) {
	if err := f.lock.Lock(); err != nil {
		return Session{}, err
	}
	defer f.lock.Unlock()

	cookies, err := f.readCookies()
	if err != nil {
		return Session{}, err
	}
	s := Session{
		Token:          cookies[CookieToken],
		UserID:         cookies[CookieUser],
		OrganizationID: cookies[CookieOrg],
	}
	if s.Token == "" {
		return Session{}, ErrNoSession
	}
	return s, nil
}

func (f *FileStore) Save(s Session) error {
	if err := f.lock.Lock(); err != nil {
		return err
	}
	defer f.lock.Unlock()

	cookies, err := f.readCookies()
	if err != nil {
		return err
	}
	cookies[CookieToken] = s.Token
	cookies[CookieUser] = s.UserID
	cookies[CookieOrg] = s.OrganizationID
	return f.writeCookies(cookies)
}

func (f *FileStore) Clear() error {
	if err := f.lock.Lock(); err != nil {
		return err
	}
	defer f.lock.Unlock()

	cookies, err := f.readCookies()
	if err != nil {
		return err
	}
	for _, name := range AuthCookies {
		delete(cookies, name)
	}
	return f.writeCookies(cookies)
}

// MemoryStore is a Store for tests and one-shot runs with a token from flags.
type MemoryStore struct {
	Session Session
	Cleared bool
}

func (m *MemoryStore) Load() (Session, error) {
	if m.Session.Token == "" {
		return Session{}, ErrNoSession
	}
	return m.Session, nil
}

func (m *MemoryStore) Save(s Session) error {
	m.Session = s
	m.Cleared = false
	return nil
}

func (m *MemoryStore) Clear() error {
	m.Session = Session{}
	m.Cleared = true
	return nil
}
