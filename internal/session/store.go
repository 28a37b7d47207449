package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gofrs/flock"
)

// Key фиксированный ключ записи внутри кэша клиента
const Key = "interviewInfo"

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Store локальный долговечный кэш незавершенных сессий.
// Один JSON файл на клиента, запись защищена файловой блокировкой.
type Store struct {
	dir string
}

// NewStore создает кэш в каталоге dir
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

type entry struct {
	Key     string            `json:"key"`
	Session *InterviewSession `json:"session"`
}

// Save сохраняет сессию клиента, перезаписывая предыдущую
func (s *Store) Save(clientID string, sess *InterviewSession) error {
	path, err := s.path(clientID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entry{Key: Key, Session: sess}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.withLock(path, func() error {
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o600); err != nil {
			return fmt.Errorf("write session: %w", err)
		}
		return os.Rename(tmp, path)
	})
}

// Load возвращает сессию, только если она принадлежит interviewID.
// При несовпадении или битых данных запись удаляется.
func (s *Store) Load(clientID, interviewID string) (*InterviewSession, error) {
	path, err := s.path(clientID)
	if err != nil {
		return nil, err
	}

	var (
		stored  entry
		invalid bool
	)
	err = s.withLock(path, func() error {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNoSession
		}
		if err != nil {
			return fmt.Errorf("read session: %w", err)
		}
		if err := json.Unmarshal(data, &stored); err != nil || stored.Key != Key || stored.Session == nil {
			invalid = true
			return os.Remove(path)
		}
		if stored.Session.InterviewID != interviewID {
			invalid = true
			return os.Remove(path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if invalid {
		return nil, ErrSessionMismatch
	}
	return stored.Session, nil
}

// Clear удаляет сессию клиента. Отсутствие записи не ошибка.
func (s *Store) Clear(clientID string) error {
	path, err := s.path(clientID)
	if err != nil {
		return err
	}
	return s.withLock(path, func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove session: %w", err)
		}
		return nil
	})
}

// ValidClientID сообщает, можно ли использовать строку как ключ клиента
func ValidClientID(clientID string) bool {
	return clientIDPattern.MatchString(clientID)
}

func (s *Store) path(clientID string) (string, error) {
	if !ValidClientID(clientID) {
		return "", fmt.Errorf("invalid client id %q", clientID)
	}
	return filepath.Join(s.dir, clientID+".json"), nil
}

func (s *Store) withLock(path string, fn func() error) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock session file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}
