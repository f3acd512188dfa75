package sessionstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName      = "config"
	configType      = "toml"
	sessionPathKey  = "session.path"
	sessionFileMode = 0o600
	sessionDirMode  = 0o700
	configDir       = ".telegate"
	sessionFile     = "session.toml"
	tempFilePattern = ".session-*.toml.tmp"

	// maxAge is how long a stored session is trusted before the caller must
	// log in again.
	maxAge = 30 * 24 * time.Hour

	// deviceIDPrefix marks records written by this store, so diagnostics can
	// tell them apart from records produced by other consumers.
	deviceIDPrefix = "cli_"
)

// ErrNoSession is returned by Load when neither slot holds a usable session.
var ErrNoSession = errors.New("no stored session")

// errCorruptFile marks an undecodable session file. Corruption is treated as
// both slots being absent, never as a hard failure.
var errCorruptFile = errors.New("corrupt session file")

// Store persists the session token on disk with a primary slot and a backup
// mirror. All mutations rewrite the whole file atomically.
type Store struct {
	path    string
	mu      *sync.RWMutex
	nowTime func() time.Time
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

// Option configures the Store.
type Option func(*Store)

// WithNowFunc overrides the clock, for expiry tests.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = now
	}
}

// New resolves the session file location through viper (config key
// "session.path", default ~/.telegate/session.toml) and returns a store bound
// to it.
func New(cfg *viper.Viper, options ...Option) (*Store, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, configDir, sessionFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	cfg.SetDefault(sessionPathKey, defaultPath)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	sessionPath := cfg.GetString(sessionPathKey)
	if sessionPath == "" {
		return nil, errors.New("session path is empty")
	}
	sessionPath, err = normalizePath(sessionPath)
	if err != nil {
		return nil, err
	}

	s := &Store{path: sessionPath, mu: lockForPath(sessionPath), nowTime: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Save writes the session into the primary slot and mirrors it to the backup.
// The device id is generated once and survives clears.
func (s *Store) Save(sessionString, userID, phoneNumber string) error {
	if sessionString == "" {
		return errors.New("session string is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if errors.Is(err, errCorruptFile) {
		// A fresh save supersedes whatever the corrupt file held.
		file = fileSchema{}
	} else if err != nil {
		return err
	}
	if file.DeviceID == "" {
		file.DeviceID = deviceIDPrefix + uuid.NewString()
	}

	slot := &slotSchema{
		SessionString: sessionString,
		Timestamp:     s.nowTime().UnixMilli(),
		UserID:        userID,
		PhoneNumber:   phoneNumber,
		DeviceID:      file.DeviceID,
	}
	file.Primary = slot
	mirror := *slot
	file.Backup = &mirror

	return s.writeSchema(file)
}

// Load returns the stored session string. An expired or missing primary falls
// back to the backup; a usable backup is copied back into the primary slot.
// When neither slot is usable both are cleared and ErrNoSession is returned.
// An undecodable file counts as both slots corrupt: it is removed outright so
// no partial leftovers survive.
func (s *Store) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if errors.Is(err, errCorruptFile) {
		if rerr := s.removeFile(); rerr != nil {
			return "", rerr
		}
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}

	if s.usable(file.Primary) {
		return file.Primary.SessionString, nil
	}

	if s.usable(file.Backup) {
		restored := *file.Backup
		file.Primary = &restored
		if werr := s.writeSchema(file); werr != nil {
			// The backup is still readable even if the heal failed.
			return file.Backup.SessionString, nil
		}
		return restored.SessionString, nil
	}

	if !file.Primary.empty() || !file.Backup.empty() {
		file.Primary = nil
		file.Backup = nil
		_ = s.writeSchema(file)
	}

	return "", ErrNoSession
}

// Clear drops both session slots. The device id is kept. Clearing an empty,
// missing or corrupt file succeeds.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if errors.Is(err, errCorruptFile) {
		return s.removeFile()
	}
	if err != nil {
		return err
	}
	if file.Primary == nil && file.Backup == nil {
		return nil
	}

	file.Primary = nil
	file.Backup = nil
	return s.writeSchema(file)
}

// Refresh stamps both slots with the current time, extending the expiry
// window without touching the session material.
func (s *Store) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if errors.Is(err, errCorruptFile) {
		if rerr := s.removeFile(); rerr != nil {
			return rerr
		}
		return ErrNoSession
	}
	if err != nil {
		return err
	}
	if file.Primary.empty() {
		return ErrNoSession
	}

	now := s.nowTime().UnixMilli()
	file.Primary.Timestamp = now
	if !file.Backup.empty() {
		file.Backup.Timestamp = now
	}
	return s.writeSchema(file)
}

// RestoreFromBackup copies the backup slot over the primary regardless of the
// primary's state. It reports whether a restore happened.
func (s *Store) RestoreFromBackup() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if errors.Is(err, errCorruptFile) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !s.usable(file.Backup) {
		return false, nil
	}

	restored := *file.Backup
	file.Primary = &restored
	if err := s.writeSchema(file); err != nil {
		return false, err
	}
	return true, nil
}

// SlotInfo describes one stored slot without exposing the session material.
type SlotInfo struct {
	Present     bool
	Expired     bool
	Age         time.Duration
	UserID      string
	PhoneNumber string
}

// Diagnostics is a read-only snapshot of the store state.
type Diagnostics struct {
	Path     string
	DeviceID string
	Primary  SlotInfo
	Backup   SlotInfo
}

// Diagnostics reports the state of both slots. It never mutates the file, so
// it is safe to run while debugging a broken store.
func (s *Store) Diagnostics() (Diagnostics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if errors.Is(err, errCorruptFile) {
		// Undecodable means both slots read as absent; cleanup is Load's job.
		return Diagnostics{Path: s.path}, nil
	}
	if err != nil {
		return Diagnostics{}, err
	}

	return Diagnostics{
		Path:     s.path,
		DeviceID: file.DeviceID,
		Primary:  s.slotInfo(file.Primary),
		Backup:   s.slotInfo(file.Backup),
	}, nil
}

func (s *Store) slotInfo(slot *slotSchema) SlotInfo {
	if slot.empty() {
		return SlotInfo{}
	}
	age := s.nowTime().Sub(time.UnixMilli(slot.Timestamp))
	return SlotInfo{
		Present:     true,
		Expired:     age > maxAge,
		Age:         age,
		UserID:      slot.UserID,
		PhoneNumber: slot.PhoneNumber,
	}
}

func (s *Store) usable(slot *slotSchema) bool {
	if slot.empty() {
		return false
	}
	return s.nowTime().Sub(time.UnixMilli(slot.Timestamp)) <= maxAge
}

func (s *Store) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read session file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("%w: %v", errCorruptFile, err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (s *Store) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(s.path), sessionDirMode); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}

	if err := tempFile.Chmod(sessionFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(s.path, sessionFileMode); err != nil {
		return fmt.Errorf("chmod session file: %w", err)
	}

	return nil
}

// removeFile deletes the session file outright; a missing file is fine.
func (s *Store) removeFile() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve session path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
