package sessionstore

import "fmt"

const currentSchemaVersion = 1

// fileSchema is the on-disk layout. Primary is the live session slot; Backup
// mirrors it on every save so a corrupted or expired primary can be healed
// without a fresh login.
type fileSchema struct {
	Version  int         `toml:"version"`
	DeviceID string      `toml:"device_id,omitempty"`
	Primary  *slotSchema `toml:"primary,omitempty"`
	Backup   *slotSchema `toml:"backup,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported session schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type slotSchema struct {
	SessionString string `toml:"session_string"`
	Timestamp     int64  `toml:"timestamp"` // unix milliseconds
	UserID        string `toml:"user_id,omitempty"`
	PhoneNumber   string `toml:"phone_number,omitempty"`
	DeviceID      string `toml:"device_id,omitempty"`
}

func (s *slotSchema) empty() bool {
	return s == nil || s.SessionString == ""
}
