// Package file implements flat JSON file persistence: the achievement
// backend plus the small keyed stores used by the bot plugins. Every write
// is a full rewrite of the backing file through a temp-file rename, so a
// crash mid-write never leaves a truncated store behind.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadJSON reads the file into v. It reports false (and no error) when the
// file does not exist, so callers can fall back to defaults.
func LoadJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("file: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("file: parse %s: %w", path, err)
	}
	return true, nil
}

// SaveJSON writes v as indented JSON, creating parent directories as needed.
// The write goes to a temp file in the same directory followed by a rename.
func SaveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("file: mkdir for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("file: marshal %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("file: temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file: close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file: rename %s: %w", path, err)
	}
	return nil
}

// EnsureFile creates the file with the given default content when it does
// not exist yet. Used at startup to bootstrap empty data files.
func EnsureFile(path string, defaultValue any) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("file: stat %s: %w", path, err)
	}
	return SaveJSON(path, defaultValue)
}
