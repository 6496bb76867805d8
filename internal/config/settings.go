package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/modlay/internal/fsops"
)

// Settings is the user-level configuration persisted in settings.yaml.
type Settings struct {
	// InstallRoot is the game installation directory overlays are applied to
	InstallRoot string `yaml:"installRoot,omitempty"`
}

// SettingsStore loads and saves Settings as YAML.
type SettingsStore struct {
	fs   fsops.FS
	path string
}

// NewSettingsStore creates a SettingsStore for the file at path.
func NewSettingsStore(fs fsops.FS, path string) *SettingsStore {
	return &SettingsStore{fs: fs, path: path}
}

// Load reads the settings file. A missing file yields zero Settings.
func (s *SettingsStore) Load() (*Settings, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", s.path, err)
	}
	settings.InstallRoot = strings.TrimSpace(settings.InstallRoot)

	return &settings, nil
}

// Save writes the settings file atomically.
func (s *SettingsStore) Save(settings *Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := s.fs.AtomicWrite(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}

// InstallRoot returns the configured installation root, or "" when unset.
// It satisfies the engine's install-root provider contract.
func (s *SettingsStore) InstallRoot() (string, error) {
	settings, err := s.Load()
	if err != nil {
		return "", err
	}
	return settings.InstallRoot, nil
}

// SetInstallRoot persists a new installation root.
func (s *SettingsStore) SetInstallRoot(root string) error {
	settings, err := s.Load()
	if err != nil {
		return err
	}
	settings.InstallRoot = root
	return s.Save(settings)
}
