// Package prefs persists user preferences that change at runtime, such as
// the speech recognition language.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

const (
	FileName = "preferences.yaml"

	keyLanguage = "speech.language"
)

// Store is a YAML preferences file. It implements the orchestrator's
// LanguageStore.
type Store struct {
	mu    sync.Mutex
	path  string
	viper *viper.Viper
}

// Open reads the preferences at path. A missing file is treated as empty
// and created on the first save.
func Open(path string) (*Store, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read preferences %s: %w", path, err)
	}

	return &Store{path: path, viper: v}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) LoadLanguage() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viper.GetString(keyLanguage), nil
}

func (s *Store) SaveLanguage(language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viper.Set(keyLanguage, language)
	return s.write()
}

func (s *Store) write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	if err := s.viper.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write preferences %s: %w", s.path, err)
	}
	return nil
}
