package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// ErrNotInitialized is returned by FileStore before Init.
var ErrNotInitialized = errors.New("config not initialized")

// FileStore persists string keys in the config file. It backs the durable
// table session identity.
type FileStore struct{}

// Store returns the file-backed key-value store.
func Store() FileStore {
	return FileStore{}
}

// Get returns the stored value for key, or "".
func (FileStore) Get(key string) string {
	mu.RLock()
	defer mu.RUnlock()
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// Set writes every pair and then saves the file once.
func (FileStore) Set(values map[string]string) error {
	mu.Lock()
	defer mu.Unlock()
	if v == nil {
		return ErrNotInitialized
	}
	return persist(values)
}

// Delete blanks the keys and saves the file.
func (FileStore) Delete(keys ...string) error {
	mu.Lock()
	defer mu.Unlock()
	if v == nil {
		return ErrNotInitialized
	}
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		values[key] = ""
	}
	return persist(values)
}

// persist writes values into the config file and refreshes cfg. The file is
// reloaded on its own so env and flag overrides never reach disk. Callers
// hold mu.
func persist(values map[string]string) error {
	file := viper.New()
	file.SetConfigFile(configPath)
	file.SetConfigType("yaml")
	if err := file.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	for key, val := range values {
		file.Set(key, val)
		v.Set(key, val)
	}
	if err := file.WriteConfig(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	next := &Config{}
	if err := v.Unmarshal(next); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	cfg = next
	return nil
}
