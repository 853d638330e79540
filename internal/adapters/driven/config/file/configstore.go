package file

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// DefaultDirName is the configuration directory under the user's home.
const DefaultDirName = ".auditrag"

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Keys are held flat in dot notation and written back as nested tables,
// so "llm.provider" is stored under [llm].
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// DefaultDir returns ~/.auditrag.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultDirName), nil
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.auditrag/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}

	if err := s.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return s, nil
}

// Get retrieves a configuration value by key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	return val, ok
}

// GetString retrieves a string configuration value.
func (s *ConfigStore) GetString(key string) string {
	val, ok := s.Get(key)
	if !ok {
		return ""
	}

	str, ok := val.(string)
	if !ok {
		return ""
	}
	return str
}

// GetInt retrieves an integer configuration value.
func (s *ConfigStore) GetInt(key string) int {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	// TOML integers are parsed as int64
	switch v := val.(type) {
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// GetFloat retrieves a floating point configuration value.
func (s *ConfigStore) GetFloat(key string) float64 {
	val, ok := s.Get(key)
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// GetBool retrieves a boolean configuration value.
func (s *ConfigStore) GetBool(key string) bool {
	val, ok := s.Get(key)
	if !ok {
		return false
	}

	b, ok := val.(bool)
	if !ok {
		return false
	}
	return b
}

// GetStringSlice retrieves a string slice configuration value.
func (s *ConfigStore) GetStringSlice(key string) []string {
	val, ok := s.Get(key)
	if !ok {
		return nil
	}

	// TOML arrays are parsed as []any
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}

// Keys returns every stored key, sorted.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set stores a configuration value and persists immediately.
// On a write failure the previous value is restored.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = value
	if err := s.save(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(nestMap(s.data))
	if err != nil {
		return err
	}

	// Write with restricted permissions: the file may hold API keys.
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads configuration from the TOML file.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.data = make(map[string]any)
			return nil
		}
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return err
	}

	if loaded == nil {
		loaded = make(map[string]any)
	}

	s.data = flattenMap(loaded, "")
	return nil
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}

// nestMap is the inverse of flattenMap. A key that is both a value and a
// table prefix keeps its value under the literal dotted name.
func nestMap(flat map[string]any) map[string]any {
	root := make(map[string]any)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		parts := strings.Split(key, ".")
		node := root
		ok := true
		for _, part := range parts[:len(parts)-1] {
			child, exists := node[part]
			if !exists {
				next := make(map[string]any)
				node[part] = next
				node = next
				continue
			}
			next, isMap := child.(map[string]any)
			if !isMap {
				ok = false
				break
			}
			node = next
		}
		leaf := parts[len(parts)-1]
		if _, clash := node[leaf].(map[string]any); !ok || clash {
			root[key] = flat[key]
			continue
		}
		node[leaf] = flat[key]
	}
	return root
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
