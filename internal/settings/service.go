// Package settings keeps the operator preferences in memory and persists
// them through the settings store.
package settings

import (
	"maps"
	"sync"

	"github.com/Rauks/Minecraft-RCON-Console/internal/console"
)

// ThemeKey holds the terminal color scheme, either ThemeDark or ThemeLight.
const (
	ThemeKey   = "theme"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Service is an observable key/value map of settings.
type Service struct {
	mu     sync.Mutex
	values *console.Signal[map[string]string]
}

// NewService returns an empty Service.
func NewService() *Service {
	return &Service{values: console.NewSignal(map[string]string{})}
}

// SetAll merges values into the current settings and publishes the result.
// A nil map is ignored.
func (s *Service) SetAll(values map[string]string) {
	if values == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := maps.Clone(s.values.Get())
	maps.Copy(next, values)
	s.values.Set(next)
}

// Set stores a single setting.
func (s *Service) Set(key, value string) {
	s.SetAll(map[string]string{key: value})
}

// Get returns the value of key.
func (s *Service) Get(key string) (string, bool) {
	v, ok := s.values.Get()[key]
	return v, ok
}

// Snapshot returns a copy of every setting.
func (s *Service) Snapshot() map[string]string {
	return maps.Clone(s.values.Get())
}

// Watch subscribes to the settings. The current settings are delivered
// first. Published maps must not be modified.
func (s *Service) Watch() (<-chan map[string]string, func()) {
	return s.values.Subscribe()
}

// Close ends every subscription.
func (s *Service) Close() {
	s.values.Close()
}

// ToggleTheme flips the theme setting and returns the new value.
func (s *Service) ToggleTheme() string {
	next := ThemeDark
	if v, _ := s.Get(ThemeKey); v == ThemeDark {
		next = ThemeLight
	}
	s.Set(ThemeKey, next)
	return next
}
