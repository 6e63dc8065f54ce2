package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Rauks/Minecraft-RCON-Console/internal/store"
)

const persistTimeout = 5 * time.Second

// Storage writes every settings change to a store once persistence is
// enabled. A Storage without a store never persists.
type Storage struct {
	service *Service
	store   store.Store
	logger  *slog.Logger

	enabled     atomic.Bool
	unsubscribe func()
	done        chan struct{}
	closeOnce   sync.Once
}

// NewStorage starts watching service. Persistence starts disabled so that
// ReloadAll does not write back what it just read.
func NewStorage(service *Service, st store.Store, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Storage{
		service: service,
		store:   st,
		logger:  logger,
		done:    make(chan struct{}),
	}
	updates, unsubscribe := service.Watch()
	s.unsubscribe = unsubscribe
	go s.run(updates)
	return s
}

func (s *Storage) run(updates <-chan map[string]string) {
	defer close(s.done)
	for values := range updates {
		if !s.enabled.Load() {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := s.persist(ctx, values); err != nil {
			s.logger.Warn("persist settings", "error", err)
		}
		cancel()
	}
}

func (s *Storage) persist(ctx context.Context, values map[string]string) error {
	return s.store.SaveSettings(ctx, values)
}

// Available reports whether a store is attached.
func (s *Storage) Available() bool {
	return s.store != nil
}

// EnablePersistence starts writing changes. It is a no-op without a store.
func (s *Storage) EnablePersistence() {
	if s.Available() {
		s.enabled.Store(true)
	}
}

// DisablePersistence stops writing changes.
func (s *Storage) DisablePersistence() {
	s.enabled.Store(false)
}

// ReloadAll merges every stored setting into the service.
func (s *Storage) ReloadAll(ctx context.Context) error {
	if !s.Available() {
		return nil
	}
	rows, err := s.store.Settings(ctx)
	if err != nil {
		return fmt.Errorf("settings: reload: %w", err)
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	s.service.SetAll(values)
	return nil
}

// Close stops watching the service. When persistence is enabled the final
// settings are written before Close returns.
func (s *Storage) Close() {
	s.closeOnce.Do(func() {
		s.unsubscribe()
		<-s.done
		if !s.enabled.Load() {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.persist(ctx, s.service.Snapshot()); err != nil {
			s.logger.Warn("persist settings", "error", err)
		}
	})
}
