package store

import (
	"context"
	"time"
)

// Setting is one persisted operator preference.
type Setting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Store persists the operator settings.
type Store interface {
	// Settings returns every stored setting ordered by key.
	Settings(ctx context.Context) ([]Setting, error)
	// SaveSettings makes the stored settings equal to values. Settings whose
	// value did not change keep their timestamp.
	SaveSettings(ctx context.Context, values map[string]string) error
	Close(ctx context.Context) error
}
