package store

import (
	"context"
	"time"
)

// NopStore is a no-op seen store used in dry-run mode. It never marks items
// as seen, so every matching item is reported on each watch cycle.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) HasSeen(_ context.Context, _ string) (bool, error)     { return false, nil }
func (s *NopStore) MarkSeen(_ context.Context, _ string) error            { return nil }
func (s *NopStore) Cleanup(_ context.Context, _ time.Duration) error      { return nil }
