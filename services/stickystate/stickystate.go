package stickystate

import (
	"context"
)

// StateStore durably persists the channel-to-message-id mapping so restarts
// don't lose track of stickies the process already posted. Save is invoked
// synchronously after every state-changing transition; a Save failure is
// fatal to the process, since continuing with an unpersisted mapping risks
// duplicate stickies across a restart.
type StateStore interface {
	// Load returns the stored mapping. A missing backing store is not an
	// error; it returns an empty mapping and all channels start without a
	// sticky.
	Load(ctx context.Context) (map[string]string, error)

	// Save rewrites the stored mapping in full.
	Save(ctx context.Context, mapping map[string]string) error
}

// NopStateStore is the store used when persistence is disabled. Each restart
// begins with no owned stickies, so the previous run's messages are simply
// left behind in the channels.
type NopStateStore struct{}

func NewNopStateStore() *NopStateStore {
	return &NopStateStore{}
}

func (s *NopStateStore) Load(ctx context.Context) (map[string]string, error) {
	return map[string]string{}, nil
}

func (s *NopStateStore) Save(ctx context.Context, mapping map[string]string) error {
	return nil
}
