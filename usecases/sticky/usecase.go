package sticky

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/samber/mo"

	"stickybot/core"
	"stickybot/models"
	"stickybot/services/sticky"
	"stickybot/services/stickystate"
	"stickybot/utils"
)

// StickyUseCase drives reconciliation for every configured channel forever.
// It owns the channel states, keeps them in configuration order, and is the
// only component that mutates them (via the reconciler, from one goroutine).
type StickyUseCase struct {
	// mu guards states for the status API; the reconciling goroutine is the
	// only writer.
	mu            sync.Mutex
	states        []*models.ChannelState
	stickyService *sticky.StickyService
	stateStore    stickystate.StateStore
	cycleInterval time.Duration
}

func NewStickyUseCase(
	stickyService *sticky.StickyService,
	stateStore stickystate.StateStore,
	states []*models.ChannelState,
	cycleInterval time.Duration,
) *StickyUseCase {
	utils.AssertInvariant(len(states) > 0, "at least one channel must be configured")

	return &StickyUseCase{
		states:        states,
		stickyService: stickyService,
		stateStore:    stateStore,
		cycleInterval: cycleInterval,
	}
}

// Hydrate loads the persisted mapping and adopts stored message ids for
// configured channels. Channels missing from the stored state start without
// a sticky; stored ids for channels no longer configured are dropped on the
// next Save.
func (u *StickyUseCase) Hydrate(ctx context.Context) error {
	log.Printf("📋 Starting to hydrate channel state from store")

	stored, err := u.stateStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load persisted sticky state: %w", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	adopted := 0
	for _, state := range u.states {
		if messageID, ok := stored[state.ChannelID]; ok {
			state.MessageID = mo.Some(messageID)
			adopted++
		}
	}

	log.Printf("✅ Hydrated %d of %d channels from persisted state", adopted, len(u.states))
	return nil
}

// RunCycle reconciles every channel once, strictly in configuration order.
// One channel's transient or API failure never prevents the remaining
// channels from being processed; only persistence failures propagate, and
// those terminate the process.
func (u *StickyUseCase) RunCycle(ctx context.Context) error {
	cycleID := core.NewID("cyc")

	for _, state := range u.states {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		u.mu.Lock()
		status, err := u.stickyService.Reconcile(ctx, state, u.persist)
		u.mu.Unlock()
		if err != nil {
			return fmt.Errorf("cycle %s: channel %s: %w", cycleID, state.ChannelID, err)
		}

		if status == models.StickyStatusValid {
			continue // quiet cycle, nothing worth logging per channel
		}
		log.Printf("🔄 Cycle %s: channel %s is %s", cycleID, state.ChannelID, status)
	}

	return nil
}

// Run loops RunCycle with a fixed sleep between passes until the context is
// canceled. Cancellation is the only stop signal; there is no drain API.
func (u *StickyUseCase) Run(ctx context.Context) error {
	log.Printf("🚀 Starting sticky reconciliation loop for %d channel(s), cycle interval %s",
		len(u.states), u.cycleInterval)

	for {
		if err := u.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				log.Printf("🛑 Reconciliation loop stopped")
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			log.Printf("🛑 Reconciliation loop stopped")
			return nil
		case <-time.After(u.cycleInterval):
		}
	}
}

// Snapshot returns a read-only copy of every channel's state, in
// configuration order, for the status API.
func (u *StickyUseCase) Snapshot() []models.ChannelStateView {
	u.mu.Lock()
	defer u.mu.Unlock()

	views := make([]models.ChannelStateView, 0, len(u.states))
	for _, state := range u.states {
		views = append(views, state.View())
	}
	return views
}

// persist rewrites the full mapping through the state store. Called by the
// reconciler after every state-changing transition, with u.mu already held.
func (u *StickyUseCase) persist(ctx context.Context) error {
	mapping := make(map[string]string, len(u.states))
	for _, state := range u.states {
		if messageID, ok := state.MessageID.Get(); ok {
			mapping[state.ChannelID] = messageID
		}
	}
	return u.stateStore.Save(ctx, mapping)
}
