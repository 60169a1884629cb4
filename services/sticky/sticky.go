package sticky

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/samber/mo"

	"stickybot/clients"
	"stickybot/models"
	"stickybot/utils"
)

// PersistFunc durably stores the current channel-to-message-id mapping. It is
// invoked synchronously after every state-changing transition; an error from
// it is fatal and propagates out of Reconcile.
type PersistFunc func(ctx context.Context) error

// SleepFunc pauses for the given duration, or returns early if the context is
// canceled. Injected so tests don't spend real time.
type SleepFunc func(ctx context.Context, d time.Duration)

// StickyService reconciles a single channel per call: it decides whether the
// channel's sticky message is still the most recent one and replaces it when
// it is not.
type StickyService struct {
	chatClient clients.ChatClient
	// preDeleteDelay runs before deleting a stale sticky to avoid racing the
	// platform's read-after-write window for the list-after query.
	preDeleteDelay time.Duration
	sleep          SleepFunc
}

func NewStickyService(chatClient clients.ChatClient, preDeleteDelay time.Duration) *StickyService {
	return &StickyService{
		chatClient:     chatClient,
		preDeleteDelay: preDeleteDelay,
		sleep:          ctxSleep,
	}
}

// Reconcile runs one reconciliation pass for the channel and returns the
// resulting status. Transient and API failures are logged and absorbed - the
// channel is simply retried next cycle with unchanged state. Only persistence
// failures return an error, and those are fatal to the process.
func (s *StickyService) Reconcile(
	ctx context.Context,
	state *models.ChannelState,
	persist PersistFunc,
) (models.StickyStatus, error) {
	if messageID, ok := state.MessageID.Get(); ok {
		status, err := s.checkAndClearStale(ctx, state, messageID, persist)
		if err != nil {
			return status, err
		}
		if status != models.StickyStatusNone {
			// Still valid, or the cycle was abandoned on a failed call.
			return status, nil
		}
		// Deletion confirmed; fall through and repost within the same cycle.
	}

	return s.createSticky(ctx, state, persist)
}

// checkAndClearStale verifies the recorded sticky is still the channel's most
// recent message and deletes it when it is not. It returns StickyStatusNone
// only after a confirmed deletion (or confirmation the message was already
// gone), which is the precondition for reposting.
func (s *StickyService) checkAndClearStale(
	ctx context.Context,
	state *models.ChannelState,
	messageID string,
	persist PersistFunc,
) (models.StickyStatus, error) {
	messages, err := s.chatClient.ListMessagesAfter(ctx, state.ChannelID, messageID)
	if err != nil {
		logCallFailure("list messages after sticky", state.ChannelID, err)
		return models.StickyStatusUnverified, nil
	}

	if len(messages) == 0 {
		return models.StickyStatusValid, nil
	}

	log.Printf("🔄 Sticky %s in channel %s superseded by %d newer message(s), replacing",
		messageID, state.ChannelID, len(messages))

	// Give the platform's eventual consistency a moment before deleting, so
	// the list-after result we just acted on has settled.
	s.sleep(ctx, s.preDeleteDelay)

	if err := s.chatClient.DeleteMessage(ctx, state.ChannelID, messageID); err != nil {
		// State keeps pointing at the (possibly already gone) id; the delete
		// is retried next cycle.
		logCallFailure("delete stale sticky", state.ChannelID, err)
		return models.StickyStatusStale, nil
	}

	log.Printf("🗑️ Deleted stale sticky %s in channel %s", messageID, state.ChannelID)
	state.MessageID = mo.None[string]()

	if err := persist(ctx); err != nil {
		return models.StickyStatusNone, fmt.Errorf("failed to persist state after deleting sticky in channel %s: %w", state.ChannelID, err)
	}
	return models.StickyStatusNone, nil
}

// createSticky posts the sticky text and records the returned message id.
func (s *StickyService) createSticky(
	ctx context.Context,
	state *models.ChannelState,
	persist PersistFunc,
) (models.StickyStatus, error) {
	log.Printf("📨 Creating sticky message for channel %s", state.ChannelID)

	messageID, err := s.chatClient.PostMessage(ctx, state.ChannelID, state.StickyText)
	if err != nil {
		logCallFailure("create sticky message", state.ChannelID, err)
		return models.StickyStatusNone, nil
	}

	utils.AssertInvariant(messageID != "", "platform returned empty message id on successful create")
	state.MessageID = mo.Some(messageID)
	log.Printf("✅ Created sticky %s in channel %s", messageID, state.ChannelID)

	if err := persist(ctx); err != nil {
		return models.StickyStatusUnverified, fmt.Errorf("failed to persist state after creating sticky in channel %s: %w", state.ChannelID, err)
	}
	return models.StickyStatusUnverified, nil
}

// logCallFailure logs a failed platform call with enough detail to diagnose
// it from logs alone, distinguishing transport failures from API rejections.
func logCallFailure(operation, channelID string, err error) {
	if apiErr, ok := clients.AsAPIError(err); ok {
		log.Printf("❌ Failed to %s for channel %s: status %d: %s", operation, channelID, apiErr.StatusCode, apiErr.Body)
		return
	}
	log.Printf("❌ Failed to %s for channel %s: %v", operation, channelID, err)
}

func ctxSleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
