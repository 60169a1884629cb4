package models

import (
	"github.com/samber/mo"
)

// StickyStatus describes where a channel is in the reconciliation lifecycle.
type StickyStatus string

const (
	// StickyStatusNone means no sticky message is currently owned for the channel.
	StickyStatusNone StickyStatus = "NO_STICKY"
	// StickyStatusUnverified means a message id is recorded but its position
	// has not been checked during the current cycle.
	StickyStatusUnverified StickyStatus = "STICKY_PRESENT_UNVERIFIED"
	// StickyStatusValid means the sticky was confirmed to still be the most
	// recent message in the channel.
	StickyStatusValid StickyStatus = "STICKY_VALID"
	// StickyStatusStale means newer messages were found after the sticky.
	// This is a transient evaluation state and is never persisted.
	StickyStatusStale StickyStatus = "STICKY_STALE"
)

// ChannelState is the per-channel record the reconciler operates on.
// There is exactly one instance per configured channel for the lifetime of
// the process, and only the reconciler goroutine mutates it.
type ChannelState struct {
	// ChannelID is the opaque platform identifier for the channel.
	ChannelID string
	// StickyText is the content to keep pinned. Immutable after startup.
	StickyText string
	// MessageID, when present, is the id of a message this process created
	// and believes is still the most recent message in the channel. Absent
	// means no sticky is currently owned.
	MessageID mo.Option[string]
}

// HasSticky reports whether the channel currently has an owned sticky message.
func (s *ChannelState) HasSticky() bool {
	return s.MessageID.IsPresent()
}

// ChannelStateView is a read-only copy of a channel's state for the status API.
type ChannelStateView struct {
	ChannelID string `json:"channel_id"`
	HasSticky bool   `json:"has_sticky"`
	MessageID string `json:"message_id,omitempty"`
}

// View returns a snapshot of the state safe to hand across goroutines.
func (s *ChannelState) View() ChannelStateView {
	view := ChannelStateView{
		ChannelID: s.ChannelID,
		HasSticky: s.HasSticky(),
	}
	if id, ok := s.MessageID.Get(); ok {
		view.MessageID = id
	}
	return view
}
