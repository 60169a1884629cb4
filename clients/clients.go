package clients

import (
	"context"
)

// ChatClient is the messaging-platform surface the reconciler depends on.
// Implementations wrap a platform SDK and translate its failures into the
// explicit TransientError/APIError taxonomy so callers never need to inspect
// SDK-specific error types.
type ChatClient interface {
	// PostMessage creates a new message in the channel and returns its id.
	PostMessage(ctx context.Context, channelID, content string) (string, error)

	// ListMessagesAfter returns the messages posted after the given message
	// id, using the id as a cursor. An empty slice means the message is still
	// the most recent in the channel.
	ListMessagesAfter(ctx context.Context, channelID, afterID string) ([]Message, error)

	// DeleteMessage removes a message. A message that is already gone (e.g.
	// removed by a moderator) is treated as successfully deleted.
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}
