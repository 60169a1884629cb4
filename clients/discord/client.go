package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"stickybot/clients"
)

// messageFetchLimit is the page size for the list-after query. The reconciler
// only needs to know whether any newer message exists, so one page is enough.
const messageFetchLimit = 100

// DiscordClient implements the clients.ChatClient interface using the
// bwmarrin/discordgo SDK.
type DiscordClient struct {
	session *discordgo.Session
}

// NewDiscordClient creates a Discord-backed chat client authenticated with
// the given bot token. All requests share a single HTTP client with the
// given timeout.
func NewDiscordClient(botToken string, httpTimeout time.Duration) (clients.ChatClient, error) {
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	session.Client = &http.Client{Timeout: httpTimeout}

	return &DiscordClient{session: session}, nil
}

// PostMessage creates a new message in the channel and returns its id
func (c *DiscordClient) PostMessage(ctx context.Context, channelID, content string) (string, error) {
	message, err := c.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", classifyError(err)
	}
	if message == nil || message.ID == "" {
		return "", fmt.Errorf("discord returned message without an id")
	}
	return message.ID, nil
}

// ListMessagesAfter returns the messages posted after the given message id
func (c *DiscordClient) ListMessagesAfter(ctx context.Context, channelID, afterID string) ([]clients.Message, error) {
	sdkMessages, err := c.session.ChannelMessages(
		channelID,
		messageFetchLimit,
		"",      // beforeID
		afterID, // afterID is the cursor
		"",      // aroundID
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return nil, classifyError(err)
	}

	messages := make([]clients.Message, 0, len(sdkMessages))
	for _, m := range sdkMessages {
		msg := clients.Message{ID: m.ID, Content: m.Content}
		if m.Author != nil {
			msg.AuthorID = m.Author.ID
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// DeleteMessage removes a message. A 404 means the message was already
// removed out-of-band (e.g. by a moderator) and counts as a clean deletion,
// otherwise a channel whose sticky disappeared would retry forever.
func (c *DiscordClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := c.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	if err == nil {
		return nil
	}

	classified := classifyError(err)
	if apiErr, ok := clients.AsAPIError(classified); ok && apiErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return classified
}

// classifyError maps discordgo failures onto the explicit taxonomy: REST
// responses with a non-success status become APIError, everything else
// (timeouts, connection failures) becomes TransientError.
func classifyError(err error) error {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		statusCode := 0
		if restErr.Response != nil {
			statusCode = restErr.Response.StatusCode
		}
		return &clients.APIError{
			StatusCode: statusCode,
			Body:       string(restErr.ResponseBody),
		}
	}
	return &clients.TransientError{Cause: err}
}
