package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"stickybot/clients"
	"stickybot/utils"
)

// slackMessageGone lists the chat.delete error codes that mean the message no
// longer exists. They map to the same outcome as a Discord 404: the sticky is
// already gone, so the deletion counts as successful.
var slackMessageGone = map[string]bool{
	"message_not_found": true,
	"channel_not_found": true,
}

const historyFetchLimit = 100

// SlackClient implements the clients.ChatClient interface using the
// slack-go/slack SDK. Message ids are Slack message timestamps.
type SlackClient struct {
	client *slack.Client
}

// NewSlackClient creates a Slack-backed chat client with the provided bot token.
func NewSlackClient(botToken string, httpTimeout time.Duration, opts ...slack.Option) clients.ChatClient {
	sdkOptions := append(
		[]slack.Option{slack.OptionHTTPClient(&http.Client{Timeout: httpTimeout})},
		opts...,
	)
	return &SlackClient{
		client: slack.New(botToken, sdkOptions...),
	}
}

// PostMessage sends the sticky content to a Slack channel and returns the
// message timestamp, which serves as the message id on this platform. The
// content is rewritten from markdown to Slack's mrkdwn dialect.
func (c *SlackClient) PostMessage(ctx context.Context, channelID, content string) (string, error) {
	_, timestamp, err := c.client.PostMessageContext(
		ctx,
		channelID,
		slack.MsgOptionText(utils.ConvertMarkdownToSlack(content), false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return "", classifyError(err)
	}
	if timestamp == "" {
		return "", fmt.Errorf("slack returned message without a timestamp")
	}
	return timestamp, nil
}

// ListMessagesAfter returns the messages posted after the given message
// timestamp, using conversations.history with the timestamp as the cursor.
func (c *SlackClient) ListMessagesAfter(ctx context.Context, channelID, afterID string) ([]clients.Message, error) {
	response, err := c.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Oldest:    afterID,
		Inclusive: false,
		Limit:     historyFetchLimit,
	})
	if err != nil {
		return nil, classifyError(err)
	}

	messages := make([]clients.Message, 0, len(response.Messages))
	for _, m := range response.Messages {
		messages = append(messages, clients.Message{
			ID:       m.Timestamp,
			AuthorID: m.User,
			Content:  m.Text,
		})
	}
	return messages, nil
}

// DeleteMessage removes a message by its timestamp. A message that Slack no
// longer knows about counts as successfully deleted.
func (c *SlackClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	_, _, err := c.client.DeleteMessageContext(ctx, channelID, messageID)
	if err == nil {
		return nil
	}

	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) && slackMessageGone[slackErr.Err] {
		return nil
	}
	return classifyError(err)
}

// classifyError maps slack-go failures onto the explicit taxonomy. Slack
// reports application errors inside HTTP 200 responses, so those surface as
// APIError with the platform's error code as the body.
func classifyError(err error) error {
	var statusErr slack.StatusCodeError
	if errors.As(err, &statusErr) {
		return &clients.APIError{StatusCode: statusErr.Code, Body: statusErr.Status}
	}

	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		return &clients.APIError{
			StatusCode: http.StatusTooManyRequests,
			Body:       fmt.Sprintf("rate limited, retry after %s", rateErr.RetryAfter),
		}
	}

	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		return &clients.APIError{StatusCode: http.StatusOK, Body: slackErr.Err}
	}

	return &clients.TransientError{Cause: err}
}
