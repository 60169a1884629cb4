package discord

import (
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stickybot/clients"
)

func restError(statusCode int, body string) *discordgo.RESTError {
	return &discordgo.RESTError{
		Response:     &http.Response{StatusCode: statusCode},
		ResponseBody: []byte(body),
	}
}

func TestClassifyError_RESTErrorBecomesAPIError(t *testing.T) {
	err := classifyError(restError(http.StatusForbidden, `{"message": "Missing Permissions"}`))

	apiErr, ok := clients.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Missing Permissions")
	assert.False(t, clients.IsTransient(err))
}

func TestClassifyError_NetworkErrorBecomesTransient(t *testing.T) {
	netErr := &net.OpError{Op: "dial", Err: errors.New("connection refused")}

	err := classifyError(netErr)

	assert.True(t, clients.IsTransient(err))
	_, ok := clients.AsAPIError(err)
	assert.False(t, ok)
}

func TestClassifyError_RESTErrorWithoutResponse(t *testing.T) {
	err := classifyError(&discordgo.RESTError{ResponseBody: []byte("no response")})

	apiErr, ok := clients.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, 0, apiErr.StatusCode)
}

func TestNewDiscordClient_ConstructsWithoutNetwork(t *testing.T) {
	// The SDK constructor does not talk to Discord; the token is only
	// validated when a request is made.
	client, err := NewDiscordClient("test-token", 0)
	require.NoError(t, err)
	assert.NotNil(t, client)
}
