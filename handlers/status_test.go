package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stickybot/models"
)

type stubSnapshotter struct {
	views []models.ChannelStateView
}

func (s *stubSnapshotter) Snapshot() []models.ChannelStateView {
	return s.views
}

func setupStatusRouter(views []models.ChannelStateView) *mux.Router {
	handler := NewStatusHandler(&stubSnapshotter{views: views}, "discord")
	router := mux.NewRouter()
	handler.SetupEndpoints(router)
	return router
}

func TestStatusHandler_Health(t *testing.T) {
	router := setupStatusRouter(nil)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status": "ok"}`, recorder.Body.String())
}

func TestStatusHandler_ListChannels(t *testing.T) {
	router := setupStatusRouter([]models.ChannelStateView{
		{ChannelID: "channel-1", HasSticky: true, MessageID: "msg-100"},
		{ChannelID: "channel-2", HasSticky: false},
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/api/channels", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var response struct {
		Platform string                    `json:"platform"`
		Channels []models.ChannelStateView `json:"channels"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "discord", response.Platform)
	require.Len(t, response.Channels, 2)
	assert.Equal(t, "channel-1", response.Channels[0].ChannelID)
	assert.True(t, response.Channels[0].HasSticky)
	assert.Equal(t, "msg-100", response.Channels[0].MessageID)
	assert.False(t, response.Channels[1].HasSticky)
}

func TestStatusHandler_ChannelsRejectsPost(t *testing.T) {
	router := setupStatusRouter(nil)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/api/channels", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}
