package sticky

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stickybot/clients"
	"stickybot/models"
)

// Test constants for consistent test data
const (
	testChannelID  = "channel-456"
	testStickyText = "Please read the pinned rules before posting."
	testMessageID  = "msg-100"
	testNewerID    = "msg-101"
	testRepostID   = "msg-200"
	testDelay      = 2 * time.Second
)

// stickyServiceTestFixture encapsulates test setup and mocks
type stickyServiceTestFixture struct {
	service      *StickyService
	chatClient   *clients.MockChatClient
	state        *models.ChannelState
	persistCalls int
	persistErr   error
	sleptFor     []time.Duration
	ctx          context.Context
}

func (f *stickyServiceTestFixture) persist(ctx context.Context) error {
	f.persistCalls++
	return f.persistErr
}

func setupStickyServiceTest(t *testing.T, messageID mo.Option[string]) *stickyServiceTestFixture {
	chatClient := &clients.MockChatClient{}

	fixture := &stickyServiceTestFixture{
		chatClient: chatClient,
		state: &models.ChannelState{
			ChannelID:  testChannelID,
			StickyText: testStickyText,
			MessageID:  messageID,
		},
		ctx: context.Background(),
	}

	fixture.service = NewStickyService(chatClient, testDelay)
	fixture.service.sleep = func(ctx context.Context, d time.Duration) {
		fixture.sleptFor = append(fixture.sleptFor, d)
	}

	return fixture
}

func transientErr() error {
	return &clients.TransientError{Cause: errors.New("dial tcp: i/o timeout")}
}

func apiErr(status int) error {
	return &clients.APIError{StatusCode: status, Body: fmt.Sprintf("status %d body", status)}
}

// Scenario A: channel with no stored id posts exactly once and records the id.
func TestReconcile_NoSticky_CreatesMessage(t *testing.T) {
	fixture := setupStickyServiceTest(t, mo.None[string]())
	fixture.chatClient.On("PostMessage", fixture.ctx, testChannelID, testStickyText).
		Return(testMessageID, nil).Once()

	status, err := fixture.service.Reconcile(fixture.ctx, fixture.state, fixture.persist)

	require.NoError(t, err)
	assert.Equal(t, models.StickyStatusUnverified, status)
	assert.Equal(t, mo.Some(testMessageID), fixture.state.MessageID)
	assert.Equal(t, 1, fixture.persistCalls)
	fixture.chatClient.AssertExpectations(t)
	fixture.chatClient.AssertNotCalled(t, "ListMessagesAfter", mock.Anything, mock.Anything, mock.Anything)
	fixture.chatClient.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything, mock.Anything)
}

// Scenario B: query after the stored id returns empty, the cycle is a no-op.
func TestReconcile_StickyStillLatest_NoOp(t *testing.T) {
	fixture := setupStickyServiceTest(t, mo.Some(testMessageID))
	fixture.chatClient.On("ListMessagesAfter", fixture.ctx, testChannelID, testMessageID).
		Return([]clients.Message{}, nil).Once()

	status, err := fixture.service.Reconcile(fixture.ctx, fixture.state, fixture.persist)

	require.NoError(t, err)
	assert.Equal(t, models.StickyStatusValid, status)
	assert.Equal(t, mo.Some(testMessageID), fixture.state.MessageID)
	assert.Equal(t, 0, fixture.persistCalls)
	assert.Empty(t, fixture.sleptFor)
	fixture.chatClient.AssertNotCalled(t, "PostMessage", mock.Anything, mock.Anything, mock.Anything)
	fixture.chatClient.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything, mock.Anything)
}

// Scenario C: a newer message exists, the delete returns "already gone", the
// repost succeeds and the final id differs from the original.
func TestReconcile_StaleSticky_DeletedAndReposted(t *testing.T) {
	fixture := setupStickyServiceTest(t, mo.Some(testMessageID))
	fixture.chatClient.On("ListMessagesAfter", fixture.ctx, testChannelID, testMessageID).
		Return([]clients.Message{{ID: testNewerID, AuthorID: "user-1", Content: "newer"}}, nil).Once()
	// Delete succeeding via the 404 path: DeleteMessage already returns nil.
	fixture.chatClient.On("DeleteMessage", fixture.ctx, testChannelID, testMessageID).
		Return(nil).Once()
	fixture.chatClient.On("PostMessage", fixture.ctx, testChannelID, testStickyText).
		Return(testRepostID, nil).Once()

	status, err := fixture.service.Reconcile(fixture.ctx, fixture.state, fixture.persist)

	require.NoError(t, err)
	assert.Equal(t, models.StickyStatusUnverified, status)
	assert.Equal(t, mo.Some(testRepostID), fixture.state.MessageID)
	assert.NotEqual(t, testMessageID, fixture.state.MessageID.MustGet())
	// Persisted once after the confirmed deletion and once after the repost.
	assert.Equal(t, 2, fixture.persistCalls)
	assert.Equal(t, []time.Duration{testDelay}, fixture.sleptFor)
	fixture.chatClient.AssertExpectations(t)
}

// Exactly one delete and one create per stale cycle, no matter how many newer
// messages intervened.
func TestReconcile_ManyNewerMessages_SingleDeleteAndCreate(t *testing.T) {
	fixture := setupStickyServiceTest(t, mo.Some(testMessageID))
	newer := []clients.Message{
		{ID: "msg-101"}, {ID: "msg-102"}, {ID: "msg-103"}, {ID: "msg-104"},
	}
	fixture.chatClient.On("ListMessagesAfter", fixture.ctx, testChannelID, testMessageID).
		Return(newer, nil).Once()
	fixture.chatClient.On("DeleteMessage", fixture.ctx, testChannelID, testMessageID).
		Return(nil).Once()
	fixture.chatClient.On("PostMessage", fixture.ctx, testChannelID, testStickyText).
		Return(testRepostID, nil).Once()

	_, err := fixture.service.Reconcile(fixture.ctx, fixture.state, fixture.persist)

	require.NoError(t, err)
	fixture.chatClient.AssertNumberOfCalls(t, "DeleteMessage", 1)
	fixture.chatClient.AssertNumberOfCalls(t, "PostMessage", 1)
}

// Scenario D: a timeout on the create call leaves state unchanged and
// surfaces no error to the caller.
func TestReconcile_CreateTimeout_StateUnchanged(t *testing.T) {
	fixture := setupStickyServiceTest(t, mo.None[string]())
	fixture.chatClient.On("PostMessage", fixture.ctx, testChannelID, testStickyText).
		Return("", transientErr()).Once()

	status, err := fixture.service.Reconcile(fixture.ctx, fixture.state, fixture.persist)

	require.NoError(t, err, "transient failures must not escape the reconciler")
	assert.Equal(t, models.StickyStatusNone, status)
	assert.False(t, fixture.state.HasSticky())
	assert.Equal(t, 0, fixture.persistCalls)
}

func TestReconcile_CreateAPIFailure_StateUnchanged(t *testing.T) {
	fixture := setupStickyServiceTest(t, mo.None[string]())
	fixture.chatClient.On("PostMessage", fixture.ctx, testChannelID, testStickyText).
		Return("", apiErr(http.StatusForbidden)).Once()

	status, err := fixture.service.Reconcile(fixture.ctx, fixture.state, fixture.persist)

	require.NoError(t, err)
	assert.Equal(t, models.StickyStatusNone, status)
	assert.False(t, fixture.state.HasSticky())
	assert.Equal(t, 0, fixture.persistCalls)
}

func TestReconcile_ListFailure_AbortsCycle(t *testing.T) {
	testCases := []struct {
		name    string
		listErr error
	}{
		{name: "transient failure", listErr: transientErr()},
		{name: "api failure", listErr: apiErr(http.StatusInternalServerError)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fixture := setupStickyServiceTest(t, mo.Some(testMessageID))
			fixture.chatClient.On("ListMessagesAfter", fixture.ctx, testChannelID, testMessageID).
				Return(nil, tc.listErr).Once()

			status, err := fixture.service.Reconcile(fixture.ctx, fixture.state, fixture.persist)

			require.NoError(t, err)
			assert.Equal(t, models.StickyStatusUnverified, status)
			assert.Equal(t, mo.Some(testMessageID), fixture.state.MessageID)
			fixture.chatClient.AssertNotCalled(t, "PostMessage", mock.Anything, mock.Anything, mock.Anything)
			fixture.chatClient.AssertNotCalled(t, "DeleteMessage", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

// A delete rejected with any status outside {204, 404} keeps the id so the
// delete is retried next cycle, and nothing is reposted this cycle.
func TestReconcile_DeleteRejected_KeepsIDAndSkipsRepost(t *testing.T) {
	fixture := setupStickyServiceTest(t, mo.Some(testMessageID))
	fixture.chatClient.On("ListMessagesAfter", fixture.ctx, testChannelID, testMessageID).
		Return([]clients.Message{{ID: testNewerID}}, nil).Once()
	fixture.chatClient.On("DeleteMessage", fixture.ctx, testChannelID, testMessageID).
		Return(apiErr(http.StatusForbidden)).Once()

	status, err := fixture.service.Reconcile(fixture.ctx, fixture.state, fixture.persist)

	require.NoError(t, err)
	assert.Equal(t, models.StickyStatusStale, status)
	assert.Equal(t, mo.Some(testMessageID), fixture.state.MessageID)
	assert.Equal(t, 0, fixture.persistCalls)
	fixture.chatClient.AssertNotCalled(t, "PostMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcile_PersistFailureAfterCreate_IsFatal(t *testing.T) {
	fixture := setupStickyServiceTest(t, mo.None[string]())
	fixture.persistErr = errors.New("disk full")
	fixture.chatClient.On("PostMessage", fixture.ctx, testChannelID, testStickyText).
		Return(testMessageID, nil).Once()

	_, err := fixture.service.Reconcile(fixture.ctx, fixture.state, fixture.persist)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestReconcile_PersistFailureAfterDelete_IsFatal(t *testing.T) {
	fixture := setupStickyServiceTest(t, mo.Some(testMessageID))
	fixture.persistErr = errors.New("disk full")
	fixture.chatClient.On("ListMessagesAfter", fixture.ctx, testChannelID, testMessageID).
		Return([]clients.Message{{ID: testNewerID}}, nil).Once()
	fixture.chatClient.On("DeleteMessage", fixture.ctx, testChannelID, testMessageID).
		Return(nil).Once()

	_, err := fixture.service.Reconcile(fixture.ctx, fixture.state, fixture.persist)

	require.Error(t, err)
	// The deletion itself was confirmed, so the id is already cleared.
	assert.False(t, fixture.state.HasSticky())
	fixture.chatClient.AssertNotCalled(t, "PostMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestCtxSleep_ReturnsEarlyOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	ctxSleep(ctx, 5*time.Second)

	assert.Less(t, time.Since(start), time.Second)
}

func TestCtxSleep_ZeroDelayIsImmediate(t *testing.T) {
	start := time.Now()
	ctxSleep(context.Background(), 0)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
