package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npezzotti/go-hangout/internal/types"
)

func newTestStore(t *testing.T, usernames ...string) *MemoryHangoutStore {
	s := NewMemoryHangoutStore()
	for _, username := range usernames {
		_, err := s.EnsureAccount(username, username+"@example.com")
		require.NoError(t, err, "failed to seed account %q", username)
	}
	return s
}

func TestEnsureAccount(t *testing.T) {
	s := NewMemoryHangoutStore()

	user, err := s.EnsureAccount("alice", "alice@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)

	// A second call must not reset the document.
	require.NoError(t, s.EnsureBrowser("alice", "b1"))
	user, err = s.EnsureAccount("alice", "other@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email, "expected existing account to win")
	assert.Len(t, user.Browsers, 1, "expected existing browsers to survive")
}

func TestGetAccount_notFound(t *testing.T) {
	s := NewMemoryHangoutStore()

	_, err := s.GetAccount("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnsureBrowser(t *testing.T) {
	s := newTestStore(t, "alice")

	assert.NoError(t, s.EnsureBrowser("alice", "b1"))
	assert.NoError(t, s.EnsureBrowser("alice", "b1"), "expected duplicate to be a no-op")
	assert.NoError(t, s.EnsureBrowser("alice", "b2"))

	user, err := s.GetAccount("alice")
	require.NoError(t, err)
	assert.Len(t, user.Browsers, 2, "expected exactly one entry per browser id")

	assert.ErrorIs(t, s.EnsureBrowser("ghost", "b1"), ErrNotFound)
}

func TestUpsertHangout(t *testing.T) {
	s := newTestStore(t, "alice")

	first := types.Hangout{Username: "bob", State: "INVITED", Timestamp: 100}
	require.NoError(t, s.UpsertHangout("alice", first))

	second := types.Hangout{Username: "bob", State: "ACCEPTED", Timestamp: 200}
	require.NoError(t, s.UpsertHangout("alice", second))

	user, err := s.GetAccount("alice")
	require.NoError(t, err)
	require.Len(t, user.Hangouts, 1, "expected exactly one record per counterpart")
	assert.Equal(t, second, user.Hangouts[0], "expected the second call's value to win")
}

func TestUpsertHangout_keepLatestByTimestamp(t *testing.T) {
	s := newTestStore(t, "alice")

	newer := types.Hangout{Username: "bob", State: "ACCEPTED", Timestamp: 200}
	require.NoError(t, s.UpsertHangout("alice", newer))

	stale := types.Hangout{Username: "bob", State: "INVITED", Timestamp: 100}
	require.NoError(t, s.UpsertHangout("alice", stale))

	user, err := s.GetAccount("alice")
	require.NoError(t, err)
	require.Len(t, user.Hangouts, 1)
	assert.Equal(t, newer, user.Hangouts[0], "expected an older write to never overwrite a newer record")
}

func TestEnqueueDrainBrowserQueue(t *testing.T) {
	s := newTestStore(t, "alice")
	require.NoError(t, s.EnsureBrowser("alice", "b1"))

	record := types.Hangout{Username: "bob", State: "INVITER", Timestamp: 1}

	for _, queue := range []Queue{QueueUndelivered, QueueDelayed} {
		t.Run(string(queue), func(t *testing.T) {
			require.NoError(t, s.EnqueueForBrowser("alice", "b1", queue, record))

			drained, err := s.DrainBrowserQueue("alice", "b1", queue)
			assert.NoError(t, err)
			assert.Equal(t, []types.Hangout{record}, drained)

			drained, err = s.DrainBrowserQueue("alice", "b1", queue)
			assert.NoError(t, err)
			assert.Empty(t, drained, "expected drain to clear the queue")
		})
	}
}

func TestBrowserQueue_errors(t *testing.T) {
	s := newTestStore(t, "alice")
	require.NoError(t, s.EnsureBrowser("alice", "b1"))

	record := types.Hangout{Username: "bob"}

	assert.ErrorIs(t, s.EnqueueForBrowser("alice", "b1", "bogus", record), ErrUnknownQueue)
	assert.ErrorIs(t, s.EnqueueForBrowser("alice", "nope", QueueDelayed, record), ErrNotFound)
	_, err := s.DrainBrowserQueue("alice", "b1", "bogus")
	assert.ErrorIs(t, err, ErrUnknownQueue)
	_, err = s.DrainBrowserQueue("ghost", "b1", QueueDelayed)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestDrainEnqueueRace checks the never-silently-dropped invariant: a record
// enqueued concurrently with drains either lands in a drained batch or stays
// queued for the next drain.
func TestDrainEnqueueRace(t *testing.T) {
	const total = 500

	s := newTestStore(t, "alice")
	require.NoError(t, s.EnsureBrowser("alice", "b1"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			_ = s.EnqueueForBrowser("alice", "b1", QueueUndelivered, types.Hangout{
				Username:  "bob",
				Timestamp: int64(i),
			})
		}
	}()

	var drained int
	for i := 0; i < total; i++ {
		records, err := s.DrainBrowserQueue("alice", "b1", QueueUndelivered)
		require.NoError(t, err)
		drained += len(records)
	}

	wg.Wait()

	records, err := s.DrainBrowserQueue("alice", "b1", QueueUndelivered)
	require.NoError(t, err)
	drained += len(records)

	assert.Equal(t, total, drained, "expected every enqueued record to be drained exactly once")
}

func TestUnread(t *testing.T) {
	s := newTestStore(t, "alice")

	require.NoError(t, s.AppendUnread("alice", types.Hangout{Username: "bob", State: "INVITER", Timestamp: 1}))
	require.NoError(t, s.AppendUnread("alice", types.Hangout{Username: "eve", State: "INVITER", Timestamp: 2}))

	user, err := s.GetAccount("alice")
	require.NoError(t, err)
	assert.Len(t, user.Unread, 2)

	require.NoError(t, s.ClearUnread("alice", "bob"))

	user, err = s.GetAccount("alice")
	require.NoError(t, err)
	require.Len(t, user.Unread, 1, "expected only bob's entries to be cleared")
	assert.Equal(t, "eve", user.Unread[0].Username)
}

func TestMessageHistory(t *testing.T) {
	s := newTestStore(t, "alice")

	require.NoError(t, s.AppendMessageHistory("alice", "bob", types.Message{Text: "hi", Timestamp: 1}))
	require.NoError(t, s.AppendMessageHistory("alice", "bob", types.Message{Text: "there", Timestamp: 2}))
	require.NoError(t, s.AppendMessageHistory("bob", "alice", types.Message{Text: "hi", Timestamp: 1}))

	msgs, err := s.GetMessages("alice", "bob", 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 2, "expected each direction to have its own history")

	msgs, err = s.GetMessages("alice", "bob", 1)
	require.NoError(t, err)
	assert.Len(t, msgs, 1, "expected limit to cap the result")

	msgs, err = s.GetMessages("bob", "alice", 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestPairKey(t *testing.T) {
	assert.Equal(t, "alice-bob-messages", PairKey("alice", "bob"))
	assert.Equal(t, "bob-alice-messages", PairKey("bob", "alice"))
}
