package services

import (
	"fmt"
	"testing"

	"github.com/eventhost/pulse/pkg/internal/database"
	"github.com/eventhost/pulse/pkg/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestNewPoll(t *testing.T) {
	setupTestDatabase(t)
	organizer := makeAccount(t, "alice", models.RoleOrganizer)
	participant := makeAccount(t, "bob", models.RoleParticipant)

	t.Run("requires organizer", func(t *testing.T) {
		_, err := NewPoll(participant, "Best track?", []string{"AI", "Web3"})
		require.ErrorIs(t, err, ErrAuthorization)
	})

	t.Run("rejects empty question", func(t *testing.T) {
		_, err := NewPoll(organizer, "   ", []string{"AI", "Web3"})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects fewer than two usable options", func(t *testing.T) {
		_, err := NewPoll(organizer, "Best track?", []string{"AI", "   "})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("initializes counts and state", func(t *testing.T) {
		poll, err := NewPoll(organizer, " Best track? ", []string{" AI ", "Web3", ""})
		require.NoError(t, err)
		assert.Equal(t, "Best track?", poll.Question)
		assert.Equal(t, []string{"AI", "Web3"}, []string(poll.Options))
		assert.Equal(t, []int64{0, 0}, []int64(poll.Counts))
		assert.False(t, poll.IsClosed)
	})
}

func TestVotePoll(t *testing.T) {
	setupTestDatabase(t)
	organizer := makeAccount(t, "alice", models.RoleOrganizer)
	userA := makeAccount(t, "bob", models.RoleParticipant)
	userB := makeAccount(t, "carol", models.RoleParticipant)

	poll, err := NewPoll(organizer, "Best track?", []string{"AI", "Web3"})
	require.NoError(t, err)

	t.Run("unknown poll", func(t *testing.T) {
		_, _, err := VotePoll(userA, poll.ID+100, 0)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("option index out of range", func(t *testing.T) {
		_, _, err := VotePoll(userA, poll.ID, 2)
		require.ErrorIs(t, err, ErrValidation)
		_, _, err = VotePoll(userA, poll.ID, -1)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("first vote lands", func(t *testing.T) {
		updated, ownVote, err := VotePoll(userA, poll.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, ownVote)
		assert.Equal(t, []int64{1, 0}, []int64(updated.Counts))
	})

	t.Run("second vote conflicts and leaves counts alone", func(t *testing.T) {
		_, _, err := VotePoll(userA, poll.ID, 1)
		require.ErrorIs(t, err, ErrConflict)

		current, err := GetPoll(poll.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 0}, []int64(current.Counts))
	})

	t.Run("constraint still holds without the pre-check", func(t *testing.T) {
		// Insert directly the way a racing second request would after the
		// pre-check already passed.
		err := database.C.Create(&models.PollVote{
			PollID:      poll.ID,
			AccountID:   userA.ID,
			OptionIndex: 1,
		}).Error
		require.Error(t, err)
	})

	t.Run("closed poll rejects votes with state error", func(t *testing.T) {
		_, err := ClosePoll(organizer, poll.ID)
		require.NoError(t, err)

		_, _, err = VotePoll(userB, poll.ID, 0)
		require.ErrorIs(t, err, ErrState)

		current, err := GetPoll(poll.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 0}, []int64(current.Counts))
	})
}

func TestVotePollCountsAddUp(t *testing.T) {
	setupTestDatabase(t)
	organizer := makeAccount(t, "alice", models.RoleOrganizer)

	poll, err := NewPoll(organizer, "Lunch?", []string{"Pizza", "Ramen", "Salad"})
	require.NoError(t, err)

	const voters = 7
	for idx := 0; idx < voters; idx++ {
		voter := makeAccount(t, fmt.Sprintf("voter-%d", idx), models.RoleParticipant)
		_, _, err := VotePoll(voter, poll.ID, 1)
		require.NoError(t, err)
	}

	current, err := GetPoll(poll.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, voters, 0}, []int64(current.Counts))

	var total int64
	for _, count := range current.Counts {
		total += count
	}
	assert.EqualValues(t, voters, total)
}

func TestClosePoll(t *testing.T) {
	setupTestDatabase(t)
	organizer := makeAccount(t, "alice", models.RoleOrganizer)
	participant := makeAccount(t, "bob", models.RoleParticipant)

	poll, err := NewPoll(organizer, "Best track?", []string{"AI", "Web3"})
	require.NoError(t, err)

	_, err = ClosePoll(participant, poll.ID)
	require.ErrorIs(t, err, ErrAuthorization)

	out := &recordingBroadcaster{}
	SetBroadcaster(out)

	closed, err := ClosePoll(organizer, poll.ID)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)
	require.Len(t, out.Events(), 1)
	assert.Equal(t, EventPollClosed, out.Events()[0].Event)

	// Closing again is a quiet no-op, not an error and not a rebroadcast.
	closed, err = ClosePoll(organizer, poll.ID)
	require.NoError(t, err)
	assert.True(t, closed.IsClosed)
	assert.Len(t, out.Events(), 1)
}

func TestListPollsProjection(t *testing.T) {
	setupTestDatabase(t)
	organizer := makeAccount(t, "alice", models.RoleOrganizer)
	voter := makeAccount(t, "bob", models.RoleParticipant)

	first, err := NewPoll(organizer, "Best track?", []string{"AI", "Web3"})
	require.NoError(t, err)
	second, err := NewPoll(organizer, "Lunch?", []string{"Pizza", "Ramen"})
	require.NoError(t, err)

	_, _, err = VotePoll(voter, first.ID, 1)
	require.NoError(t, err)

	views, err := ListPolls(&voter, 0)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byId := map[uint]models.PollView{}
	for _, view := range views {
		byId[view.ID] = view
	}
	require.NotNil(t, byId[first.ID].OwnVote)
	assert.Equal(t, 1, *byId[first.ID].OwnVote)
	assert.Nil(t, byId[second.ID].OwnVote)

	// Anonymous callers get no own-vote marks at all.
	views, err = ListPolls(nil, 0)
	require.NoError(t, err)
	for _, view := range views {
		assert.Nil(t, view.OwnVote)
	}
}

func TestGetPollsSnapshotEmpty(t *testing.T) {
	setupTestDatabase(t)

	summaries, err := GetPollsSnapshot(0)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestDoVoteRecountRepairsDrift(t *testing.T) {
	setupTestDatabase(t)
	organizer := makeAccount(t, "alice", models.RoleOrganizer)
	voter := makeAccount(t, "bob", models.RoleParticipant)

	poll, err := NewPoll(organizer, "Best track?", []string{"AI", "Web3"})
	require.NoError(t, err)
	_, _, err = VotePoll(voter, poll.ID, 0)
	require.NoError(t, err)

	// Drift the aggregate away from the ledger behind the service's back.
	require.NoError(t, database.C.Model(&models.Poll{}).Where("id = ?", poll.ID).
		Update("counts", datatypes.JSONSlice[int64]{5, 5}).Error)

	DoVoteRecount()

	current, err := GetPoll(poll.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 0}, []int64(current.Counts))
}
