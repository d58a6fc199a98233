package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	localCache "github.com/eventhost/pulse/pkg/internal/cache"
	"github.com/eventhost/pulse/pkg/internal/database"
	"github.com/eventhost/pulse/pkg/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EventPollCreated = "newPoll"
	EventPollUpdated = "pollUpdate"
	EventPollClosed  = "pollClosed"
)

const pollsSnapshotCacheKey = "polls-snapshot"

func NewPoll(user models.Account, question string, options []string) (models.Poll, error) {
	var poll models.Poll

	if !user.IsOrganizer() {
		return poll, fmt.Errorf("%w: only organizers can create polls", ErrAuthorization)
	}

	question = strings.TrimSpace(question)
	options = lo.Filter(lo.Map(options, func(item string, index int) string {
		return strings.TrimSpace(item)
	}), func(item string, index int) bool {
		return len(item) > 0
	})

	if len(question) == 0 {
		return poll, fmt.Errorf("%w: poll question cannot be empty", ErrValidation)
	}
	if len(options) < 2 {
		return poll, fmt.Errorf("%w: poll needs at least two options", ErrValidation)
	}

	poll = models.Poll{
		Question:  question,
		Options:   datatypes.NewJSONSlice(options),
		Counts:    datatypes.NewJSONSlice(make([]int64, len(options))),
		AccountID: user.ID,
		Account:   user,
	}

	if err := database.C.Create(&poll).Error; err != nil {
		return poll, err
	}

	invalidatePollsSnapshot()
	broadcaster.ToAll(EventPollCreated, poll.Summary())

	return poll, nil
}

func GetPoll(id uint) (models.Poll, error) {
	var poll models.Poll
	if err := database.C.Where("id = ?", id).First(&poll).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return poll, fmt.Errorf("%w: poll #%d", ErrNotFound, id)
		}
		return poll, err
	}
	return poll, nil
}

// VotePoll records one vote. The pre-check only spares the round trip: the
// unique index on (poll_id, account_id) is what actually forbids a second
// vote, and a constraint rejection leaves the counts untouched.
func VotePoll(user models.Account, pollId uint, optionIndex int) (models.Poll, int, error) {
	poll, err := GetPoll(pollId)
	if err != nil {
		return poll, 0, err
	}

	if poll.IsClosed {
		return poll, 0, fmt.Errorf("%w: poll #%d is already closed", ErrState, poll.ID)
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return poll, 0, fmt.Errorf("%w: option index %d out of range", ErrValidation, optionIndex)
	}

	var existing models.PollVote
	if err := database.C.Where("poll_id = ? AND account_id = ?", poll.ID, user.ID).
		First(&existing).Error; err == nil {
		return poll, existing.OptionIndex, fmt.Errorf("%w: you already voted on this poll", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return poll, 0, err
	}

	if err := database.C.Transaction(func(tx *gorm.DB) error {
		vote := models.PollVote{
			PollID:      poll.ID,
			AccountID:   user.ID,
			OptionIndex: optionIndex,
		}
		if err := tx.Create(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: you already voted on this poll", ErrConflict)
			}
			return err
		}

		if err := recountPoll(tx, &poll); err != nil {
			return err
		}

		return tx.Model(&models.Poll{}).Where("id = ?", poll.ID).
			Update("counts", poll.Counts).Error
	}); err != nil {
		return poll, 0, err
	}

	invalidatePollsSnapshot()
	broadcaster.ToAll(EventPollUpdated, map[string]any{
		"id":     poll.ID,
		"counts": poll.Counts,
	})

	return poll, optionIndex, nil
}

// ClosePoll is idempotent; closing an already closed poll is not an error
// and does not rebroadcast.
func ClosePoll(user models.Account, pollId uint) (models.Poll, error) {
	var poll models.Poll

	if !user.IsOrganizer() {
		return poll, fmt.Errorf("%w: only organizers can close polls", ErrAuthorization)
	}

	poll, err := GetPoll(pollId)
	if err != nil {
		return poll, err
	}
	if poll.IsClosed {
		return poll, nil
	}

	poll.IsClosed = true
	if err := database.C.Model(&models.Poll{}).Where("id = ?", poll.ID).
		Update("is_closed", true).Error; err != nil {
		return poll, err
	}

	invalidatePollsSnapshot()
	broadcaster.ToAll(EventPollClosed, map[string]any{
		"id": poll.ID,
	})

	return poll, nil
}

// ListPolls returns recent polls projected for one viewer; pass nil for an
// anonymous caller, who simply gets no own-vote marks.
func ListPolls(viewer *models.Account, limit int) ([]models.PollView, error) {
	if limit <= 0 {
		limit = 100
	}

	var polls []models.Poll
	if err := database.C.
		Order("created_at DESC").
		Limit(limit).
		Find(&polls).Error; err != nil {
		return nil, err
	}

	ownVotes := make(map[uint]int)
	if viewer != nil && len(polls) > 0 {
		pollIds := lo.Map(polls, func(item models.Poll, index int) uint {
			return item.ID
		})

		var votes []models.PollVote
		if err := database.C.
			Where("account_id = ? AND poll_id IN ?", viewer.ID, pollIds).
			Find(&votes).Error; err != nil {
			return nil, err
		}
		for _, vote := range votes {
			ownVotes[vote.PollID] = vote.OptionIndex
		}
	}

	views := lo.Map(polls, func(item models.Poll, index int) models.PollView {
		view := models.PollView{PollSummary: item.Summary()}
		if idx, ok := ownVotes[item.ID]; ok {
			view.OwnVote = lo.ToPtr(idx)
		}
		return view
	})

	return views, nil
}

// GetPollsSnapshot serves the neutral poll summaries handed to freshly
// joined connections. The short-lived cache stands in for the old
// in-memory poll map; the store stays the source of truth and every poll
// write invalidates the entry.
func GetPollsSnapshot(limit int) ([]models.PollSummary, error) {
	cacheManager := cache.New[any](localCache.S)
	marshal := marshaler.New(cacheManager)
	ctx := context.Background()

	if hit, err := marshal.Get(ctx, pollsSnapshotCacheKey, new([]models.PollSummary)); err == nil {
		return *hit.(*[]models.PollSummary), nil
	}

	if limit <= 0 {
		limit = 100
	}

	var polls []models.Poll
	if err := database.C.
		Order("created_at DESC").
		Limit(limit).
		Find(&polls).Error; err != nil {
		return nil, err
	}

	summaries := lo.Map(polls, func(item models.Poll, index int) models.PollSummary {
		return item.Summary()
	})

	_ = marshal.Set(
		ctx,
		pollsSnapshotCacheKey,
		summaries,
		store.WithExpiration(30*time.Second),
		store.WithTags([]string{pollsSnapshotCacheKey}),
	)

	return summaries, nil
}

func invalidatePollsSnapshot() {
	cacheManager := cache.New[any](localCache.S)
	if err := cacheManager.Invalidate(
		context.Background(),
		store.WithInvalidateTags([]string{pollsSnapshotCacheKey}),
	); err != nil {
		log.Warn().Err(err).Msg("An error occurred when invalidating polls snapshot cache...")
	}
}

func recountPoll(tx *gorm.DB, poll *models.Poll) error {
	type bucket struct {
		OptionIndex int
		Total       int64
	}

	var buckets []bucket
	if err := tx.Model(&models.PollVote{}).
		Select("option_index, COUNT(*) AS total").
		Where("poll_id = ?", poll.ID).
		Group("option_index").
		Scan(&buckets).Error; err != nil {
		return err
	}

	counts := make([]int64, len(poll.Options))
	for _, item := range buckets {
		if item.OptionIndex >= 0 && item.OptionIndex < len(counts) {
			counts[item.OptionIndex] = item.Total
		}
	}
	poll.Counts = datatypes.NewJSONSlice(counts)

	return nil
}

// DoVoteRecount reconciles every poll's counts against the vote ledger.
// Counts drifting is only possible through operator surgery on the ledger,
// but the repair is cheap enough to run on a schedule.
func DoVoteRecount() {
	var polls []models.Poll
	if err := database.C.Find(&polls).Error; err != nil {
		log.Error().Err(err).Msg("An error occurred when listing polls for recount...")
		return
	}

	var repaired int
	for _, poll := range polls {
		before := []int64(poll.Counts)
		if err := recountPoll(database.C, &poll); err != nil {
			log.Error().Err(err).Uint("poll", poll.ID).Msg("An error occurred when recounting poll...")
			continue
		}
		if !countsEqual(before, poll.Counts) {
			if err := database.C.Model(&models.Poll{}).Where("id = ?", poll.ID).
				Update("counts", poll.Counts).Error; err != nil {
				log.Error().Err(err).Uint("poll", poll.ID).Msg("An error occurred when saving recounted poll...")
				continue
			}
			repaired++
		}
	}

	if repaired > 0 {
		invalidatePollsSnapshot()
		log.Info().Int("repaired", repaired).Msg("Poll vote recount repaired drifted counts.")
	}
}

func countsEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for idx := range a {
		if a[idx] != b[idx] {
			return false
		}
	}
	return true
}
