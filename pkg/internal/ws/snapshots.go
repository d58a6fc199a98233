package ws

import (
	"github.com/eventhost/pulse/pkg/internal/services"
	"github.com/rs/zerolog/log"
)

const (
	TopicAnnouncements = "announcements"
	TopicQuestions     = "questions"
	TopicPolls         = "polls"

	EventAnnouncementsSnapshot = "announcementsSnapshot"
	EventQuestionsSnapshot     = "questionsSnapshot"
	EventPollsSnapshot         = "pollsSnapshot"

	snapshotLimit = 100
)

// deliverSnapshot lets a late joiner catch up on one topic straight from
// the store. A failed query logs and delivers nothing; the connection
// itself is never touched.
func (c *Client) deliverSnapshot(topic string) {
	switch topic {
	case TopicAnnouncements:
		announcements, err := services.ListAnnouncements(snapshotLimit)
		if err != nil {
			log.Warn().Err(err).Str("connection", c.id).
				Msg("An error occurred when loading announcements snapshot...")
			return
		}
		c.hub.ToConnection(c, EventAnnouncementsSnapshot, announcements)

	case TopicQuestions:
		questions, err := services.ListQuestions()
		if err != nil {
			log.Warn().Err(err).Str("connection", c.id).
				Msg("An error occurred when loading questions snapshot...")
			return
		}
		c.hub.ToConnection(c, EventQuestionsSnapshot, questions)

	case TopicPolls:
		c.deliverPollsSnapshot()
	}
}

// deliverPollsSnapshot answers requestPolls. Authenticated callers get
// their own vote marks folded in; anonymous callers get the cached
// neutral summaries. An empty store yields an empty array, not an error.
func (c *Client) deliverPollsSnapshot() {
	if c.account != nil {
		views, err := services.ListPolls(c.account, snapshotLimit)
		if err != nil {
			log.Warn().Err(err).Str("connection", c.id).
				Msg("An error occurred when loading polls snapshot...")
			return
		}
		c.hub.ToConnection(c, EventPollsSnapshot, views)
		return
	}

	summaries, err := services.GetPollsSnapshot(snapshotLimit)
	if err != nil {
		log.Warn().Err(err).Str("connection", c.id).
			Msg("An error occurred when loading polls snapshot...")
		return
	}
	c.hub.ToConnection(c, EventPollsSnapshot, summaries)
}
