package ws

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/eventhost/pulse/pkg/internal/services"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

// Live events accepted from clients. Anything else, and any frame whose
// payload does not unmarshal, is dropped on the floor: a broken frame must
// never take the connection down for the other topics.
const (
	EventJoinRole         = "joinRole"
	EventRequestPolls     = "requestPolls"
	EventRequestSnapshot  = "requestSnapshot"
	EventSendAnnouncement = "sendAnnouncement"
	EventSendReminder     = "sendReminder"
	EventSendQuestion     = "sendQuestion"
	EventSendAnswer       = "sendAnswer"
	EventCreatePoll       = "createPoll"
	EventVotePoll         = "votePoll"
	EventClosePoll        = "closePoll"

	EventError           = "error"
	EventReceiveReminder = "receiveReminder"
)

func (c *Client) handleEvent(event string, payload json.RawMessage) {
	switch event {
	case EventJoinRole:
		var role string
		if err := jsoniter.Unmarshal(payload, &role); err != nil {
			return
		}
		c.hub.joins <- joinRequest{client: c, role: strings.TrimSpace(role)}

	case EventRequestPolls:
		c.deliverPollsSnapshot()

	case EventRequestSnapshot:
		var data struct {
			Topic string `json:"topic"`
		}
		if err := jsoniter.Unmarshal(payload, &data); err != nil {
			return
		}
		c.deliverSnapshot(data.Topic)

	case EventSendAnnouncement:
		if c.account == nil {
			return
		}
		var content string
		if err := jsoniter.Unmarshal(payload, &content); err != nil {
			return
		}
		if _, err := services.NewAnnouncement(*c.account, content); err != nil {
			c.reportError(event, err)
		}

	case EventSendReminder:
		if c.account == nil || !c.account.IsOrganizer() {
			return
		}
		var data struct {
			Role    string `json:"role"`
			Message string `json:"message"`
		}
		if err := jsoniter.Unmarshal(payload, &data); err != nil {
			return
		}
		if len(strings.TrimSpace(data.Role)) == 0 || len(strings.TrimSpace(data.Message)) == 0 {
			return
		}
		c.hub.ToRole(data.Role, EventReceiveReminder, data.Message)

	case EventSendQuestion:
		if c.account == nil {
			return
		}
		content, ok := pickText(payload)
		if !ok {
			return
		}
		if _, err := services.AskQuestion(*c.account, content); err != nil {
			c.reportError(event, err)
		}

	case EventSendAnswer:
		if c.account == nil {
			return
		}
		var data struct {
			QuestionID uint   `json:"question_id"`
			Answer     string `json:"answer"`
		}
		if err := jsoniter.Unmarshal(payload, &data); err != nil || data.QuestionID == 0 {
			return
		}
		if _, err := services.AnswerQuestion(*c.account, data.QuestionID, data.Answer); err != nil {
			c.reportError(event, err)
		}

	case EventCreatePoll:
		if c.account == nil {
			return
		}
		var data struct {
			Question string   `json:"question"`
			Options  []string `json:"options"`
		}
		if err := jsoniter.Unmarshal(payload, &data); err != nil {
			return
		}
		if _, err := services.NewPoll(*c.account, data.Question, data.Options); err != nil {
			c.reportError(event, err)
		}

	case EventVotePoll:
		if c.account == nil {
			return
		}
		var data struct {
			PollID      uint `json:"poll_id"`
			OptionIndex *int `json:"option_index"`
		}
		if err := jsoniter.Unmarshal(payload, &data); err != nil || data.PollID == 0 || data.OptionIndex == nil {
			return
		}
		if _, _, err := services.VotePoll(*c.account, data.PollID, *data.OptionIndex); err != nil {
			c.reportError(event, err)
		}

	case EventClosePoll:
		if c.account == nil {
			return
		}
		var data struct {
			PollID uint `json:"poll_id"`
		}
		if err := jsoniter.Unmarshal(payload, &data); err != nil || data.PollID == 0 {
			return
		}
		if _, err := services.ClosePoll(*c.account, data.PollID); err != nil {
			c.reportError(event, err)
		}
	}
}

// pickText accepts either a bare string or an object with a text field,
// matching what older clients send.
func pickText(payload json.RawMessage) (string, bool) {
	var text string
	if err := jsoniter.Unmarshal(payload, &text); err == nil {
		return text, true
	}
	var data struct {
		Text string `json:"text"`
	}
	if err := jsoniter.Unmarshal(payload, &data); err == nil && len(data.Text) > 0 {
		return data.Text, true
	}
	return "", false
}

// reportError tells the offending sender what went wrong and nobody else.
// Domain failures carry their message; anything unexpected is logged and
// reported generically.
func (c *Client) reportError(source string, err error) {
	message := "something went wrong"
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrAuthorization),
		errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrState):
		message = err.Error()
	default:
		log.Error().Err(err).Str("event", source).Str("connection", c.id).
			Msg("An error occurred when handling live event...")
	}

	c.hub.ToConnection(c, EventError, map[string]any{
		"source":  source,
		"message": message,
	})
}
