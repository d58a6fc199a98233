package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func connect(t *testing.T, hub *Hub) *Client {
	t.Helper()

	client := NewClient(hub, nil, nil)
	hub.register <- client
	return client
}

func joinRole(hub *Hub, client *Client, role string) {
	hub.joins <- joinRequest{client: client, role: role}
}

func receive(t *testing.T, client *Client) Message {
	t.Helper()

	select {
	case msg := <-client.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Message{}
	}
}

func expectSilence(t *testing.T, client *Client) {
	t.Helper()

	select {
	case msg := <-client.send:
		t.Fatalf("unexpected frame %q", msg.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubToAll(t *testing.T) {
	hub := startHub(t)
	first := connect(t, hub)
	second := connect(t, hub)

	hub.ToAll("announcementCreated", "hello")

	assert.Equal(t, "announcementCreated", receive(t, first).Event)
	assert.Equal(t, "announcementCreated", receive(t, second).Event)
}

func TestHubToRoleRouting(t *testing.T) {
	hub := startHub(t)
	judge := connect(t, hub)
	organizer := connect(t, hub)
	untagged := connect(t, hub)

	joinRole(hub, judge, "judge")
	joinRole(hub, organizer, "organizer")

	hub.ToRole("judge", EventReceiveReminder, "scores due in 10 minutes")

	msg := receive(t, judge)
	assert.Equal(t, EventReceiveReminder, msg.Event)
	assert.Equal(t, "scores due in 10 minutes", msg.Payload)

	expectSilence(t, organizer)
	expectSilence(t, untagged)
}

func TestHubRetagMovesConnection(t *testing.T) {
	hub := startHub(t)
	client := connect(t, hub)

	joinRole(hub, client, "participant")
	joinRole(hub, client, "judge")

	hub.ToRole("participant", EventReceiveReminder, "lunch")
	expectSilence(t, client)

	hub.ToRole("judge", EventReceiveReminder, "judging starts")
	assert.Equal(t, "judging starts", receive(t, client).Payload)
}

func TestHubToConnection(t *testing.T) {
	hub := startHub(t)
	target := connect(t, hub)
	bystander := connect(t, hub)

	hub.ToConnection(target, EventPollsSnapshot, []string{})

	assert.Equal(t, EventPollsSnapshot, receive(t, target).Event)
	expectSilence(t, bystander)
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	hub := startHub(t)
	client := connect(t, hub)
	joinRole(hub, client, "judge")

	hub.unregister <- client
	hub.unregister <- client

	_, open := <-client.send
	require.False(t, open)

	// Emits after the drop go nowhere and must not block the loop.
	hub.ToAll("announcementCreated", "into the void")
	hub.ToRole("judge", EventReceiveReminder, "also nowhere")
	require.Eventually(t, func() bool {
		return len(hub.emits) == 0
	}, time.Second, time.Millisecond)

	survivor := connect(t, hub)
	hub.ToAll("announcementCreated", "still alive")
	assert.Equal(t, "still alive", receive(t, survivor).Payload)
}

func TestHubEmitWithNoConnectionsIsLost(t *testing.T) {
	hub := startHub(t)

	hub.ToAll("pollUpdate", "nobody home")
	require.Eventually(t, func() bool {
		return len(hub.emits) == 0
	}, time.Second, time.Millisecond)

	late := connect(t, hub)
	expectSilence(t, late)
}

func TestHubSlowClientDropsFrames(t *testing.T) {
	hub := startHub(t)
	client := connect(t, hub)

	for idx := 0; idx < cap(client.send)+16; idx++ {
		hub.ToAll("pollUpdate", idx)
	}

	// The hub loop must survive a saturated client; drain whatever made it
	// through and confirm delivery still works afterwards.
	deadline := time.After(time.Second)
	for drained := 0; drained < cap(client.send); drained++ {
		select {
		case <-client.send:
		case <-deadline:
			t.Fatal("timed out draining send buffer")
		}
	}

	hub.ToAll("pollClosed", "after the flood")
	for {
		msg := receive(t, client)
		if msg.Event == "pollClosed" {
			return
		}
	}
}
