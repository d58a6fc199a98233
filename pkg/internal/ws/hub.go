package ws

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Message is one websocket frame: a named event plus its payload, the same
// shape in both directions.
type Message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type emit struct {
	target *Client
	role   string
	msg    Message
}

type joinRequest struct {
	client *Client
	role   string
}

// Hub owns every live connection and the role routing table. All state is
// touched only inside the Run loop, so no handler ever races another; the
// emit primitives are fire-and-forget and nothing here is durable — a
// message emitted with nobody connected is simply gone, and reconnecting
// clients catch up from snapshots instead.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	joins      chan joinRequest
	emits      chan emit

	clients map[*Client]bool
	roles   map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		joins:      make(chan joinRequest),
		emits:      make(chan emit, 256),
		clients:    make(map[*Client]bool),
		roles:      make(map[string]map[*Client]bool),
	}
}

// Run drives the hub until the context ends. It is the only goroutine
// allowed to read or write the client and role maps.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Debug().Str("connection", client.id).Int("total", len(h.clients)).
				Msg("Websocket connection established.")

		case client := <-h.unregister:
			h.dropClient(client)

		case join := <-h.joins:
			if !h.clients[join.client] {
				break
			}
			h.retagClient(join.client, join.role)
			log.Debug().Str("connection", join.client.id).Str("role", join.role).
				Msg("Websocket connection joined role channel.")

		case out := <-h.emits:
			h.deliver(out)

		case <-ctx.Done():
			for client := range h.clients {
				h.dropClient(client)
			}
			log.Info().Msg("Websocket hub shut down.")
			return
		}
	}
}

// ToAll delivers to every open connection, tagged or not.
func (h *Hub) ToAll(event string, payload any) {
	h.emits <- emit{msg: Message{Event: event, Payload: payload}}
}

// ToRole delivers only to connections that declared the given routing
// role; everyone else receives nothing.
func (h *Hub) ToRole(role string, event string, payload any) {
	h.emits <- emit{role: role, msg: Message{Event: event, Payload: payload}}
}

// ToConnection delivers to exactly one connection.
func (h *Hub) ToConnection(client *Client, event string, payload any) {
	h.emits <- emit{target: client, msg: Message{Event: event, Payload: payload}}
}

func (h *Hub) deliver(out emit) {
	switch {
	case out.target != nil:
		if h.clients[out.target] {
			out.target.push(out.msg)
		}
	case len(out.role) > 0:
		for client := range h.roles[out.role] {
			client.push(out.msg)
		}
	default:
		for client := range h.clients {
			client.push(out.msg)
		}
	}
}

func (h *Hub) retagClient(client *Client, role string) {
	for _, members := range h.roles {
		delete(members, client)
	}
	if len(role) == 0 {
		return
	}
	if h.roles[role] == nil {
		h.roles[role] = make(map[*Client]bool)
	}
	h.roles[role][client] = true
}

func (h *Hub) dropClient(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	for role, members := range h.roles {
		delete(members, client)
		if len(members) == 0 {
			delete(h.roles, role)
		}
	}
	close(client.send)
	log.Debug().Str("connection", client.id).Int("total", len(h.clients)).
		Msg("Websocket connection dropped.")
}
