package core

import "sync"

// ClientState tracks the session lifecycle of one connection.
type ClientState int

const (
	StateConnecting ClientState = iota
	StateAuthenticating
	StateActive
	StateDisconnected
)

// Client is a drawing participant as seen by the core layer. Session fields
// are written by room actors during join/leave and read by the command pump,
// so they sit behind a mutex.
type Client struct {
	ID       string
	IP       string
	Commands chan *Command
	Events   chan *Event

	mu          sync.Mutex
	state       ClientState
	room        string
	accountKey  string
	displayName string
	color       string
	joinedAt    int64

	closeOnce sync.Once
	pumpDone  chan struct{}
}

// NewClient constructs a client with initialized channels. queueSize bounds
// the outbound event queue; events to a full queue are dropped rather than
// stalling the room.
func NewClient(id, ip string, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Client{
		ID:       id,
		IP:       ip,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, queueSize),
		pumpDone: make(chan struct{}),
	}
}

// State returns the current session state.
func (c *Client) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Room returns the room the client is active in, or "".
func (c *Client) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// Session returns the account identity bound to this connection.
func (c *Client) Session() (accountKey, displayName, color string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accountKey, c.displayName, c.color
}

func (c *Client) setActive(room, accountKey, displayName, color string, joinedAt int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateActive
	c.room = room
	c.accountKey = accountKey
	c.displayName = displayName
	c.color = color
	c.joinedAt = joinedAt
}

func (c *Client) setDisplayName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.displayName = name
}

func (c *Client) clearRoom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = ""
	if c.state == StateActive {
		c.state = StateAuthenticating
	}
}

func (c *Client) setDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateDisconnected
	c.room = ""
}

// send delivers an event without ever blocking; slow consumers lose events.
func (c *Client) send(ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}

func (c *Client) member() Member {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Member{
		ConnID:      c.ID,
		AccountKey:  c.accountKey,
		DisplayName: c.displayName,
		Color:       c.color,
		JoinedAt:    c.joinedAt,
	}
}
