package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/inkwire-server/internal/auth"
	"github.com/vovakirdan/inkwire-server/internal/registry"
	"github.com/vovakirdan/inkwire-server/internal/store"
)

// Identity is the slice of the identity store the hub needs. Satisfied by
// *auth.Service.
type Identity interface {
	Authenticate(ctx context.Context, accountKey, displayName, credential string) (*store.Account, bool, error)
	TokenLogin(ctx context.Context, token string) (*store.Account, error)
	Rename(ctx context.Context, accountKey, newDisplayName string) (*store.Account, error)
}

// RoomView is a consistent point-in-time view of one room, produced inside
// its actor goroutine.
type RoomView struct {
	ID          string
	CreatedAt   time.Time
	MemberCount int
	Paths       []*Path
}

// Hub routes session commands to per-room actor goroutines. All mutations of
// one room are serialized through its actor; rooms proceed independently.
type Hub struct {
	identity    Identity
	registry    *registry.Registry
	log         *zerolog.Logger
	authTimeout time.Duration

	mu       sync.Mutex
	rooms    map[string]*roomActor
	commitFn func()

	quit     chan struct{}
	quitOnce sync.Once
}

type envelope struct {
	client  *Client
	cmd     *Command
	account *store.Account
	done    chan struct{}
	view    chan RoomView
}

type roomActor struct {
	room  *Room
	inbox chan *envelope
}

// NewHub creates a new session hub.
func NewHub(identity Identity, reg *registry.Registry, authTimeout time.Duration, logger *zerolog.Logger) *Hub {
	if authTimeout <= 0 {
		authTimeout = 10 * time.Second
	}
	return &Hub{
		identity:    identity,
		registry:    reg,
		log:         logger,
		authTimeout: authTimeout,
		rooms:       make(map[string]*roomActor),
		quit:        make(chan struct{}),
	}
}

// Run blocks until the context is cancelled. Actors are stopped by Close,
// which the application calls after the final persistence flush.
func (h *Hub) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-h.quit:
	}
}

// Close stops all room actors. Idempotent.
func (h *Hub) Close() {
	h.quitOnce.Do(func() { close(h.quit) })
}

// OnCommit registers a hook invoked after high-value mutations (stroke end,
// clear, account creation). Used by the persistence syncer; must not block.
func (h *Hub) OnCommit(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commitFn = fn
}

// Preload seeds rooms and their drawing history from storage. Must be called
// before any client is registered. Loaded paths carry no owner connection and
// stay immutable; their account owner is kept so clear-own still applies.
func (h *Hub) Preload(records []store.RoomRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, rec := range records {
		room := NewRoom(rec.ID)
		room.createdAt = rec.CreatedAt
		for _, pr := range rec.Paths {
			var points []Point
			if err := json.Unmarshal(pr.Points, &points); err != nil {
				return fmt.Errorf("decode points of path %s: %w", pr.ID, err)
			}
			room.AppendPath(&Path{
				ID:        pr.ID,
				OwnerKey:  pr.OwnerKey,
				OwnerName: pr.OwnerName,
				Points:    points,
				Color:     pr.Color,
				Width:     pr.Width,
				Ended:     true,
				CreatedAt: pr.CreatedAt,
			})
		}
		h.startActorLocked(room)
	}
	return nil
}

// RegisterClient starts pumping the client's commands into the hub.
func (h *Hub) RegisterClient(c *Client) {
	go func() {
		for cmd := range c.Commands {
			h.dispatch(c, cmd)
		}
		h.disconnect(c)
		close(c.pumpDone)
	}()
}

// UnregisterClient closes the client's command stream and waits until its
// disconnect has been applied: membership removed, memberLeft broadcast,
// registry entry marked offline. Room paths are retained.
func (h *Hub) UnregisterClient(c *Client) {
	c.closeOnce.Do(func() { close(c.Commands) })
	<-c.pumpDone
}

// RoomCount returns the number of rooms the hub has seen.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// RoomInfo returns a consistent view of one room, if it exists.
func (h *Hub) RoomInfo(roomID string) (RoomView, bool) {
	h.mu.Lock()
	actor, ok := h.rooms[roomID]
	h.mu.Unlock()
	if !ok {
		return RoomView{}, false
	}
	return h.inspect(actor)
}

// SnapshotAll returns a consistent view of every room. Each view is taken
// inside its room's actor, so no room is ever seen half-mutated; the store
// write happens outside any room's serialization point.
func (h *Hub) SnapshotAll() []RoomView {
	h.mu.Lock()
	actors := make([]*roomActor, 0, len(h.rooms))
	for _, a := range h.rooms {
		actors = append(actors, a)
	}
	h.mu.Unlock()

	views := make([]RoomView, 0, len(actors))
	for _, a := range actors {
		if v, ok := h.inspect(a); ok {
			views = append(views, v)
		}
	}
	return views
}

func (h *Hub) inspect(a *roomActor) (RoomView, bool) {
	env := &envelope{cmd: &Command{Kind: commandInspect}, view: make(chan RoomView, 1)}
	select {
	case a.inbox <- env:
	case <-h.quit:
		return RoomView{}, false
	}
	select {
	case v := <-env.view:
		return v, true
	case <-h.quit:
		return RoomView{}, false
	}
}

// room returns the actor for roomID, creating it atomically on first use.
func (h *Hub) room(roomID string) *roomActor {
	h.mu.Lock()
	defer h.mu.Unlock()
	if a, ok := h.rooms[roomID]; ok {
		return a
	}
	return h.startActorLocked(NewRoom(roomID))
}

func (h *Hub) startActorLocked(room *Room) *roomActor {
	a := &roomActor{
		room:  room,
		inbox: make(chan *envelope, 256),
	}
	h.rooms[room.ID] = a
	go h.runRoom(a)
	return a
}

func (h *Hub) runRoom(a *roomActor) {
	for {
		select {
		case env := <-a.inbox:
			h.process(a.room, env)
		case <-h.quit:
			return
		}
	}
}

func (h *Hub) commit() {
	h.mu.Lock()
	fn := h.commitFn
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// dispatch runs on the per-client command pump. Join and rename perform
// their identity store I/O here, outside any room's serialization point;
// everything else is forwarded to the client's current room actor.
func (h *Hub) dispatch(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoin:
		h.handleJoin(c, cmd)
	case CommandRename:
		h.handleRename(c, cmd)
	default:
		roomID := c.Room()
		if c.State() != StateActive || roomID == "" {
			c.send(rejected(ErrCodeNotConnected, "join a room first"))
			return
		}
		if cmd.Room != "" && cmd.Room != roomID {
			// Ending a stroke or moving a cursor in a room the caller is not
			// in is advisory noise; mutations are rejected.
			if cmd.Kind == CommandStrokeEnd || cmd.Kind == CommandCursorMove {
				return
			}
			c.send(rejected(ErrCodeUnauthorized, "not a member of that room"))
			return
		}
		h.sendToRoom(roomID, &envelope{client: c, cmd: cmd})
	}
}

func (h *Hub) handleJoin(c *Client, cmd *Command) {
	if cmd.Room == "" {
		c.send(rejected(ErrCodeValidation, "room id is required"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.authTimeout)
	defer cancel()

	var (
		account *store.Account
		isNew   bool
		err     error
	)
	if cmd.Token != "" {
		account, err = h.identity.TokenLogin(ctx, cmd.Token)
	} else {
		account, isNew, err = h.identity.Authenticate(ctx, cmd.AccountKey, cmd.DisplayName, cmd.Credential)
	}
	if err != nil {
		h.log.Debug().Err(err).Str("conn_id", c.ID).Msg("join authentication failed")
		c.send(rejected(authErrorCode(err)))
		return
	}

	if _, err := h.registry.Register(c.ID, account.Key, account.DisplayName, c.IP); err != nil {
		if errors.Is(err, registry.ErrAlreadyOnline) {
			c.send(rejected(ErrCodeAlreadyOnline, "already logged in elsewhere"))
		} else {
			c.send(rejected(ErrCodeBadRequest, "join failed"))
		}
		return
	}

	if old := c.Room(); old != "" {
		// A same-room rejoin under another account is an identity switch:
		// the room must see the old member leave and the new one join.
		oldKey, _, _ := c.Session()
		if old != cmd.Room || oldKey != account.Key {
			h.leaveRoom(c, old)
		}
	}

	env := &envelope{client: c, cmd: cmd, account: account, done: make(chan struct{})}
	if !h.sendToRoomWait(cmd.Room, env) {
		h.registry.Unregister(c.ID)
		return
	}

	h.log.Info().
		Str("conn_id", c.ID).
		Str("account", account.Key).
		Str("room", cmd.Room).
		Bool("new_account", isNew).
		Msg("client joined room")

	if isNew {
		h.commit()
	}
}

func (h *Hub) handleRename(c *Client, cmd *Command) {
	if c.State() != StateActive {
		c.send(rejected(ErrCodeNotConnected, "join a room first"))
		return
	}
	accountKey, _, _ := c.Session()

	ctx, cancel := context.WithTimeout(context.Background(), h.authTimeout)
	defer cancel()

	account, err := h.identity.Rename(ctx, accountKey, cmd.DisplayName)
	if err != nil {
		c.send(rejected(renameErrorCode(err)))
		return
	}

	h.registry.Rename(c.ID, account.DisplayName)

	if roomID := c.Room(); roomID != "" {
		h.sendToRoom(roomID, &envelope{
			client: c,
			cmd:    &Command{Kind: commandApplyRename, DisplayName: account.DisplayName},
		})
	} else {
		c.setDisplayName(account.DisplayName)
	}
}

func (h *Hub) disconnect(c *Client) {
	if roomID := c.Room(); roomID != "" {
		h.leaveRoom(c, roomID)
	}
	h.registry.Unregister(c.ID)
	c.setDisconnected()
}

func (h *Hub) leaveRoom(c *Client, roomID string) {
	env := &envelope{client: c, cmd: &Command{Kind: commandLeave, Room: roomID}, done: make(chan struct{})}
	h.sendToRoomWait(roomID, env)
}

func (h *Hub) sendToRoom(roomID string, env *envelope) bool {
	a := h.room(roomID)
	select {
	case a.inbox <- env:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) sendToRoomWait(roomID string, env *envelope) bool {
	if !h.sendToRoom(roomID, env) {
		return false
	}
	select {
	case <-env.done:
		return true
	case <-h.quit:
		return false
	}
}

// process applies one command to a room. It runs on the room's actor
// goroutine, so every mutation of the room is serialized here.
func (h *Hub) process(room *Room, env *envelope) {
	c, cmd := env.client, env.cmd
	if env.done != nil {
		defer close(env.done)
	}

	switch cmd.Kind {
	case CommandJoin:
		c.setActive(room.ID, env.account.Key, env.account.DisplayName, env.account.Color, time.Now().UnixMilli())
		room.AddMember(c)
		members := room.MemberList()
		c.send(&Event{
			Kind:    EventRoomSnapshot,
			Room:    room.ID,
			Members: members,
			Paths:   room.SnapshotPaths(),
		})
		room.BroadcastExcept(c.ID, &Event{
			Kind:    EventMemberJoined,
			Room:    room.ID,
			Member:  c.member(),
			Members: members,
		})

	case commandLeave:
		if !room.RemoveMember(c.ID) {
			return
		}
		accountKey, _, _ := c.Session()
		c.clearRoom()
		room.Broadcast(&Event{
			Kind:       EventMemberLeft,
			Room:       room.ID,
			AccountKey: accountKey,
			Members:    room.MemberList(),
		})

	case CommandStrokeStart:
		accountKey, displayName, _ := c.Session()
		points := make([]Point, len(cmd.Points))
		copy(points, cmd.Points)
		path := &Path{
			ID:        uuid.NewString(),
			OwnerConn: c.ID,
			OwnerKey:  accountKey,
			OwnerName: displayName,
			Points:    points,
			Color:     cmd.Color,
			Width:     cmd.Width,
			CreatedAt: time.Now(),
		}
		room.AppendPath(path)
		// The originator learns the authoritative path id from this
		// broadcast; it must reach every member, sender included.
		room.Broadcast(&Event{Kind: EventPathStarted, Room: room.ID, Path: path.clone()})

	case CommandStrokeUpdate:
		path := room.FindPath(cmd.PathID)
		if path == nil || path.OwnerConn != c.ID || path.Ended {
			c.send(rejected(ErrCodeUnauthorized, "not the owner of this path"))
			return
		}
		points := make([]Point, len(cmd.Points))
		copy(points, cmd.Points)
		path.Points = points
		room.Broadcast(&Event{Kind: EventPathUpdated, Room: room.ID, PathID: path.ID, Points: points})

	case CommandStrokeEnd:
		path := room.FindPath(cmd.PathID)
		if path == nil || path.OwnerConn != c.ID {
			// Ending is advisory; a non-owner's end is dropped silently.
			return
		}
		path.Ended = true
		room.Broadcast(&Event{Kind: EventPathEnded, Room: room.ID, PathID: path.ID})
		h.commit()

	case CommandClearOwn:
		accountKey, _, _ := c.Session()
		removed := room.RemovePathsByOwner(accountKey)
		room.Broadcast(&Event{
			Kind:           EventPathsCleared,
			Room:           room.ID,
			AccountKey:     accountKey,
			RemovedPathIDs: removed,
		})
		h.commit()

	case commandApplyRename:
		c.setDisplayName(cmd.DisplayName)
		accountKey, _, _ := c.Session()
		room.Broadcast(&Event{
			Kind:        EventMemberRenamed,
			Room:        room.ID,
			AccountKey:  accountKey,
			DisplayName: cmd.DisplayName,
			Members:     room.MemberList(),
		})

	case CommandCursorMove:
		accountKey, _, _ := c.Session()
		room.BroadcastExcept(c.ID, &Event{
			Kind:       EventCursorMoved,
			Room:       room.ID,
			AccountKey: accountKey,
			X:          cmd.X,
			Y:          cmd.Y,
		})

	case commandInspect:
		env.view <- RoomView{
			ID:          room.ID,
			CreatedAt:   room.createdAt,
			MemberCount: len(room.members),
			Paths:       room.SnapshotPaths(),
		}
	}
}

func rejected(code, msg string) *Event {
	return &Event{Kind: EventRejected, Error: coreError(code, msg)}
}

func authErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrWeakCredential):
		return ErrCodeWeakCredential, err.Error()
	case errors.Is(err, auth.ErrInvalidDisplayName):
		return ErrCodeValidation, err.Error()
	case errors.Is(err, auth.ErrInvalidCredential), errors.Is(err, auth.ErrInvalidToken):
		return ErrCodeInvalidCredential, "invalid credentials"
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeBadRequest, "authentication timed out, try again"
	default:
		return ErrCodeBadRequest, "join failed"
	}
}

func renameErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidDisplayName):
		return ErrCodeValidation, err.Error()
	case errors.Is(err, auth.ErrNameTaken):
		return ErrCodeNameConflict, "display name already taken"
	default:
		return ErrCodeBadRequest, "rename failed"
	}
}
