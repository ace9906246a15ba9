package core

import "time"

// Room holds the members and ordered drawing history of one canvas session.
// It is not safe for concurrent use: all access goes through the room's
// actor goroutine in the hub.
type Room struct {
	ID        string
	createdAt time.Time
	members   map[string]*Client // keyed by connection id
	order     []string           // member join order
	paths     []*Path
}

// NewRoom constructs a room with no members.
func NewRoom(id string) *Room {
	return &Room{
		ID:        id,
		createdAt: time.Now(),
		members:   make(map[string]*Client),
	}
}

// AddMember inserts a client into the room. A client re-joining with the
// same connection id (reconnect race) replaces its previous entry.
func (r *Room) AddMember(c *Client) {
	if _, exists := r.members[c.ID]; !exists {
		r.order = append(r.order, c.ID)
	}
	r.members[c.ID] = c
}

// RemoveMember deletes a client from the room. Returns true if removed.
func (r *Room) RemoveMember(connID string) bool {
	if _, exists := r.members[connID]; !exists {
		return false
	}
	delete(r.members, connID)
	for i, id := range r.order {
		if id == connID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// MemberList returns the members in join order.
func (r *Room) MemberList() []Member {
	members := make([]Member, 0, len(r.members))
	for _, id := range r.order {
		if c, ok := r.members[id]; ok {
			members = append(members, c.member())
		}
	}
	return members
}

// AppendPath adds a path to the end of the drawing history.
func (r *Room) AppendPath(p *Path) {
	r.paths = append(r.paths, p)
}

// FindPath returns the path with the given id, or nil.
func (r *Room) FindPath(pathID string) *Path {
	for _, p := range r.paths {
		if p.ID == pathID {
			return p
		}
	}
	return nil
}

// RemovePathsByOwner removes every path owned by the given account and
// returns the removed path ids in drawn order.
func (r *Room) RemovePathsByOwner(ownerKey string) []string {
	var removed []string
	kept := r.paths[:0]
	for _, p := range r.paths {
		if p.OwnerKey == ownerKey {
			removed = append(removed, p.ID)
			continue
		}
		kept = append(kept, p)
	}
	r.paths = kept
	return removed
}

// SnapshotPaths returns a deep copy of the drawing history in drawn order.
// Taken inside the room actor it is a consistent point-in-time view: a path
// is either present in full or absent, never half-applied.
func (r *Room) SnapshotPaths() []*Path {
	paths := make([]*Path, len(r.paths))
	for i, p := range r.paths {
		paths[i] = p.clone()
	}
	return paths
}

// Broadcast sends an event to all members of the room.
func (r *Room) Broadcast(ev *Event) {
	for _, c := range r.members {
		c.send(ev)
	}
}

// BroadcastExcept sends an event to all members but the named connection.
func (r *Room) BroadcastExcept(connID string, ev *Event) {
	for id, c := range r.members {
		if id == connID {
			continue
		}
		c.send(ev)
	}
}
