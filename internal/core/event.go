package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomSnapshot delivers the room's full state to a joiner.
	EventRoomSnapshot EventKind = iota
	// EventMemberJoined notifies other members about a new participant.
	EventMemberJoined
	// EventMemberLeft notifies remaining members about a departure.
	EventMemberLeft
	// EventMemberRenamed notifies the room about a display name change.
	EventMemberRenamed
	// EventPathStarted notifies all members, originator included, that a
	// path exists; the originator learns the authoritative path id from it.
	EventPathStarted
	// EventPathUpdated carries the replaced point list of a path.
	EventPathUpdated
	// EventPathEnded marks a path as immutable.
	EventPathEnded
	// EventPathsCleared lists paths removed by an owner's clear request.
	EventPathsCleared
	// EventCursorMoved relays a member's cursor to the other members.
	EventCursorMoved
	// EventRejected reports a terminal error to the requesting connection.
	EventRejected
)

// Member is the account-lite view of a room participant.
type Member struct {
	ConnID      string
	AccountKey  string
	DisplayName string
	Color       string
	JoinedAt    int64
}

// Event is sent to clients to describe what happened in a room.
type Event struct {
	Kind           EventKind
	Room           string
	Member         Member
	Members        []Member
	Path           *Path
	Paths          []*Path
	PathID         string
	Points         []Point
	AccountKey     string
	DisplayName    string
	RemovedPathIDs []string
	X, Y           float64
	Error          *CoreError
}
