package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeJoin         = "join"
	InboundTypeStrokeStart  = "strokeStart"
	InboundTypeStrokeUpdate = "strokeUpdate"
	InboundTypeStrokeEnd    = "strokeEnd"
	InboundTypeClearOwn     = "clearOwnDrawings"
	InboundTypeRename       = "renameDisplayName"
	InboundTypeCursorMove   = "cursorMove"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventRoomSnapshot  = "roomSnapshot"
	EventMemberJoined  = "memberJoined"
	EventMemberLeft    = "memberLeft"
	EventMemberRenamed = "memberRenamed"
	EventPathStarted   = "pathStarted"
	EventPathUpdated   = "pathUpdated"
	EventPathEnded     = "pathEnded"
	EventPathsCleared  = "pathsCleared"
	EventCursorMoved   = "cursorMoved"
)

// Point is a single canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Member is the account-lite view of a room participant.
type Member struct {
	AccountKey  string `json:"accountKey"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color"`
	JoinedAt    int64  `json:"joinedAt"`
}

// Path describes one stroke as sent over the wire.
type Path struct {
	ID        string  `json:"id"`
	OwnerKey  string  `json:"ownerKey"`
	OwnerName string  `json:"ownerName"`
	Points    []Point `json:"points"`
	Color     string  `json:"color"`
	Width     float64 `json:"width"`
	CreatedAt int64   `json:"createdAt"`
}

// JoinData requests to join a room, authenticating by credential or token.
type JoinData struct {
	Room        string `json:"roomId"`
	AccountKey  string `json:"accountKey"`
	DisplayName string `json:"displayName"`
	Credential  string `json:"credential,omitempty"`
	Token       string `json:"token,omitempty"`
}

// StrokeStartData seeds a new path with its first point.
type StrokeStartData struct {
	Room   string  `json:"roomId"`
	Points []Point `json:"points"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
}

// StrokeUpdateData replaces the point list of an in-progress path.
type StrokeUpdateData struct {
	Room   string  `json:"roomId"`
	PathID string  `json:"pathId"`
	Points []Point `json:"points"`
}

// StrokeEndData marks a path as finished.
type StrokeEndData struct {
	Room   string `json:"roomId"`
	PathID string `json:"pathId"`
}

// ClearOwnData asks to remove all paths owned by the caller.
type ClearOwnData struct {
	Room string `json:"roomId"`
}

// RenameData asks to change the caller's display name.
type RenameData struct {
	DisplayName string `json:"displayName"`
}

// CursorMoveData relays the caller's cursor position.
type CursorMoveData struct {
	Room string  `json:"roomId"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventRoomSnapshotData is sent to a joiner only: the room's full state.
type EventRoomSnapshotData struct {
	Room    string   `json:"roomId"`
	Members []Member `json:"members"`
	Paths   []Path   `json:"paths"`
}

// EventMemberJoinedData notifies other members about a new participant.
type EventMemberJoinedData struct {
	Room    string   `json:"roomId"`
	Member  Member   `json:"member"`
	Members []Member `json:"members"`
}

// EventMemberLeftData notifies remaining members about a departure.
type EventMemberLeftData struct {
	Room       string   `json:"roomId"`
	AccountKey string   `json:"accountKey"`
	Members    []Member `json:"members"`
}

// EventMemberRenamedData notifies the room about a display name change.
type EventMemberRenamedData struct {
	Room        string   `json:"roomId"`
	AccountKey  string   `json:"accountKey"`
	DisplayName string   `json:"displayName"`
	Members     []Member `json:"members"`
}

// EventPathStartedData carries the authoritative path, id included.
type EventPathStartedData struct {
	Room string `json:"roomId"`
	Path Path   `json:"path"`
}

// EventPathUpdatedData carries the replaced point list of a path.
type EventPathUpdatedData struct {
	Room   string  `json:"roomId"`
	PathID string  `json:"pathId"`
	Points []Point `json:"points"`
}

// EventPathEndedData marks a path as immutable.
type EventPathEndedData struct {
	Room   string `json:"roomId"`
	PathID string `json:"pathId"`
}

// EventPathsClearedData lists the paths removed by an owner's clear request.
type EventPathsClearedData struct {
	Room           string   `json:"roomId"`
	AccountKey     string   `json:"accountKey"`
	RemovedPathIDs []string `json:"removedPathIds"`
}

// EventCursorMovedData relays a member's cursor position to the others.
type EventCursorMovedData struct {
	Room       string  `json:"roomId"`
	AccountKey string  `json:"accountKey"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
