package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin authenticates the connection and adds it to a room.
	CommandJoin CommandKind = iota
	// CommandStrokeStart begins a new path owned by the caller.
	CommandStrokeStart
	// CommandStrokeUpdate replaces the point list of an in-progress path.
	CommandStrokeUpdate
	// CommandStrokeEnd marks a path as finished.
	CommandStrokeEnd
	// CommandClearOwn removes every path owned by the caller in its room.
	CommandClearOwn
	// CommandRename changes the caller's display name.
	CommandRename
	// CommandCursorMove relays the caller's cursor position.
	CommandCursorMove
	// commandLeave removes the connection from a room. Internal: issued by
	// the hub for implicit leaves and disconnects, never by clients.
	commandLeave
	// commandApplyRename updates membership after the identity store has
	// accepted a rename. Internal.
	commandApplyRename
	// commandInspect requests a consistent room view. Internal, used by the
	// persistence syncer and the room info endpoint.
	commandInspect
)

// Command represents an action requested by a client.
type Command struct {
	Kind        CommandKind
	Room        string
	AccountKey  string
	DisplayName string
	Credential  string
	Token       string
	PathID      string
	Points      []Point
	Color       string
	Width       float64
	X, Y        float64
}
