package http

import (
	"encoding/json"

	"github.com/vovakirdan/inkwire-server/internal/core"
	"github.com/vovakirdan/inkwire-server/internal/proto"
)

// inboundToCommand validates the envelope syntactically and maps it to a
// core command. Malformed input is answered with a protocol error before it
// can reach any stateful component.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeValidation, Msg: "roomId is required"}, nil
		}
		if join.Token == "" && join.Credential == "" {
			return nil, &proto.Error{Code: core.ErrCodeValidation, Msg: "credential or token is required"}, nil
		}
		return &core.Command{
			Kind:        core.CommandJoin,
			Room:        join.Room,
			AccountKey:  join.AccountKey,
			DisplayName: join.DisplayName,
			Credential:  join.Credential,
			Token:       join.Token,
		}, nil, nil
	case proto.InboundTypeStrokeStart:
		var start proto.StrokeStartData
		if err := json.Unmarshal(inbound.Data, &start); err != nil {
			return nil, nil, err
		}
		if start.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeValidation, Msg: "roomId is required"}, nil
		}
		if len(start.Points) == 0 {
			return nil, &proto.Error{Code: core.ErrCodeValidation, Msg: "a path needs at least one point"}, nil
		}
		return &core.Command{
			Kind:   core.CommandStrokeStart,
			Room:   start.Room,
			Points: toCorePoints(start.Points),
			Color:  start.Color,
			Width:  start.Width,
		}, nil, nil
	case proto.InboundTypeStrokeUpdate:
		var update proto.StrokeUpdateData
		if err := json.Unmarshal(inbound.Data, &update); err != nil {
			return nil, nil, err
		}
		if update.Room == "" || update.PathID == "" {
			return nil, &proto.Error{Code: core.ErrCodeValidation, Msg: "roomId and pathId are required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandStrokeUpdate,
			Room:   update.Room,
			PathID: update.PathID,
			Points: toCorePoints(update.Points),
		}, nil, nil
	case proto.InboundTypeStrokeEnd:
		var end proto.StrokeEndData
		if err := json.Unmarshal(inbound.Data, &end); err != nil {
			return nil, nil, err
		}
		if end.Room == "" || end.PathID == "" {
			return nil, &proto.Error{Code: core.ErrCodeValidation, Msg: "roomId and pathId are required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandStrokeEnd,
			Room:   end.Room,
			PathID: end.PathID,
		}, nil, nil
	case proto.InboundTypeClearOwn:
		var clear proto.ClearOwnData
		if err := json.Unmarshal(inbound.Data, &clear); err != nil {
			return nil, nil, err
		}
		if clear.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeValidation, Msg: "roomId is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandClearOwn,
			Room: clear.Room,
		}, nil, nil
	case proto.InboundTypeRename:
		var rename proto.RenameData
		if err := json.Unmarshal(inbound.Data, &rename); err != nil {
			return nil, nil, err
		}
		if rename.DisplayName == "" {
			return nil, &proto.Error{Code: core.ErrCodeValidation, Msg: "displayName is required"}, nil
		}
		return &core.Command{
			Kind:        core.CommandRename,
			DisplayName: rename.DisplayName,
		}, nil, nil
	case proto.InboundTypeCursorMove:
		var cursor proto.CursorMoveData
		if err := json.Unmarshal(inbound.Data, &cursor); err != nil {
			return nil, nil, err
		}
		if cursor.Room == "" {
			return nil, &proto.Error{Code: core.ErrCodeValidation, Msg: "roomId is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandCursorMove,
			Room: cursor.Room,
			X:    cursor.X,
			Y:    cursor.Y,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomSnapshot:
		return outboundEvent(proto.EventRoomSnapshot, proto.EventRoomSnapshotData{
			Room:    event.Room,
			Members: toProtoMembers(event.Members),
			Paths:   toProtoPaths(event.Paths),
		})
	case core.EventMemberJoined:
		return outboundEvent(proto.EventMemberJoined, proto.EventMemberJoinedData{
			Room:    event.Room,
			Member:  toProtoMember(event.Member),
			Members: toProtoMembers(event.Members),
		})
	case core.EventMemberLeft:
		return outboundEvent(proto.EventMemberLeft, proto.EventMemberLeftData{
			Room:       event.Room,
			AccountKey: event.AccountKey,
			Members:    toProtoMembers(event.Members),
		})
	case core.EventMemberRenamed:
		return outboundEvent(proto.EventMemberRenamed, proto.EventMemberRenamedData{
			Room:        event.Room,
			AccountKey:  event.AccountKey,
			DisplayName: event.DisplayName,
			Members:     toProtoMembers(event.Members),
		})
	case core.EventPathStarted:
		return outboundEvent(proto.EventPathStarted, proto.EventPathStartedData{
			Room: event.Room,
			Path: toProtoPath(event.Path),
		})
	case core.EventPathUpdated:
		return outboundEvent(proto.EventPathUpdated, proto.EventPathUpdatedData{
			Room:   event.Room,
			PathID: event.PathID,
			Points: toProtoPoints(event.Points),
		})
	case core.EventPathEnded:
		return outboundEvent(proto.EventPathEnded, proto.EventPathEndedData{
			Room:   event.Room,
			PathID: event.PathID,
		})
	case core.EventPathsCleared:
		removed := event.RemovedPathIDs
		if removed == nil {
			removed = []string{}
		}
		return outboundEvent(proto.EventPathsCleared, proto.EventPathsClearedData{
			Room:           event.Room,
			AccountKey:     event.AccountKey,
			RemovedPathIDs: removed,
		})
	case core.EventCursorMoved:
		return outboundEvent(proto.EventCursorMoved, proto.EventCursorMovedData{
			Room:       event.Room,
			AccountKey: event.AccountKey,
			X:          event.X,
			Y:          event.Y,
		})
	case core.EventRejected:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func outboundEvent(name string, data any) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: name,
		Data:  data,
	}
}

func toCorePoints(points []proto.Point) []core.Point {
	out := make([]core.Point, len(points))
	for i, p := range points {
		out[i] = core.Point{X: p.X, Y: p.Y}
	}
	return out
}

func toProtoPoints(points []core.Point) []proto.Point {
	out := make([]proto.Point, len(points))
	for i, p := range points {
		out[i] = proto.Point{X: p.X, Y: p.Y}
	}
	return out
}

func toProtoMember(m core.Member) proto.Member {
	return proto.Member{
		AccountKey:  m.AccountKey,
		DisplayName: m.DisplayName,
		Color:       m.Color,
		JoinedAt:    m.JoinedAt,
	}
}

func toProtoMembers(members []core.Member) []proto.Member {
	out := make([]proto.Member, len(members))
	for i, m := range members {
		out[i] = toProtoMember(m)
	}
	return out
}

func toProtoPath(p *core.Path) proto.Path {
	if p == nil {
		return proto.Path{}
	}
	return proto.Path{
		ID:        p.ID,
		OwnerKey:  p.OwnerKey,
		OwnerName: p.OwnerName,
		Points:    toProtoPoints(p.Points),
		Color:     p.Color,
		Width:     p.Width,
		CreatedAt: p.CreatedAt.UnixMilli(),
	}
}

func toProtoPaths(paths []*core.Path) []proto.Path {
	out := make([]proto.Path, len(paths))
	for i, p := range paths {
		out[i] = toProtoPath(p)
	}
	return out
}
