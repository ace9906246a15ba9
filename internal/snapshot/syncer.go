// Package snapshot persists the in-memory drawing state on a cadence.
// Durability is best-effort relative to availability: a failed write is
// logged and retried on the next cadence, never aborting the mutation
// that triggered it.
package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/inkwire-server/internal/core"
	"github.com/vovakirdan/inkwire-server/internal/store"
)

// Syncer flushes room snapshots to durable storage periodically and right
// after high-value mutations (stroke end, clear, account creation).
type Syncer struct {
	hub      *core.Hub
	store    store.CanvasStore
	interval time.Duration
	kick     chan struct{}
	log      *zerolog.Logger
}

// New constructs a syncer and hooks it into the hub's commit notifications.
func New(hub *core.Hub, canvasStore store.CanvasStore, interval time.Duration, logger *zerolog.Logger) *Syncer {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	s := &Syncer{
		hub:      hub,
		store:    canvasStore,
		interval: interval,
		kick:     make(chan struct{}, 1),
		log:      logger,
	}
	hub.OnCommit(s.Kick)
	return s
}

// Kick requests a flush soon. Coalescing: kicks while a flush is pending
// fold into one. Never blocks, so it is safe to call from room actors.
func (s *Syncer) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run flushes until the context is cancelled. The application performs the
// final shutdown flush itself, before it stops the hub.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush(context.Background())
		case <-s.kick:
			s.Flush(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Flush writes a snapshot of every room. Snapshots are taken inside each
// room's actor (cheap in-memory copy); the durable write happens here,
// outside any room's serialization point.
func (s *Syncer) Flush(ctx context.Context) {
	for _, view := range s.hub.SnapshotAll() {
		records := make([]store.PathRecord, 0, len(view.Paths))
		for i, p := range view.Paths {
			points, err := json.Marshal(p.Points)
			if err != nil {
				s.log.Error().Err(err).Str("path_id", p.ID).Msg("encode path points")
				continue
			}
			records = append(records, store.PathRecord{
				ID:        p.ID,
				RoomID:    view.ID,
				OwnerKey:  p.OwnerKey,
				OwnerName: p.OwnerName,
				Color:     p.Color,
				Width:     p.Width,
				Points:    points,
				Seq:       i,
				CreatedAt: p.CreatedAt,
			})
		}
		if err := s.store.SaveRoomPaths(ctx, view.ID, view.CreatedAt, records); err != nil {
			s.log.Error().Err(err).Str("room", view.ID).Msg("persist room snapshot")
		}
	}
}
