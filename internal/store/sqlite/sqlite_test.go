package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/inkwire-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func testAccount(key string) *store.Account {
	now := time.Now().UTC().Truncate(time.Second)
	return &store.Account{
		Key:            key,
		DisplayName:    key,
		CredentialHash: "$2a$10$fakehash",
		Color:          "#FF6B6B",
		CreatedAt:      now,
		LastLoginAt:    now,
	}
}

func TestAccountRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	account := testAccount("artist1")
	account.DisplayName = "Artist1"
	if err := st.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	loaded, err := st.GetAccountByKey(ctx, "artist1")
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if loaded.DisplayName != "Artist1" {
		t.Fatalf("expected display name Artist1, got %q", loaded.DisplayName)
	}
	if loaded.CredentialHash != account.CredentialHash {
		t.Fatalf("credential hash mismatch: %q", loaded.CredentialHash)
	}
	if loaded.Color != "#FF6B6B" {
		t.Fatalf("color mismatch: %q", loaded.Color)
	}
}

func TestGetAccountByKey_NotFound(t *testing.T) {
	st := newTestStore(t)

	if _, err := st.GetAccountByKey(context.Background(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateDisplayName(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateAccount(ctx, testAccount("artist1")); err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	if err := st.UpdateDisplayName(ctx, "artist1", "Picasso"); err != nil {
		t.Fatalf("update display name failed: %v", err)
	}

	loaded, err := st.GetAccountByKey(ctx, "artist1")
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if loaded.DisplayName != "Picasso" {
		t.Fatalf("expected display name Picasso, got %q", loaded.DisplayName)
	}

	if err := st.UpdateDisplayName(ctx, "ghost", "Nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing account, got %v", err)
	}
}

func TestFindAccountByDisplayName(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	account := testAccount("artist1")
	account.DisplayName = "Artist1"
	if err := st.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	found, err := st.FindAccountByDisplayName(ctx, "artist1")
	if err != nil {
		t.Fatalf("find by display name failed: %v", err)
	}
	if found.Key != "artist1" {
		t.Fatalf("expected key artist1, got %q", found.Key)
	}

	if _, err := st.FindAccountByDisplayName(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateLastLogin(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateAccount(ctx, testAccount("artist1")); err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	at := time.Now().UTC().Truncate(time.Second).Add(time.Hour)
	if err := st.UpdateLastLogin(ctx, "artist1", at); err != nil {
		t.Fatalf("update last login failed: %v", err)
	}

	loaded, err := st.GetAccountByKey(ctx, "artist1")
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if !loaded.LastLoginAt.Equal(at) {
		t.Fatalf("expected last login %v, got %v", at, loaded.LastLoginAt)
	}
}

func testPath(id, room, owner string, seq int) store.PathRecord {
	return store.PathRecord{
		ID:        id,
		RoomID:    room,
		OwnerKey:  owner,
		OwnerName: owner,
		Color:     "#4ECDC4",
		Width:     3,
		Points:    []byte(`[{"x":1,"y":2},{"x":3,"y":4}]`),
		Seq:       seq,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestSaveAndLoadRoomPaths(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Second)
	paths := []store.PathRecord{
		testPath("p1", "main", "artist1", 0),
		testPath("p2", "main", "artist2", 1),
	}
	if err := st.SaveRoomPaths(ctx, "main", created, paths); err != nil {
		t.Fatalf("save room paths failed: %v", err)
	}

	rooms, err := st.LoadRooms(ctx)
	if err != nil {
		t.Fatalf("load rooms failed: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(rooms))
	}
	room := rooms[0]
	if room.ID != "main" {
		t.Fatalf("expected room main, got %q", room.ID)
	}
	if len(room.Paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(room.Paths))
	}
	if room.Paths[0].ID != "p1" || room.Paths[1].ID != "p2" {
		t.Fatalf("paths out of order: %q, %q", room.Paths[0].ID, room.Paths[1].ID)
	}
	if string(room.Paths[0].Points) != `[{"x":1,"y":2},{"x":3,"y":4}]` {
		t.Fatalf("points mismatch: %s", room.Paths[0].Points)
	}
}

func TestSaveRoomPaths_ReplacesExisting(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Second)
	first := []store.PathRecord{
		testPath("p1", "main", "artist1", 0),
		testPath("p2", "main", "artist1", 1),
	}
	if err := st.SaveRoomPaths(ctx, "main", created, first); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	// A full replace drops paths cleared since the last snapshot.
	second := []store.PathRecord{
		testPath("p3", "main", "artist2", 0),
	}
	if err := st.SaveRoomPaths(ctx, "main", created, second); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	rooms, err := st.LoadRooms(ctx)
	if err != nil {
		t.Fatalf("load rooms failed: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("expected 1 room, got %d", len(rooms))
	}
	if len(rooms[0].Paths) != 1 || rooms[0].Paths[0].ID != "p3" {
		t.Fatalf("expected only p3 after replace, got %+v", rooms[0].Paths)
	}
}

func TestSaveRoomPaths_EmptyRoomPersists(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Second)
	if err := st.SaveRoomPaths(ctx, "empty", created, nil); err != nil {
		t.Fatalf("save empty room failed: %v", err)
	}

	rooms, err := st.LoadRooms(ctx)
	if err != nil {
		t.Fatalf("load rooms failed: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != "empty" {
		t.Fatalf("expected empty room record, got %+v", rooms)
	}
	if len(rooms[0].Paths) != 0 {
		t.Fatalf("expected no paths, got %d", len(rooms[0].Paths))
	}
}

func TestLoadRooms_MultipleRooms(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	if err := st.SaveRoomPaths(ctx, "main", now, []store.PathRecord{testPath("p1", "main", "artist1", 0)}); err != nil {
		t.Fatalf("save main failed: %v", err)
	}
	if err := st.SaveRoomPaths(ctx, "side", now.Add(time.Second), []store.PathRecord{testPath("p2", "side", "artist2", 0)}); err != nil {
		t.Fatalf("save side failed: %v", err)
	}

	rooms, err := st.LoadRooms(ctx)
	if err != nil {
		t.Fatalf("load rooms failed: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	byID := make(map[string]store.RoomRecord, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
	}
	if len(byID["main"].Paths) != 1 || byID["main"].Paths[0].ID != "p1" {
		t.Fatalf("main room paths wrong: %+v", byID["main"].Paths)
	}
	if len(byID["side"].Paths) != 1 || byID["side"].Paths[0].ID != "p2" {
		t.Fatalf("side room paths wrong: %+v", byID["side"].Paths)
	}
}
