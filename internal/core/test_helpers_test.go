package core

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/inkwire-server/internal/auth"
	"github.com/vovakirdan/inkwire-server/internal/registry"
	"github.com/vovakirdan/inkwire-server/internal/store"
)

// fakeIdentity is an in-memory identity store for hub tests.
type fakeIdentity struct {
	mu       sync.Mutex
	accounts map[string]*store.Account
	secrets  map[string]string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		accounts: make(map[string]*store.Account),
		secrets:  make(map[string]string),
	}
}

func (f *fakeIdentity) Authenticate(_ context.Context, accountKey, displayName, credential string) (*store.Account, bool, error) {
	if err := auth.ValidateCredential(credential); err != nil {
		return nil, false, err
	}
	if err := auth.ValidateDisplayName(displayName); err != nil {
		return nil, false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := auth.NormalizeKey(accountKey)
	if key == "" {
		key = auth.NormalizeKey(displayName)
	}

	if existing, ok := f.accounts[key]; ok {
		if f.secrets[key] != credential {
			return nil, false, auth.ErrInvalidCredential
		}
		cp := *existing
		return &cp, false, nil
	}

	account := &store.Account{
		Key:         key,
		DisplayName: strings.TrimSpace(displayName),
		Color:       "#45B7D1",
		CreatedAt:   time.Now(),
		LastLoginAt: time.Now(),
	}
	f.accounts[key] = account
	f.secrets[key] = credential
	cp := *account
	return &cp, true, nil
}

func (f *fakeIdentity) TokenLogin(context.Context, string) (*store.Account, error) {
	return nil, auth.ErrInvalidToken
}

func (f *fakeIdentity) Rename(_ context.Context, accountKey, newDisplayName string) (*store.Account, error) {
	if err := auth.ValidateDisplayName(newDisplayName); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := auth.NormalizeKey(accountKey)
	account, ok := f.accounts[key]
	if !ok {
		return nil, store.ErrNotFound
	}

	trimmed := strings.TrimSpace(newDisplayName)
	normalized := auth.NormalizeKey(trimmed)
	for otherKey, other := range f.accounts {
		if otherKey == key {
			continue
		}
		if otherKey == normalized || auth.NormalizeKey(other.DisplayName) == normalized {
			return nil, auth.ErrNameTaken
		}
	}

	account.DisplayName = trimmed
	cp := *account
	return &cp, nil
}

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(newFakeIdentity(), registry.New(), 2*time.Second, testLogger())
	t.Cleanup(hub.Close)
	return hub
}

func newHubForBench() *Hub {
	return NewHub(newFakeIdentity(), registry.New(), 2*time.Second, testLogger())
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v received: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func joinRoom(t *testing.T, hub *Hub, c *Client, room, name, credential string) *Event {
	t.Helper()

	c.Commands <- &Command{
		Kind:        CommandJoin,
		Room:        room,
		DisplayName: name,
		Credential:  credential,
	}
	return mustEvent(t, c.Events, EventRoomSnapshot)
}
