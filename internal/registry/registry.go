// Package registry tracks which live transport connection, if any, is bound
// to each account. It is the single enforcement point for the one-online-
// connection-per-account invariant.
package registry

import (
	"errors"
	"sync"
	"time"
)

// ErrAlreadyOnline is returned when an account already has a live connection.
var ErrAlreadyOnline = errors.New("account already logged in elsewhere")

// Connection is one transport session bound to an account.
type Connection struct {
	ID          string
	AccountKey  string
	DisplayName string
	IP          string
	JoinedAt    time.Time
	Online      bool
}

// Registry is a process-wide map of live connections.
type Registry struct {
	mu     sync.Mutex
	byConn map[string]*Connection
	byKey  map[string]string // accountKey -> online connection id
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{
		byConn: make(map[string]*Connection),
		byKey:  make(map[string]string),
	}
}

// Register binds a connection to an account. Re-registering the same
// connection id (room switch) updates the record; a second connection for
// an account that is already online fails with ErrAlreadyOnline.
func (r *Registry) Register(connID, accountKey, displayName, ip string) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if otherID, ok := r.byKey[accountKey]; ok && otherID != connID {
		return nil, ErrAlreadyOnline
	}

	conn, ok := r.byConn[connID]
	if !ok {
		conn = &Connection{
			ID:       connID,
			JoinedAt: time.Now(),
		}
		r.byConn[connID] = conn
	} else if conn.AccountKey != accountKey && r.byKey[conn.AccountKey] == connID {
		// Same connection switching accounts: release the old binding.
		delete(r.byKey, conn.AccountKey)
	}
	conn.AccountKey = accountKey
	conn.DisplayName = displayName
	conn.IP = ip
	conn.Online = true
	r.byKey[accountKey] = connID

	return snapshot(conn), nil
}

// Unregister marks a connection offline. The record is retained with its
// last-known metadata for diagnostics.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.byConn[connID]
	if !ok {
		return
	}
	conn.Online = false
	if r.byKey[conn.AccountKey] == connID {
		delete(r.byKey, conn.AccountKey)
	}
}

// Rename updates the display name recorded for a connection.
func (r *Registry) Rename(connID, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.byConn[connID]; ok {
		conn.DisplayName = displayName
	}
}

// Find returns the connection record for the given id, if any.
func (r *Registry) Find(connID string) (*Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}
	return snapshot(conn), true
}

// Online reports whether the account has a live connection.
func (r *Registry) Online(accountKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.byKey[accountKey]
	return ok
}

// OnlineCount returns the number of accounts currently online.
func (r *Registry) OnlineCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.byKey)
}

func snapshot(c *Connection) *Connection {
	cp := *c
	return &cp
}
