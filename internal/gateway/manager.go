package gateway

import (
	"sync"
)

// Manager tracks the live connections of this process.
type Manager struct {
	connections map[int64]*Connection
	userConns   map[string]map[int64]*Connection // uid -> connID -> Connection
	mu          sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		connections: make(map[int64]*Connection),
		userConns:   make(map[string]map[int64]*Connection),
	}
}

func (m *Manager) Add(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connections[conn.ID()] = conn
	if _, ok := m.userConns[conn.UserID()]; !ok {
		m.userConns[conn.UserID()] = make(map[int64]*Connection)
	}
	m.userConns[conn.UserID()][conn.ID()] = conn
}

// Remove forgets connID. It reports whether the connection was still
// registered, so callers can run cleanup exactly once.
func (m *Manager) Remove(connID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[connID]
	if !ok {
		return false
	}
	delete(m.connections, connID)

	if userConns, ok := m.userConns[conn.UserID()]; ok {
		delete(userConns, connID)
		if len(userConns) == 0 {
			delete(m.userConns, conn.UserID())
		}
	}
	return true
}

func (m *Manager) Get(connID int64) *Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connections[connID]
}

func (m *Manager) GetByUserID(userID string) []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userConns, ok := m.userConns[userID]
	if !ok {
		return nil
	}

	conns := make([]*Connection, 0, len(userConns))
	for _, conn := range userConns {
		conns = append(conns, conn)
	}
	return conns
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// GetAllConnections returns a copy of the live connections.
func (m *Manager) GetAllConnections() []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := make([]*Connection, 0, len(m.connections))
	for _, conn := range m.connections {
		conns = append(conns, conn)
	}
	return conns
}

// CloseAll closes every connection. Their read loops unregister them.
func (m *Manager) CloseAll() {
	for _, conn := range m.GetAllConnections() {
		conn.Close()
	}
}
