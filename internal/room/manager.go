package room

import (
	"crypto/rand"
	"math/big"
	"slices"
	"strings"
	"sync"
)

// RoomInfo is returned by the API for the room list.
type RoomInfo struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
}

// Manager holds rooms by code. Rooms are created on first join or via Create,
// and removed when the last member leaves.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	opts  Options
}

func NewManager(opts Options) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		opts:  opts,
	}
}

// GetOrCreate returns the room for code, starting it if needed.
func (m *Manager) GetOrCreate(code string) *Room {
	if code == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[code]; ok {
		return r
	}
	return m.start(code)
}

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Create generates a unique 6-char code, starts the room and returns the code.
func (m *Manager) Create() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code := generateCode(6)
		if _, exists := m.rooms[code]; exists {
			continue
		}
		m.start(code)
		return code
	}
}

func (m *Manager) start(code string) *Room {
	r := New(m.opts)
	r.Code = code
	r.OnEmpty = func(string) { m.remove(r) }
	m.rooms[code] = r
	go r.Run()
	return r
}

func (m *Manager) remove(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rooms[r.Code]; ok && cur == r {
		delete(m.rooms, r.Code)
	}
	r.Stop()
}

// List returns all active rooms ordered by code.
func (m *Manager) List() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for code, r := range m.rooms {
		out = append(out, RoomInfo{Code: code, Players: r.NumPlayers()})
	}
	slices.SortFunc(out, func(a, b RoomInfo) int { return strings.Compare(a.Code, b.Code) })
	return out
}

// Shutdown stops every room.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, r := range m.rooms {
		r.Stop()
		delete(m.rooms, code)
	}
}

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
