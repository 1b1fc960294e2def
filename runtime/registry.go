package runtime

import (
	"consensus-chat/contract"
	"consensus-chat/domain"
	"slices"
	"sync"

	"github.com/samber/lo"
)

type member struct {
	userName string
	peer     contract.Peer
}

type Set map[string]member

// Registry is the presence directory of the development room server.
// One user may be connected several times (two tabs), it is listed once.
type Registry struct {
	mu          sync.RWMutex
	roomMembers map[domain.RoomID]Set // map room to peers
}

func NewRegistry() *Registry {
	return &Registry{
		roomMembers: make(map[domain.RoomID]Set),
	}
}

// Join registers a peer in a room and returns the online users.
// If the room does not yet exist in the registry, it is initialized on the fly.
func (r *Registry) Join(roomID domain.RoomID, peerID string, userName string, peer contract.Peer) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.roomMembers[roomID]; !ok {
		r.roomMembers[roomID] = make(Set)
	}
	r.roomMembers[roomID][peerID] = member{userName: userName, peer: peer}
	return r.onlineLocked(roomID)
}

// Leave removes a peer and returns the users still online.
// No empty sets are left in the room map.
func (r *Registry) Leave(roomID domain.RoomID, peerID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.roomMembers[roomID]; ok {
		delete(members, peerID)

		// If no one is left in the room, remove the room entry entirely
		if len(members) == 0 {
			delete(r.roomMembers, roomID)
		}
	}
	return r.onlineLocked(roomID)
}

// Peers returns the outbound side of every connection of a room.
func (r *Registry) Peers(roomID domain.RoomID) []contract.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[roomID]
	if !ok {
		return nil
	}
	return lo.MapToSlice(members, func(_ string, m member) contract.Peer { return m.peer })
}

func (r *Registry) Online(roomID domain.RoomID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onlineLocked(roomID)
}

func (r *Registry) onlineLocked(roomID domain.RoomID) []string {
	names := lo.Uniq(lo.MapToSlice(r.roomMembers[roomID], func(_ string, m member) string { return m.userName }))
	slices.Sort(names)
	return names
}
