package peersync

import (
	"sort"
	"sync"

	"chainlog/types"
	"chainlog/utils"
)

// PeerTracker maintains this node's belief about what each peer holds.
// Beliefs are lower bounds, never authoritative until a sync verifies
// them. One tracker per chain, explicitly constructed and passed around.
type PeerTracker struct {
	mu    sync.RWMutex
	peers map[string]*types.PeerInfo
}

func NewPeerTracker() *PeerTracker {
	return &PeerTracker{peers: make(map[string]*types.PeerInfo)}
}

// UpdatePeer records fresh knowledge about a peer, marks it online and
// refreshes LastSeen.
func (t *PeerTracker) UpdatePeer(info types.PeerInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info.Online = true
	info.LastSeen = utils.NowMillis()
	t.peers[info.PeerID] = &info
}

// MarkOffline flips the peer offline without deleting the entry, keeping
// "known but absent" distinct from "never seen".
func (t *PeerTracker) MarkOffline(peerID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	peer, ok := t.peers[peerID]
	if !ok {
		return false
	}
	peer.Online = false
	return true
}

func (t *PeerTracker) GetPeer(peerID string) (types.PeerInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	peer, ok := t.peers[peerID]
	if !ok {
		return types.PeerInfo{}, false
	}
	return *peer, true
}

// OnlineCount returns how many known peers are currently online.
func (t *PeerTracker) OnlineCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, peer := range t.peers {
		if peer.Online {
			count++
		}
	}
	return count
}

// FindPeersWithBlocks returns the online peers whose claimed range
// overlaps any of the given block numbers.
func (t *PeerTracker) FindPeersWithBlocks(numbers []uint64) []types.PeerInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []types.PeerInfo
	for _, peer := range t.peers {
		if !peer.Online {
			continue
		}
		for _, n := range numbers {
			if n >= peer.BlockRange.Start && n <= peer.BlockRange.End {
				out = append(out, *peer)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeerID < out[j].PeerID })
	return out
}

// FindBestSyncPeer picks, among online peers holding more than
// localLatest, the one with the highest claimed end. Greedy: maximizes
// progress per round. Ties break by lexicographic peer id so the choice
// is deterministic.
func (t *PeerTracker) FindBestSyncPeer(localLatest uint64) *types.PeerInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var best *types.PeerInfo
	for _, peer := range t.peers {
		if !peer.Online || peer.BlockRange.End <= localLatest {
			continue
		}
		if best == nil ||
			peer.BlockRange.End > best.BlockRange.End ||
			(peer.BlockRange.End == best.BlockRange.End && peer.PeerID < best.PeerID) {
			best = peer
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

// AllPeers returns every known peer, online or not, ordered by id.
func (t *PeerTracker) AllPeers() []types.PeerInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]types.PeerInfo, 0, len(t.peers))
	for _, peer := range t.peers {
		out = append(out, *peer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeerID < out[j].PeerID })
	return out
}
