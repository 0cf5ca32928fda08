package peersync

import (
	"fmt"
	"sync"
	"time"

	"chainlog/config"
	"chainlog/logx"
	"chainlog/monitoring"
)

// State is the sync state machine: idle -> syncing -> idle on success,
// idle -> syncing -> error on failure or timeout. Error is not sticky;
// it auto-resets on the next CanSync check.
type State string

const (
	StateIdle    State = "idle"
	StateSyncing State = "syncing"
	StateError   State = "error"
)

// SyncError is one entry of the bounded error history.
type SyncError struct {
	Reason string
	PeerID string
	At     time.Time
}

// Config tunes one sync manager.
type Config struct {
	MinSyncInterval time.Duration
	Timeout         time.Duration
	BatchSize       int
	MaxErrorLog     int
}

func DefaultConfig() *Config {
	return &Config{
		MinSyncInterval: config.MinSyncInterval,
		Timeout:         config.SyncTimeout,
		BatchSize:       config.BatchSize,
		MaxErrorLog:     config.MaxSyncErrorLog,
	}
}

// ConfigFrom converts loaded sync tuning into a sync manager config.
func ConfigFrom(sc *config.SyncConfig) *Config {
	return &Config{
		MinSyncInterval: time.Duration(sc.MinSyncIntervalMs) * time.Millisecond,
		Timeout:         time.Duration(sc.SyncTimeoutMs) * time.Millisecond,
		BatchSize:       sc.BatchSize,
		MaxErrorLog:     config.MaxSyncErrorLog,
	}
}

// SyncManager drives one chain's sync exchanges with peers. It only
// tracks protocol state; moving bytes is the transport's job.
type SyncManager struct {
	mu             sync.Mutex
	cfg            *Config
	state          State
	currentPeer    string
	startedAt      time.Time
	lastSync       time.Time
	blocksReceived int
	errorLog       []SyncError
}

func NewSyncManager(cfg *Config) *SyncManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &SyncManager{cfg: cfg, state: StateIdle}
}

// CanSync reports whether a new sync round may start. False while a sync
// runs and within MinSyncInterval of the last one; an expired in-flight
// sync is failed with a timeout first, and a previous error resets here.
func (s *SyncManager) CanSync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateError {
		s.state = StateIdle
	}
	if s.state == StateSyncing {
		if time.Since(s.startedAt) > s.cfg.Timeout {
			s.failLocked("sync_timeout")
		}
		return false
	}
	if !s.lastSync.IsZero() && time.Since(s.lastSync) < s.cfg.MinSyncInterval {
		return false
	}
	return true
}

// StartSync transitions to syncing against the given peer and resets the
// per-sync counters.
func (s *SyncManager) StartSync(peerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSyncing {
		return fmt.Errorf("sync already in progress with peer %s", s.currentPeer)
	}
	s.state = StateSyncing
	s.currentPeer = peerID
	s.startedAt = time.Now()
	s.blocksReceived = 0
	logx.Debug("SYNC", "Starting sync with peer ", peerID)
	return nil
}

// RecordBlocksReceived accumulates the verified batch sizes of the
// current round.
func (s *SyncManager) RecordBlocksReceived(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocksReceived += n
}

// CompleteSync returns to idle and stamps LastSync.
func (s *SyncManager) CompleteSync() {
	s.mu.Lock()
	defer s.mu.Unlock()

	monitoring.IncreaseSyncRounds()
	monitoring.ObserveSyncBatch(s.blocksReceived)
	logx.Info("SYNC", fmt.Sprintf("Sync with peer %s complete | blocks=%d", s.currentPeer, s.blocksReceived))

	s.state = StateIdle
	s.currentPeer = ""
	s.lastSync = time.Now()
}

// FailSync transitions to error. The caller discards whatever partial
// batch it was holding; nothing of a failed round is applied.
func (s *SyncManager) FailSync(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLocked(reason)
}

func (s *SyncManager) failLocked(reason string) {
	monitoring.IncreaseSyncFailures()
	logx.Warn("SYNC", fmt.Sprintf("Sync with peer %s failed: %s", s.currentPeer, reason))

	s.errorLog = append(s.errorLog, SyncError{Reason: reason, PeerID: s.currentPeer, At: time.Now()})
	if len(s.errorLog) > s.cfg.MaxErrorLog {
		s.errorLog = s.errorLog[len(s.errorLog)-s.cfg.MaxErrorLog:]
	}
	s.state = StateError
	s.currentPeer = ""
}

func (s *SyncManager) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SyncManager) CurrentPeer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPeer
}

func (s *SyncManager) LastSync() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSync
}

func (s *SyncManager) BlocksReceived() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocksReceived
}

// ErrorLog returns a copy of the retained error history, oldest first.
func (s *SyncManager) ErrorLog() []SyncError {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SyncError, len(s.errorLog))
	copy(out, s.errorLog)
	return out
}
