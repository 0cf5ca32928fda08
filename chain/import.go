package chain

import (
	"fmt"
	"sort"

	"chainlog/events"
	"chainlog/integrity"
	"chainlog/logx"
	"chainlog/monitoring"
	"chainlog/types"
)

// ImportResult reports the outcome of one import batch. Pending blocks
// were neither accepted nor rejected: their predecessor has not arrived
// yet and they are retried on later imports.
type ImportResult struct {
	Accepted []*types.Block
	Rejected []Rejection
	Pending  []*types.Block
}

// ImportBlocks validates and applies externally received blocks. The
// batch is processed in ascending block-number order regardless of input
// order, so forward links resolve within the same call. Per-block
// violations are collected into the result; only storage and
// configuration failures abort the batch.
func (m *Manager) ImportBlocks(batch []*types.Block) (*ImportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureReady(); err != nil {
		return nil, err
	}
	if len(m.signingKey) == 0 {
		return nil, &ConfigurationError{Reason: "no signing key configured for chain " + m.chainID}
	}

	sorted := make([]*types.Block, 0, len(batch))
	for _, b := range batch {
		if b != nil {
			sorted = append(sorted, b.Clone())
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].BlockNumber < sorted[j].BlockNumber
	})

	result := &ImportResult{}
	dirty := make(map[uint64]bool)
	for _, blk := range sorted {
		if err := m.importOne(blk, result, dirty); err != nil {
			m.finishImport(result, dirty)
			return result, err
		}
	}
	m.finishImport(result, dirty)
	return result, nil
}

// finishImport refreshes affected chunks, recomputes derived state and
// publishes events for whatever part of the batch was applied.
func (m *Manager) finishImport(result *ImportResult, dirty map[uint64]bool) {
	for chunkID := range dirty {
		m.refreshChunk(chunkID)
	}
	m.recomputeState()

	monitoring.AddBlocksImported(len(result.Accepted))
	monitoring.SetChainHeight(m.chainID, m.state.LatestBlock)

	if m.bus != nil && (len(result.Accepted) > 0 || len(result.Rejected) > 0) {
		m.bus.Publish(events.NewBlocksImported(m.chainID, len(result.Accepted), len(result.Rejected), m.state.LatestBlock))
		if len(m.state.Gaps) > 0 {
			m.bus.Publish(events.NewGapDetected(m.chainID, m.snapshotState().Gaps))
		}
	}
}

func (m *Manager) importOne(blk *types.Block, result *ImportResult, dirty map[uint64]bool) error {
	if !integrity.VerifyBlockHash(blk) {
		m.reject(result, blk, ViolationIntegrity, "block hash does not match content")
		return nil
	}
	if !integrity.VerifyBlockSignature(blk, m.signingKey) {
		// signature failures are a potential malicious-peer signal
		logx.Warn("CHAIN", fmt.Sprintf("Block %d on chain %s carries an invalid signature", blk.BlockNumber, m.chainID))
		m.reject(result, blk, ViolationAuthenticity, "signature does not verify against the chain key")
		return nil
	}

	if existing, ok := m.blocks[blk.BlockNumber]; ok {
		if existing.BlockHash == blk.BlockHash {
			m.mergeConfirmations(existing, blk)
			return nil
		}
		return m.resolveFork(existing, blk, result, dirty)
	}

	if blk.BlockNumber == 0 {
		if blk.PreviousHash != "" {
			m.reject(result, blk, ViolationIntegrity, "genesis block carries a previous hash")
			return nil
		}
	} else {
		pred, ok := m.blocks[blk.BlockNumber-1]
		if !ok {
			// Hold until the predecessor arrives; out-of-order batches
			// resolve through flushPending as earlier numbers land.
			m.pending[blk.BlockNumber] = append(m.pending[blk.BlockNumber], blk)
			result.Pending = append(result.Pending, blk)
			return nil
		}
		if blk.PreviousHash != pred.BlockHash {
			m.reject(result, blk, ViolationIntegrity, "previous hash does not link to local predecessor")
			return nil
		}
	}

	if err := m.adapter.StoreBlock(m.chainID, blk); err != nil {
		return err
	}
	m.blocks[blk.BlockNumber] = blk
	m.byHash[blk.BlockHash] = blk.BlockNumber
	dirty[blk.ChunkID] = true
	result.Accepted = append(result.Accepted, blk)

	return m.flushPending(blk.BlockNumber+1, result, dirty)
}

// flushPending retries blocks that were waiting for the block numbered
// n-1, which has just been accepted.
func (m *Manager) flushPending(n uint64, result *ImportResult, dirty map[uint64]bool) error {
	candidates, ok := m.pending[n]
	if !ok {
		return nil
	}
	delete(m.pending, n)
	for _, c := range candidates {
		if err := m.importOne(c, result, dirty); err != nil {
			return err
		}
	}
	return nil
}

// resolveFork applies first-writer-wins to two blocks claiming the same
// number: the earlier CreatedAt wins; equal timestamps break by
// lexicographic block hash. The loser is always reported, never silently
// dropped.
func (m *Manager) resolveFork(existing, incoming *types.Block, result *ImportResult, dirty map[uint64]bool) error {
	incomingWins := incoming.CreatedAt < existing.CreatedAt ||
		(incoming.CreatedAt == existing.CreatedAt && incoming.BlockHash < existing.BlockHash)

	if !incomingWins {
		m.reject(result, incoming, ViolationFork, fmt.Sprintf("block %d already held by earlier writer", incoming.BlockNumber))
		return nil
	}

	if err := m.adapter.StoreBlock(m.chainID, incoming); err != nil {
		return err
	}
	delete(m.byHash, existing.BlockHash)
	m.blocks[incoming.BlockNumber] = incoming
	m.byHash[incoming.BlockHash] = incoming.BlockNumber
	dirty[incoming.ChunkID] = true

	result.Accepted = append(result.Accepted, incoming)
	m.reject(result, existing, ViolationFork, fmt.Sprintf("block %d displaced by earlier writer", existing.BlockNumber))

	logx.Warn("CHAIN", fmt.Sprintf("Fork at block %d on chain %s resolved: %s wins over %s",
		incoming.BlockNumber, m.chainID, incoming.BlockHash, existing.BlockHash))
	if m.bus != nil {
		m.bus.Publish(events.NewForkResolved(m.chainID, incoming.BlockNumber, incoming.BlockHash, existing.BlockHash))
	}
	return nil
}

func (m *Manager) reject(result *ImportResult, blk *types.Block, kind ViolationKind, detail string) {
	result.Rejected = append(result.Rejected, Rejection{Block: blk, Kind: kind, Detail: detail})
	switch kind {
	case ViolationIntegrity:
		monitoring.IncreaseRejectedBlocks(monitoring.BlockRejectedIntegrity)
	case ViolationAuthenticity:
		monitoring.IncreaseRejectedBlocks(monitoring.BlockRejectedAuthenticity)
	case ViolationFork:
		monitoring.IncreaseRejectedBlocks(monitoring.BlockRejectedFork)
	}
}

// mergeConfirmations unions receipt confirmations of a duplicate of an
// already-held block.
func (m *Manager) mergeConfirmations(existing, duplicate *types.Block) {
	changed := false
	for _, id := range duplicate.ConfirmedBy {
		if !existing.HasConfirmation(id) {
			existing.ConfirmedBy = append(existing.ConfirmedBy, id)
			changed = true
		}
	}
	if changed {
		if err := m.adapter.StoreBlock(m.chainID, existing); err != nil {
			logx.Warn("CHAIN", fmt.Sprintf("Failed to persist confirmations for block %d: %v", existing.BlockNumber, err))
		}
	}
}
