package store

import (
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"chainlog/jsonx"
	"chainlog/types"
)

// PostgresAdapter archives chains server-side. Values are stored as the
// same JSON envelope the other backends use, so a chain can be moved
// between backends without re-encoding.
type PostgresAdapter struct {
	db *sql.DB
}

func NewPostgresAdapter(dsn string) (*PostgresAdapter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, wrapStorage("open", err)
	}
	return &PostgresAdapter{db: db}, nil
}

func (s *PostgresAdapter) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS chainlog_blocks (
			chain_id     TEXT   NOT NULL,
			block_number BIGINT NOT NULL,
			body         JSONB  NOT NULL,
			PRIMARY KEY (chain_id, block_number)
		);
		CREATE TABLE IF NOT EXISTS chainlog_chunks (
			chain_id TEXT   NOT NULL,
			chunk_id BIGINT NOT NULL,
			body     JSONB  NOT NULL,
			PRIMARY KEY (chain_id, chunk_id)
		);`)
	return wrapStorage("initialize", errors.Wrap(err, "create tables"))
}

func (s *PostgresAdapter) StoreBlock(chainID string, block *types.Block) error {
	body, err := jsonx.Marshal(block)
	if err != nil {
		return wrapStorage("encode block", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO chainlog_blocks (chain_id, block_number, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (chain_id, block_number) DO UPDATE SET body = EXCLUDED.body`,
		chainID, int64(block.BlockNumber), body)
	return wrapStorage("store block", err)
}

func (s *PostgresAdapter) GetBlocksAfter(chainID string, blockNumber uint64) ([]*types.Block, error) {
	rows, err := s.db.Query(`
		SELECT body FROM chainlog_blocks
		WHERE chain_id = $1 AND block_number > $2
		ORDER BY block_number ASC`,
		chainID, int64(blockNumber))
	if err != nil {
		return nil, wrapStorage("read blocks", err)
	}
	return scanBlocks(rows)
}

func (s *PostgresAdapter) GetAllBlocks(chainID string) ([]*types.Block, error) {
	rows, err := s.db.Query(`
		SELECT body FROM chainlog_blocks
		WHERE chain_id = $1
		ORDER BY block_number ASC`, chainID)
	if err != nil {
		return nil, wrapStorage("read blocks", err)
	}
	return scanBlocks(rows)
}

func scanBlocks(rows *sql.Rows) ([]*types.Block, error) {
	defer rows.Close()
	var out []*types.Block
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, wrapStorage("scan block", err)
		}
		var b types.Block
		if err := jsonx.Unmarshal(body, &b); err != nil {
			return nil, wrapStorage("decode block", err)
		}
		out = append(out, &b)
	}
	return out, wrapStorage("read blocks", rows.Err())
}

func (s *PostgresAdapter) GetChunks(chainID string) ([]*types.Chunk, error) {
	rows, err := s.db.Query(`
		SELECT body FROM chainlog_chunks
		WHERE chain_id = $1
		ORDER BY chunk_id ASC`, chainID)
	if err != nil {
		return nil, wrapStorage("read chunks", err)
	}
	defer rows.Close()

	var out []*types.Chunk
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, wrapStorage("scan chunk", err)
		}
		var c types.Chunk
		if err := jsonx.Unmarshal(body, &c); err != nil {
			return nil, wrapStorage("decode chunk", err)
		}
		out = append(out, &c)
	}
	return out, wrapStorage("read chunks", rows.Err())
}

func (s *PostgresAdapter) StoreChunk(chainID string, chunk *types.Chunk) error {
	body, err := jsonx.Marshal(chunk)
	if err != nil {
		return wrapStorage("encode chunk", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO chainlog_chunks (chain_id, chunk_id, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (chain_id, chunk_id) DO UPDATE SET body = EXCLUDED.body`,
		chainID, int64(chunk.ChunkID), body)
	return wrapStorage("store chunk", err)
}

func (s *PostgresAdapter) Close() error {
	return s.db.Close()
}
