package config

// StorageConfig selects and parameterizes the persistence backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory | leveldb | bolt | postgres
	Dir     string `yaml:"dir"`     // leveldb/bolt data directory
	DSN     string `yaml:"dsn"`     // postgres connection string
}

// PeerConfig is a statically known peer of this chain.
type PeerConfig struct {
	PeerID      string `yaml:"peer_id"`
	DisplayName string `yaml:"display_name"`
}

// ChainConfig holds one chain's configuration from chain.yml.
type ChainConfig struct {
	ChainID    string        `yaml:"chain_id"`
	SelfID     string        `yaml:"self_id"`
	SecretPath string        `yaml:"secret_path"`
	Storage    StorageConfig `yaml:"storage"`
	Peers      []PeerConfig  `yaml:"peers"`
}

// ConfigFile is the top-level structure for chain.yml
type ConfigFile struct {
	Config ChainConfig `yaml:"config"`
}

// SyncConfig carries sync tuning loaded from the [sync] ini section.
type SyncConfig struct {
	ChunkSize         uint64 `ini:"chunk_size"`
	BatchSize         int    `ini:"batch_size"`
	MinSyncIntervalMs int    `ini:"min_sync_interval_ms"`
	SyncTimeoutMs     int    `ini:"sync_timeout_ms"`
}
